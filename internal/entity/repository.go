package entity

import (
	"context"
	"fmt"
	"strings"

	"github.com/odyssey-erp/entityadmin/internal/csvrow"
	"github.com/odyssey-erp/entityadmin/internal/sqlapi"
)

const (
	listQueryName = "entities"
	getQueryName  = "entity"
)

// Gateway is the subset of the SQL API client used by the repository.
type Gateway interface {
	ExecuteQueries(ctx context.Context, req sqlapi.ExecuteRequest) (sqlapi.ExecuteResponse, error)
	Save(ctx context.Context, req sqlapi.SaveRequest) error
	Hierarchy(ctx context.Context) ([]sqlapi.Node, error)
}

// Repository reads and writes entity rows.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Entity, int, error)
	Get(ctx context.Context, id string) (Entity, error)
	Save(ctx context.Context, payload csvrow.Payload) error
	Hierarchy(ctx context.Context) ([]sqlapi.Node, error)
}

type repository struct {
	gateway Gateway
}

// NewRepository returns a Repository backed by the SQL API.
func NewRepository(gateway Gateway) Repository {
	return &repository{gateway: gateway}
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Entity, int, error) {
	filters = filters.Normalize()
	var conditions []sqlapi.Condition
	if !filters.IncludeDeleted {
		conditions = append(conditions, sqlapi.Condition{ColumnName: ColIsDeleted, Operator: "equals", Value: "false"})
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		conditions = append(conditions, sqlapi.Condition{ColumnName: ColDisplayName, Operator: "contains", Value: search})
	}
	resp, err := r.gateway.ExecuteQueries(ctx, sqlapi.ExecuteRequest{
		SQLQueries: []sqlapi.NamedQuery{{
			Name:                listQueryName,
			Query:               entityQuery(conditions, filters.Page, filters.PageSize),
			IncludeRecordsCount: true,
		}},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("entity: list: %w", err)
	}
	table, total, err := resp.Table(listQueryName)
	if err != nil {
		return nil, 0, fmt.Errorf("entity: list: %w", err)
	}
	items := FromTable(table)
	if total < len(items) {
		total = len(items)
	}
	return items, total, nil
}

func (r *repository) Get(ctx context.Context, id string) (Entity, error) {
	resp, err := r.gateway.ExecuteQueries(ctx, sqlapi.ExecuteRequest{
		SQLQueries: []sqlapi.NamedQuery{{
			Name: getQueryName,
			Query: entityQuery([]sqlapi.Condition{
				{ColumnName: ColID, Operator: "equals", Value: id},
			}, 1, 1),
		}},
	})
	if err != nil {
		return Entity{}, fmt.Errorf("entity: get %s: %w", id, err)
	}
	table, _, err := resp.Table(getQueryName)
	if err != nil {
		return Entity{}, fmt.Errorf("entity: get %s: %w", id, err)
	}
	if len(table.Records) == 0 {
		return Entity{}, ErrNotFound
	}
	return FromRecord(table.Records[0]), nil
}

func (r *repository) Save(ctx context.Context, payload csvrow.Payload) error {
	return r.gateway.Save(ctx, sqlapi.NewSaveRequest(TableName, UniqueColumn, payload))
}

func (r *repository) Hierarchy(ctx context.Context) ([]sqlapi.Node, error) {
	return r.gateway.Hierarchy(ctx)
}

func entityQuery(conditions []sqlapi.Condition, page, pageSize int) sqlapi.Query {
	columns := make([]sqlapi.ColumnSpec, 0, len(Columns))
	for _, c := range Columns {
		columns = append(columns, sqlapi.ColumnSpec{DBColumnName: c})
	}
	q := sqlapi.Query{
		Columns:  columns,
		Tables:   []string{TableName},
		Page:     page,
		PageSize: pageSize,
	}
	if len(conditions) > 0 {
		q.SearchFilter = &sqlapi.SearchFilter{Conditions: conditions, LogicalOperator: "AND"}
	}
	return q
}
