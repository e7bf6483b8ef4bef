// Package lookup serves the reference lists used by the entity forms:
// currencies, countries and states.
package lookup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/odyssey-erp/entityadmin/internal/sqlapi"
)

// Option is one entry of a lookup list.
type Option struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CountryID string `json:"countryId,omitempty"`
}

// Querier runs SQL query definitions; *sqlapi.Client implements it.
type Querier interface {
	ExecuteQueries(ctx context.Context, req sqlapi.ExecuteRequest) (sqlapi.ExecuteResponse, error)
}

type source struct {
	kind       string
	table      string
	nameColumn string
}

var (
	currencies = source{kind: "currencies", table: "currencies", nameColumn: "currencyName"}
	countries  = source{kind: "countries", table: "countries", nameColumn: "countryName"}
	states     = source{kind: "states", table: "states", nameColumn: "stateName"}
)

const (
	countryColumn = "countryId"
	maxPageSize   = 1000
)

// Service loads lookup lists through the SQL API and caches them.
type Service struct {
	querier Querier
	cache   *Cache
	group   singleflight.Group
	tag     language.Tag
}

// NewService constructs the lookup service. cache may be nil.
func NewService(querier Querier, cache *Cache) *Service {
	return &Service{querier: querier, cache: cache, tag: language.English}
}

// Currencies returns every currency ordered by name.
func (s *Service) Currencies(ctx context.Context) ([]Option, error) {
	return s.load(ctx, currencies, "")
}

// Countries returns every country ordered by name.
func (s *Service) Countries(ctx context.Context) ([]Option, error) {
	return s.load(ctx, countries, "")
}

// States returns the states of countryID ordered by name.
func (s *Service) States(ctx context.Context, countryID string) ([]Option, error) {
	countryID = strings.TrimSpace(countryID)
	if countryID == "" {
		return nil, fmt.Errorf("lookup: country id required")
	}
	return s.load(ctx, states, countryID)
}

// Warm invalidates cached lists and reloads currencies and countries. It
// returns the number of options loaded per list.
func (s *Service) Warm(ctx context.Context) (map[string]int, error) {
	if err := s.cache.Bump(ctx); err != nil {
		return nil, fmt.Errorf("lookup: bump cache: %w", err)
	}
	counts := make(map[string]int, 2)
	for _, src := range []source{currencies, countries} {
		opts, err := s.load(ctx, src, "")
		if err != nil {
			return counts, err
		}
		counts[src.kind] = len(opts)
	}
	return counts, nil
}

func (s *Service) load(ctx context.Context, src source, countryID string) ([]Option, error) {
	parts := []string{src.kind}
	if countryID != "" {
		parts = append(parts, countryID)
	}
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("lookup: cache key: %w", err)
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		var out []Option
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return s.query(ctx, src, countryID)
		})
		return out, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]Option), nil
}

func (s *Service) query(ctx context.Context, src source, countryID string) ([]Option, error) {
	columns := []sqlapi.ColumnSpec{{DBColumnName: "id"}, {DBColumnName: src.nameColumn}}
	q := sqlapi.Query{
		Tables:   []string{src.table},
		Page:     1,
		PageSize: maxPageSize,
	}
	if countryID != "" {
		columns = append(columns, sqlapi.ColumnSpec{DBColumnName: countryColumn})
		q.SearchFilter = &sqlapi.SearchFilter{
			Conditions:      []sqlapi.Condition{{ColumnName: countryColumn, Operator: "equals", Value: countryID}},
			LogicalOperator: "AND",
		}
	}
	q.Columns = columns

	resp, err := s.querier.ExecuteQueries(ctx, sqlapi.ExecuteRequest{
		SQLQueries: []sqlapi.NamedQuery{{Name: src.kind, Query: q}},
	})
	if err != nil {
		return nil, fmt.Errorf("lookup: %s: %w", src.kind, err)
	}
	table, _, err := resp.Table(src.kind)
	if err != nil {
		return nil, fmt.Errorf("lookup: %s: %w", src.kind, err)
	}
	options := make([]Option, 0, len(table.Records))
	for _, rec := range table.Records {
		id := rec.Get("id")
		if id == "" {
			continue
		}
		options = append(options, Option{ID: id, Name: rec.Get(src.nameColumn), CountryID: rec.Get(countryColumn)})
	}
	s.sortByName(options)
	return options, nil
}

func (s *Service) sortByName(options []Option) {
	col := collate.New(s.tag, collate.IgnoreCase, collate.IgnoreDiacritics)
	sort.SliceStable(options, func(i, j int) bool {
		return col.CompareString(options[i].Name, options[j].Name) < 0
	})
}
