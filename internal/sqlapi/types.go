package sqlapi

import "github.com/odyssey-erp/entityadmin/internal/csvrow"

// ColumnSpec selects one column of a query.
type ColumnSpec struct {
	DBColumnName string `json:"dbColumnName"`
	AliasName    string `json:"aliasName,omitempty"`
}

// Condition is one predicate of a search filter.
type Condition struct {
	ColumnName string `json:"columnName"`
	Operator   string `json:"operator"`
	Value      string `json:"value"`
}

// SearchFilter combines conditions with a logical operator (AND/OR).
type SearchFilter struct {
	Conditions      []Condition `json:"conditions"`
	LogicalOperator string      `json:"logicalOperator"`
}

// CaseStatement maps raw column values to display values server side.
type CaseStatement struct {
	ColumnName string            `json:"columnName"`
	Cases      map[string]string `json:"cases"`
	Default    string            `json:"default,omitempty"`
	AliasName  string            `json:"aliasName,omitempty"`
}

// Query is the body of one SQL query definition.
type Query struct {
	DatabaseID     string          `json:"databaseId"`
	Columns        []ColumnSpec    `json:"columns"`
	Tables         []string        `json:"tables"`
	SearchFilter   *SearchFilter   `json:"searchFilter"`
	Page           int             `json:"page"`
	PageSize       int             `json:"pageSize"`
	CaseStatements []CaseStatement `json:"caseStatements"`
}

// NamedQuery wraps a query with its result key.
type NamedQuery struct {
	Name                string `json:"name"`
	Query               Query  `json:"query"`
	IncludeRecordsCount bool   `json:"includeRecordsCount"`
}

// ExecuteRequest is the payload of the SQL execution endpoint.
type ExecuteRequest struct {
	ExecuteInParallel bool         `json:"executeInParallel"`
	SQLQueries        []NamedQuery `json:"sqlQueries"`
}

// ResultValue holds the CSV lines of one query; the first line is the header.
type ResultValue struct {
	CSVData      []string `json:"csvData"`
	RecordsCount int      `json:"recordsCount"`
}

// Result is one entry of ExecuteResponse.Data.
type Result struct {
	Key   string      `json:"key"`
	Value ResultValue `json:"value"`
}

// ExecuteResponse is the decoded answer of the SQL execution endpoint.
type ExecuteResponse struct {
	Status  string   `json:"status,omitempty"`
	Message string   `json:"message,omitempty"`
	Data    []Result `json:"data"`
}

// Result returns the entry for the named query. With a single entry and an
// empty name that entry is returned.
func (r ExecuteResponse) Result(name string) (ResultValue, bool) {
	for _, res := range r.Data {
		if res.Key == name {
			return res.Value, true
		}
	}
	if name == "" && len(r.Data) == 1 {
		return r.Data[0].Value, true
	}
	return ResultValue{}, false
}

// Table decodes the CSV lines of the named query.
func (r ExecuteResponse) Table(name string) (csvrow.Table, int, error) {
	value, ok := r.Result(name)
	if !ok {
		return csvrow.Table{}, 0, nil
	}
	table, err := csvrow.ParseLines(value.CSVData)
	if err != nil {
		return csvrow.Table{}, 0, err
	}
	return table, value.RecordsCount, nil
}

// SaveRequest is the payload of the generic save endpoint.
type SaveRequest struct {
	TableName    string   `json:"tableName"`
	CSVData      []string `json:"csvData"`
	HasHeaders   bool     `json:"hasHeaders"`
	UniqueColumn string   `json:"uniqueColumn"`
}

// NewSaveRequest wraps an encoded row for table keyed by uniqueColumn.
func NewSaveRequest(table, uniqueColumn string, payload csvrow.Payload) SaveRequest {
	return SaveRequest{
		TableName:    table,
		CSVData:      payload.Lines(),
		HasHeaders:   true,
		UniqueColumn: uniqueColumn,
	}
}

// SaveResponse is the status envelope returned by the save endpoint.
type SaveResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Node is one element of the entity hierarchy.
type Node struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId,omitempty"`
	Children []Node `json:"children,omitempty"`
}
