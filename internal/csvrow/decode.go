package csvrow

import (
	"errors"
	"strings"
)

// ErrNoHeader is returned by ParseLines when the header line is blank but data
// lines follow.
var ErrNoHeader = errors.New("csvrow: missing header line")

// Record is one decoded data line keyed by header name.
type Record map[string]string

// Get returns the value of column name, or "" when the column is absent.
func (r Record) Get(name string) string {
	if r == nil {
		return ""
	}
	return r[name]
}

// Has reports whether the record carries column name.
func (r Record) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Table is a decoded response: the header names plus the records in order.
type Table struct {
	Columns []string
	Records []Record
}

// ParseLines decodes response lines whose first element is the header row.
// Values are trimmed and one layer of matching quotes is removed. Blank data
// lines are skipped; short lines leave trailing columns empty.
func ParseLines(lines []string) (Table, error) {
	return ParseLinesFunc(lines, StripQuotes)
}

// ParseLinesFunc is ParseLines with value decoding delegated to fn, which
// receives each raw field. Header names are always passed through StripQuotes.
func ParseLinesFunc(lines []string, fn func(string) string) (Table, error) {
	if fn == nil {
		fn = StripQuotes
	}
	if len(lines) == 0 {
		return Table{}, nil
	}
	header := strings.TrimSpace(lines[0])
	if header == "" {
		if len(lines) > 1 {
			return Table{}, ErrNoHeader
		}
		return Table{}, nil
	}
	columns := strings.Split(header, Separator)
	for i, c := range columns {
		columns[i] = StripQuotes(c)
	}
	table := Table{Columns: columns, Records: make([]Record, 0, len(lines)-1)}
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := strings.Split(line, Separator)
		rec := make(Record, len(columns))
		for i, name := range columns {
			if i < len(values) {
				rec[name] = fn(values[i])
			} else {
				rec[name] = ""
			}
		}
		table.Records = append(table.Records, rec)
	}
	return table, nil
}

// StripQuotes trims s and removes one layer of surrounding matching single or
// double quotes. Doubled quotes inside the value are left as they are.
func StripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Unquote is the inverse of Quote: it strips the surrounding quotes and, for a
// single-quoted literal, collapses doubled single quotes.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	singleQuoted := len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\''
	s = StripQuotes(s)
	if singleQuoted {
		s = strings.ReplaceAll(s, "''", "'")
	}
	return s
}
