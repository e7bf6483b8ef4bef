// Package csvrow encodes and decodes the pipe-delimited rows exchanged with the
// SQL-over-HTTP backend.
//
// A save payload is two lines: a header line and a row line. Both start with
// the operation tag column (_ops) followed by the data columns in the same
// order. The grammar of a row value is:
//
//	string    'text'   single quotes inside text are doubled ('O''Brien')
//	json      'json'   the JSON text quoted like a string
//	bool      true | false
//	timestamp 'YYYY-MM-DD HH:MM:SS' or the caller supplied ISO string, quoted
//
// The backend splits on '|' without an escape mechanism, so a literal '|'
// inside a value is written as the full-width bar U+FF5C.
package csvrow

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	// Separator splits columns in both header and row lines.
	Separator = "|"
	// OpColumn is the header name of the operation tag column.
	OpColumn = "_ops"
	// TimestampLayout is the local time layout used when no timestamp is supplied.
	TimestampLayout = "2006-01-02 15:04:05"

	separatorSubstitute = "｜"
)

// Op is the operation tag prepended to every row.
type Op string

const (
	OpNew    Op = "n"
	OpUpdate Op = "u"
	OpDelete Op = "d"
)

// Valid reports whether the tag is one of n, u or d.
func (o Op) Valid() bool {
	switch o {
	case OpNew, OpUpdate, OpDelete:
		return true
	}
	return false
}

// RequiresID reports whether rows with this tag must carry an identifier.
func (o Op) RequiresID() bool {
	return o == OpUpdate || o == OpDelete
}

// Column is one {name, include, value} triple of a row.
type Column struct {
	Name    string
	Include bool
	Value   string
}

// Payload is the header/row pair sent as csvData.
type Payload struct {
	Headers string
	Row     string
}

// Lines returns the payload in the order expected by the save endpoint.
func (p Payload) Lines() []string {
	return []string{p.Headers, p.Row}
}

// Width returns the number of columns in the payload.
func (p Payload) Width() int {
	if p.Headers == "" {
		return 0
	}
	return strings.Count(p.Headers, Separator) + 1
}

// Encode joins the included columns behind the operation tag.
func Encode(op Op, columns []Column) Payload {
	headers := make([]string, 0, len(columns)+1)
	values := make([]string, 0, len(columns)+1)
	headers = append(headers, OpColumn)
	values = append(values, string(op))
	for _, col := range columns {
		if !col.Include {
			continue
		}
		headers = append(headers, sanitize(col.Name))
		values = append(values, sanitize(col.Value))
	}
	return Payload{
		Headers: strings.Join(headers, Separator),
		Row:     strings.Join(values, Separator),
	}
}

func sanitize(v string) string {
	return strings.ReplaceAll(v, Separator, separatorSubstitute)
}

// Quote renders s as a SQL string literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteJSON serialises v and renders the JSON text as a string literal. A value
// that cannot be serialised becomes an empty quoted literal.
func QuoteJSON(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "''"
	}
	return Quote(string(raw))
}

// BoolOr renders b, falling back to def when b is nil.
func BoolOr(b *bool, def bool) string {
	if b == nil {
		return formatBool(def)
	}
	return formatBool(*b)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// Timestamp renders iso when present, otherwise now() in TimestampLayout.
func Timestamp(iso string, now func() time.Time) string {
	if v := strings.TrimSpace(iso); v != "" {
		return Quote(v)
	}
	if now == nil {
		now = time.Now
	}
	return Quote(now().Local().Format(TimestampLayout))
}
