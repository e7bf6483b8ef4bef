package csvrow

import (
	"strings"
	"time"
)

// Builder collects columns for one row and applies the inclusion rules of the
// operation: on OpNew blank optional values are left out, on OpUpdate they are
// kept so the backend clears the column.
type Builder struct {
	op      Op
	now     func() time.Time
	columns []Column
}

// NewBuilder starts a row for op. now may be nil.
func NewBuilder(op Op, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{op: op, now: now}
}

// Op returns the operation tag of the row.
func (b *Builder) Op() Op {
	return b.op
}

// Raw adds a pre-rendered literal that is always included.
func (b *Builder) Raw(name, literal string) *Builder {
	b.columns = append(b.columns, Column{Name: name, Include: true, Value: literal})
	return b
}

// String adds an optional string column.
func (b *Builder) String(name, value string) *Builder {
	include := b.op != OpNew || strings.TrimSpace(value) != ""
	b.columns = append(b.columns, Column{Name: name, Include: include, Value: Quote(value)})
	return b
}

// StringIf adds a string column only when include is true.
func (b *Builder) StringIf(name, value string, include bool) *Builder {
	b.columns = append(b.columns, Column{Name: name, Include: include, Value: Quote(value)})
	return b
}

// JSON adds a JSON column. empty marks a value without content, which is only
// written on updates.
func (b *Builder) JSON(name string, v any, empty bool) *Builder {
	include := !empty || b.op == OpUpdate
	b.columns = append(b.columns, Column{Name: name, Include: include, Value: QuoteJSON(v)})
	return b
}

// Bool adds a boolean column, substituting def for nil.
func (b *Builder) Bool(name string, v *bool, def bool) *Builder {
	b.columns = append(b.columns, Column{Name: name, Include: true, Value: BoolOr(v, def)})
	return b
}

// Timestamp adds a timestamp column using iso or the builder clock.
func (b *Builder) Timestamp(name, iso string) *Builder {
	b.columns = append(b.columns, Column{Name: name, Include: true, Value: Timestamp(iso, b.now)})
	return b
}

// Columns returns a copy of the collected columns, excluded ones included.
func (b *Builder) Columns() []Column {
	out := make([]Column, len(b.columns))
	copy(out, b.columns)
	return out
}

// Build encodes the collected columns.
func (b *Builder) Build() Payload {
	return Encode(b.op, b.columns)
}
