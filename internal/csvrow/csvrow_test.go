package csvrow

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 5, 14, 7, 9, 0, time.Local)
}

func TestQuoteDoublesSingleQuotes(t *testing.T) {
	assert.Equal(t, "'O''Brien'", Quote("O'Brien"))
	assert.Equal(t, "''", Quote(""))
	assert.Equal(t, "'plain'", Quote("plain"))
}

func TestQuoteRoundTrip(t *testing.T) {
	for _, in := range []string{"O'Brien", "''", "it's a 'test'", "", "no quotes"} {
		quoted := Quote(in)
		assert.Equal(t, in, Unquote(quoted), "unquote(%q)", quoted)
	}
	// StripQuotes only removes the outer layer.
	assert.Equal(t, "O''Brien", StripQuotes(Quote("O'Brien")))
}

func TestQuoteJSON(t *testing.T) {
	assert.Equal(t, `'{"name":"O''Brien"}'`, QuoteJSON(map[string]string{"name": "O'Brien"}))
	assert.Equal(t, `'["a","b"]'`, QuoteJSON([]string{"a", "b"}))
	assert.Equal(t, "''", QuoteJSON(make(chan int)))
}

func TestBoolOr(t *testing.T) {
	yes, no := true, false
	assert.Equal(t, "true", BoolOr(&yes, false))
	assert.Equal(t, "false", BoolOr(&no, true))
	assert.Equal(t, "true", BoolOr(nil, true))
	assert.Equal(t, "false", BoolOr(nil, false))
}

func TestTimestamp(t *testing.T) {
	assert.Equal(t, "'2024-03-05 14:07:09'", Timestamp("", fixedClock))
	assert.Equal(t, "'2024-01-01T00:00:00Z'", Timestamp("2024-01-01T00:00:00Z", fixedClock))
	assert.Equal(t, "'2024-03-05 14:07:09'", Timestamp("   ", fixedClock))
}

func TestEncodeSkipsExcludedColumns(t *testing.T) {
	p := Encode(OpNew, []Column{
		{Name: "id", Include: true, Value: "'E1'"},
		{Name: "city", Include: false, Value: "''"},
		{Name: "isEnabled", Include: true, Value: "true"},
	})
	assert.Equal(t, "_ops|id|isEnabled", p.Headers)
	assert.Equal(t, "n|'E1'|true", p.Row)
	assert.Equal(t, 3, p.Width())
	assert.Equal(t, []string{p.Headers, p.Row}, p.Lines())
}

func TestEncodeKeepsColumnsAlignedWithPipes(t *testing.T) {
	p := Encode(OpUpdate, []Column{
		{Name: "id", Include: true, Value: Quote("E|1")},
		{Name: "note", Include: true, Value: Quote("a|b|c")},
	})
	require.Equal(t, len(strings.Split(p.Headers, "|")), len(strings.Split(p.Row, "|")))
	assert.Equal(t, "u|'E｜1'|'a｜b｜c'", p.Row)
}

func TestBuilderNewOmitsBlankStrings(t *testing.T) {
	p := NewBuilder(OpNew, fixedClock).
		String("displayName", "Acme").
		String("city", "").
		String("addressLine2", "   ").
		JSON("modules", []string{}, true).
		Bool("isEnabled", nil, true).
		Build()
	assert.Equal(t, "_ops|displayName|isEnabled", p.Headers)
	assert.Equal(t, "n|'Acme'|true", p.Row)
}

func TestBuilderUpdateKeepsBlankStrings(t *testing.T) {
	p := NewBuilder(OpUpdate, fixedClock).
		String("displayName", "Acme").
		String("city", "").
		JSON("modules", []string{}, true).
		Timestamp("lastUpdatedAt", "").
		Build()
	assert.Equal(t, "_ops|displayName|city|modules|lastUpdatedAt", p.Headers)
	assert.Equal(t, "u|'Acme'|''|'[]'|'2024-03-05 14:07:09'", p.Row)
}

func TestBuilderColumnsIsACopy(t *testing.T) {
	b := NewBuilder(OpNew, nil).Raw("id", "'E1'")
	cols := b.Columns()
	cols[0].Value = "changed"
	assert.Equal(t, "'E1'", b.Columns()[0].Value)
	assert.Equal(t, OpNew, b.Op())
}

func TestParseLines(t *testing.T) {
	table, err := ParseLines([]string{"id|currencyName", "USD|US Dollar", "EUR|Euro"})
	require.NoError(t, err)
	want := []Record{
		{"id": "USD", "currencyName": "US Dollar"},
		{"id": "EUR", "currencyName": "Euro"},
	}
	if diff := cmp.Diff(want, table.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"id", "currencyName"}, table.Columns)
}

func TestParseLinesStripsQuotesAndHandlesGaps(t *testing.T) {
	table, err := ParseLines([]string{
		"id|name|isEnabled",
		" 'E1' | \"Acme\" |true",
		"",
		"E2|'O''Brien'",
	})
	require.NoError(t, err)
	require.Len(t, table.Records, 2)

	first := table.Records[0]
	assert.Equal(t, "E1", first.Get("id"))
	assert.Equal(t, "Acme", first.Get("name"))
	assert.Equal(t, "true", first.Get("isEnabled"))
	assert.Equal(t, "", first.Get("missingColumn"))
	assert.False(t, first.Has("missingColumn"))

	second := table.Records[1]
	assert.Equal(t, "O''Brien", second.Get("name"))
	assert.Equal(t, "", second.Get("isEnabled"))
	assert.True(t, second.Has("isEnabled"))
}

func TestParseLinesEdgeCases(t *testing.T) {
	table, err := ParseLines(nil)
	require.NoError(t, err)
	assert.Empty(t, table.Records)

	table, err = ParseLines([]string{"id|name"})
	require.NoError(t, err)
	assert.Empty(t, table.Records)

	_, err = ParseLines([]string{"", "E1|Acme"})
	assert.ErrorIs(t, err, ErrNoHeader)

	var nilRecord Record
	assert.Equal(t, "", nilRecord.Get("id"))
}

func TestParseLinesFuncUnquotesRawValues(t *testing.T) {
	table, err := ParseLinesFunc([]string{
		"'id'|name|note",
		"E1|'O''Brien'| plain ",
	}, Unquote)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "note"}, table.Columns)
	want := []Record{{"id": "E1", "name": "O'Brien", "note": "plain"}}
	if diff := cmp.Diff(want, table.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	table, err = ParseLinesFunc([]string{"id|name", "E2|'it''s'"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "it''s", table.Records[0].Get("name"))
}

func TestStripQuotesMismatched(t *testing.T) {
	assert.Equal(t, "'abc\"", StripQuotes("'abc\""))
	assert.Equal(t, "'", StripQuotes("'"))
	assert.Equal(t, "", StripQuotes("''"))
	assert.Equal(t, "x", StripQuotes("  x  "))
}

func TestOp(t *testing.T) {
	assert.True(t, OpNew.Valid())
	assert.True(t, OpDelete.Valid())
	assert.False(t, Op("x").Valid())
	assert.False(t, OpNew.RequiresID())
	assert.True(t, OpUpdate.RequiresID())
	assert.True(t, OpDelete.RequiresID())
}
