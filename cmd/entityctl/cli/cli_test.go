package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/entityadmin/internal/entity"
	"github.com/odyssey-erp/entityadmin/jobs"
)

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
}

func TestEncodeFormDelete(t *testing.T) {
	var out bytes.Buffer
	err := EncodeForm(EncodeOptions{
		Op:     "d",
		Stdin:  strings.NewReader(`{"id":"E1"}`),
		Stdout: &out,
		Now:    fixedNow,
	})
	require.NoError(t, err)
	assert.Equal(t, "_ops|id\nd|'E1'\n", out.String())
}

func TestEncodeFormUpdateRequiresID(t *testing.T) {
	err := EncodeForm(EncodeOptions{
		Op:     "u",
		Stdin:  strings.NewReader(`{"displayName":"Acme"}`),
		Stdout: &bytes.Buffer{},
		Now:    fixedNow,
	})
	require.ErrorIs(t, err, entity.ErrIDRequired)
}

func TestEncodeFormRejectsUnknownOp(t *testing.T) {
	err := EncodeForm(EncodeOptions{Op: "x", Stdin: strings.NewReader(`{}`), Stdout: &bytes.Buffer{}})
	require.ErrorContains(t, err, "unknown op")
}

func TestEncodeFormHeaderRowWidthsMatch(t *testing.T) {
	var out bytes.Buffer
	err := EncodeForm(EncodeOptions{
		Op:     "n",
		Stdin:  strings.NewReader(`{"displayName":"O'Brien | Sons","modules":["finance"]}`),
		Stdout: &out,
		Now:    fixedNow,
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Count(lines[0], "|"), strings.Count(lines[1], "|"))
	assert.Contains(t, lines[1], "'O''Brien ｜ Sons'")
}

func TestDecodeLinesRecords(t *testing.T) {
	var out bytes.Buffer
	err := DecodeLines(DecodeOptions{
		Stdin:  strings.NewReader("id|currencyName\nUSD|US Dollar\nEUR|'Euro'\n"),
		Stdout: &out,
	})
	require.NoError(t, err)

	var records []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "US Dollar", records[0]["currencyName"])
	assert.Equal(t, "Euro", records[1]["currencyName"])
}

func TestDecodeLinesUnquote(t *testing.T) {
	var out bytes.Buffer
	err := DecodeLines(DecodeOptions{
		Stdin:   strings.NewReader("id|name\n1|'O''Brien'\n"),
		Stdout:  &out,
		Unquote: true,
	})
	require.NoError(t, err)
	var records []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &records))
	assert.Equal(t, "O'Brien", records[0]["name"])
}

func TestDecodeLinesEntities(t *testing.T) {
	var out bytes.Buffer
	err := DecodeLines(DecodeOptions{
		Stdin:    strings.NewReader("id|displayName|isEnabled\nE1|Acme|true\n"),
		Stdout:   &out,
		Entities: true,
	})
	require.NoError(t, err)
	var entities []entity.Entity
	require.NoError(t, json.Unmarshal(out.Bytes(), &entities))
	require.Len(t, entities, 1)
	assert.Equal(t, "Acme", entities[0].DisplayName)
	assert.True(t, entities[0].IsEnabled)
}

func TestNewTask(t *testing.T) {
	task, err := NewTask(jobs.TaskLookupWarmup, "manual")
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskLookupWarmup, task.Type())

	_, err = NewTask("mail:send", "")
	require.ErrorContains(t, err, "unsupported job")
}

func TestNilJobsCLI(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), jobs.TaskLookupWarmup, "")
	require.Error(t, err)
	_, err = NewJobsCLI("")
	require.Error(t, err)
}
