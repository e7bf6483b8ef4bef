// Package cli holds the operator helpers behind the entityctl commands.
package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/odyssey-erp/entityadmin/internal/csvrow"
	"github.com/odyssey-erp/entityadmin/internal/entity"
)

// EncodeOptions configures EncodeForm.
type EncodeOptions struct {
	Op     string
	Stdin  io.Reader
	Stdout io.Writer
	Now    func() time.Time
}

// EncodeForm reads an entity form as JSON and writes the header and value
// lines of its save row.
func EncodeForm(opts EncodeOptions) error {
	op := csvrow.Op(opts.Op)
	if !op.Valid() {
		return fmt.Errorf("entityctl: unknown op %q (want n, u or d)", opts.Op)
	}
	var form entity.Form
	dec := json.NewDecoder(opts.Stdin)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&form); err != nil {
		return fmt.Errorf("entityctl: decode form: %w", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	payload, err := entity.BuildCSV(form, op, now)
	if err != nil {
		return err
	}
	for _, line := range payload.Lines() {
		if _, err := fmt.Fprintln(opts.Stdout, line); err != nil {
			return err
		}
	}
	return nil
}

// DecodeOptions configures DecodeLines.
type DecodeOptions struct {
	Stdin    io.Reader
	Stdout   io.Writer
	Entities bool
	Unquote  bool
}

// DecodeLines reads response lines, header first, and writes the records as
// indented JSON.
func DecodeLines(opts DecodeOptions) error {
	var lines []string
	scanner := bufio.NewScanner(opts.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("entityctl: read input: %w", err)
	}
	decode := csvrow.StripQuotes
	if opts.Unquote {
		decode = csvrow.Unquote
	}
	table, err := csvrow.ParseLinesFunc(lines, decode)
	if err != nil {
		return err
	}

	var out any = table.Records
	if opts.Entities {
		out = entity.FromTable(table)
	}
	enc := json.NewEncoder(opts.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
