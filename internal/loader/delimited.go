// Package loader reads source files into typed core tables.
//
// Two layouts are supported: delimited files with a header row whose first
// column is a row identifier (LoadDelimited), and loosely formatted flat text
// files whose header is found by a sentinel word (ParseFlatFile).
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/JonMunkholm/tabular/internal/core"
)

// Options controls delimited loading.
type Options struct {
	// Comma is the field delimiter (default ',').
	Comma rune

	// Strict fails the load on the first record whose column count differs
	// from the header instead of dropping that record.
	Strict bool
}

// LoadDelimited reads a delimited file into a table shaped by def.
//
// The first column is treated as a row identifier and excluded. Columns with a
// FieldSpec are renamed and typed; all other columns are kept as text under
// their source name.
func LoadDelimited(path string, def core.TableDefinition, opts Options) (*core.Table, *core.LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, path)
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	table, report, err := ReadDelimited(f, def, opts)
	if report != nil {
		report.Source = path
	}
	return table, report, err
}

// column binds one source position to a table column.
type column struct {
	pos  int
	spec core.FieldSpec
}

// ReadDelimited is LoadDelimited over an already opened reader.
func ReadDelimited(r io.Reader, def core.TableDefinition, opts Options) (*core.Table, *core.LoadReport, error) {
	cr := csv.NewReader(core.NewSourceReader(r))
	if opts.Comma != 0 {
		cr.Comma = opts.Comma
	}
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("%w: empty file", core.ErrParse)
		}
		return nil, nil, fmt.Errorf("%w: read header: %v", core.ErrParse, err)
	}
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("%w: header has %d columns, need an identifier and at least one data column",
			core.ErrParse, len(header))
	}

	columns, err := bindColumns(header, def)
	if err != nil {
		return nil, nil, err
	}

	schema := make([]core.Column, len(columns))
	for i, c := range columns {
		schema[i] = core.Column{Name: c.spec.ColumnName(), Type: c.spec.Type}
	}
	table := core.NewTable(def.Key, schema...)
	report := &core.LoadReport{}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, report, fmt.Errorf("%w: %v", core.ErrParse, err)
			}
			// The reader has consumed the malformed record; the next Read
			// starts on the following line.
			rowErr := fmt.Errorf("%w: %v", core.ErrParse, pe.Err)
			if opts.Strict {
				return nil, report, fmt.Errorf("line %d: %w", pe.StartLine, rowErr)
			}
			report.TotalRows++
			report.Fail(pe.StartLine, nil, rowErr)
			continue
		}
		line, _ := cr.FieldPos(0)

		if isBlank(record) {
			continue
		}
		report.TotalRows++

		if len(record) != len(header) {
			rowErr := fmt.Errorf("%w: row has %d columns, expected %d", core.ErrParse, len(record), len(header))
			if opts.Strict {
				return nil, report, fmt.Errorf("line %d: %w", line, rowErr)
			}
			report.Fail(line, record, rowErr)
			continue
		}

		row, err := buildRow(record, columns)
		if err != nil {
			report.Fail(line, record, err)
			continue
		}

		if err := table.Append(row); err != nil {
			report.Fail(line, record, err)
			continue
		}
		report.Loaded++
	}

	return table, report, nil
}

// bindColumns maps header positions (excluding the identifier) to field specs.
func bindColumns(header []string, def core.TableDefinition) ([]column, error) {
	columns := make([]column, 0, len(header)-1)
	seen := make(map[string]bool, len(header))

	for pos := 1; pos < len(header); pos++ {
		name := core.CleanCell(header[pos])
		spec, ok := def.Spec(name)
		if !ok {
			spec = core.FieldSpec{Name: name, Type: core.ColumnText, AllowEmpty: true}
		}
		if seen[spec.ColumnName()] {
			return nil, fmt.Errorf("%w: duplicate column %q", core.ErrParse, spec.ColumnName())
		}
		seen[spec.ColumnName()] = true
		columns = append(columns, column{pos: pos, spec: spec})
	}

	for _, spec := range def.FieldSpecs {
		if spec.Required && !seen[spec.ColumnName()] {
			return nil, fmt.Errorf("%w: missing required column %q", core.ErrParse, spec.Name)
		}
	}
	return columns, nil
}

// buildRow converts one record. Empty cells are allowed only for AllowEmpty
// fields; any other conversion failure rejects the whole row.
func buildRow(record []string, columns []column) (core.Row, error) {
	row := make(core.Row, len(columns))
	for i, c := range columns {
		raw := record[c.pos]
		if c.spec.Normalizer != nil {
			raw = c.spec.Normalizer(raw)
		}

		v, err := core.ParseCell(c.spec.Type, raw)
		if errors.Is(err, core.ErrEmptyCell) {
			if !c.spec.AllowEmpty {
				return nil, fmt.Errorf("%w: empty required field %q", core.ErrCoercion, c.spec.Name)
			}
			row[i] = nil
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", c.spec.Name, err)
		}
		row[i] = v
	}
	return row, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
