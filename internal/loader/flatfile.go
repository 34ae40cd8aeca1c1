package loader

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/JonMunkholm/tabular/internal/core"
)

// HeaderSentinel is the word that opens the header line of a flat file.
const HeaderSentinel = "video"

// maxLineSize bounds a single flat-file line.
const maxLineSize = 1024 * 1024

// LoadFlatFile reads path line by line and parses it with ParseFlatFile.
func LoadFlatFile(path string, def core.TableDefinition) (*core.Table, *core.LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, path)
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(core.NewSourceReader(f))
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}

	table, report, err := ParseFlatFile(lines, def)
	if report != nil {
		report.Source = path
	}
	return table, report, err
}

// ParseFlatFile reconstructs a table from the lines of a file that has no
// schema declaration.
//
// The header is the first line whose trimmed text starts with HeaderSentinel;
// data starts on the line after it. A following non-blank line is a row only
// if its first whitespace-separated field is all digits; everything else
// (repeated headers, totals, notes) is counted as discarded. Accepted rows
// must have exactly one field per definition column, each an integer, or
// they are dropped with ErrCoercion.
func ParseFlatFile(lines []string, def core.TableDefinition) (*core.Table, *core.LoadReport, error) {
	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), HeaderSentinel) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, nil, fmt.Errorf("%w: no line starts with %q", core.ErrHeaderNotFound, HeaderSentinel)
	}

	schema := make([]core.Column, len(def.FieldSpecs))
	for i, spec := range def.FieldSpecs {
		schema[i] = core.Column{Name: spec.ColumnName(), Type: spec.Type}
	}
	table := core.NewTable(def.Key, schema...)
	report := &core.LoadReport{}

	for i := start; i < len(lines); i++ {
		fields := strings.Fields(lines[i])
		if len(fields) == 0 {
			continue
		}
		lineNum := i + 1

		if !core.IsDigits(fields[0]) {
			report.Discarded++
			continue
		}
		report.TotalRows++

		row, err := coerceFields(fields, def.FieldSpecs)
		if err != nil {
			report.Fail(lineNum, fields, err)
			continue
		}
		if err := table.Append(row); err != nil {
			report.Fail(lineNum, fields, err)
			continue
		}
		report.Loaded++
	}

	return table, report, nil
}

func coerceFields(fields []string, specs []core.FieldSpec) (core.Row, error) {
	if len(fields) != len(specs) {
		return nil, fmt.Errorf("%w: row has %d fields, expected %d", core.ErrCoercion, len(fields), len(specs))
	}

	row := make(core.Row, len(specs))
	for i, spec := range specs {
		v, err := core.ParseCell(spec.Type, fields[i])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", spec.Name, err)
		}
		row[i] = v
	}
	return row, nil
}
