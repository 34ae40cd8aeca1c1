package sink

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/tabular/internal/core"
)

// DefaultSheet is the worksheet name used when none is configured.
const DefaultSheet = "Sheet1"

// Spreadsheet writes a table to a single-sheet workbook.
// Each write builds a new workbook and saves it over the previous file.
type Spreadsheet struct {
	Path  string
	Sheet string
}

// NewSpreadsheet creates a workbook sink for path.
func NewSpreadsheet(path string) *Spreadsheet {
	return &Spreadsheet{Path: path, Sheet: DefaultSheet}
}

func (s *Spreadsheet) Target() string { return s.Path }

func (s *Spreadsheet) Write(ctx context.Context, t *core.Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := s.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}
	if sheet != DefaultSheet {
		if err := f.SetSheetName(DefaultSheet, sheet); err != nil {
			return fmt.Errorf("name sheet: %w", err)
		}
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := f.SaveAs(s.Path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// cellValue maps a table value to a spreadsheet cell value.
// Non-finite floats have no numeric cell form and are written as text.
func cellValue(v any) interface{} {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return core.FormatValue(n)
		}
		return n
	default:
		return n
	}
}
