package sink

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/JonMunkholm/tabular/internal/core"
)

// SQLite writes a table into an embedded database file, dropping and
// recreating the destination table inside one transaction.
type SQLite struct {
	Path  string
	Table string
}

// NewSQLite creates an embedded database sink.
func NewSQLite(path, table string) *SQLite {
	return &SQLite{Path: path, Table: table}
}

func (s *SQLite) Target() string { return s.Path + "#" + s.Table }

func (s *SQLite) Write(ctx context.Context, t *core.Table) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quoteIdentifier(s.Table)); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(s.Table, t.Columns, sqliteType)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if t.Len() > 0 {
		stmt, err := tx.PrepareContext(ctx, insertSQL(s.Table, t.Header()))
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, row := range t.Rows {
			args := make([]any, len(row))
			for j, v := range row {
				args[j] = sqlValue(v)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert row %d: %w", i+1, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func sqliteType(t core.ColumnType) string {
	switch t {
	case core.ColumnInteger:
		return "INTEGER"
	case core.ColumnFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteColumns quotes each column name in the slice.
func quoteColumns(cols []string) []string {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdentifier(col)
	}
	return quoted
}

func createTableSQL(table string, cols []core.Column, typeName func(core.ColumnType) string) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = quoteIdentifier(c.Name) + " " + typeName(c.Type)
	}
	return "CREATE TABLE " + quoteIdentifier(table) + " (" + strings.Join(defs, ", ") + ")"
}

func insertSQL(table string, cols []string) string {
	ph := strings.TrimRight(strings.Repeat("?,", len(cols)), ",")
	return "INSERT INTO " + quoteIdentifier(table) +
		" (" + strings.Join(quoteColumns(cols), ", ") + ") VALUES (" + ph + ")"
}

// sqlValue maps a table value to a driver argument. NaN has no SQL form and
// becomes NULL.
func sqlValue(v any) any {
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return nil
	}
	return v
}
