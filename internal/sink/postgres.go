package sink

import (
	"context"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/tabular/internal/core"
)

// TxBeginner starts database transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Postgres writes a table into a server database using the COPY protocol.
// The destination table is dropped, recreated and filled in one transaction.
type Postgres struct {
	DB    TxBeginner
	Table string
}

// NewPostgres creates a server database sink. db may be nil when no database
// is configured; writes then fail with core.ErrSinkNotConfigured.
func NewPostgres(db TxBeginner, table string) *Postgres {
	return &Postgres{DB: db, Table: table}
}

func (s *Postgres) Target() string { return "postgres#" + s.Table }

func (s *Postgres) Write(ctx context.Context, t *core.Table) error {
	if s.DB == nil {
		return fmt.Errorf("%w: postgres database URL not set", core.ErrSinkNotConfigured)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS `+quoteIdentifier(s.Table)); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(s.Table, t.Columns, postgresType)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	if t.Len() > 0 {
		n, err := tx.CopyFrom(ctx, pgx.Identifier{s.Table}, t.Header(), pgx.CopyFromRows(copyRows(t)))
		if err != nil {
			return fmt.Errorf("copy rows: %w", err)
		}
		if int(n) != t.Len() {
			return fmt.Errorf("copy rows: wrote %d of %d", n, t.Len())
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func postgresType(t core.ColumnType) string {
	switch t {
	case core.ColumnInteger:
		return "BIGINT"
	case core.ColumnFloat:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

func copyRows(t *core.Table) [][]any {
	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		vals := make([]any, len(row))
		for j, v := range row {
			if f, ok := v.(float64); ok && math.IsNaN(f) {
				vals[j] = nil
				continue
			}
			vals[j] = v
		}
		rows[i] = vals
	}
	return rows
}

// OpenPostgres connects a pool to url and verifies the connection.
func OpenPostgres(ctx context.Context, url string, maxConns int) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if maxConns > 0 {
		poolConfig.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}
