package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/campaignsplit/internal/core"
	"github.com/JonMunkholm/campaignsplit/internal/table"
)

// PostgresConfig holds connection settings for the Postgres sink.
type PostgresConfig struct {
	URL      string
	Schema   string
	MaxConns int
	MinConns int
}

// Postgres loads each group table into <schema>.<group key> with the COPY
// protocol. The table is dropped and recreated inside one transaction, so
// a reader sees either the previous run's rows or the new ones.
type Postgres struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgres connects and verifies the pool.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns >= 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	return &Postgres{pool: pool, schema: schema}, nil
}

// Name implements core.Sink.
func (s *Postgres) Name() string { return "postgres" }

// Write implements core.Sink.
func (s *Postgres) Write(ctx context.Context, group core.GroupInfo, t *table.Table) (string, error) {
	ident := pgx.Identifier{s.schema, group.Key}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if _, err := tx.Exec(ctx, dropTableSQL(ident)); err != nil {
		return "", fmt.Errorf("drop %s: %w", ident.Sanitize(), err)
	}
	if _, err := tx.Exec(ctx, createTableSQL(ident, t.Columns)); err != nil {
		return "", fmt.Errorf("create %s: %w", ident.Sanitize(), err)
	}

	n, err := tx.CopyFrom(ctx, ident, t.Columns, copySource(t))
	if err != nil {
		return "", fmt.Errorf("copy into %s: %w", ident.Sanitize(), err)
	}
	if int(n) != t.Len() {
		return "", fmt.Errorf("copy into %s: wrote %d of %d rows", ident.Sanitize(), n, t.Len())
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return "postgres:" + s.schema + "." + group.Key, nil
}

// Close implements core.Sink.
func (s *Postgres) Close(context.Context) ([]string, error) {
	s.pool.Close()
	return nil, nil
}

func dropTableSQL(ident pgx.Identifier) string {
	return "DROP TABLE IF EXISTS " + ident.Sanitize()
}

// createTableSQL declares every column as TEXT; values are already
// normalized text and nulls map to SQL NULL.
func createTableSQL(ident pgx.Identifier, columns []string) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = pgx.Identifier{c}.Sanitize() + " TEXT"
	}
	return "CREATE TABLE " + ident.Sanitize() + " (" + strings.Join(defs, ", ") + ")"
}

// copySource feeds table rows to COPY. pgtype.Text cells are passed as-is,
// so invalid cells arrive as NULL.
func copySource(t *table.Table) pgx.CopyFromSource {
	return pgx.CopyFromSlice(t.Len(), func(i int) ([]any, error) {
		row := t.Rows[i]
		values := make([]any, len(row))
		for c, cell := range row {
			values[c] = cell
		}
		return values, nil
	})
}
