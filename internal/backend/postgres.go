package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres drives a PostgreSQL server through a pgx connection pool.
type Postgres struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostgres(ctx context.Context, opts Options) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	config.MaxConns = int32(opts.MaxConns)
	config.MinConns = 2

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Postgres{pool: pool, table: opts.Table}, nil
}

func (p *Postgres) Name() string { return string(KindPostgres) }

func (p *Postgres) Setup(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key     TEXT PRIMARY KEY,
			payload BYTEA NOT NULL,
			created TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`, p.table))
	if err != nil {
		return fmt.Errorf("postgres: create table: %w", err)
	}
	return nil
}

func (p *Postgres) Write(ctx context.Context, batch WriteBatch) (int, error) {
	if len(batch.Rows) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (key, payload) VALUES ", p.table)
	args := make([]any, 0, len(batch.Rows)*2)
	for i, row := range batch.Rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "($%d,$%d)", i*2+1, i*2+2)
		args = append(args, row.Key, row.Payload)
	}

	tag, err := p.pool.Exec(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (p *Postgres) Read(ctx context.Context, q ReadQuery) (int, error) {
	rows, err := p.pool.Query(ctx,
		fmt.Sprintf("SELECT key, payload FROM %s WHERE key >= $1 ORDER BY key LIMIT $2", p.table),
		q.Key, q.Limit)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var key string
		var payload []byte
		if err := rows.Scan(&key, &payload); err != nil {
			return count, err
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, err
	}
	if count == 0 {
		return 0, fmt.Errorf("postgres: no rows at or after key %q", q.Key)
	}
	return count, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
