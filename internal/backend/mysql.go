package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL drives a MySQL server through database/sql.
type MySQL struct {
	db    *sql.DB
	table string
}

func NewMySQL(ctx context.Context, opts Options) (*MySQL, error) {
	db, err := sql.Open("mysql", opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxConns)
	db.SetMaxIdleConns(opts.MaxConns / 2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return &MySQL{db: db, table: opts.Table}, nil
}

func (m *MySQL) Name() string { return string(KindMySQL) }

func (m *MySQL) Setup(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ("+
		"`key` VARCHAR(191) PRIMARY KEY,"+
		"payload BLOB NOT NULL,"+
		"created TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"+
		")", m.table))
	if err != nil {
		return fmt.Errorf("mysql: create table: %w", err)
	}
	return nil
}

func (m *MySQL) Write(ctx context.Context, batch WriteBatch) (int, error) {
	if len(batch.Rows) == 0 {
		return 0, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (`key`, payload) VALUES ", m.table)
	args := make([]any, 0, len(batch.Rows)*2)
	for i, row := range batch.Rows {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("(?,?)")
		args = append(args, row.Key, row.Payload)
	}

	res, err := m.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return len(batch.Rows), nil
	}
	return int(affected), nil
}

func (m *MySQL) Read(ctx context.Context, q ReadQuery) (int, error) {
	rows, err := m.db.QueryContext(ctx,
		fmt.Sprintf("SELECT `key`, payload FROM %s WHERE `key` >= ? ORDER BY `key` LIMIT ?", m.table),
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
		return 0, fmt.Errorf("mysql: no rows at or after key %q", q.Key)
	}
	return count, nil
}

func (m *MySQL) Close() error { return m.db.Close() }
