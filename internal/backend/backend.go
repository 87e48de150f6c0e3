// Package backend implements the storage backends a benchmark run drives.
//
// Each backend exposes the two operation shapes the engine is agnostic to: a
// write taking a generated batch and returning the number of rows persisted,
// and a read taking a lookup key plus a result-size limit and returning the
// number of rows retrieved. Failures are reported through the error return,
// never as a silent empty result.
package backend

import (
	"context"
	"fmt"
)

// Kind identifies a storage backend implementation.
type Kind string

const (
	KindPostgres Kind = "postgres"
	KindMySQL    Kind = "mysql"
	KindRedis    Kind = "redis"
	KindBadger   Kind = "badger"
)

// Row is a single key/payload pair to persist.
type Row struct {
	Key     string
	Payload []byte
}

// WriteBatch is the input descriptor for one write operation.
type WriteBatch struct {
	Rows []Row
}

// ReadQuery is the input descriptor for one read operation. Key is the scan
// start (exact key for point-lookup backends); Limit caps the result size.
type ReadQuery struct {
	Key   string
	Limit int
}

// Backend abstracts a storage system under test. Implementations must be
// safe for concurrent use by all lanes and must block inside Write/Read
// rather than spawn goroutines of their own.
type Backend interface {
	Name() string

	// Setup prepares schema or storage for a run. Idempotent.
	Setup(ctx context.Context) error

	// Write persists the batch and returns how many rows were written.
	Write(ctx context.Context, batch WriteBatch) (int, error)

	// Read retrieves up to q.Limit rows starting at q.Key and returns how
	// many were found. A missing point-lookup key is an error, not zero.
	Read(ctx context.Context, q ReadQuery) (int, error)

	Close() error
}

// Options carry the connection settings for a backend.
type Options struct {
	Kind     Kind
	DSN      string // postgres / mysql connection string
	Addr     string // redis host:port
	Password string // redis auth
	DB       int    // redis database number
	Path     string // badger data directory
	Table    string // sql table name, defaults to "bench_entries"
	MaxConns int    // sql/redis pool ceiling, defaults to 10
}

func (o *Options) normalize() {
	if o.Table == "" {
		o.Table = "bench_entries"
	}
	if o.MaxConns <= 0 {
		o.MaxConns = 10
	}
}

// Open connects the backend selected by opts.Kind.
func Open(ctx context.Context, opts Options) (Backend, error) {
	opts.normalize()
	switch opts.Kind {
	case KindPostgres:
		return NewPostgres(ctx, opts)
	case KindMySQL:
		return NewMySQL(ctx, opts)
	case KindRedis:
		return NewRedis(ctx, opts)
	case KindBadger:
		return NewBadger(opts)
	default:
		return nil, fmt.Errorf("backend: unknown kind %q", opts.Kind)
	}
}
