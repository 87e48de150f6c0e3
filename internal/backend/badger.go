package backend

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Badger drives an embedded Badger key-value store. It needs no external
// service, which makes it the default target for local runs and the
// integration tests.
type Badger struct {
	db *badger.DB
}

func NewBadger(opts Options) (*Badger, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("badger: data directory path is required")
	}
	dbOpts := badger.DefaultOptions(opts.Path).
		WithLogger(nil)
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("badger: open %s: %w", opts.Path, err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Name() string { return string(KindBadger) }

// Setup is a no-op; Badger needs no schema.
func (b *Badger) Setup(ctx context.Context) error { return nil }

func (b *Badger) Write(ctx context.Context, batch WriteBatch) (int, error) {
	if len(batch.Rows) == 0 {
		return 0, nil
	}
	err := b.db.Update(func(txn *badger.Txn) error {
		for _, row := range batch.Rows {
			if err := txn.Set([]byte(row.Key), row.Payload); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(batch.Rows), nil
}

func (b *Badger) Read(ctx context.Context, q ReadQuery) (int, error) {
	count := 0
	err := b.db.View(func(txn *badger.Txn) error {
		itOpts := badger.DefaultIteratorOptions
		itOpts.PrefetchValues = true
		it := txn.NewIterator(itOpts)
		defer it.Close()

		for it.Seek([]byte(q.Key)); it.Valid() && count < q.Limit; it.Next() {
			item := it.Item()
			if err := item.Value(func(val []byte) error { return nil }); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return count, err
	}
	if count == 0 {
		return 0, fmt.Errorf("badger: no keys at or after %q", q.Key)
	}
	return count, nil
}

func (b *Badger) Close() error { return b.db.Close() }
