package backend

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis drives a Redis server through go-redis. Writes pipeline one SET per
// row; reads are point lookups on the exact key.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, opts Options) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
		PoolSize: opts.MaxConns,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Name() string { return string(KindRedis) }

// Setup is a no-op; Redis needs no schema.
func (r *Redis) Setup(ctx context.Context) error { return nil }

func (r *Redis) Write(ctx context.Context, batch WriteBatch) (int, error) {
	if len(batch.Rows) == 0 {
		return 0, nil
	}

	pipe := r.client.Pipeline()
	for _, row := range batch.Rows {
		pipe.Set(ctx, row.Key, row.Payload, 0)
	}
	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, cmd := range cmds {
		if cmd.Err() == nil {
			written++
		}
	}
	return written, nil
}

func (r *Redis) Read(ctx context.Context, q ReadQuery) (int, error) {
	val, err := r.client.Get(ctx, q.Key).Result()
	if err == redis.Nil {
		return 0, fmt.Errorf("redis: key %q not found", q.Key)
	}
	if err != nil {
		return 0, err
	}
	_ = val
	return 1, nil
}

func (r *Redis) Close() error { return r.client.Close() }
