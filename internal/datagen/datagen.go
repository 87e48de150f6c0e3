// Package datagen builds the synthetic input descriptors a benchmark run
// feeds to its backend operations. Suppliers are deterministic per index:
// the same generator always produces the same batch or query for a given
// index, which keeps the engine's striped partitioning reproducible.
package datagen

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/stashbench/stashbench/internal/backend"
	"github.com/stashbench/stashbench/internal/engine"
)

// Generator produces write batches and read queries for one run. Keys are
// namespaced by a per-run prefix so repeated runs against the same backend
// never collide.
type Generator struct {
	prefix      string
	batchSize   int
	payloadSize int
}

// New creates a Generator. An empty prefix gets a fresh UUID namespace.
func New(prefix string, batchSize, payloadSize int) *Generator {
	if prefix == "" {
		prefix = uuid.NewString()[:8]
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if payloadSize <= 0 {
		payloadSize = 64
	}
	return &Generator{prefix: prefix, batchSize: batchSize, payloadSize: payloadSize}
}

// Prefix returns the key namespace of this generator.
func (g *Generator) Prefix() string { return g.prefix }

// Key returns the deterministic key for a given index and row position.
func (g *Generator) Key(index, row int) string {
	return fmt.Sprintf("%s:%08d:%04d", g.prefix, index, row)
}

// Batch builds the write batch for one operation index.
func (g *Generator) Batch(index int) backend.WriteBatch {
	rnd := rand.New(rand.NewSource(int64(index)))
	batch := backend.WriteBatch{Rows: make([]backend.Row, g.batchSize)}
	for row := 0; row < g.batchSize; row++ {
		payload := make([]byte, g.payloadSize)
		rnd.Read(payload)
		batch.Rows[row] = backend.Row{Key: g.Key(index, row), Payload: payload}
	}
	return batch
}

// WriteSupplier adapts the generator to the engine's input contract for
// write workloads.
func (g *Generator) WriteSupplier() engine.InputSupplier {
	return func(index int) any {
		return g.Batch(index)
	}
}

// ReadSupplier builds read queries over a seeded key space of seededOps
// write batches. Query index i targets the keys of seeded batch i mod
// seededOps, so every query hits rows that exist.
func (g *Generator) ReadSupplier(limit, seededOps int) engine.InputSupplier {
	if limit <= 0 {
		limit = 1
	}
	if seededOps <= 0 {
		seededOps = 1
	}
	return func(index int) any {
		return backend.ReadQuery{
			Key:   g.Key(index%seededOps, 0),
			Limit: limit,
		}
	}
}
