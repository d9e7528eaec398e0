package testutil

import "sync"

// DefaultBatchID is returned by a FixedBatchIDGenerator created without ids.
const DefaultBatchID = "test-batch"

// FixedBatchIDGenerator returns predetermined batch ids for testing, so
// reports and golden output are byte-identical across runs.
//
// Ids are returned in order; once exhausted the last id repeats.
//
// Implements edit.BatchIDGenerator. Thread-safety: safe for concurrent use
// via internal mutex.
type FixedBatchIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedBatchIDGenerator creates a generator returning ids in order.
//
// Example:
//
//	gen := NewFixedBatchIDGenerator("batch-1", "batch-2")
//	gen.Generate() // "batch-1"
//	gen.Generate() // "batch-2"
//	gen.Generate() // "batch-2"
func NewFixedBatchIDGenerator(ids ...string) *FixedBatchIDGenerator {
	if len(ids) == 0 {
		ids = []string{DefaultBatchID}
	}
	return &FixedBatchIDGenerator{ids: ids}
}

// Generate returns the next predetermined id.
func (g *FixedBatchIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}
