package ingestion

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultDocumentConcurrency bounds how many documents may be inside the
// pipeline at once, regardless of how many callers ask.
const DefaultDocumentConcurrency = 3

// Gate limits concurrent document processing. All entry points into the
// pipeline share one gate, so direct calls and queue workers count against
// the same bound.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate creates a gate admitting up to n documents concurrently.
func NewGate(n int64) *Gate {
	if n < 1 {
		n = 1
	}
	return &Gate{sem: semaphore.NewWeighted(n)}
}

// Acquire blocks until a slot is free or ctx is done.
func (g *Gate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release frees a slot acquired with Acquire.
func (g *Gate) Release() {
	g.sem.Release(1)
}
