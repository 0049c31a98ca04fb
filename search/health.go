package search

import (
	"context"

	"github.com/poiesic/docvec/core"
)

// Health statuses.
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

// Health describes the state of the search subsystem's dependencies.
type Health struct {
	// Status is healthy when every checked dependency is reachable,
	// degraded otherwise.
	Status string

	// Store is "ok" or the connectivity error text. Empty when no store
	// pinger was configured.
	Store string

	// Embedder is "ok" or the reachability error text.
	Embedder string

	// Stats holds corpus statistics when a stats provider was configured
	// and the lookup succeeded.
	Stats *core.Stats
}

// Health probes the store and embedding service and gathers corpus
// statistics. It never returns an error; failures show up as a degraded
// status with the failing dependency's error text.
func (s *Searcher) Health(ctx context.Context) *Health {
	h := &Health{Status: StatusHealthy}

	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			h.Status = StatusDegraded
			h.Store = err.Error()
		} else {
			h.Store = "ok"
		}
	}

	if err := s.embedder.Ping(ctx); err != nil {
		h.Status = StatusDegraded
		h.Embedder = err.Error()
	} else {
		h.Embedder = "ok"
	}

	if s.stats != nil {
		stats, err := s.stats.Stats(ctx)
		if err != nil {
			s.logger.Warn("error gathering stats for health probe", "err", err)
		} else {
			h.Stats = stats
		}
	}

	return h
}
