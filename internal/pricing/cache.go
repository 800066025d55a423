package pricing

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/disscount/disscount/internal/metrics"
	"github.com/disscount/disscount/internal/models"
)

const defaultCacheSize = 4096

// Aggregator memoizes Views per product snapshot. Entries are keyed by the
// product's SnapshotID, never by EAN, so a product fetched for another date
// always gets its own entry. Products without a snapshot id are computed but
// not cached.
type Aggregator struct {
	cache *lru.Cache[uuid.UUID, View]
}

// NewAggregator creates an aggregator holding at most size snapshots.
func NewAggregator(size int) (*Aggregator, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[uuid.UUID, View](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create aggregate cache: %w", err)
	}
	return &Aggregator{cache: cache}, nil
}

// View returns the cached View for p, computing it on a miss.
func (a *Aggregator) View(p *models.Product) View {
	if p == nil || p.SnapshotID == uuid.Nil {
		return Compute(p)
	}
	if v, ok := a.cache.Get(p.SnapshotID); ok {
		metrics.AggregateCacheHits.Inc()
		return v
	}
	metrics.AggregateCacheMisses.Inc()
	v := Compute(p)
	a.cache.Add(p.SnapshotID, v)
	return v
}

// Forget evicts a discarded snapshot.
func (a *Aggregator) Forget(id uuid.UUID) {
	a.cache.Remove(id)
}

// Len returns the number of cached snapshots.
func (a *Aggregator) Len() int {
	return a.cache.Len()
}
