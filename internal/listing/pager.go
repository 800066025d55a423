// Package listing progressively reveals a fetched result set in fixed-size
// batches and computes which rows of the revealed prefix are on screen.
package listing

import (
	"errors"
	"sync"
)

// DefaultBatchSize is the number of items revealed per batch.
const DefaultBatchSize = 50

// ErrInvalidBatchSize is returned for batch sizes below one.
var ErrInvalidBatchSize = errors.New("batch size must be at least 1")

// Pager reveals items in batches. The item slice is owned by the caller and is
// never modified. Every call to Reset is treated as a new result set.
type Pager[T any] struct {
	mu        sync.Mutex
	items     []T
	batchSize int
	revealed  int
}

// Page is a point-in-time view of a pager.
type Page[T any] struct {
	Items           []T  `json:"items"`
	Total           int  `json:"total"`
	Visible         int  `json:"visible"`
	Remaining       int  `json:"remaining"`
	HasMore         bool `json:"has_more"`
	BatchesRevealed int  `json:"batches_revealed"`
	BatchCount      int  `json:"batch_count"`
	BatchSize       int  `json:"batch_size"`
}

// NewPager creates a pager over items with one batch revealed, or none when
// items is empty.
func NewPager[T any](items []T, batchSize int) (*Pager[T], error) {
	if batchSize < 1 {
		return nil, ErrInvalidBatchSize
	}
	p := &Pager[T]{batchSize: batchSize}
	p.Reset(items)
	return p, nil
}

// Reset replaces the result set and resets the reveal count to the first batch.
func (p *Pager[T]) Reset(items []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = items
	p.revealed = 0
	if len(items) > 0 {
		p.revealed = 1
	}
}

// VisibleItems returns the revealed prefix of the result set.
func (p *Pager[T]) VisibleItems() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visibleLocked()
}

func (p *Pager[T]) visibleLocked() []T {
	n := p.visibleCountLocked()
	return p.items[:n:n]
}

func (p *Pager[T]) visibleCountLocked() int {
	n := p.revealed * p.batchSize
	if n > len(p.items) {
		n = len(p.items)
	}
	return n
}

func (p *Pager[T]) batchCountLocked() int {
	return (len(p.items) + p.batchSize - 1) / p.batchSize
}

// HasMore reports whether unrevealed items remain.
func (p *Pager[T]) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revealed*p.batchSize < len(p.items)
}

// LoadMore reveals the next batch. It is a no-op once everything is revealed
// and reports whether anything changed.
func (p *Pager[T]) LoadMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.revealed >= p.batchCountLocked() {
		return false
	}
	p.revealed++
	return true
}

// Reveal sets the reveal count to n batches, clamped to [1, batch count] for a
// non-empty result set.
func (p *Pager[T]) Reveal(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	count := p.batchCountLocked()
	if count == 0 {
		p.revealed = 0
		return
	}
	switch {
	case n < 1:
		n = 1
	case n > count:
		n = count
	}
	p.revealed = n
}

// Total returns the size of the full result set.
func (p *Pager[T]) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

// Remaining returns how many items are not yet revealed.
func (p *Pager[T]) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items) - p.visibleCountLocked()
}

// BatchesRevealed returns the current reveal count.
func (p *Pager[T]) BatchesRevealed() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revealed
}

// BatchSize returns the configured batch size.
func (p *Pager[T]) BatchSize() int {
	return p.batchSize
}

// Batches partitions the full result set into batches, in order.
func (p *Pager[T]) Batches() [][]T {
	p.mu.Lock()
	defer p.mu.Unlock()
	batches := make([][]T, 0, p.batchCountLocked())
	for i := 0; i < len(p.items); i += p.batchSize {
		end := i + p.batchSize
		if end > len(p.items) {
			end = len(p.items)
		}
		batches = append(batches, p.items[i:end:end])
	}
	return batches
}

// Page returns a consistent snapshot of the pager state.
func (p *Pager[T]) Page() Page[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	visible := p.visibleLocked()
	return Page[T]{
		Items:           visible,
		Total:           len(p.items),
		Visible:         len(visible),
		Remaining:       len(p.items) - len(visible),
		HasMore:         len(visible) < len(p.items),
		BatchesRevealed: p.revealed,
		BatchCount:      p.batchCountLocked(),
		BatchSize:       p.batchSize,
	}
}

// MapPage converts the items of a page, keeping its counters.
func MapPage[T, U any](p Page[T], convert func([]T) []U) Page[U] {
	return Page[U]{
		Items:           convert(p.Items),
		Total:           p.Total,
		Visible:         p.Visible,
		Remaining:       p.Remaining,
		HasMore:         p.HasMore,
		BatchesRevealed: p.BatchesRevealed,
		BatchCount:      p.BatchCount,
		BatchSize:       p.BatchSize,
	}
}
