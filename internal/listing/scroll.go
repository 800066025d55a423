package listing

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultThresholdViewports is how many viewports of remaining content
	// trigger the next batch.
	DefaultThresholdViewports = 1.5
	// DefaultScrollInterval is the minimum spacing between handled scroll events.
	DefaultScrollInterval = 100 * time.Millisecond
)

// ScrollPosition is one observation of the document scroll state.
type ScrollPosition struct {
	ScrollY        float64 `json:"scroll_y"`
	ViewportHeight float64 `json:"viewport_height"`
	DocumentHeight float64 `json:"document_height"`
}

// usable reports whether the observation carries real layout information. A
// render pass without a viewport reports zeros.
func (p ScrollPosition) usable() bool {
	for _, v := range []float64{p.ScrollY, p.ViewportHeight, p.DocumentHeight} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return p.ViewportHeight > 0 && p.DocumentHeight > 0
}

// Loader is the part of a pager a ScrollWatcher drives.
type Loader interface {
	HasMore() bool
	LoadMore() bool
}

// ScrollOptions tunes when a ScrollWatcher loads and how often it looks.
type ScrollOptions struct {
	// ThresholdViewports is the remaining distance to the bottom, in viewport
	// heights, at which the next batch loads.
	ThresholdViewports float64
	// Interval throttles observations; zero disables throttling.
	Interval time.Duration
}

// ScrollWatcher loads the next batch when the reader scrolls close to the end
// of the document. Observations never block: throttled ones are dropped.
type ScrollWatcher struct {
	mu        sync.Mutex
	loader    Loader
	threshold float64
	limiter   *rate.Limiter
	closed    bool
}

// NewScrollWatcher returns a watcher driving loader, with defaults for unset options.
func NewScrollWatcher(loader Loader, opts ScrollOptions) *ScrollWatcher {
	threshold := opts.ThresholdViewports
	if threshold <= 0 {
		threshold = DefaultThresholdViewports
	}
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	return &ScrollWatcher{
		loader:    loader,
		threshold: threshold,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Observe handles a scroll event and reports whether a batch was loaded.
func (w *ScrollWatcher) Observe(pos ScrollPosition) bool {
	return w.ObserveAt(time.Now(), pos)
}

// ObserveAt is Observe with an explicit event time.
func (w *ScrollWatcher) ObserveAt(at time.Time, pos ScrollPosition) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || !pos.usable() {
		return false
	}
	if !w.limiter.AllowN(at, 1) {
		return false
	}
	if !w.loader.HasMore() {
		return false
	}
	distance := w.threshold * pos.ViewportHeight
	if pos.ScrollY+pos.ViewportHeight < pos.DocumentHeight-distance {
		return false
	}
	return w.loader.LoadMore()
}

// Close detaches the watcher; later observations are ignored.
func (w *ScrollWatcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
}

// Closed reports whether Close has been called.
func (w *ScrollWatcher) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
