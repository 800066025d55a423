package listing

import (
	"sort"
	"sync"
)

// Layout selects how items map onto rows.
type Layout string

const (
	LayoutList Layout = "list"
	LayoutGrid Layout = "grid"
)

// ParseLayout maps a view-mode string to a Layout, defaulting to list.
func ParseLayout(s string) Layout {
	if Layout(s) == LayoutGrid {
		return LayoutGrid
	}
	return LayoutList
}

// Columns returns the number of items per row.
func (l Layout) Columns(gridColumns int) int {
	if l != LayoutGrid || gridColumns < 1 {
		return 1
	}
	return gridColumns
}

// RowCount returns how many rows itemCount items occupy with the given number
// of columns.
func RowCount(itemCount, columns int) int {
	if columns < 1 {
		columns = 1
	}
	if itemCount <= 0 {
		return 0
	}
	return (itemCount + columns - 1) / columns
}

// Range is a half-open [Start, End) index range.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of indices in the range.
func (r Range) Len() int {
	return r.End - r.Start
}

// Window tracks row heights for virtualized rendering. Rows start with an
// estimated height that is replaced once the real height is measured.
type Window struct {
	mu       sync.Mutex
	rowCount int
	estimate float64
	overscan int
	measured map[int]float64
}

// NewWindow returns a window of rowCount rows at the estimated height.
func NewWindow(rowCount int, estimatedRowHeight float64, overscan int) *Window {
	if rowCount < 0 {
		rowCount = 0
	}
	if estimatedRowHeight <= 0 {
		estimatedRowHeight = 1
	}
	if overscan < 0 {
		overscan = 0
	}
	return &Window{
		rowCount: rowCount,
		estimate: estimatedRowHeight,
		overscan: overscan,
		measured: make(map[int]float64),
	}
}

// SetRowCount resizes the window, dropping measurements past the new end.
func (w *Window) SetRowCount(n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if n < 0 {
		n = 0
	}
	for row := range w.measured {
		if row >= n {
			delete(w.measured, row)
		}
	}
	w.rowCount = n
}

// RowCount returns the number of rows.
func (w *Window) RowCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rowCount
}

// Measure records the rendered height of a row.
func (w *Window) Measure(row int, height float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if row < 0 || row >= w.rowCount || height <= 0 {
		return
	}
	w.measured[row] = height
}

func (w *Window) rowHeightLocked(row int) float64 {
	if h, ok := w.measured[row]; ok {
		return h
	}
	return w.estimate
}

// RowOffset returns the top position of row.
func (w *Window) RowOffset(row int) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var offset float64
	for i := 0; i < row && i < w.rowCount; i++ {
		offset += w.rowHeightLocked(i)
	}
	return offset
}

// TotalHeight returns the scrollable height of all rows.
func (w *Window) TotalHeight() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := float64(w.rowCount-len(w.measured)) * w.estimate
	for _, h := range w.measured {
		total += h
	}
	return total
}

// VisibleRange returns the rows intersecting [scrollTop, scrollTop+viewport),
// widened by the overscan on both sides.
func (w *Window) VisibleRange(scrollTop, viewportHeight float64) Range {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.rowCount == 0 {
		return Range{}
	}
	if scrollTop < 0 {
		scrollTop = 0
	}
	if viewportHeight < 0 {
		viewportHeight = 0
	}
	bottom := scrollTop + viewportHeight

	offsets := w.offsetsLocked()
	start := sort.Search(w.rowCount, func(row int) bool {
		return offsets[row+1] > scrollTop
	})
	if start == w.rowCount {
		start = w.rowCount - 1
	}
	end := start + 1
	if past := sort.Search(w.rowCount, func(row int) bool {
		return offsets[row] >= bottom
	}); past > end {
		end = past
	}

	start -= w.overscan
	if start < 0 {
		start = 0
	}
	end += w.overscan
	if end > w.rowCount {
		end = w.rowCount
	}
	return Range{Start: start, End: end}
}

// offsetsLocked returns the prefix sums of row heights: offsets[i] is the top
// of row i and offsets[rowCount] the total height.
func (w *Window) offsetsLocked() []float64 {
	offsets := make([]float64, w.rowCount+1)
	for row := 0; row < w.rowCount; row++ {
		offsets[row+1] = offsets[row] + w.rowHeightLocked(row)
	}
	return offsets
}

// ItemRange maps a row range to the item indices it covers.
func ItemRange(rows Range, columns, itemCount int) Range {
	if columns < 1 {
		columns = 1
	}
	start := rows.Start * columns
	end := rows.End * columns
	if end > itemCount {
		end = itemCount
	}
	if start > end {
		start = end
	}
	return Range{Start: start, End: end}
}
