package listing

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestNewPagerRejectsInvalidBatchSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		_, err := NewPager(seq(3), size)
		assert.ErrorIs(t, err, ErrInvalidBatchSize)
	}
}

func TestPagerRevealsInBatches(t *testing.T) {
	p, err := NewPager(seq(137), 50)
	require.NoError(t, err)

	assert.Len(t, p.VisibleItems(), 50)
	assert.True(t, p.HasMore())
	assert.Equal(t, 87, p.Remaining())

	assert.True(t, p.LoadMore())
	assert.Len(t, p.VisibleItems(), 100)

	assert.True(t, p.LoadMore())
	visible := p.VisibleItems()
	assert.Len(t, visible, 137)
	assert.Equal(t, seq(137), visible)
	assert.False(t, p.HasMore())

	assert.False(t, p.LoadMore(), "load past the end is a no-op")
	assert.Equal(t, 3, p.BatchesRevealed())
	assert.Len(t, p.VisibleItems(), 137)
}

func TestPagerEmpty(t *testing.T) {
	p, err := NewPager([]string{}, 50)
	require.NoError(t, err)

	assert.Empty(t, p.VisibleItems())
	assert.False(t, p.HasMore())
	assert.False(t, p.LoadMore())
	assert.Equal(t, 0, p.BatchesRevealed())

	page := p.Page()
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, page.BatchCount)
}

func TestPagerExactMultiple(t *testing.T) {
	p, err := NewPager(seq(100), 50)
	require.NoError(t, err)
	assert.True(t, p.LoadMore())
	assert.False(t, p.HasMore())
	assert.False(t, p.LoadMore())
}

func TestPagerReset(t *testing.T) {
	p, err := NewPager(seq(137), 50)
	require.NoError(t, err)
	p.LoadMore()
	p.LoadMore()
	require.False(t, p.HasMore())

	p.Reset(seq(120))
	assert.Equal(t, 1, p.BatchesRevealed())
	assert.Len(t, p.VisibleItems(), 50)
	assert.True(t, p.HasMore())

	p.Reset(nil)
	assert.Empty(t, p.VisibleItems())
	assert.False(t, p.HasMore())
}

func TestPagerVisibleIsPrefix(t *testing.T) {
	items := seq(7)
	p, err := NewPager(items, 3)
	require.NoError(t, err)

	for {
		visible := p.VisibleItems()
		assert.Equal(t, items[:len(visible)], visible)
		assert.LessOrEqual(t, len(visible), len(items))
		if !p.LoadMore() {
			break
		}
	}

	p.Reset(items)
	visible := p.VisibleItems()
	_ = append(visible, 99)
	assert.Equal(t, 3, items[3], "appending to the visible prefix must not clobber the source")
}

func TestPagerReveal(t *testing.T) {
	p, err := NewPager(seq(137), 50)
	require.NoError(t, err)

	p.Reveal(10)
	assert.Equal(t, 3, p.BatchesRevealed())
	p.Reveal(0)
	assert.Equal(t, 1, p.BatchesRevealed())
	p.Reveal(2)
	assert.Len(t, p.VisibleItems(), 100)
}

func TestPagerBatches(t *testing.T) {
	p, err := NewPager(seq(7), 3)
	require.NoError(t, err)

	batches := p.Batches()
	require.Len(t, batches, 3)
	assert.Equal(t, []int{0, 1, 2}, batches[0])
	assert.Equal(t, []int{6}, batches[2])
}

func TestPagerPage(t *testing.T) {
	p, err := NewPager(seq(137), 50)
	require.NoError(t, err)
	p.LoadMore()

	page := p.Page()
	assert.Equal(t, 137, page.Total)
	assert.Equal(t, 100, page.Visible)
	assert.Equal(t, 37, page.Remaining)
	assert.True(t, page.HasMore)
	assert.Equal(t, 2, page.BatchesRevealed)
	assert.Equal(t, 3, page.BatchCount)
	assert.Equal(t, 50, page.BatchSize)
}

func TestPagerConcurrentLoadMore(t *testing.T) {
	p, err := NewPager(seq(1000), 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.LoadMore()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, p.BatchesRevealed())
	assert.Len(t, p.VisibleItems(), 1000)
}

func TestMapPageKeepsCounters(t *testing.T) {
	p, err := NewPager([]int{1, 2, 3, 4, 5}, 2)
	require.NoError(t, err)
	p.LoadMore()

	page := MapPage(p.Page(), func(items []int) []string {
		out := make([]string, len(items))
		for i, v := range items {
			out[i] = strconv.Itoa(v)
		}
		return out
	})
	assert.Equal(t, []string{"1", "2", "3", "4"}, page.Items)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 4, page.Visible)
	assert.Equal(t, 1, page.Remaining)
	assert.True(t, page.HasMore)
	assert.Equal(t, 2, page.BatchesRevealed)
	assert.Equal(t, 3, page.BatchCount)
}
