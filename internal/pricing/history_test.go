package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disscount/disscount/internal/models"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		input string
		want  Period
		days  int
	}{
		{"", PeriodWeek, 7},
		{"1w", PeriodWeek, 7},
		{"1M", PeriodMonth, 30},
		{"1Y", PeriodYear, 365},
		{"all", PeriodAll, -1},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, err := ParsePeriod(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
			assert.Equal(t, tt.days, p.Days())
		})
	}

	_, err := ParsePeriod("2W")
	assert.Error(t, err)
}

func TestHistoryDates(t *testing.T) {
	now := time.Date(2025, 7, 10, 15, 30, 0, 0, time.UTC)

	dates := HistoryDates(now, 7)
	require.Len(t, dates, 7)
	assert.Equal(t, "2025-07-04", dates[0])
	assert.Equal(t, "2025-07-10", dates[6], "today is included and last")
}

func TestHistoryDatesCappedAtStart(t *testing.T) {
	now := time.Date(2025, 5, 20, 8, 0, 0, 0, time.UTC)

	dates := HistoryDates(now, 30)
	require.Len(t, dates, 5)
	assert.Equal(t, "2025-05-16", dates[0], "the first data day is included")
	assert.Equal(t, "2025-05-20", dates[4])

	all := HistoryDates(now, -1)
	assert.Equal(t, dates, all)

	assert.Equal(t, []string{"2025-05-16"}, HistoryDates(time.Date(2025, 5, 16, 10, 0, 0, 0, time.UTC), 7))
	assert.Empty(t, HistoryDates(time.Date(2025, 5, 15, 23, 0, 0, 0, time.UTC), 7))
}

func TestBuildHistory(t *testing.T) {
	dates := []string{"2025-06-01", "2025-06-02", "2025-06-03"}
	snapshots := []*models.Product{
		{EAN: "1", Chains: []models.ChainOffer{
			{Chain: "konzum", AvgPrice: "2.00"},
			{Chain: "spar", AvgPrice: "bad"},
		}},
		nil,
		{EAN: "1", Chains: []models.ChainOffer{
			{Chain: "lidl", AvgPrice: "1.00"},
			{Chain: "konzum", AvgPrice: "3.00"},
		}},
	}

	h := BuildHistory(dates, snapshots)

	assert.Equal(t, []string{"konzum", "spar", "lidl"}, h.Chains)
	require.Len(t, h.Points, 3)
	assert.Equal(t, 3, h.Days)
	require.NotNil(t, h.Points[0].Prices["konzum"])
	assert.Equal(t, 2.00, *h.Points[0].Prices["konzum"])
	assert.Contains(t, h.Points[0].Prices, "spar")
	assert.Nil(t, h.Points[0].Prices["spar"])
	assert.Empty(t, h.Points[1].Prices)
	assert.Equal(t, Domain{Min: 0.9, Max: 3.3}, h.Domain)

	change, ok := h.PeriodChange("konzum")
	require.True(t, ok)
	assert.Equal(t, 1.00, change.Difference)
	require.True(t, change.Known())
	assert.InDelta(t, 50, *change.Percentage, 1e-9)
}

func TestBuildHistoryEmpty(t *testing.T) {
	h := BuildHistory([]string{"2025-06-01"}, []*models.Product{nil})

	assert.Equal(t, Domain{}, h.Domain)
	assert.Empty(t, h.Chains)

	_, ok := h.PeriodChange()
	assert.False(t, ok)
}

func TestBuildHistoryFromSnapshots(t *testing.T) {
	avg := func(f float64) *float64 { return &f }
	rows := []models.PriceSnapshot{
		{EAN: "1", Chain: "konzum", PriceDate: "2025-06-01", AvgPrice: avg(2)},
		{EAN: "1", Chain: "konzum", PriceDate: "2025-06-02", AvgPrice: avg(0)},
		{EAN: "1", Chain: "spar", PriceDate: "2025-06-02", AvgPrice: nil},
	}

	h := BuildHistoryFromSnapshots([]string{"2025-06-01", "2025-06-02"}, rows)

	assert.Equal(t, []string{"konzum", "spar"}, h.Chains)
	assert.Equal(t, Domain{Min: 0, Max: 2.2}, h.Domain)

	change, ok := h.PeriodChange()
	require.True(t, ok)
	assert.Equal(t, -2.0, change.Difference)
	require.True(t, change.Known())
	assert.InDelta(t, -100, *change.Percentage, 1e-9)
}

func TestPeriodChangeFromZeroIsUnknown(t *testing.T) {
	zero, two := 0.0, 2.0
	h := History{Points: []HistoryPoint{
		{Date: "2025-06-01", Prices: map[string]*float64{"konzum": &zero}},
		{Date: "2025-06-02", Prices: map[string]*float64{"konzum": &two}},
	}}

	change, ok := h.PeriodChange()
	require.True(t, ok)
	assert.Equal(t, 2.0, change.Difference)
	assert.False(t, change.Known())
}
