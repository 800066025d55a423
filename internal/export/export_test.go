package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/pricing"
)

func floatPtr(f float64) *float64 { return &f }

func sampleRows() []HistoryRow {
	return []HistoryRow{
		{EAN: "1", Chain: "konzum", Date: "2025-06-01", MinPrice: floatPtr(1.19), MaxPrice: floatPtr(1.39), AvgPrice: floatPtr(1.29)},
		{EAN: "1", Chain: "spar", Date: "2025-06-01"},
	}
}

func TestNewSaver(t *testing.T) {
	assert.IsType(t, ParquetSaver{}, NewSaver("Parquet"))
	assert.IsType(t, JSONSaver{}, NewSaver(" json "))
	assert.IsType(t, CSVSaver{}, NewSaver("csv"))
	assert.Nil(t, NewSaver("xlsx"))

	_, err := SaverFor("xlsx")
	assert.Error(t, err)
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.parquet")
	require.NoError(t, ParquetSaver{}.Save(sampleRows(), path))

	rows, err := ReadParquet(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "konzum", rows[0].Chain)
	require.NotNil(t, rows[0].AvgPrice)
	assert.Equal(t, 1.29, *rows[0].AvgPrice)
	assert.Nil(t, rows[1].AvgPrice, "missing prices stay null")
}

func TestJSONSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, JSONSaver{}.Save(nil, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rows []HistoryRow
	require.NoError(t, json.Unmarshal(data, &rows))
	assert.Empty(t, rows)
	assert.Equal(t, "[]", strings.TrimSpace(string(data)))
}

func TestCSVSaver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	require.NoError(t, CSVSaver{}.Save(sampleRows(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ean,chain,date,min_price,max_price,avg_price", lines[0])
	assert.Equal(t, "1,konzum,2025-06-01,1.19,1.39,1.29", lines[1])
	assert.Equal(t, "1,spar,2025-06-01,,,", lines[2])
}

func TestRowsFromSnapshotsAndHistory(t *testing.T) {
	rows := RowsFromSnapshots([]models.PriceSnapshot{{EAN: "1", Chain: "lidl", PriceDate: "2025-06-01", AvgPrice: floatPtr(0.99)}})
	require.Len(t, rows, 1)
	assert.Equal(t, "lidl", rows[0].Chain)

	h := pricing.History{
		Chains: []string{"lidl", "spar"},
		Points: []pricing.HistoryPoint{
			{Date: "2025-06-01", Prices: map[string]*float64{"lidl": floatPtr(0.99)}},
			{Date: "2025-06-02", Prices: map[string]*float64{"lidl": nil, "spar": floatPtr(1.05)}},
		},
	}
	rows = RowsFromHistory("1", h)
	require.Len(t, rows, 3)
	assert.Equal(t, "spar", rows[2].Chain)
	assert.Nil(t, rows[1].AvgPrice)
}
