// Package export writes flattened price history rows to files.
package export

import (
	"fmt"
	"strings"

	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/pricing"
)

// HistoryRow is one chain's prices for one product on one day.
type HistoryRow struct {
	EAN      string   `json:"ean" parquet:"ean"`
	Chain    string   `json:"chain" parquet:"chain"`
	Date     string   `json:"date" parquet:"date"`
	MinPrice *float64 `json:"min_price" parquet:"min_price,optional"`
	MaxPrice *float64 `json:"max_price" parquet:"max_price,optional"`
	AvgPrice *float64 `json:"avg_price" parquet:"avg_price,optional"`
}

// Saver writes history rows to a path.
type Saver interface {
	Save(rows []HistoryRow, path string) error
	Extension() string
}

// NewSaver returns the saver for a format (parquet, json, csv), or nil when the
// format is not supported.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	case "csv":
		return CSVSaver{}
	default:
		return nil
	}
}

// SaverFor is NewSaver with an error for unknown formats.
func SaverFor(format string) (Saver, error) {
	s := NewSaver(format)
	if s == nil {
		return nil, fmt.Errorf("unsupported export format %q (use parquet, json or csv)", format)
	}
	return s, nil
}

// RowsFromSnapshots converts stored snapshot rows.
func RowsFromSnapshots(snapshots []models.PriceSnapshot) []HistoryRow {
	rows := make([]HistoryRow, 0, len(snapshots))
	for _, s := range snapshots {
		rows = append(rows, HistoryRow{
			EAN:      s.EAN,
			Chain:    s.Chain,
			Date:     s.PriceDate,
			MinPrice: s.MinPrice,
			MaxPrice: s.MaxPrice,
			AvgPrice: s.AvgPrice,
		})
	}
	return rows
}

// RowsFromHistory flattens a chart history, which only carries averages.
func RowsFromHistory(ean string, h pricing.History) []HistoryRow {
	var rows []HistoryRow
	for _, p := range h.Points {
		for _, chain := range h.Chains {
			avg, ok := p.Prices[chain]
			if !ok {
				continue
			}
			rows = append(rows, HistoryRow{EAN: ean, Chain: chain, Date: p.Date, AvgPrice: avg})
		}
	}
	return rows
}
