package models

import (
	"time"
)

// PriceSnapshot stores one chain's daily prices for a product.
type PriceSnapshot struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EAN       string    `json:"ean" gorm:"not null;uniqueIndex:idx_ean_chain_date"`
	Chain     string    `json:"chain" gorm:"not null;uniqueIndex:idx_ean_chain_date"`
	PriceDate string    `json:"price_date" gorm:"not null;uniqueIndex:idx_ean_chain_date;index"`
	MinPrice  *float64  `json:"min_price"`
	MaxPrice  *float64  `json:"max_price"`
	AvgPrice  *float64  `json:"avg_price"`
	Source    string    `json:"source"` // "cijene"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SnapshotsFromProduct flattens a product into one row per chain. Unparsable
// prices are stored as NULL rather than zero.
func SnapshotsFromProduct(p *Product, source string) []PriceSnapshot {
	rows := make([]PriceSnapshot, 0, len(p.Chains))
	for _, c := range p.Chains {
		rows = append(rows, PriceSnapshot{
			EAN:       p.EAN,
			Chain:     c.Chain,
			PriceDate: c.PriceDate,
			MinPrice:  floatPtr(ParsePrice(c.MinPrice)),
			MaxPrice:  floatPtr(ParsePrice(c.MaxPrice)),
			AvgPrice:  floatPtr(ParsePrice(c.AvgPrice)),
			Source:    source,
		})
	}
	return rows
}

func floatPtr(v PriceValue) *float64 {
	f, ok := v.Value()
	if !ok {
		return nil
	}
	return &f
}

// ShoppingListValueSnapshot stores the daily total of a shopping list, used for
// tracking how the cost of a list changes over time.
type ShoppingListValueSnapshot struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ShoppingListID uint      `json:"shopping_list_id" gorm:"not null;uniqueIndex:idx_list_date"`
	SnapshotDate   string    `json:"snapshot_date" gorm:"not null;uniqueIndex:idx_list_date"`
	Total          float64   `json:"total"`
	PricedItems    int       `json:"priced_items"`
	TotalItems     int       `json:"total_items"`
	CreatedAt      time.Time `json:"created_at"`
}

// ValueHistoryResponse is the API response for shopping list value history.
type ValueHistoryResponse struct {
	Snapshots []ShoppingListValueSnapshot `json:"snapshots"`
	Period    string                      `json:"period"` // "1W", "1M", "1Y", "ALL"
}
