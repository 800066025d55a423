package pricing

import (
	"github.com/disscount/disscount/internal/models"
)

// View is the derived, display-ready price summary of one product snapshot.
// Optional figures are nil when undefined.
type View struct {
	MinPrice        float64  `json:"min_price"`
	MaxPrice        float64  `json:"max_price"`
	AvgPrice        *float64 `json:"avg_price"`
	MinPricePerUnit *float64 `json:"min_price_per_unit"`
	MaxPricePerUnit *float64 `json:"max_price_per_unit"`
	AvgPricePerUnit *float64 `json:"avg_price_per_unit"`
	Category        *string  `json:"category"`
	LowestChain     *string  `json:"lowest_chain"`
	ChainCount      int      `json:"chain_count"`
}

// Compute derives the View for a product without caching.
func Compute(p *models.Product) View {
	v := View{
		MinPrice:        MinPrice(p),
		MaxPrice:        MaxPrice(p),
		AvgPrice:        optional(AvgPrice(p)),
		MinPricePerUnit: optional(MinPricePerUnit(p)),
		MaxPricePerUnit: optional(MaxPricePerUnit(p)),
		AvgPricePerUnit: optional(AvgPricePerUnit(p)),
	}
	if p != nil {
		v.ChainCount = len(p.Chains)
	}
	if cat, ok := MostFrequentCategory(p); ok {
		v.Category = &cat
	}
	if c, ok := LowestPriceChain(p); ok {
		chain := c.Chain
		v.LowestChain = &chain
	}
	return v
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}
