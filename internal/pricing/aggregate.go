// Package pricing derives comparable, display-ready price figures from a
// product's per-chain offers, tolerating malformed upstream numbers.
package pricing

import (
	"github.com/disscount/disscount/internal/models"
)

// priceField selects one of the three price strings on an offer.
type priceField func(models.ChainOffer) string

func minField(c models.ChainOffer) string { return c.MinPrice }
func maxField(c models.ChainOffer) string { return c.MaxPrice }
func avgField(c models.ChainOffer) string { return c.AvgPrice }

// validPrices parses the selected field of every offer and drops the ones that
// do not parse. Unparsable values are never coerced to zero.
func validPrices(p *models.Product, field priceField) []float64 {
	if p == nil {
		return nil
	}
	prices := make([]float64, 0, len(p.Chains))
	for _, c := range p.Chains {
		if v, ok := models.ParsePrice(field(c)).Value(); ok {
			prices = append(prices, v)
		}
	}
	return prices
}

// MinPrice returns the lowest valid minimum price across chains, or 0 when no
// chain has one.
func MinPrice(p *models.Product) float64 {
	prices := validPrices(p, minField)
	if len(prices) == 0 {
		return 0
	}
	lowest := prices[0]
	for _, v := range prices[1:] {
		if v < lowest {
			lowest = v
		}
	}
	return lowest
}

// MaxPrice returns the highest valid maximum price across chains, or 0 when no
// chain has one.
func MaxPrice(p *models.Product) float64 {
	prices := validPrices(p, maxField)
	if len(prices) == 0 {
		return 0
	}
	highest := prices[0]
	for _, v := range prices[1:] {
		if v > highest {
			highest = v
		}
	}
	return highest
}

// AvgPrice returns the mean of the valid average prices. The boolean is false
// when no chain has a valid average, which callers must render as "price
// unknown" rather than as a zero price.
func AvgPrice(p *models.Product) (float64, bool) {
	prices := validPrices(p, avgField)
	if len(prices) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range prices {
		sum += v
	}
	return sum / float64(len(prices)), true
}

// MinPricePerUnit is MinPrice divided by the product quantity. It is undefined
// unless the quantity is a finite number greater than zero.
func MinPricePerUnit(p *models.Product) (float64, bool) {
	q, ok := quantity(p)
	if !ok {
		return 0, false
	}
	return MinPrice(p) / q, true
}

// MaxPricePerUnit is MaxPrice divided by the product quantity.
func MaxPricePerUnit(p *models.Product) (float64, bool) {
	q, ok := quantity(p)
	if !ok {
		return 0, false
	}
	return MaxPrice(p) / q, true
}

// AvgPricePerUnit is AvgPrice divided by the product quantity. It is undefined
// when either the quantity or the average is.
func AvgPricePerUnit(p *models.Product) (float64, bool) {
	q, ok := quantity(p)
	if !ok {
		return 0, false
	}
	avg, ok := AvgPrice(p)
	if !ok {
		return 0, false
	}
	return avg / q, true
}

func quantity(p *models.Product) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return models.ParseQuantity(p.Quantity)
}

// MostFrequentCategory returns the category reported by the most chains.
// Offers without a category are ignored. On a tie, the category seen first in
// chain order wins.
func MostFrequentCategory(p *models.Product) (string, bool) {
	if p == nil || len(p.Chains) == 0 {
		return "", false
	}

	counts := make(map[string]int)
	var order []string
	for _, c := range p.Chains {
		if c.Category == nil || *c.Category == "" {
			continue
		}
		if _, seen := counts[*c.Category]; !seen {
			order = append(order, *c.Category)
		}
		counts[*c.Category]++
	}

	best, bestCount := "", 0
	for _, cat := range order {
		if counts[cat] > bestCount {
			best, bestCount = cat, counts[cat]
		}
	}
	return best, bestCount > 0
}

// HasMultipleChains reports whether more than one chain carries the product.
func HasMultipleChains(p *models.Product) bool {
	return p != nil && len(p.Chains) > 1
}

// LowestPriceChain returns the offer with the lowest valid minimum price. The
// first offer wins ties.
func LowestPriceChain(p *models.Product) (models.ChainOffer, bool) {
	return pickChain(p, func(candidate, current float64) bool { return candidate < current })
}

// HighestPriceChain returns the offer whose minimum price is highest.
func HighestPriceChain(p *models.Product) (models.ChainOffer, bool) {
	return pickChain(p, func(candidate, current float64) bool { return candidate > current })
}

func pickChain(p *models.Product, better func(candidate, current float64) bool) (models.ChainOffer, bool) {
	if p == nil {
		return models.ChainOffer{}, false
	}
	var (
		picked    models.ChainOffer
		pickedVal float64
		found     bool
	)
	for _, c := range p.Chains {
		v, ok := models.ParsePrice(c.MinPrice).Value()
		if !ok {
			continue
		}
		if !found || better(v, pickedVal) {
			picked, pickedVal, found = c, v, true
		}
	}
	return picked, found
}
