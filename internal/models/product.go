package models

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is one catalog entry from the Cijene API, identified by its EAN.
// A Product is a snapshot: it is never mutated after it is decoded, and a fetch
// for a different date produces a new value with a new SnapshotID.
type Product struct {
	SnapshotID uuid.UUID    `json:"-"`
	EAN        string       `json:"ean" validate:"required"`
	Brand      *string      `json:"brand"`
	Name       *string      `json:"name"`
	Quantity   *string      `json:"quantity"`
	Unit       *string      `json:"unit"`
	Chains     []ChainOffer `json:"chains" validate:"dive"`
}

// ChainOffer is one retail chain's observed pricing for a product on a date.
// Prices arrive as decimal strings and are parsed with ParsePrice.
type ChainOffer struct {
	Chain     string  `json:"chain" validate:"required"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Brand     *string `json:"brand"`
	Category  *string `json:"category"`
	Unit      *string `json:"unit"`
	Quantity  *string `json:"quantity"`
	MinPrice  string  `json:"min_price"`
	MaxPrice  string  `json:"max_price"`
	AvgPrice  string  `json:"avg_price"`
	PriceDate string  `json:"price_date" validate:"required,datetime=2006-01-02"`
}

// Stamp assigns a fresh snapshot identity. Callers stamp a product once, right
// after decoding it.
func (p *Product) Stamp() {
	p.SnapshotID = uuid.New()
}

// DisplayName returns the product name, falling back to the first chain's name
// and then to the EAN.
func (p *Product) DisplayName() string {
	if p.Name != nil && strings.TrimSpace(*p.Name) != "" {
		return *p.Name
	}
	for _, c := range p.Chains {
		if c.Name != "" {
			return c.Name
		}
	}
	return p.EAN
}

// FindChain returns the offer for the given chain code.
func (p *Product) FindChain(chain string) (ChainOffer, bool) {
	for _, c := range p.Chains {
		if c.Chain == chain {
			return c, true
		}
	}
	return ChainOffer{}, false
}

// PriceValue is the result of parsing a price string from the upstream API.
// It is either a finite, non-negative number or unparsable.
type PriceValue struct {
	value float64
	ok    bool
}

// ParsePrice parses an upstream decimal price string. Anything that is not a
// finite, non-negative decimal is reported as unparsable.
func ParsePrice(raw string) PriceValue {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PriceValue{}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return PriceValue{}
	}
	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return PriceValue{}
	}
	return PriceValue{value: f, ok: true}
}

// ParseOptionalPrice is ParsePrice for nullable fields.
func ParseOptionalPrice(raw *string) PriceValue {
	if raw == nil {
		return PriceValue{}
	}
	return ParsePrice(*raw)
}

// Value returns the parsed number and whether parsing succeeded.
func (v PriceValue) Value() (float64, bool) {
	return v.value, v.ok
}

// Valid reports whether the price parsed.
func (v PriceValue) Valid() bool {
	return v.ok
}

// ParseQuantity parses a product quantity. Only finite values strictly greater
// than zero are usable as a per-unit divisor.
func ParseQuantity(raw *string) (float64, bool) {
	v, ok := ParseOptionalPrice(raw).Value()
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// FormatQuantity trims trailing zeros from decimal quantities: "1.000" -> "1",
// "1.200" -> "1.2".
func FormatQuantity(q *string) string {
	if q == nil {
		return ""
	}
	s := *q
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// ProductSearchResult is the upstream product search payload.
type ProductSearchResult struct {
	Products []Product `json:"products" validate:"dive"`
}
