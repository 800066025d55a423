package cijene

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/disscount/disscount/internal/models"
)

// ChainList is the payload of /v1/chains/.
type ChainList struct {
	Chains []string `json:"chains" validate:"required"`
}

// Store is a physical store as returned by the store endpoints.
type Store struct {
	ChainCode string   `json:"chain_code" validate:"required"`
	Code      string   `json:"code" validate:"required"`
	Type      *string  `json:"type"`
	Address   *string  `json:"address"`
	City      *string  `json:"city"`
	Zipcode   *string  `json:"zipcode"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
	Phone     *string  `json:"phone"`
}

type StoreList struct {
	Stores []Store `json:"stores" validate:"required,dive"`
}

// PriceStore is the store embedded in a store price row.
type PriceStore struct {
	ChainID int      `json:"chain_id"`
	Code    string   `json:"code" validate:"required"`
	Type    *string  `json:"type"`
	Address *string  `json:"address"`
	City    *string  `json:"city"`
	Zipcode *string  `json:"zipcode"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	Phone   *string  `json:"phone"`
}

// StorePrice is one product's price in one store on one date.
type StorePrice struct {
	Chain        string     `json:"chain" validate:"required"`
	EAN          string     `json:"ean" validate:"required"`
	PriceDate    string     `json:"price_date" validate:"required,datetime=2006-01-02"`
	RegularPrice *string    `json:"regular_price"`
	SpecialPrice *string    `json:"special_price"`
	UnitPrice    *string    `json:"unit_price"`
	BestPrice30  *string    `json:"best_price_30"`
	AnchorPrice  *string    `json:"anchor_price"`
	Store        PriceStore `json:"store"`
}

// EffectivePrice returns the special price when one is set, otherwise the
// regular price.
func (p StorePrice) EffectivePrice() models.PriceValue {
	if v := models.ParseOptionalPrice(p.SpecialPrice); v.Valid() {
		return v
	}
	return models.ParseOptionalPrice(p.RegularPrice)
}

type StorePriceList struct {
	StorePrices []StorePrice `json:"store_prices" validate:"required,dive"`
}

// ChainStat summarizes one chain's price import for a date.
type ChainStat struct {
	ChainCode  string `json:"chain_code" validate:"required"`
	PriceDate  string `json:"price_date" validate:"required,datetime=2006-01-02"`
	PriceCount int    `json:"price_count"`
	StoreCount int    `json:"store_count"`
	CreatedAt  string `json:"created_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

type ChainStatList struct {
	ChainStats []ChainStat `json:"chain_stats" validate:"required,dive"`
}

// Archive is a downloadable daily price archive.
type Archive struct {
	Date    string  `json:"date" validate:"required"`
	URL     string  `json:"url" validate:"required"`
	Size    float64 `json:"size"`
	Updated string  `json:"updated"`
}

type ArchiveList struct {
	Archives []Archive `json:"archives" validate:"required,dive"`
}

// HealthStatus is the upstream health payload. Both fields are optional.
type HealthStatus struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// SearchParams filters a product search.
type SearchParams struct {
	Query  string `validate:"required"`
	Date   string `validate:"omitempty,datetime=2006-01-02"`
	Chains []string
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	v.Set("q", p.Query)
	setDateAndChains(v, p.Date, p.Chains)
	return v
}

// ProductParams selects the date and chains for a single product lookup.
type ProductParams struct {
	Date   string `validate:"omitempty,datetime=2006-01-02"`
	Chains []string
}

func (p ProductParams) values() url.Values {
	v := url.Values{}
	setDateAndChains(v, p.Date, p.Chains)
	return v
}

// Location narrows store and price queries geographically. Distance is in
// kilometres around Lat/Lon.
type Location struct {
	City     string
	Address  string
	Lat      *float64 `validate:"omitempty,latitude"`
	Lon      *float64 `validate:"omitempty,longitude"`
	Distance *float64 `validate:"omitempty,gt=0"`
}

func (l Location) apply(v url.Values) {
	if l.City != "" {
		v.Set("city", l.City)
	}
	if l.Address != "" {
		v.Set("address", l.Address)
	}
	if l.Lat != nil {
		v.Set("lat", formatFloat(*l.Lat))
	}
	if l.Lon != nil {
		v.Set("lon", formatFloat(*l.Lon))
	}
	if l.Distance != nil {
		v.Set("d", formatFloat(*l.Distance))
	}
}

// StoreParams filters a store search.
type StoreParams struct {
	Chains []string
	Location
}

func (p StoreParams) values() url.Values {
	v := url.Values{}
	setDateAndChains(v, "", p.Chains)
	p.Location.apply(v)
	return v
}

// PriceParams selects store prices for a set of EANs.
type PriceParams struct {
	EANs   []string `validate:"required,min=1,dive,required"`
	Chains []string
	Location
}

func (p PriceParams) values() url.Values {
	v := url.Values{}
	v.Set("eans", strings.Join(p.EANs, ","))
	setDateAndChains(v, "", p.Chains)
	p.Location.apply(v)
	return v
}

func setDateAndChains(v url.Values, date string, chains []string) {
	if date != "" {
		v.Set("date", date)
	}
	if joined := JoinChains(chains); joined != "" {
		v.Set("chains", joined)
	}
}

// JoinChains joins chain codes into the comma separated form the API expects,
// dropping blanks.
func JoinChains(chains []string) string {
	kept := make([]string, 0, len(chains))
	for _, c := range chains {
		if c = strings.TrimSpace(c); c != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, ",")
}

// SplitChains is the inverse of JoinChains.
func SplitChains(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
