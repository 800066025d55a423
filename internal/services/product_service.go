package services

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/metrics"
	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/pricing"
	"github.com/disscount/disscount/internal/textsearch"
)

const (
	// SearchCacheTTL is how long a product search result is reused
	SearchCacheTTL = 3 * time.Hour
	// ProductCacheTTL is how long a single product lookup is reused
	ProductCacheTTL = 6 * time.Hour

	defaultProductCacheSize = 512
)

// ProductSource is the subset of the Cijene client the services depend on.
type ProductSource interface {
	SearchProducts(ctx context.Context, params cijene.SearchParams) (*models.ProductSearchResult, error)
	GetProduct(ctx context.Context, ean string, params cijene.ProductParams) (*models.Product, error)
}

// ProductQuery is a product search plus an optional client-side refinement.
type ProductQuery struct {
	Query  string   `json:"query"`
	Date   string   `json:"date,omitempty"`
	Chains []string `json:"chains,omitempty"`
	Filter string   `json:"filter,omitempty"`
}

// ProductView is a product together with its derived prices.
type ProductView struct {
	*models.Product
	Prices pricing.View `json:"prices"`
}

// ProductService searches and looks up products, caching upstream responses.
// Cached products keep their snapshot identity, so repeated reads reuse the
// memoized aggregates until the entry expires.
type ProductService struct {
	source     ProductSource
	aggregator *pricing.Aggregator
	searches   *expirable.LRU[string, []*models.Product]
	products   *expirable.LRU[string, *models.Product]
}

// NewProductService creates a new product service
func NewProductService(source ProductSource, aggregator *pricing.Aggregator, cacheSize int) *ProductService {
	if cacheSize <= 0 {
		cacheSize = defaultProductCacheSize
	}
	s := &ProductService{
		source:     source,
		aggregator: aggregator,
	}
	s.searches = expirable.NewLRU[string, []*models.Product](cacheSize, func(_ string, products []*models.Product) {
		for _, p := range products {
			s.aggregator.Forget(p.SnapshotID)
		}
	}, SearchCacheTTL)
	s.products = expirable.NewLRU[string, *models.Product](cacheSize, func(_ string, p *models.Product) {
		s.aggregator.Forget(p.SnapshotID)
	}, ProductCacheTTL)
	return s
}

// Search returns the products matching q.Query, narrowed by q.Filter.
func (s *ProductService) Search(ctx context.Context, q ProductQuery) ([]*models.Product, error) {
	q.Query = strings.TrimSpace(q.Query)
	key := cacheKey("search", q.Query, q.Date, q.Chains)

	products, ok := s.searches.Get(key)
	if ok {
		metrics.UpstreamCacheHits.Inc()
	} else {
		metrics.UpstreamCacheMisses.Inc()
		result, err := s.source.SearchProducts(ctx, cijene.SearchParams{
			Query:  q.Query,
			Date:   q.Date,
			Chains: q.Chains,
		})
		if err != nil {
			return nil, err
		}
		products = make([]*models.Product, len(result.Products))
		for i := range result.Products {
			products[i] = &result.Products[i]
		}
		s.searches.Add(key, products)
	}

	return FilterProducts(products, q.Filter), nil
}

// Product looks up a single product by EAN.
func (s *ProductService) Product(ctx context.Context, ean string, params cijene.ProductParams) (*models.Product, error) {
	key := cacheKey("product", ean, params.Date, params.Chains)
	if p, ok := s.products.Get(key); ok {
		metrics.UpstreamCacheHits.Inc()
		return p, nil
	}
	metrics.UpstreamCacheMisses.Inc()

	p, err := s.source.GetProduct(ctx, ean, params)
	if err != nil {
		return nil, err
	}
	s.products.Add(key, p)
	return p, nil
}

// View attaches the memoized price aggregates to a product.
func (s *ProductService) View(p *models.Product) ProductView {
	return ProductView{Product: p, Prices: s.aggregator.View(p)}
}

// Views is View over a slice, preserving order.
func (s *ProductService) Views(products []*models.Product) []ProductView {
	views := make([]ProductView, len(products))
	for i, p := range products {
		views[i] = s.View(p)
	}
	return views
}

// Purge drops every cached upstream response.
func (s *ProductService) Purge() {
	s.searches.Purge()
	s.products.Purge()
}

var productFields = []textsearch.Field[*models.Product]{
	textsearch.StringField(func(p *models.Product) string { return p.DisplayName() }),
	textsearch.OptionalField(func(p *models.Product) *string { return p.Brand }),
	func(p *models.Product) (string, bool) {
		return pricing.MostFrequentCategory(p)
	},
}

// FilterProducts narrows products by name, brand or category, ignoring case
// and Croatian diacritics. A blank filter returns products unchanged.
func FilterProducts(products []*models.Product, filter string) []*models.Product {
	return textsearch.FilterByFields(products, filter, productFields...)
}

func cacheKey(kind, query, date string, chains []string) string {
	return strings.Join([]string{kind, strings.ToLower(query), date, cijene.JoinChains(chains)}, "|")
}
