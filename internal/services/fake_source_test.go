package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/database"
	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/pricing"
)

// fakeSource serves canned products. Products are keyed by "ean|date"; an
// empty date is the current day.
type fakeSource struct {
	mu           sync.Mutex
	search       []models.Product
	products     map[string]models.Product
	failures     map[string]error
	searchCalls  int
	productCalls int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		products: make(map[string]models.Product),
		failures: make(map[string]error),
	}
}

func (f *fakeSource) add(date string, p models.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.EAN+"|"+date] = p
}

func (f *fakeSource) SearchProducts(_ context.Context, _ cijene.SearchParams) (*models.ProductSearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++

	out := &models.ProductSearchResult{Products: make([]models.Product, len(f.search))}
	copy(out.Products, f.search)
	for i := range out.Products {
		out.Products[i].Stamp()
	}
	return out, nil
}

func (f *fakeSource) GetProduct(_ context.Context, ean string, params cijene.ProductParams) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productCalls++

	key := ean + "|" + params.Date
	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	p, ok := f.products[key]
	if !ok {
		return nil, &cijene.APIError{Status: 404, Message: cijene.ErrNotFound.Error(), Err: cijene.ErrNotFound}
	}
	p.Stamp()
	return &p, nil
}

func (f *fakeSource) calls() (search, product int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls, f.productCalls
}

func strPtr(s string) *string { return &s }

func product(ean, name string, offers ...models.ChainOffer) models.Product {
	return models.Product{EAN: ean, Name: strPtr(name), Quantity: strPtr("1"), Chains: offers}
}

func offer(chain, price, date string) models.ChainOffer {
	return models.ChainOffer{Chain: chain, Name: chain, MinPrice: price, MaxPrice: price, AvgPrice: price, PriceDate: date}
}

func newTestProductService(t *testing.T, source ProductSource) *ProductService {
	t.Helper()
	aggregator, err := pricing.NewAggregator(64)
	if err != nil {
		t.Fatalf("NewAggregator: %v", err)
	}
	return NewProductService(source, aggregator, 64)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"), false)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}
