package services

import (
	"context"
	"testing"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/models"
)

func TestSearchIsCached(t *testing.T) {
	source := newFakeSource()
	source.search = []models.Product{
		product("1", "Mlijeko", offer("konzum", "1.29", "2025-06-01")),
		product("2", "Jogurt", offer("spar", "0.89", "2025-06-01")),
	}
	svc := newTestProductService(t, source)
	ctx := context.Background()

	first, err := svc.Search(ctx, ProductQuery{Query: "mlijeko"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	second, err := svc.Search(ctx, ProductQuery{Query: " Mlijeko "})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if searches, _ := source.calls(); searches != 1 {
		t.Errorf("expected 1 upstream search, got %d", searches)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 products, got %d and %d", len(first), len(second))
	}
	if first[0].SnapshotID != second[0].SnapshotID {
		t.Error("cached search should return the same snapshots")
	}

	if _, err := svc.Search(ctx, ProductQuery{Query: "mlijeko", Date: "2025-05-20"}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if searches, _ := source.calls(); searches != 2 {
		t.Errorf("a different date should miss the cache, got %d searches", searches)
	}
}

func TestSearchFilter(t *testing.T) {
	source := newFakeSource()
	choc := product("1", "Čokolada mliječna")
	choc.Brand = strPtr("Kraš")
	source.search = []models.Product{
		choc,
		product("2", "Keksi"),
	}
	svc := newTestProductService(t, source)

	tests := []struct {
		filter string
		want   int
	}{
		{"", 2},
		{"cokolada", 1},
		{"ČOKO", 1},
		{"kras", 1},
		{"sok", 0},
	}
	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got, err := svc.Search(context.Background(), ProductQuery{Query: "x", Filter: tt.filter})
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("filter %q: got %d products, want %d", tt.filter, len(got), tt.want)
			}
		})
	}
}

func TestFilterProductsByCategory(t *testing.T) {
	p := product("1", "Gauda")
	p.Chains = []models.ChainOffer{{Chain: "spar", Category: strPtr("Mliječni proizvodi"), PriceDate: "2025-06-01"}}
	got := FilterProducts([]*models.Product{&p}, "mlijecni")
	if len(got) != 1 {
		t.Errorf("expected category match, got %d", len(got))
	}
}

func TestProductLookupCachedPerDate(t *testing.T) {
	source := newFakeSource()
	source.add("", product("1", "Mlijeko", offer("konzum", "1.29", "2025-06-10")))
	source.add("2025-06-01", product("1", "Mlijeko", offer("konzum", "1.19", "2025-06-01")))
	svc := newTestProductService(t, source)
	ctx := context.Background()

	today, err := svc.Product(ctx, "1", cijene.ProductParams{})
	if err != nil {
		t.Fatalf("Product: %v", err)
	}
	again, _ := svc.Product(ctx, "1", cijene.ProductParams{})
	older, err := svc.Product(ctx, "1", cijene.ProductParams{Date: "2025-06-01"})
	if err != nil {
		t.Fatalf("Product: %v", err)
	}

	if _, products := source.calls(); products != 2 {
		t.Errorf("expected 2 upstream lookups, got %d", products)
	}
	if today != again {
		t.Error("cached lookup should return the same snapshot")
	}
	if today.SnapshotID == older.SnapshotID {
		t.Error("different dates must be different snapshots")
	}

	if got := svc.View(today).Prices.MinPrice; got != 1.29 {
		t.Errorf("today min price = %v, want 1.29", got)
	}
	if got := svc.View(older).Prices.MinPrice; got != 1.19 {
		t.Errorf("older min price = %v, want 1.19", got)
	}
}

func TestProductNotFound(t *testing.T) {
	svc := newTestProductService(t, newFakeSource())
	_, err := svc.Product(context.Background(), "404", cijene.ProductParams{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestViews(t *testing.T) {
	svc := newTestProductService(t, newFakeSource())
	a := product("1", "A", offer("konzum", "2.00", "2025-06-01"), offer("spar", "1.50", "2025-06-01"))
	a.Stamp()
	views := svc.Views([]*models.Product{&a})
	if len(views) != 1 {
		t.Fatalf("expected 1 view, got %d", len(views))
	}
	if views[0].Prices.LowestChain == nil || *views[0].Prices.LowestChain != "spar" {
		t.Errorf("lowest chain = %v, want spar", views[0].Prices.LowestChain)
	}
	if views[0].EAN != "1" {
		t.Errorf("view should expose the product, got EAN %q", views[0].EAN)
	}
}
