package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/pricing"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
}

func TestProductHistory(t *testing.T) {
	source := newFakeSource()
	source.add("2025-06-04", product("1", "Mlijeko", offer("konzum", "1.00", "2025-06-04")))
	source.add("2025-06-10", product("1", "Mlijeko", offer("konzum", "1.20", "2025-06-10"), offer("spar", "1.10", "2025-06-10")))

	svc := NewHistoryService(newTestProductService(t, source), nil, 3)
	svc.now = fixedNow

	resp, err := svc.ProductHistory(context.Background(), "1", pricing.PeriodWeek, nil)
	if err != nil {
		t.Fatalf("ProductHistory: %v", err)
	}

	if len(resp.Points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(resp.Points))
	}
	if resp.Points[0].Date != "2025-06-04" || resp.Points[6].Date != "2025-06-10" {
		t.Errorf("unexpected range %s..%s", resp.Points[0].Date, resp.Points[6].Date)
	}
	if len(resp.Points[3].Prices) != 0 {
		t.Errorf("missing days should be empty, got %v", resp.Points[3].Prices)
	}
	if got := resp.Chains; len(got) != 2 || got[0] != "konzum" || got[1] != "spar" {
		t.Errorf("chains = %v, want [konzum spar]", got)
	}
	if resp.Domain.Min != 0.9 || resp.Domain.Max != 1.32 {
		t.Errorf("domain = %+v, want {0.9 1.32}", resp.Domain)
	}
	if resp.Change == nil || resp.Change.Direction() != "up" {
		t.Errorf("expected an upward change, got %+v", resp.Change)
	}
	if resp.Source != "live" {
		t.Errorf("source = %q, want live", resp.Source)
	}

	if _, products := source.calls(); products != 7 {
		t.Errorf("expected one lookup per day, got %d", products)
	}
}

func TestProductHistoryUpstreamFailure(t *testing.T) {
	source := newFakeSource()
	source.failures["1|2025-06-07"] = errors.New("connection reset")

	svc := NewHistoryService(newTestProductService(t, source), nil, 2)
	svc.now = fixedNow

	if _, err := svc.ProductHistory(context.Background(), "1", pricing.PeriodWeek, nil); err == nil {
		t.Error("expected an error when a day fails for a reason other than not found")
	}
}

func TestStoredHistory(t *testing.T) {
	db := newTestDB(t)
	avg := 2.5
	rows := []models.PriceSnapshot{
		{EAN: "1", Chain: "lidl", PriceDate: "2025-06-09", AvgPrice: &avg, Source: "cijene"},
		{EAN: "1", Chain: "lidl", PriceDate: "2025-05-01", AvgPrice: &avg, Source: "cijene"},
		{EAN: "2", Chain: "lidl", PriceDate: "2025-06-09", AvgPrice: &avg, Source: "cijene"},
	}
	if err := db.Create(&rows).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc := NewHistoryService(nil, db, 1)
	svc.now = fixedNow

	resp, err := svc.StoredHistory("1", pricing.PeriodMonth)
	if err != nil {
		t.Fatalf("StoredHistory: %v", err)
	}
	if resp.Source != "stored" {
		t.Errorf("source = %q", resp.Source)
	}
	// 2025-05-16 through 2025-06-10
	if len(resp.Points) != 26 {
		t.Fatalf("expected history capped at the first data day, got %d points", len(resp.Points))
	}
	var priced int
	for _, p := range resp.Points {
		priced += len(p.Prices)
	}
	if priced != 1 {
		t.Errorf("expected exactly one priced point, got %d", priced)
	}
	if resp.Change != nil {
		t.Errorf("a single priced day has no change, got %+v", resp.Change)
	}

	snaps, err := svc.StoredSnapshots("1", pricing.PeriodMonth)
	if err != nil {
		t.Fatalf("StoredSnapshots: %v", err)
	}
	if len(snaps) != 1 || snaps[0].PriceDate != "2025-06-09" {
		t.Errorf("StoredSnapshots = %+v, want the single in-range row", snaps)
	}
}

func TestStoredHistoryWithoutDB(t *testing.T) {
	svc := NewHistoryService(nil, nil, 1)
	if _, err := svc.StoredHistory("1", pricing.PeriodWeek); err == nil {
		t.Error("expected error without a database")
	}
}
