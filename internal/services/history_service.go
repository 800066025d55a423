package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/pricing"
)

const defaultHistoryConcurrency = 4

// HistoryService builds per-chain price histories for a product, either live
// from the upstream API (one request per day) or from stored snapshots.
type HistoryService struct {
	products    *ProductService
	db          *gorm.DB
	concurrency int
	now         func() time.Time
}

// NewHistoryService creates a new history service. db may be nil when stored
// history is not available.
func NewHistoryService(products *ProductService, db *gorm.DB, concurrency int) *HistoryService {
	if concurrency <= 0 {
		concurrency = defaultHistoryConcurrency
	}
	return &HistoryService{
		products:    products,
		db:          db,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// HistoryResponse is a product history with its period change.
type HistoryResponse struct {
	EAN    string         `json:"ean"`
	Period pricing.Period `json:"period"`
	Source string         `json:"source"` // "live" or "stored"
	pricing.History
	Change *pricing.Change `json:"change"`
}

func newHistoryResponse(ean string, period pricing.Period, source string, h pricing.History) *HistoryResponse {
	resp := &HistoryResponse{EAN: ean, Period: period, Source: source, History: h}
	if change, ok := h.PeriodChange(); ok {
		resp.Change = &change
	}
	return resp
}

// ProductHistory fetches the product once per day of the period. Days the
// product is not found are left empty; any other upstream failure aborts the
// whole request.
func (s *HistoryService) ProductHistory(ctx context.Context, ean string, period pricing.Period, chains []string) (*HistoryResponse, error) {
	dates := pricing.HistoryDates(s.now(), period.Days())
	snapshots := make([]*models.Product, len(dates))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			p, err := s.products.Product(ctx, ean, cijene.ProductParams{Date: date, Chains: chains})
			if err != nil {
				if errors.Is(err, cijene.ErrNotFound) {
					return nil
				}
				return fmt.Errorf("failed to fetch %s for %s: %w", ean, date, err)
			}
			snapshots[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return newHistoryResponse(ean, period, "live", pricing.BuildHistory(dates, snapshots)), nil
}

// StoredHistory builds the history from recorded daily snapshots.
func (s *HistoryService) StoredHistory(ean string, period pricing.Period) (*HistoryResponse, error) {
	dates := pricing.HistoryDates(s.now(), period.Days())
	rows, err := s.storedRows(ean, dates)
	if err != nil {
		return nil, err
	}
	return newHistoryResponse(ean, period, "stored", pricing.BuildHistoryFromSnapshots(dates, rows)), nil
}

// StoredSnapshots returns the raw snapshot rows of a product within the period,
// oldest first.
func (s *HistoryService) StoredSnapshots(ean string, period pricing.Period) ([]models.PriceSnapshot, error) {
	return s.storedRows(ean, pricing.HistoryDates(s.now(), period.Days()))
}

func (s *HistoryService) storedRows(ean string, dates []string) ([]models.PriceSnapshot, error) {
	if s.db == nil {
		return nil, errors.New("stored history is not available")
	}
	var rows []models.PriceSnapshot
	if len(dates) == 0 {
		return rows, nil
	}
	err := s.db.Where("ean = ? AND price_date >= ? AND price_date <= ?", ean, dates[0], dates[len(dates)-1]).
		Order("price_date ASC, chain ASC").
		Find(&rows).Error
	if err != nil {
		log.Printf("Failed to load stored history for %s: %v", ean, err)
		return nil, err
	}
	return rows, nil
}
