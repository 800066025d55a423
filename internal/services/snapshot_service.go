package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/metrics"
	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/pricing"
)

const snapshotSource = "cijene"

// SnapshotService records daily prices for every product on a shopping list
// or the watchlist, the resulting value of each list and watched price moves.
type SnapshotService struct {
	db            *gorm.DB
	source        ProductSource
	mu            sync.RWMutex
	running       bool
	lastSnapshot  time.Time
	lastResult    *SnapshotResult
	snapshotHour  int // Hour of day to take snapshot (0-23)
	checkInterval time.Duration
	now           func() time.Time
}

// SnapshotResult summarizes one snapshot run.
type SnapshotResult struct {
	Date           string        `json:"date"`
	Products       int           `json:"products"`
	Missing        int           `json:"missing"`
	Failed         int           `json:"failed"`
	Rows           int           `json:"rows"`
	Lists          int           `json:"lists"`
	WatchedChanged int           `json:"watched_changed"`
	Duration       time.Duration `json:"duration_ns"`
	FinishedAt     time.Time     `json:"finished_at"`
}

// SnapshotStatus is the state reported by the status endpoint.
type SnapshotStatus struct {
	Running      bool            `json:"running"`
	SnapshotHour int             `json:"snapshot_hour"`
	LastSnapshot *time.Time      `json:"last_snapshot"`
	LastResult   *SnapshotResult `json:"last_result"`
	StoredRows   int64           `json:"stored_rows"`
}

// NewSnapshotService creates a new snapshot service. The source should bypass
// response caches so each run sees fresh prices.
func NewSnapshotService(db *gorm.DB, source ProductSource, snapshotHour int) *SnapshotService {
	if snapshotHour < 0 || snapshotHour > 23 {
		snapshotHour = 6
	}
	return &SnapshotService{
		db:            db,
		source:        source,
		snapshotHour:  snapshotHour,
		checkInterval: 15 * time.Minute,
		now:           time.Now,
	}
}

// Start begins the background snapshot worker
func (s *SnapshotService) Start(ctx context.Context) {
	log.Printf("Snapshot service started: will record daily prices at %02d:00", s.snapshotHour)

	// Check if we need to take a snapshot for today on startup
	s.checkAndSnapshot(ctx)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Snapshot service stopping...")
			return
		case <-ticker.C:
			s.checkAndSnapshot(ctx)
		}
	}
}

// checkAndSnapshot checks if a snapshot is needed and takes one
func (s *SnapshotService) checkAndSnapshot(ctx context.Context) {
	now := s.now()

	if s.hasSnapshotForDate(now) {
		return
	}

	// Only take automatic snapshots at or after the configured hour
	if now.Hour() >= s.snapshotHour {
		if _, err := s.TakeSnapshot(ctx); err != nil {
			log.Printf("Snapshot service: failed to take snapshot: %v", err)
		}
	}
}

// hasSnapshotForDate checks if a snapshot already ran on the given day
func (s *SnapshotService) hasSnapshotForDate(date time.Time) bool {
	s.mu.RLock()
	last := s.lastSnapshot
	s.mu.RUnlock()
	if !last.IsZero() && sameDay(last, date) {
		return true
	}

	var count int64
	s.db.Model(&models.ShoppingListValueSnapshot{}).
		Where("snapshot_date = ?", date.Format("2006-01-02")).
		Count(&count)

	return count > 0
}

// TakeSnapshot fetches today's prices for every EAN on any shopping list or
// the watchlist, upserts them into price_snapshots, records each list's total
// and updates watched prices.
func (s *SnapshotService) TakeSnapshot(ctx context.Context) (*SnapshotResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, errors.New("snapshot already running")
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	now := s.now()
	result := &SnapshotResult{Date: now.Format("2006-01-02")}

	eans, err := s.trackedEANs()
	if err != nil {
		return nil, err
	}

	products := make(map[string]*models.Product, len(eans))
	for _, ean := range eans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := s.source.GetProduct(ctx, ean, cijene.ProductParams{})
		if err != nil {
			if errors.Is(err, cijene.ErrNotFound) {
				result.Missing++
				continue
			}
			result.Failed++
			metrics.SnapshotErrorsTotal.Inc()
			log.Printf("Snapshot service: failed to fetch %s: %v", ean, err)
			continue
		}
		products[ean] = p

		rows := models.SnapshotsFromProduct(p, snapshotSource)
		if len(rows) == 0 {
			continue
		}
		if err := s.saveSnapshots(rows); err != nil {
			result.Failed++
			metrics.SnapshotErrorsTotal.Inc()
			log.Printf("Snapshot service: failed to save %s: %v", ean, err)
			continue
		}
		result.Products++
		result.Rows += len(rows)
		metrics.SnapshotRowsWritten.Add(float64(len(rows)))
	}

	lists, err := s.recordListValues(products, result.Date)
	if err != nil {
		return nil, err
	}
	result.Lists = lists

	watched, err := recordWatchedPrices(s.db, products, result.Date, now)
	if err != nil {
		return nil, err
	}
	result.WatchedChanged = watched

	result.Duration = time.Since(start)
	result.FinishedAt = time.Now()
	metrics.SnapshotRunDuration.Observe(result.Duration.Seconds())

	s.mu.Lock()
	s.lastSnapshot = now
	s.lastResult = result
	s.mu.Unlock()

	log.Printf("Snapshot service: recorded %d price rows for %d products (%d missing, %d failed), %d lists, %d watched prices changed",
		result.Rows, result.Products, result.Missing, result.Failed, result.Lists, result.WatchedChanged)
	return result, nil
}

// trackedEANs returns the sorted distinct EANs on shopping lists and the
// watchlist.
func (s *SnapshotService) trackedEANs() ([]string, error) {
	var listed, watched []string
	if err := s.db.Model(&models.ShoppingListItem{}).Distinct("ean").Pluck("ean", &listed).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.WatchlistItem{}).Distinct("ean").Pluck("ean", &watched).Error; err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(listed)+len(watched))
	eans := make([]string, 0, len(listed)+len(watched))
	for _, ean := range append(listed, watched...) {
		if _, ok := seen[ean]; ok {
			continue
		}
		seen[ean] = struct{}{}
		eans = append(eans, ean)
	}
	sort.Strings(eans)
	return eans, nil
}

// saveSnapshots upserts rows on the (ean, chain, price_date) unique index
func (s *SnapshotService) saveSnapshots(rows []models.PriceSnapshot) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ean"}, {Name: "chain"}, {Name: "price_date"}},
		DoUpdates: clause.AssignmentColumns([]string{"min_price", "max_price", "avg_price", "source", "updated_at"}),
	}).Create(&rows).Error
}

// recordListValues stores the value of every list for the day. An item is
// valued at its lowest chain price times its quantity.
func (s *SnapshotService) recordListValues(products map[string]*models.Product, date string) (int, error) {
	var lists []models.ShoppingList
	if err := s.db.Preload("Items").Find(&lists).Error; err != nil {
		return 0, err
	}

	for _, list := range lists {
		snapshot := models.ShoppingListValueSnapshot{
			ShoppingListID: list.ID,
			SnapshotDate:   date,
			TotalItems:     len(list.Items),
		}
		for _, item := range list.Items {
			p, ok := products[item.EAN]
			if !ok {
				continue
			}
			if _, ok := pricing.LowestPriceChain(p); !ok {
				continue
			}
			snapshot.Total += pricing.MinPrice(p) * float64(item.Quantity)
			snapshot.PricedItems++
		}
		snapshot.Total = pricing.Round2(snapshot.Total)

		// Use upsert to handle duplicate dates
		err := s.db.Where("shopping_list_id = ? AND snapshot_date = ?", list.ID, date).
			Assign(models.ShoppingListValueSnapshot{
				Total:       snapshot.Total,
				PricedItems: snapshot.PricedItems,
				TotalItems:  snapshot.TotalItems,
			}).
			FirstOrCreate(&snapshot).Error
		if err != nil {
			return 0, err
		}
	}
	return len(lists), nil
}

// GetHistory retrieves value snapshots of one list for a given period
func (s *SnapshotService) GetHistory(listID uint, period pricing.Period) ([]models.ShoppingListValueSnapshot, error) {
	var snapshots []models.ShoppingListValueSnapshot

	query := s.db.Where("shopping_list_id = ?", listID).Order("snapshot_date ASC")
	if dates := pricing.HistoryDates(s.now(), period.Days()); len(dates) > 0 && period != pricing.PeriodAll {
		query = query.Where("snapshot_date >= ?", dates[0])
	}

	if err := query.Find(&snapshots).Error; err != nil {
		return nil, err
	}
	return snapshots, nil
}

// Status reports the worker state
func (s *SnapshotService) Status() SnapshotStatus {
	s.mu.RLock()
	status := SnapshotStatus{
		Running:      s.running,
		SnapshotHour: s.snapshotHour,
		LastResult:   s.lastResult,
	}
	if !s.lastSnapshot.IsZero() {
		last := s.lastSnapshot
		status.LastSnapshot = &last
	}
	s.mu.RUnlock()

	s.db.Model(&models.PriceSnapshot{}).Count(&status.StoredRows)
	return status
}

// ForceTakeSnapshot takes a snapshot regardless of timing (for manual triggers)
func (s *SnapshotService) ForceTakeSnapshot(ctx context.Context) (*SnapshotResult, error) {
	return s.TakeSnapshot(ctx)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
