package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/disscount/disscount/internal/metrics"
	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/pricing"
)

var (
	ErrWatchNotFound  = errors.New("watchlist item not found")
	ErrAlreadyWatched = errors.New("product is already on the watchlist")
	ErrInvalidWatch   = errors.New("invalid watchlist item")
)

// WatchlistService keeps the products whose prices the snapshot follows.
type WatchlistService struct {
	db *gorm.DB
}

func NewWatchlistService(db *gorm.DB) *WatchlistService {
	return &WatchlistService{db: db}
}

// List returns watched products, most recently added first.
func (s *WatchlistService) List() ([]models.WatchlistItem, error) {
	var items []models.WatchlistItem
	if err := s.db.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetByEAN returns the watchlist entry for a product.
func (s *WatchlistService) GetByEAN(ean string) (*models.WatchlistItem, error) {
	var item models.WatchlistItem
	err := s.db.Where("ean = ?", strings.TrimSpace(ean)).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWatchNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Add starts watching a product. A product can be watched once.
func (s *WatchlistService) Add(req models.AddWatchlistItemRequest) (*models.WatchlistItem, error) {
	ean := strings.TrimSpace(req.EAN)
	name := strings.TrimSpace(req.Name)
	if ean == "" || name == "" {
		return nil, fmt.Errorf("%w: ean and name are required", ErrInvalidWatch)
	}

	if _, err := s.GetByEAN(ean); err == nil {
		return nil, ErrAlreadyWatched
	} else if !errors.Is(err, ErrWatchNotFound) {
		return nil, err
	}

	item := models.WatchlistItem{EAN: ean, Name: name}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *WatchlistService) Remove(id uint) error {
	result := s.db.Delete(&models.WatchlistItem{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWatchNotFound
	}
	return nil
}

// recordWatchedPrices stores the lowest price of every watched product that
// was fetched and reports how many moved since the previous snapshot.
func recordWatchedPrices(db *gorm.DB, products map[string]*models.Product, date string, at time.Time) (int, error) {
	var items []models.WatchlistItem
	if err := db.Find(&items).Error; err != nil {
		return 0, err
	}

	changed := 0
	for i := range items {
		item := &items[i]
		p, ok := products[item.EAN]
		if !ok {
			continue
		}
		if _, ok := pricing.LowestPriceChain(p); !ok {
			continue
		}
		price := pricing.Round2(pricing.MinPrice(p))

		updates := map[string]any{
			"last_price":      price,
			"last_price_date": date,
		}
		if item.LastPrice != nil && *item.LastPrice != price {
			updates["previous_price"] = *item.LastPrice
			updates["price_changed_at"] = at
			changed++
			metrics.WatchlistPriceChanges.Inc()
		}
		if err := db.Model(item).Updates(updates).Error; err != nil {
			return changed, fmt.Errorf("failed to record watched price for %s: %w", item.EAN, err)
		}
	}
	return changed, nil
}
