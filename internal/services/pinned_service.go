package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/disscount/disscount/internal/models"
)

var ErrInvalidPinned = errors.New("invalid pinned entry")

// PinnedService keeps the pinned stores and places, each as an ordered
// collection that is replaced as a whole.
type PinnedService struct {
	db *gorm.DB
}

func NewPinnedService(db *gorm.DB) *PinnedService {
	return &PinnedService{db: db}
}

// List returns one collection in the order it was saved.
func (s *PinnedService) List(kind models.PinnedKind) ([]models.PinnedEntry, error) {
	entries := []models.PinnedEntry{}
	if err := s.db.Where("kind = ?", kind).Order("position ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Replace swaps a collection for the given entries. Repeated API IDs keep
// their first position.
func (s *PinnedService) Replace(kind models.PinnedKind, reqs []models.PinnedEntryRequest) ([]models.PinnedEntry, error) {
	entries := make([]models.PinnedEntry, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		apiID := strings.TrimSpace(req.APIID)
		name := strings.TrimSpace(req.Name)
		if apiID == "" || name == "" {
			return nil, fmt.Errorf("%w: api_id and name are required", ErrInvalidPinned)
		}
		if _, ok := seen[apiID]; ok {
			continue
		}
		seen[apiID] = struct{}{}
		entries = append(entries, models.PinnedEntry{
			Kind:     kind,
			APIID:    apiID,
			Name:     name,
			Position: len(entries),
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("kind = ?", kind).Delete(&models.PinnedEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.Create(&entries).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to replace pinned %ss: %w", kind, err)
	}
	return entries, nil
}
