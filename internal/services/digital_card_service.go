package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/disscount/disscount/internal/models"
	"github.com/disscount/disscount/internal/textsearch"
)

var (
	ErrCardNotFound = errors.New("digital card not found")
	ErrInvalidCard  = errors.New("invalid digital card")
)

// DigitalCardService stores loyalty cards. Deleted cards are kept with a
// deletion time and never returned again.
type DigitalCardService struct {
	db *gorm.DB
}

func NewDigitalCardService(db *gorm.DB) *DigitalCardService {
	return &DigitalCardService{db: db}
}

var cardFields = []textsearch.Field[models.DigitalCard]{
	textsearch.StringField(func(c models.DigitalCard) string { return c.Title }),
	textsearch.StringField(func(c models.DigitalCard) string { return c.Type }),
	textsearch.OptionalField(func(c models.DigitalCard) *string { return c.Note }),
}

// List returns the cards newest first, optionally narrowed by a filter on
// title, type and note.
func (s *DigitalCardService) List(filter string) ([]models.DigitalCard, error) {
	var cards []models.DigitalCard
	if err := s.db.Order("created_at DESC, id DESC").Find(&cards).Error; err != nil {
		return nil, err
	}
	return textsearch.FilterByFields(cards, filter, cardFields...), nil
}

func (s *DigitalCardService) Get(id uint) (*models.DigitalCard, error) {
	var card models.DigitalCard
	err := s.db.First(&card, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (s *DigitalCardService) Create(req models.DigitalCardRequest) (*models.DigitalCard, error) {
	var card models.DigitalCard
	if err := applyCardRequest(&card, req); err != nil {
		return nil, err
	}
	if err := s.db.Create(&card).Error; err != nil {
		return nil, err
	}
	return &card, nil
}

// Update replaces every field of a card; omitted color and note are cleared.
func (s *DigitalCardService) Update(id uint, req models.DigitalCardRequest) (*models.DigitalCard, error) {
	card, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := applyCardRequest(card, req); err != nil {
		return nil, err
	}
	err = s.db.Model(card).
		Select("title", "value", "type", "code_type", "color", "note", "updated_at").
		Updates(card).Error
	if err != nil {
		return nil, err
	}
	return card, nil
}

// Delete soft-deletes a card.
func (s *DigitalCardService) Delete(id uint) error {
	result := s.db.Delete(&models.DigitalCard{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCardNotFound
	}
	return nil
}

func applyCardRequest(card *models.DigitalCard, req models.DigitalCardRequest) error {
	required := []struct {
		name  string
		value *string
	}{
		{"title", &req.Title},
		{"value", &req.Value},
		{"type", &req.Type},
		{"code_type", &req.CodeType},
	}
	for _, f := range required {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidCard, f.name)
		}
	}
	card.Title = req.Title
	card.Value = req.Value
	card.Type = req.Type
	card.CodeType = strings.ToLower(req.CodeType)
	card.Color = trimmedOrNil(req.Color)
	card.Note = trimmedOrNil(req.Note)
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
