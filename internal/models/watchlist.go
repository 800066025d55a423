package models

import (
	"time"
)

// WatchlistItem is a product whose lowest price is followed by the daily
// snapshot. PreviousPrice and PriceChangedAt are set when a snapshot sees
// the lowest price move.
type WatchlistItem struct {
	ID             uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	EAN            string     `json:"ean" gorm:"not null;uniqueIndex"`
	Name           string     `json:"name" gorm:"not null"`
	LastPrice      *float64   `json:"last_price"`
	LastPriceDate  string     `json:"last_price_date,omitempty"`
	PreviousPrice  *float64   `json:"previous_price"`
	PriceChangedAt *time.Time `json:"price_changed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type AddWatchlistItemRequest struct {
	EAN  string `json:"ean" binding:"required,numeric,min=8,max=14"`
	Name string `json:"name" binding:"required,max=200"`
}
