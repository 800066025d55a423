package models

import (
	"time"

	"gorm.io/gorm"
)

// DigitalCard is a loyalty or membership card kept for showing at the till.
// Value is what the code encodes; CodeType names the symbology to render it
// with ("qr", "ean13", "code128").
type DigitalCard struct {
	ID        uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string         `json:"title" gorm:"not null"`
	Type      string         `json:"type" gorm:"not null;index"`
	Value     string         `json:"value" gorm:"not null"`
	CodeType  string         `json:"code_type" gorm:"not null"`
	Color     *string        `json:"color"`
	Note      *string        `json:"note" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// DigitalCardRequest creates a card or replaces every field of one.
type DigitalCardRequest struct {
	Title    string  `json:"title" binding:"required,max=100"`
	Value    string  `json:"value" binding:"required,max=500"`
	Type     string  `json:"type" binding:"required,max=50"`
	CodeType string  `json:"code_type" binding:"required,max=50"`
	Color    *string `json:"color" binding:"omitempty,len=7,hexcolor"`
	Note     *string `json:"note" binding:"omitempty,max=500"`
}
