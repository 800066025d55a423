package models

import (
	"time"
)

// PinnedKind separates the pinned collections.
type PinnedKind string

const (
	PinnedStore PinnedKind = "store"
	PinnedPlace PinnedKind = "place"
)

// PinnedEntry is a store or place the user keeps at hand for price lookups.
// APIID is the upstream store code or the place name used by store search.
type PinnedEntry struct {
	ID        uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	Kind      PinnedKind `json:"kind" gorm:"not null;uniqueIndex:idx_kind_api_id"`
	APIID     string     `json:"api_id" gorm:"column:api_id;not null;uniqueIndex:idx_kind_api_id"`
	Name      string     `json:"name" gorm:"not null"`
	Position  int        `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
}

type PinnedEntryRequest struct {
	APIID string `json:"api_id" binding:"required,max=100"`
	Name  string `json:"name" binding:"required,max=200"`
}

// ReplacePinnedRequest replaces a whole pinned collection. An empty list
// clears it.
type ReplacePinnedRequest struct {
	Entries []PinnedEntryRequest `json:"entries" binding:"dive"`
}
