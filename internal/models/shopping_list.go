package models

import (
	"time"
)

// MaxItemQuantity is the largest quantity allowed on a single shopping list item.
const MaxItemQuantity = 999

type ShoppingList struct {
	ID        uint               `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string             `json:"name" gorm:"not null;index"`
	Items     []ShoppingListItem `json:"items" gorm:"foreignKey:ShoppingListID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ShoppingListItem references a product by EAN. The name is stored so the list
// still renders when the product is missing from today's upstream data.
type ShoppingListItem struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	ShoppingListID uint      `json:"shopping_list_id" gorm:"not null;uniqueIndex:idx_list_ean"`
	EAN            string    `json:"ean" gorm:"not null;uniqueIndex:idx_list_ean"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity" gorm:"default:1"`
	Checked        bool      `json:"checked" gorm:"default:false"`
	AddedAt        time.Time `json:"added_at"`
}

// EANs returns the distinct EANs on the list in item order.
func (l *ShoppingList) EANs() []string {
	seen := make(map[string]struct{}, len(l.Items))
	eans := make([]string, 0, len(l.Items))
	for _, item := range l.Items {
		if _, ok := seen[item.EAN]; ok {
			continue
		}
		seen[item.EAN] = struct{}{}
		eans = append(eans, item.EAN)
	}
	return eans
}

type CreateShoppingListRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

type UpdateShoppingListRequest struct {
	Name *string `json:"name" binding:"omitempty,min=1,max=100"`
}

type AddShoppingListItemRequest struct {
	EAN      string `json:"ean" binding:"required,numeric,min=8,max=14"`
	Name     string `json:"name" binding:"max=200"`
	Quantity int    `json:"quantity"`
	Checked  bool   `json:"checked"`
}

type UpdateShoppingListItemRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=200"`
	Quantity *int    `json:"quantity"`
	Checked  *bool   `json:"checked"`
}

// ShoppingListItemResponse includes the item plus whether it was merged into
// an existing entry for the same EAN.
type ShoppingListItemResponse struct {
	Item    ShoppingListItem `json:"item"`
	Merged  bool             `json:"merged"`
	Message string           `json:"message,omitempty"`
}
