package database

import (
	"log"

	"gorm.io/gorm"

	"github.com/disscount/disscount/internal/models"
)

// cleanupDuplicatePriceSnapshots removes duplicate price_snapshots rows before
// the unique index is created. Runs BEFORE AutoMigrate.
func cleanupDuplicatePriceSnapshots(db *gorm.DB) error {
	if !db.Migrator().HasTable("price_snapshots") {
		return nil
	}

	// Keep the most recently written row per product, chain and date
	result := db.Exec(`
		DELETE FROM price_snapshots
		WHERE id NOT IN (
			SELECT MAX(id)
			FROM price_snapshots
			GROUP BY ean, chain, price_date
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d duplicate price_snapshots entries", result.RowsAffected)
	}
	return nil
}

// RunMigrations runs data fixes after schema changes. Safe to run repeatedly.
func RunMigrations(db *gorm.DB) error {
	if err := normalizeItemQuantities(db); err != nil {
		return err
	}
	return nil
}

// normalizeItemQuantities clamps stored quantities into 1..MaxItemQuantity.
func normalizeItemQuantities(db *gorm.DB) error {
	if !db.Migrator().HasColumn(&models.ShoppingListItem{}, "quantity") {
		return nil
	}

	result := db.Exec(`UPDATE shopping_list_items SET quantity = 1 WHERE quantity IS NULL OR quantity < 1`)
	if result.Error != nil {
		return result.Error
	}
	fixed := result.RowsAffected

	result = db.Exec(`UPDATE shopping_list_items SET quantity = ? WHERE quantity > ?`, models.MaxItemQuantity, models.MaxItemQuantity)
	if result.Error != nil {
		return result.Error
	}
	fixed += result.RowsAffected

	if fixed > 0 {
		log.Printf("Normalized quantity on %d shopping list items", fixed)
	}
	return nil
}
