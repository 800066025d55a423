package database

import (
	"log"
	"strings"

	"github.com/disscount/disscount/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the sqlite database at dbPath and migrates the schema.
// logSQL switches gorm from warnings only to full statement logging.
func Initialize(dbPath string, logSQL bool) error {
	db, err := Open(dbPath, logSQL)
	if err != nil {
		return err
	}
	DB = db
	return nil
}

// Open is Initialize without touching the package-level handle.
func Open(dbPath string, logSQL bool) (*gorm.DB, error) {
	level := logger.Warn
	if logSQL {
		level = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(withForeignKeys(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connected successfully")

	if err := cleanupDuplicatePriceSnapshots(db); err != nil {
		return nil, err
	}

	// Auto-migrate the schema
	err = db.AutoMigrate(
		&models.ShoppingList{},
		&models.ShoppingListItem{},
		&models.PriceSnapshot{},
		&models.ShoppingListValueSnapshot{},
		&models.DigitalCard{},
		&models.WatchlistItem{},
		&models.PinnedEntry{},
	)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")
	return db, nil
}

func GetDB() *gorm.DB {
	return DB
}

// withForeignKeys enables sqlite foreign key enforcement so list deletes
// cascade to their items.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}
