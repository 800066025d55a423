// Package cli implements the pricectl command line tool.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/config"
	"github.com/disscount/disscount/internal/database"
	"github.com/disscount/disscount/internal/pricing"
	"github.com/disscount/disscount/internal/services"
)

var (
	configPath string
	cfg        config.Config

	productService  *services.ProductService
	historyService  *services.HistoryService
	snapshotService *services.SnapshotService
)

var rootCmd = &cobra.Command{
	Use:   "pricectl",
	Short: "Query and export Croatian retail prices",
	Long: `pricectl searches products on the Cijene API, prints their price
history and exports it for analysis. It reads the same configuration as the
server.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupServices,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to TOML config file (default: $DISSCOUNT_CONFIG)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setupServices wires the services unless they were already provided.
func setupServices(_ *cobra.Command, _ []string) error {
	if productService != nil {
		return nil
	}

	loaded, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = loaded

	db, err := database.Open(cfg.DBPath, cfg.LogSQL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	client := cijene.NewClient(cijene.Options{
		BaseURL:           cfg.Cijene.BaseURL,
		Token:             cfg.Cijene.Token,
		Timeout:           cfg.Cijene.Timeout.Duration,
		RequestsPerSecond: cfg.Cijene.RateLimit,
		Burst:             cfg.Cijene.Burst,
	})
	aggregator, err := pricing.NewAggregator(cfg.Cijene.CacheSize)
	if err != nil {
		return err
	}

	productService = services.NewProductService(client, aggregator, cfg.Cijene.CacheSize)
	historyService = services.NewHistoryService(productService, db, cfg.Snapshot.HistoryConcurrency)
	snapshotService = services.NewSnapshotService(db, client, cfg.Snapshot.Hour)
	return nil
}

func requireServices() error {
	if productService == nil || historyService == nil || snapshotService == nil {
		return errors.New("services not configured")
	}
	return nil
}
