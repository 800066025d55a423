package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Record or inspect daily price snapshots",
}

var snapshotRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Record today's prices for every shopping list product",
	Args:  cobra.NoArgs,
	RunE:  runSnapshot,
}

var snapshotStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored snapshot counts",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotStatus,
}

func init() {
	snapshotCmd.AddCommand(snapshotRunCmd, snapshotStatusCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := snapshotService.ForceTakeSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}
	cmd.Printf("Snapshot %s: %d products, %d rows, %d lists (%d missing, %d failed) in %s\n",
		result.Date, result.Products, result.Rows, result.Lists, result.Missing, result.Failed, result.Duration)
	return nil
}

func runSnapshotStatus(cmd *cobra.Command, _ []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	status := snapshotService.Status()
	cmd.Printf("Stored rows: %d\n", status.StoredRows)
	if status.LastSnapshot != nil {
		cmd.Printf("Last snapshot: %s\n", status.LastSnapshot.Format("2006-01-02 15:04"))
	} else {
		cmd.Println(mutedStyle.Render("No snapshot taken by this process."))
	}
	return nil
}
