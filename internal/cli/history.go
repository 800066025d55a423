package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/export"
	"github.com/disscount/disscount/internal/pricing"
	"github.com/disscount/disscount/internal/services"
)

var (
	historyPeriod string
	historySource string
	historyChains string
	historyJSON   bool

	exportPeriod string
	exportSource string
	exportFormat string
	exportOut    string
)

var historyCmd = &cobra.Command{
	Use:   "history [ean]",
	Short: "Show a product's price history",
	Long: `Prints the average price per chain for every day of the period.
With --source live the Cijene API is queried once per day; --source stored
reads snapshots recorded by the server.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

var historyExportCmd = &cobra.Command{
	Use:   "export [ean]",
	Short: "Export a product's price history to a file",
	Long: `Writes one row per chain and day to a Parquet, JSON or CSV file.
Stored snapshots carry minimum, maximum and average prices; live history only
has averages.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryExport,
}

func init() {
	historyCmd.Flags().StringVarP(&historyPeriod, "period", "p", string(pricing.PeriodWeek), "period: 1W, 1M, 1Y or ALL")
	historyCmd.Flags().StringVar(&historySource, "source", "live", "live or stored")
	historyCmd.Flags().StringVar(&historyChains, "chains", "", "comma separated chain codes")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output history as JSON")

	historyExportCmd.Flags().StringVarP(&exportPeriod, "period", "p", string(pricing.PeriodMonth), "period: 1W, 1M, 1Y or ALL")
	historyExportCmd.Flags().StringVar(&exportSource, "source", "stored", "live or stored")
	historyExportCmd.Flags().StringVar(&exportFormat, "format", "parquet", "parquet, json or csv")
	historyExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default <ean>-<period>.<format>)")

	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadHistory(ctx context.Context, ean, period, source, chains string) (*services.HistoryResponse, error) {
	p, err := pricing.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	switch source {
	case "live":
		return historyService.ProductHistory(ctx, ean, p, cijene.SplitChains(chains))
	case "stored":
		return historyService.StoredHistory(ean, p)
	default:
		return nil, fmt.Errorf("unknown source %q (want live or stored)", source)
	}
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := loadHistory(ctx, args[0], historyPeriod, historySource, historyChains)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	outputHistoryTable(cmd, resp)
	return nil
}

func outputHistoryTable(cmd *cobra.Command, resp *services.HistoryResponse) {
	if len(resp.Chains) == 0 {
		cmd.Printf("No price data for %s in the last %s.\n", resp.EAN, resp.Period)
		return
	}

	header := cell(headerStyle, "DATE", 12)
	for _, chain := range resp.Chains {
		header += cell(headerStyle, chain, 12)
	}
	cmd.Println(header)

	for _, point := range resp.Points {
		line := cell(mutedStyle, point.Date, 12)
		for _, chain := range resp.Chains {
			price := "-"
			if v := point.Prices[chain]; v != nil {
				price = fmt.Sprintf("%.2f", *v)
			}
			line += cell(plainStyle, price, 12)
		}
		cmd.Println(line)
	}

	if resp.Change == nil {
		return
	}
	cmd.Println()
	cmd.Println("Change: " + formatChange(*resp.Change))
}

func formatChange(c pricing.Change) string {
	text := fmt.Sprintf("%+.2f €", pricing.Round2(c.Difference))
	if c.Known() {
		text += fmt.Sprintf(" (%+.1f%%)", *c.Percentage)
	}
	switch c.Direction() {
	case "up":
		return upStyle.Render(text)
	case "down":
		return downStyle.Render(text)
	default:
		return text
	}
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	saver, err := export.SaverFor(exportFormat)
	if err != nil {
		return err
	}
	period, err := pricing.ParsePeriod(exportPeriod)
	if err != nil {
		return err
	}
	ean := args[0]

	var rows []export.HistoryRow
	switch exportSource {
	case "stored":
		snapshots, err := historyService.StoredSnapshots(ean, period)
		if err != nil {
			return fmt.Errorf("failed to load snapshots: %w", err)
		}
		rows = export.RowsFromSnapshots(snapshots)
	case "live":
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		resp, err := historyService.ProductHistory(ctx, ean, period, nil)
		if err != nil {
			return fmt.Errorf("history failed: %w", err)
		}
		rows = export.RowsFromHistory(ean, resp.History)
	default:
		return fmt.Errorf("unknown source %q (want live or stored)", exportSource)
	}

	out := exportOut
	if out == "" {
		out = fmt.Sprintf("%s-%s.%s", ean, period, saver.Extension())
	}
	if err := saver.Save(rows, out); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	cmd.Printf("Wrote %d rows to %s\n", len(rows), out)
	return nil
}
