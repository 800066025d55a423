package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/disscount/disscount/internal/cijene"
	"github.com/disscount/disscount/internal/listing"
	"github.com/disscount/disscount/internal/services"
)

var (
	searchBatchSize int
	searchBatches   int
	searchFilter    string
	searchDate      string
	searchChains    string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search products",
	Long: `Searches products by name and prints the first batches of results
with their lowest price and the chain offering it. --filter narrows the
results locally, ignoring case and diacritics.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchBatchSize, "batch-size", listing.DefaultBatchSize, "products per batch")
	searchCmd.Flags().IntVarP(&searchBatches, "batches", "b", 1, "number of batches to show")
	searchCmd.Flags().StringVarP(&searchFilter, "filter", "f", "", "narrow results by name, brand or category")
	searchCmd.Flags().StringVar(&searchDate, "date", "", "price date (YYYY-MM-DD, default latest)")
	searchCmd.Flags().StringVar(&searchChains, "chains", "", "comma separated chain codes")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := requireServices(); err != nil {
		return err
	}
	if searchBatches < 1 {
		return fmt.Errorf("--batches must be at least 1, got %d", searchBatches)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	products, err := productService.Search(ctx, services.ProductQuery{
		Query:  args[0],
		Date:   searchDate,
		Chains: cijene.SplitChains(searchChains),
		Filter: searchFilter,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	pager, err := listing.NewPager(products, searchBatchSize)
	if err != nil {
		return err
	}
	pager.Reveal(searchBatches)
	page := listing.MapPage(pager.Page(), productService.Views)

	if searchJSON {
		data, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	outputSearchTable(cmd, page)
	return nil
}

func outputSearchTable(cmd *cobra.Command, page listing.Page[services.ProductView]) {
	if page.Total == 0 {
		cmd.Println("No products found.")
		return
	}

	cmd.Println(cell(headerStyle, "EAN", 15) + cell(headerStyle, "NAME", 40) + cell(headerStyle, "MIN €", 10) + headerStyle.Render("CHAIN"))
	for _, v := range page.Items {
		chain := "-"
		if v.Prices.LowestChain != nil {
			chain = *v.Prices.LowestChain
		}
		cmd.Println(
			cell(mutedStyle, v.EAN, 15) +
				cell(plainStyle, v.DisplayName(), 40) +
				cell(priceStyle, fmt.Sprintf("%.2f", v.Prices.MinPrice), 10) +
				chain,
		)
	}

	status := fmt.Sprintf("Showing %d of %d", page.Visible, page.Total)
	if page.HasMore {
		status += fmt.Sprintf(" (%d more, use --batches %d)", page.Remaining, page.BatchesRevealed+1)
	}
	cmd.Println()
	cmd.Println(mutedStyle.Render(strings.TrimSpace(status)))
}
