package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/poundsaver/backend/internal/domain"
	"github.com/poundsaver/backend/internal/infrastructure/priceapi"
)

var (
	sortBy      string
	historyDays int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search products on a running server",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		ctx, cancel := clientContext(cmd)
		defer cancel()

		products, err := newAPIClient().Search(ctx, query)
		if err != nil {
			return err
		}
		printProducts(cmd.OutOrStdout(), products)
		return nil
	},
}

var productCmd = &cobra.Command{
	Use:   "product <id>",
	Short: "Show one product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext(cmd)
		defer cancel()

		product, err := newAPIClient().GetProduct(ctx, args[0])
		if err != nil {
			return err
		}
		printProduct(cmd.OutOrStdout(), product)
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <query>",
	Short: "Compare prices for a product across retailers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext(cmd)
		defer cancel()

		comparison, err := newAPIClient().Compare(ctx, args[0], sortBy)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printProducts(out, comparison.Results)
		fmt.Fprintf(out, "\n%d results in %dms\n", comparison.TotalResults, comparison.SearchTimeMs)
		fmt.Fprintf(out, "Cheapest:    %s\n", comparison.CheapestRetailer)
		fmt.Fprintf(out, "Average:     £%s\n", comparison.AveragePrice.StringFixed(2))
		fmt.Fprintf(out, "Price range: £%s\n", comparison.PriceRange.StringFixed(2))
		fmt.Fprintf(out, "Max savings: £%s\n", comparison.MaxSavings.StringFixed(2))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <productId>",
	Short: "Show the price history of a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext(cmd)
		defer cancel()

		summary, err := newAPIClient().History(ctx, args[0], historyDays)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (%s) at %s\n\n", summary.ProductName, summary.ProductID, summary.Retailer)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "OBSERVED\tPRICE\tLOYALTY")
		for _, p := range summary.PriceHistory {
			loyalty := "-"
			if p.LoyaltyPrice != nil {
				loyalty = "£" + p.LoyaltyPrice.StringFixed(2)
			}
			fmt.Fprintf(w, "%s\t£%s\t%s\n", p.Timestamp.Format("2006-01-02 15:04"), p.Price.StringFixed(2), loyalty)
		}
		w.Flush()
		fmt.Fprintf(out, "\nCurrent £%s  Lowest £%s  Highest £%s  Average £%s\n",
			summary.CurrentPrice.StringFixed(2), summary.LowestPrice.StringFixed(2),
			summary.HighestPrice.StringFixed(2), summary.AveragePrice.StringFixed(2))
		return nil
	},
}

var retailersCmd = &cobra.Command{
	Use:   "retailers",
	Short: "List known retailers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := clientContext(cmd)
		defer cancel()

		retailers, err := newAPIClient().Retailers(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tLOYALTY\tWEBSITE")
		for _, r := range retailers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.DisplayName, orDash(r.LoyaltyScheme), r.BaseURL)
		}
		return w.Flush()
	},
}

func newAPIClient() *priceapi.Client {
	base := serverURL
	if base == "" {
		base = "http://localhost:" + cfg.Server.Port
	}
	client := priceapi.NewClient(base, logger.Named("client"))
	client.SetDebug(verbose)
	return client
}

func clientContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, timeout)
}

func printProducts(out io.Writer, products []domain.Product) {
	if len(products) == 0 {
		fmt.Fprintln(out, "No products found")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tRETAILER\tPRICE\tLOYALTY\tUNIT PRICE")
	for _, p := range products {
		loyalty := "-"
		if p.LoyaltyPrice != nil {
			loyalty = "£" + p.LoyaltyPrice.StringFixed(2)
		}
		unitPrice := "-"
		if p.PricePerUnit != nil {
			unitPrice = "£" + p.PricePerUnit.StringFixed(2) + " " + p.Unit
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t£%s\t%s\t%s\n",
			p.ID, p.Name, p.Retailer, p.PriceValue().StringFixed(2), loyalty, unitPrice)
	}
	w.Flush()
}

func printProduct(out io.Writer, p *domain.Product) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\t%s\n", p.ID)
	fmt.Fprintf(w, "Name\t%s\n", p.Name)
	fmt.Fprintf(w, "Brand\t%s\n", orDash(p.Brand))
	fmt.Fprintf(w, "Category\t%s\n", orDash(p.Category))
	fmt.Fprintf(w, "Retailer\t%s\n", p.Retailer)
	fmt.Fprintf(w, "Price\t£%s\n", p.PriceValue().StringFixed(2))
	if p.LoyaltyPrice != nil {
		fmt.Fprintf(w, "Loyalty price\t£%s (%s)\n", p.LoyaltyPrice.StringFixed(2), orDash(p.LoyaltyScheme))
	}
	if p.PricePerUnit != nil {
		fmt.Fprintf(w, "Unit price\t£%s %s\n", p.PricePerUnit.StringFixed(2), p.Unit)
	}
	fmt.Fprintf(w, "Size\t%s\n", orDash(p.Size))
	fmt.Fprintf(w, "In stock\t%t\n", p.InStock)
	fmt.Fprintf(w, "URL\t%s\n", orDash(p.ProductURL))
	w.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
