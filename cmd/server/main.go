package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/poundsaver/backend/config"
	"github.com/poundsaver/backend/internal/logging"
)

var (
	// Global flags
	verbose   bool
	serverURL string
	timeout   time.Duration

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "poundsaver",
	Short: "PoundSaver - grocery price search and comparison",
	Long: `PoundSaver searches a catalog of supermarket products and compares
prices for the same product across retailers.

Run without arguments to start the API server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level, cfg.Log.Format)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL for client commands (default: http://localhost:<server.port>)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Client request timeout")

	compareCmd.Flags().StringVar(&sortBy, "sort", "", "Sort order (PRICE_ASC, PRICE_DESC, PRICE_PER_UNIT_ASC, NAME_ASC, RETAILER_ASC, ...)")
	historyCmd.Flags().IntVar(&historyDays, "days", 0, "Days of history to show (default 30)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(productCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(retailersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
