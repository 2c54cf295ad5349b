package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/asin-match/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "asin-match",
	Short: "Match a product catalog against Amazon listings",
	Long:  "Searches the Amazon catalog by product name and UPC/EAN, asks a language model to pick the best listing for each product, and retries unmatched products with a cleaned search term.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
