// Package cli implements the productctl command line tool.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zainab-hr/ProjetProduits/pkg/logger"
)

// NewRootCommand builds the productctl command tree.
func NewRootCommand() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "productctl",
		Short: "Offline tooling for the product gender classifier",
		Long: `productctl classifies products against an exported model bundle, builds the
per-article training table from raw interactions and bulk imports products into
a running service.

Example usage:
  productctl predict --model models/bundle.json --name "Veste" --type Outerwear
  productctl label --input interactions.csv --output articles.csv
  productctl import --url http://localhost:8000 --file products.json`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithOutput(cmd.ErrOrStderr())); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			if err := logger.SetLevelString(logLevel); err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn or error")

	root.AddCommand(newPredictCommand(), newLabelCommand(), newImportCommand())
	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute(ctx context.Context) {
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
