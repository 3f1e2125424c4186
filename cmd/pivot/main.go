package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/internal/config"
	"github.com/spektr-org/pivot/internal/logging"
)

// ============================================================================
// PIVOT CLI — Cross-tabulate CSV, Excel or SQL data
// ============================================================================

const version = "0.3.0"

// app carries what every subcommand needs once the root has run.
type app struct {
	envFile string
	cfg     *config.Config
	logger  *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "pivot",
		Short:   "Pivot tables for any dataset",
		Version: version,
		Long: `pivot groups a dataset by row and column fields and aggregates measures
into a cross-tabulation with optional grand totals.

Examples:
  pivot discover --file sales.csv
  pivot render --file sales.csv --rows Region --columns Year --data Amount:sum
  pivot render --file sales.xlsx --data Revenue --data Cost --calc "Margin=subtract(Revenue,Cost)" --format text
  pivot serve --file sales.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.envFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
			a.logger.Debug("configuration loaded", "config", cfg.String())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Environment file to load before reading settings")

	root.AddCommand(
		newDiscoverCmd(a),
		newRenderCmd(a),
		newServeCmd(a),
	)
	return root
}

// engineOptions are the configured engine defaults.
func (a *app) engineOptions() []engine.Option {
	return []engine.Option{
		engine.WithGrandTotals(a.cfg.Pivot.GrandTotalForRow, a.cfg.Pivot.GrandTotalForColumn),
		engine.WithMaxCalculationDepth(a.cfg.Pivot.MaxCalculationDepth),
		engine.WithLogger(a.logger),
	}
}
