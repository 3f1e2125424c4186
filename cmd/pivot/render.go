package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/export"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		src    sourceFlags
		layout layoutFlags
		format string
		out    string
		load   string
		save   string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Calculate a pivot table and export it",
		Long: `Calculate a pivot table and export it.

Formats: ` + strings.Join(export.Formats(), ", ") + `

Examples:
  pivot render --file sales.csv --rows Region,City --columns Year --data Amount:sum --format text
  pivot render --sql "select region, year, amount::float8 from orders" --rows region --columns year --data amount
  pivot render --file sales.csv --rows Region --data Amount --save by-region
  pivot render --file sales.csv --config by-region --format xlsx --out report.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exporter, err := export.ForFormat(format)
			if err != nil {
				return err
			}
			if load != "" && !layout.empty() {
				return errors.New("--config cannot be combined with --rows, --columns or --data")
			}

			ds, sch, err := src.load(cmd.Context(), a)
			if err != nil {
				return err
			}
			m := engine.NewModel(ds, a.engineOptions()...)

			if load != "" || save != "" {
				store, closeStore, err := openStore(cmd.Context(), a)
				if err != nil {
					return err
				}
				defer closeStore()

				if load != "" {
					snap, err := store.Load(cmd.Context(), load)
					if err != nil {
						return err
					}
					if err := m.Restore(*snap); err != nil {
						return fmt.Errorf("restore %s: %w", load, err)
					}
				} else if err := layout.apply(m, sch); err != nil {
					return err
				}

				if save != "" {
					if a.cfg.Storage.Driver == "memory" {
						a.logger.Warn("configuration saved to memory storage is lost on exit", "name", save)
					}
					if err := store.Save(cmd.Context(), m.Snapshot(save)); err != nil {
						return err
					}
					a.logger.Info("configuration saved", "name", save, "driver", a.cfg.Storage.Driver)
				}
			} else if err := layout.apply(m, sch); err != nil {
				return err
			}

			if err := m.Calculate(); err != nil {
				return err
			}
			rm, err := m.Render()
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := exporter.Export(&buf, rm); err != nil {
				return fmt.Errorf("export %s: %w", exporter.FormatName(), err)
			}
			return writeOutput(cmd, out, buf.Bytes())
		},
	}

	src.register(cmd, true)
	layout.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: "+strings.Join(export.Formats(), ", "))
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&load, "config", "", "Restore a saved configuration instead of building a layout")
	cmd.Flags().StringVar(&save, "save", "", "Save the layout under this name")
	return cmd
}

// writeOutput writes data to path, or to the command's stdout.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
