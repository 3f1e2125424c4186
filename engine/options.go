package engine

import "log/slog"

// ============================================================================
// MODEL OPTIONS — Functional options for NewModel()
// ============================================================================

// Option configures model behavior via functional options pattern.
type Option func(*config)

type config struct {
	ShowGrandTotalForRow    bool
	ShowGrandTotalForColumn bool
	AutoCalculate           bool
	MaxCalculationDepth     int // nesting limit for calculated operands
	Logger                  *slog.Logger
}

// WithGrandTotals enables the row grand-total column and/or the column
// grand-total row.
func WithGrandTotals(row, column bool) Option {
	return func(c *config) {
		c.ShowGrandTotalForRow = row
		c.ShowGrandTotalForColumn = column
	}
}

// WithAutoCalculate makes Apply recalculate after restoring a snapshot.
func WithAutoCalculate(enabled bool) Option {
	return func(c *config) {
		c.AutoCalculate = enabled
	}
}

// WithLogger sets the logger for calculate timings and restore diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithMaxCalculationDepth bounds how deeply calculated fields may reference
// other calculated fields. Values below 1 are ignored.
func WithMaxCalculationDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.MaxCalculationDepth = depth
		}
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		MaxCalculationDepth: 8,
		Logger:              slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
