package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/schema"
)

// layoutFlags arrange the model from the command line. Without any
// --rows, --columns or --data the discovered schema suggests the layout.
type layoutFlags struct {
	rows        []string
	columns     []string
	data        []string
	calcs       []string
	sorts       []string
	grandTotals string
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.rows, "rows", nil, "Row fields, outermost first")
	cmd.Flags().StringSliceVar(&f.columns, "columns", nil, "Column fields, outermost first")
	cmd.Flags().StringArrayVar(&f.data, "data", nil, "Data field as FIELD[:sum|avg|min|max|count] (repeatable)")
	cmd.Flags().StringArrayVar(&f.calcs, "calc", nil, "Calculated field as TITLE=percentOf|subtract|addition(A,B) (repeatable)")
	cmd.Flags().StringArrayVar(&f.sorts, "sort", nil, "Sort order as FIELD:asc|desc|none (repeatable)")
	cmd.Flags().StringVar(&f.grandTotals, "grand-totals", "", "Grand totals to show: row, column, \"row,column\" or none (default from PIVOT_GRAND_TOTAL_*)")
}

func (f *layoutFlags) empty() bool {
	return len(f.rows) == 0 && len(f.columns) == 0 && len(f.data) == 0
}

// apply arranges m. sch may be nil.
func (f *layoutFlags) apply(m *engine.Model, sch *schema.Config) error {
	layout := schema.Layout{Rows: f.rows, Columns: f.columns}
	aggregates := make(map[string]engine.AggregateFunc)
	for _, spec := range f.data {
		name, fn := parseDataSpec(spec)
		layout.Data = append(layout.Data, name)
		if fn != engine.AggregateNone {
			aggregates[name] = fn
		}
	}
	if f.empty() && sch != nil {
		layout = sch.SuggestLayout()
	}

	if err := layout.Apply(m, sch); err != nil {
		return err
	}
	for name, fn := range aggregates {
		m.Field(name).Aggregate = fn
	}

	for _, spec := range f.calcs {
		calc, err := parseCalcSpec(spec)
		if err != nil {
			return err
		}
		a, b := lookupField(m, calc.a), lookupField(m, calc.b)
		if a == nil {
			return &engine.FieldError{Field: calc.a, Err: engine.ErrUnknownField}
		}
		if b == nil {
			return &engine.FieldError{Field: calc.b, Err: engine.ErrUnknownField}
		}
		if _, err := m.AddCalculatedField(calc.title, calc.fn, a, b); err != nil {
			return err
		}
	}

	for _, spec := range f.sorts {
		name, order, err := parseSortSpec(spec)
		if err != nil {
			return err
		}
		field := lookupField(m, name)
		if field == nil {
			return &engine.FieldError{Field: name, Err: engine.ErrUnknownField}
		}
		field.SortOrder = order
	}

	if f.grandTotals != "" {
		row, column, err := parseGrandTotals(f.grandTotals)
		if err != nil {
			return err
		}
		m.SetGrandTotals(row, column)
	}
	return nil
}

// lookupField resolves a source field by name or a calculated field by title.
func lookupField(m *engine.Model, name string) *engine.Field {
	if f := m.Field(name); f != nil {
		return f
	}
	for _, f := range m.Fields() {
		if f.IsCalculated() && f.Title == name {
			return f
		}
	}
	return nil
}

// ============================================================================
// FLAG PARSERS
// ============================================================================

// parseDataSpec splits "Amount:avg". A suffix that is not an aggregate
// function stays part of the field name.
func parseDataSpec(spec string) (string, engine.AggregateFunc) {
	spec = strings.TrimSpace(spec)
	if i := strings.LastIndex(spec, ":"); i > 0 {
		if fn, err := engine.ParseAggregateFunc(spec[i+1:]); err == nil {
			return strings.TrimSpace(spec[:i]), fn
		}
	}
	return spec, engine.AggregateNone
}

type calcSpec struct {
	title string
	fn    engine.CalcFunc
	a, b  string
}

var calcPattern = regexp.MustCompile(`^\s*(.+?)\s*=\s*(\w+)\s*\(\s*([^,]+?)\s*,\s*([^)]+?)\s*\)\s*$`)

// parseCalcSpec parses "Margin=subtract(Revenue,Cost)".
func parseCalcSpec(spec string) (calcSpec, error) {
	m := calcPattern.FindStringSubmatch(spec)
	if m == nil {
		return calcSpec{}, fmt.Errorf("invalid --calc %q: want TITLE=func(A,B)", spec)
	}
	fn, err := engine.ParseCalcFunc(m[2])
	if err != nil {
		return calcSpec{}, err
	}
	return calcSpec{title: m[1], fn: fn, a: m[3], b: m[4]}, nil
}

// parseSortSpec parses "Region:desc".
func parseSortSpec(spec string) (string, engine.SortOrder, error) {
	i := strings.LastIndex(spec, ":")
	if i <= 0 {
		return "", engine.SortUnsorted, fmt.Errorf("invalid --sort %q: want FIELD:asc|desc|none", spec)
	}
	order, err := engine.ParseSortOrder(spec[i+1:])
	if err != nil {
		return "", engine.SortUnsorted, err
	}
	return strings.TrimSpace(spec[:i]), order, nil
}

// parseGrandTotals parses "row", "column", "row,column", "both" or "none".
func parseGrandTotals(spec string) (row, column bool, err error) {
	for _, part := range strings.Split(spec, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "row", "rows":
			row = true
		case "column", "columns", "col":
			column = true
		case "both", "all":
			row, column = true, true
		case "none", "":
		default:
			return false, false, fmt.Errorf("invalid --grand-totals %q", spec)
		}
	}
	return row, column, nil
}
