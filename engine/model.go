package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// MODEL — Field arena, editing operations, Calculate()
// ============================================================================
// Entry point: NewModel(src, opts...) → configure fields → Calculate() →
// Render().
//
// Pipeline of one Calculate():
//   1. Snapshot the field arena (later edits never leak into a result)
//   2. Validate data fields (aggregators, operands, cycles, depth)
//   3. Build the row and column key trees
//   4. Fill the cube for every data field, cell by cell
//   5. Swap the new Result in
//
// The model is not safe for concurrent mutation. The DataSource is only
// read, so many models may share one source.
// ============================================================================

// Model owns the pivot fields of one data source and the latest Result.
type Model struct {
	src    DataSource
	fields []*Field
	cfg    *config
	result atomic.Pointer[Result]
}

// NewModel creates one Unused field per source column. New fields are titled
// after their column, sorted ascending and aggregated with Sum.
func NewModel(src DataSource, opts ...Option) *Model {
	m := &Model{src: src, cfg: applyOptions(opts)}
	n := src.FieldCount()
	m.fields = make([]*Field, n)
	for i := 0; i < n; i++ {
		name := src.FieldName(i)
		m.fields[i] = &Field{
			Name:      name,
			Index:     i,
			Title:     name,
			Area:      AreaUnused,
			Type:      src.FieldType(i),
			SortOrder: SortAscending,
			Aggregate: AggregateSum,
		}
	}
	return m
}

// Source returns the data source the model reads.
func (m *Model) Source() DataSource { return m.src }

// ============================================================================
// FIELD LOOKUP
// ============================================================================

// Fields returns every field in arena order.
func (m *Model) Fields() []*Field {
	out := make([]*Field, len(m.fields))
	copy(out, m.fields)
	return out
}

// Field returns the field with the given name, or nil.
func (m *Model) Field(name string) *Field {
	for _, f := range m.fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FieldAt returns the field with the given arena index, or nil.
func (m *Model) FieldAt(index int) *Field {
	if index < 0 || index >= len(m.fields) {
		return nil
	}
	return m.fields[index]
}

// FieldsIn returns the fields of an area ordered by AreaIndex. Ties keep
// arena order.
func (m *Model) FieldsIn(area Area) []*Field {
	return fieldsIn(m.fields, area)
}

func fieldsIn(fields []*Field, area Area) []*Field {
	var out []*Field
	for _, f := range fields {
		if f.Area == area {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AreaIndex < out[j].AreaIndex
	})
	return out
}

// ============================================================================
// EDITING
// ============================================================================

// SetArea moves a field into an area at the given position.
func (m *Model) SetArea(f *Field, area Area, position int) {
	f.Area = area
	f.AreaIndex = position
}

// GrandTotals reports which grand totals are rendered.
func (m *Model) GrandTotals() (row, column bool) {
	return m.cfg.ShowGrandTotalForRow, m.cfg.ShowGrandTotalForColumn
}

// SetGrandTotals enables or disables the grand totals.
func (m *Model) SetGrandTotals(row, column bool) {
	m.cfg.ShowGrandTotalForRow = row
	m.cfg.ShowGrandTotalForColumn = column
}

// AutoCalculate reports whether Apply recalculates.
func (m *Model) AutoCalculate() bool { return m.cfg.AutoCalculate }

// SetAutoCalculate changes the auto-calculate flag.
func (m *Model) SetAutoCalculate(enabled bool) { m.cfg.AutoCalculate = enabled }

// AddCalculatedField appends a Data-area field computing fn(a, b). The field
// gets a generated unique name and the next free data position.
func (m *Model) AddCalculatedField(title string, fn CalcFunc, a, b *Field) (*Field, error) {
	name := "calc-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return m.addCalculatedField(name, title, fn, a, b)
}

func (m *Model) addCalculatedField(name, title string, fn CalcFunc, a, b *Field) (*Field, error) {
	if _, err := ParseCalcFunc(string(fn)); err != nil {
		return nil, &FieldError{Field: name, Err: err}
	}
	if a == nil || b == nil {
		return nil, &FieldError{Field: name, Err: ErrUnknownField}
	}
	f := &Field{
		Name:        name,
		Index:       len(m.fields),
		Title:       title,
		Area:        AreaData,
		AreaIndex:   len(m.FieldsIn(AreaData)),
		Type:        TypeNumber,
		SortOrder:   SortAscending,
		Calculation: &Calculation{Func: fn, A: a.Index, B: b.Index},
		Synthetic:   true,
	}
	m.fields = append(m.fields, f)
	return f, nil
}

// RemoveField removes a calculated field. Remaining fields are re-indexed;
// calculations that referenced the removed field lose that operand and fail
// validation on the next Calculate.
func (m *Model) RemoveField(f *Field) error {
	if f == nil || !f.Synthetic {
		name := ""
		if f != nil {
			name = f.Name
		}
		return &FieldError{Field: name, Err: ErrNotCalculated}
	}
	pos := -1
	for i, x := range m.fields {
		if x == f {
			pos = i
			break
		}
	}
	if pos < 0 {
		return &FieldError{Field: f.Name, Err: ErrUnknownField}
	}

	m.fields = append(m.fields[:pos], m.fields[pos+1:]...)
	remap := func(i int) int {
		switch {
		case i == pos:
			return NoNode
		case i > pos:
			return i - 1
		}
		return i
	}
	for i, x := range m.fields {
		x.Index = i
		if x.Calculation != nil {
			x.Calculation.A = remap(x.Calculation.A)
			x.Calculation.B = remap(x.Calculation.B)
		}
	}
	return nil
}

// Description explains how a data field's cell values are computed, e.g.
// "SUM" or "% SALES (SUM) of COST (SUM)".
func (m *Model) Description(f *Field) string {
	return describe(m.fields, f, m.cfg.MaxCalculationDepth)
}

func describe(fields []*Field, f *Field, depth int) string {
	if f == nil {
		return ""
	}
	if !f.IsCalculated() {
		return f.Aggregate.Label()
	}
	if depth <= 0 {
		return "..."
	}
	operand := func(i int) string {
		if i < 0 || i >= len(fields) {
			return ""
		}
		op := fields[i]
		return op.Title + " (" + describe(fields, op, depth-1) + ")"
	}
	return f.Calculation.Description(operand(f.Calculation.A), operand(f.Calculation.B))
}

// ============================================================================
// CALCULATE
// ============================================================================

// Calculate rebuilds both key trees and the cube from scratch. The previous
// Result stays visible until the new one is complete; on error it is kept.
func (m *Model) Calculate() error {
	start := time.Now()

	fields := cloneFields(m.fields)
	rowFields := fieldsIn(fields, AreaRow)
	columnFields := fieldsIn(fields, AreaColumn)
	dataFields := fieldsIn(fields, AreaData)

	if err := validateDataFields(fields, dataFields, m.cfg.MaxCalculationDepth); err != nil {
		return err
	}

	rowTree := buildTree(m.src, rowFields)
	columnTree := buildTree(m.src, columnFields)

	res := &Result{
		fields:                  fields,
		rowFields:               rowFields,
		columnFields:            columnFields,
		dataFields:              dataFields,
		rowTree:                 rowTree,
		columnTree:              columnTree,
		rowKeys:                 rowTree.LeafKeys(),
		columnKeys:              columnTree.LeafKeys(),
		cube:                    make(map[int]map[string]Value, len(dataFields)),
		showGrandTotalForRow:    m.cfg.ShowGrandTotalForRow,
		showGrandTotalForColumn: m.cfg.ShowGrandTotalForColumn,
		descriptions:            make(map[string]string, len(dataFields)),
	}
	for _, df := range dataFields {
		res.cube[df.Index] = make(map[string]Value)
		res.descriptions[df.Name] = describe(fields, df, m.cfg.MaxCalculationDepth)
	}

	ev := &evaluator{src: m.src, fields: fields, maxDepth: m.cfg.MaxCalculationDepth}

	columnFilters := make([]Filter, len(res.columnKeys))
	for j, ck := range res.columnKeys {
		columnFilters[j] = filterFor(columnFields, ck)
	}

	for i, leaf := range rowTree.Leaves() {
		rowKey := res.rowKeys[i]
		rows := rowTree.Rows(leaf)
		for j, columnKey := range res.columnKeys {
			cellRows := ApplyFilter(m.src, rows, columnFilters[j])
			cell := pairKey(rowKey, columnKey)
			for _, df := range dataFields {
				if df.IsCalculated() {
					res.cube[df.Index][cell] = ev.value(df, cellRows, 0)
					continue
				}
				if len(cellRows) == 0 {
					continue
				}
				if v := ev.value(df, cellRows, 0); v != nil {
					res.cube[df.Index][cell] = v
				}
			}
		}
	}

	m.result.Store(res)

	m.cfg.Logger.Debug("pivot calculated",
		"source", Describe(m.src),
		"rowKeys", len(res.rowKeys),
		"columnKeys", len(res.columnKeys),
		"dataFields", len(dataFields),
		"elapsed", time.Since(start))
	return nil
}

// Result returns the latest successful Result, or nil before the first
// Calculate.
func (m *Model) Result() *Result {
	return m.result.Load()
}

// ValueAt looks up a cube cell of the latest Result. ok is false when the
// cell is absent or the model has not been calculated.
func (m *Model) ValueAt(f *Field, rowKey, columnKey Key) (Value, bool) {
	res := m.Result()
	if res == nil || f == nil {
		return nil, false
	}
	return res.ValueAt(f, rowKey, columnKey)
}

// RowKeys returns the realized row keys of the latest Result.
func (m *Model) RowKeys() []Key {
	if res := m.Result(); res != nil {
		return res.rowKeys
	}
	return nil
}

// ColumnKeys returns the realized column keys of the latest Result.
func (m *Model) ColumnKeys() []Key {
	if res := m.Result(); res != nil {
		return res.columnKeys
	}
	return nil
}

// Render builds the render model of the latest Result.
func (m *Model) Render() (*RenderModel, error) {
	res := m.Result()
	if res == nil {
		return nil, ErrNotCalculatedYet
	}
	return res.Render(), nil
}

func cloneFields(fields []*Field) []*Field {
	out := make([]*Field, len(fields))
	for i, f := range fields {
		c := *f
		if f.Calculation != nil {
			calc := *f.Calculation
			c.Calculation = &calc
		}
		out[i] = &c
	}
	return out
}

// validateDataFields rejects data fields that cannot produce values:
// missing aggregators, dangling operands, cycles and over-deep nesting.
func validateDataFields(fields, dataFields []*Field, maxDepth int) error {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(fields))
	depth := make([]int, len(fields))

	var visit func(f *Field) error
	visit = func(f *Field) error {
		if !f.IsCalculated() {
			return nil
		}
		switch state[f.Index] {
		case visiting:
			return &FieldError{Field: f.Name, Err: ErrCalculationCycle}
		case done:
			return nil
		}
		state[f.Index] = visiting
		d := 1
		for _, i := range []int{f.Calculation.A, f.Calculation.B} {
			if i < 0 || i >= len(fields) {
				return &FieldError{Field: f.Name, Err: fmt.Errorf("%w: operand %d", ErrUnknownField, i)}
			}
			if err := visit(fields[i]); err != nil {
				return err
			}
			if fields[i].IsCalculated() && depth[i]+1 > d {
				d = depth[i] + 1
			}
		}
		state[f.Index] = done
		depth[f.Index] = d
		if d > maxDepth {
			return &FieldError{Field: f.Name, Err: ErrCalculationDepth}
		}
		return nil
	}

	for _, f := range dataFields {
		if !f.IsCalculated() {
			if f.Aggregate == AggregateNone {
				return &FieldError{Field: f.Name, Err: ErrNoAggregator}
			}
			if _, err := ParseAggregateFunc(string(f.Aggregate)); err != nil {
				return &FieldError{Field: f.Name, Err: err}
			}
			continue
		}
		if _, err := ParseCalcFunc(string(f.Calculation.Func)); err != nil {
			return &FieldError{Field: f.Name, Err: err}
		}
		if err := visit(f); err != nil {
			return err
		}
	}
	return nil
}

// evaluator computes one field's value over a set of source rows.
// Calculated operands are re-derived over the same rows.
type evaluator struct {
	src      DataSource
	fields   []*Field
	maxDepth int
}

func (e *evaluator) value(f *Field, rows []int, depth int) Value {
	if f.IsCalculated() {
		if depth >= e.maxDepth {
			return nil
		}
		return f.Calculation.Calculate(e.fields, func(op *Field) Value {
			return e.value(op, rows, depth+1)
		})
	}
	if f.Aggregate == AggregateNone || len(rows) == 0 {
		return nil
	}
	agg := NewAggregator(f.Aggregate)
	for _, r := range rows {
		agg.Add(e.src.ValueAt(r, f.Index))
	}
	return agg.Result()
}
