package engine

import "fmt"

// ============================================================================
// SNAPSHOTS — Store and restore a field layout by name
// ============================================================================
// A Snapshot records every used field plus the three model flags. Operands of
// calculations are stored by field name since arena indices change whenever
// calculated fields are removed and re-created.
// ============================================================================

// Snapshot is a serializable pivot configuration.
type Snapshot struct {
	Name                    string          `json:"name"`
	ShowGrandTotalForRow    bool            `json:"showGrandTotalForRow"`
	ShowGrandTotalForColumn bool            `json:"showGrandTotalForColumn"`
	AutoCalculate           bool            `json:"autoCalculate"`
	Fields                  []SnapshotField `json:"fields"`
}

// SnapshotField is the stored state of one field.
type SnapshotField struct {
	Name        string        `json:"name"`
	Title       string        `json:"title"`
	Area        Area          `json:"area"`
	AreaIndex   int           `json:"areaIndex"`
	Aggregate   AggregateFunc `json:"aggregate,omitempty"`
	Calculation CalcFunc      `json:"calculation,omitempty"`
	Operands    []string      `json:"operands,omitempty"`
	SortOrder   SortOrder     `json:"sortOrder"`
}

// IsCalculated reports whether the stored field is a calculated field.
func (sf SnapshotField) IsCalculated() bool {
	return sf.Calculation != ""
}

func (sf SnapshotField) operand(i int) string {
	if i < len(sf.Operands) {
		return sf.Operands[i]
	}
	return ""
}

// validate checks the stored function names.
func (sf SnapshotField) validate() error {
	if sf.Aggregate != "" {
		if _, err := ParseAggregateFunc(string(sf.Aggregate)); err != nil {
			return &FieldError{Field: sf.Name, Err: err}
		}
	}
	if sf.Calculation != "" {
		if _, err := ParseCalcFunc(string(sf.Calculation)); err != nil {
			return &FieldError{Field: sf.Name, Err: err}
		}
	}
	return nil
}

// StoreState captures the field's configuration. fields resolves calculation
// operands to names.
func (f *Field) StoreState(fields []*Field) SnapshotField {
	sf := SnapshotField{
		Name:      f.Name,
		Title:     f.Title,
		Area:      f.Area,
		AreaIndex: f.AreaIndex,
		Aggregate: f.Aggregate,
		SortOrder: f.SortOrder,
	}
	if f.Calculation != nil {
		sf.Calculation = f.Calculation.Func
		sf.Operands = []string{nameAt(fields, f.Calculation.A), nameAt(fields, f.Calculation.B)}
	}
	return sf
}

func nameAt(fields []*Field, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i].Name
}

// RestoreState applies a stored state to the field. The names must match.
// Calculation operands are left unresolved (NoNode); Model.Restore resolves
// them once every field exists.
func (f *Field) RestoreState(sf SnapshotField) error {
	if f.Name != sf.Name {
		return &FieldError{Field: f.Name, Err: fmt.Errorf("%w: %q != %q", ErrFieldNameMismatch, f.Name, sf.Name)}
	}
	if err := sf.validate(); err != nil {
		return err
	}

	f.Title = sf.Title
	f.Area = sf.Area
	f.AreaIndex = sf.AreaIndex
	f.SortOrder = sf.SortOrder
	f.Aggregate = AggregateNone
	f.Calculation = nil

	if sf.Aggregate != "" {
		f.Aggregate, _ = ParseAggregateFunc(string(sf.Aggregate))
	}
	if sf.Calculation != "" {
		fn, _ := ParseCalcFunc(string(sf.Calculation))
		f.Calculation = &Calculation{Func: fn, A: NoNode, B: NoNode}
	}
	return nil
}

// Snapshot captures the model configuration under a name. Unused fields are
// not stored.
func (m *Model) Snapshot(name string) Snapshot {
	s := Snapshot{
		Name:                    name,
		ShowGrandTotalForRow:    m.cfg.ShowGrandTotalForRow,
		ShowGrandTotalForColumn: m.cfg.ShowGrandTotalForColumn,
		AutoCalculate:           m.cfg.AutoCalculate,
		Fields:                  []SnapshotField{},
	}
	for _, f := range m.fields {
		if f.Area == AreaUnused {
			continue
		}
		s.Fields = append(s.Fields, f.StoreState(m.fields))
	}
	return s
}

// Restore replaces the model configuration with a snapshot. Every field is
// reset to Unused and calculated fields are dropped; stored calculated fields
// are re-created under their stored names. Stored fields missing from the
// source are skipped.
func (m *Model) Restore(s Snapshot) error {
	for _, sf := range s.Fields {
		if err := sf.validate(); err != nil {
			return err
		}
	}

	m.cfg.ShowGrandTotalForRow = s.ShowGrandTotalForRow
	m.cfg.ShowGrandTotalForColumn = s.ShowGrandTotalForColumn
	m.cfg.AutoCalculate = s.AutoCalculate

	kept := m.fields[:0]
	for _, f := range m.fields {
		if f.Synthetic {
			continue
		}
		f.Area = AreaUnused
		f.Index = len(kept)
		kept = append(kept, f)
	}
	for i := len(kept); i < len(m.fields); i++ {
		m.fields[i] = nil
	}
	m.fields = kept

	type pending struct {
		field *Field
		state SnapshotField
	}
	var calculated []pending

	for _, sf := range s.Fields {
		var f *Field
		if sf.IsCalculated() {
			f = &Field{
				Name:      sf.Name,
				Index:     len(m.fields),
				Type:      TypeNumber,
				Synthetic: true,
			}
			m.fields = append(m.fields, f)
		} else {
			f = m.Field(sf.Name)
		}
		if f == nil {
			m.cfg.Logger.Debug("snapshot field not in model, skipped",
				"snapshot", s.Name, "field", sf.Name)
			continue
		}
		if err := f.RestoreState(sf); err != nil {
			return err
		}
		if sf.IsCalculated() {
			calculated = append(calculated, pending{field: f, state: sf})
		}
	}

	for _, p := range calculated {
		p.field.Calculation.A = m.indexOf(p.state.operand(0))
		p.field.Calculation.B = m.indexOf(p.state.operand(1))
	}
	return nil
}

// Apply restores a snapshot and recalculates when the snapshot enables
// auto-calculation.
func (m *Model) Apply(s Snapshot) error {
	if err := m.Restore(s); err != nil {
		return err
	}
	if m.cfg.AutoCalculate {
		return m.Calculate()
	}
	return nil
}

func (m *Model) indexOf(name string) int {
	if f := m.Field(name); f != nil && name != "" {
		return f.Index
	}
	return NoNode
}
