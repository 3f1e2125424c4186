package schema

import (
	"fmt"

	"github.com/spektr-org/pivot/engine"
)

// ============================================================================
// LAYOUT — First pivot arrangement from discovered roles
// ============================================================================

// Suggestion caps per axis; deeper trees rarely read well as a first view.
const (
	maxSuggestedRows    = 2
	maxSuggestedColumns = 2
)

// Layout names the fields placed on each pivot axis, in area order.
type Layout struct {
	Rows    []string `json:"rows"`
	Columns []string `json:"columns"`
	Data    []string `json:"data"`
}

// SuggestLayout derives a layout from the detected roles:
// temporal dimensions go to columns, other dimensions to rows with
// hierarchy parents before their children, measures to data.
func (c *Config) SuggestLayout() Layout {
	var layout Layout
	var rows []FieldMeta

	for _, f := range c.Fields {
		switch f.Role {
		case RoleDimension:
			if f.IsTemporal {
				if len(layout.Columns) < maxSuggestedColumns {
					layout.Columns = append(layout.Columns, f.Name)
				}
				continue
			}
			rows = append(rows, f)
		case RoleMeasure:
			layout.Data = append(layout.Data, f.Name)
		}
	}

	for _, f := range orderByHierarchy(rows) {
		if len(layout.Rows) == maxSuggestedRows {
			break
		}
		layout.Rows = append(layout.Rows, f.Name)
	}
	return layout
}

// orderByHierarchy puts each parent ahead of its children, keeping column
// order otherwise.
func orderByHierarchy(fields []FieldMeta) []FieldMeta {
	byName := make(map[string]FieldMeta, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	placed := make(map[string]bool, len(fields))
	out := make([]FieldMeta, 0, len(fields))

	var place func(f FieldMeta, depth int)
	place = func(f FieldMeta, depth int) {
		if placed[f.Name] {
			return
		}
		if parent, ok := byName[f.Parent]; ok && depth < len(fields) {
			place(parent, depth+1)
		}
		placed[f.Name] = true
		out = append(out, f)
	}
	for _, f := range fields {
		place(f, 0)
	}
	return out
}

// Apply places the layout fields on the model. With a schema, untitled
// fields take the display name and data fields take the schema's default
// aggregate. Data fields left without an aggregate sum.
func (l Layout) Apply(m *engine.Model, sch *Config) error {
	place := func(names []string, area engine.Area) error {
		for i, name := range names {
			f := m.Field(name)
			if f == nil {
				return &engine.FieldError{Field: name, Err: engine.ErrUnknownField}
			}
			m.SetArea(f, area, i)
			var meta *FieldMeta
			if sch != nil {
				meta = sch.Field(name)
			}
			if meta != nil && f.Title == f.Name && meta.DisplayName != "" {
				f.Title = meta.DisplayName
			}
			if area != engine.AreaData || f.IsCalculated() {
				continue
			}
			switch {
			case meta != nil && meta.DefaultAggregate != engine.AggregateNone:
				f.Aggregate = meta.DefaultAggregate
			case f.Aggregate == engine.AggregateNone:
				f.Aggregate = engine.AggregateSum
			}
		}
		return nil
	}

	if err := place(l.Rows, engine.AreaRow); err != nil {
		return fmt.Errorf("row layout: %w", err)
	}
	if err := place(l.Columns, engine.AreaColumn); err != nil {
		return fmt.Errorf("column layout: %w", err)
	}
	if err := place(l.Data, engine.AreaData); err != nil {
		return fmt.Errorf("data layout: %w", err)
	}
	return nil
}
