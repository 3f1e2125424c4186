package engine

// ============================================================================
// FILTERS — Equality Filtering over a DataSource
// ============================================================================
// Single-pass filter: checks ALL field constraints per row in one loop.
// Returns row indices into the source — zero data copy.
// ============================================================================

// Filter maps a field index to the value a row must hold in that field.
type Filter map[int]Value

// filterFor builds the equality filter matching key against fields.
func filterFor(fields []*Field, key Key) Filter {
	f := make(Filter, len(key))
	for i, v := range key {
		if i < len(fields) {
			f[fields[i].Index] = v
		}
	}
	return f
}

// merge returns a new filter holding the constraints of both.
func (f Filter) merge(other Filter) Filter {
	out := make(Filter, len(f)+len(other))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Accepts reports whether the row satisfies every constraint.
func (f Filter) Accepts(src DataSource, row int) bool {
	for field, want := range f {
		if !ValuesEqual(src.ValueAt(row, field), want) {
			return false
		}
	}
	return true
}

// ApplyFilter returns the rows accepted by f. A nil rows slice means every
// row of the source. An empty filter returns the candidate rows unchanged.
func ApplyFilter(src DataSource, rows []int, f Filter) []int {
	if rows == nil {
		rows = allRows(src)
	}
	if len(f) == 0 {
		return rows
	}
	out := make([]int, 0, len(rows))
	for _, r := range rows {
		if f.Accepts(src, r) {
			out = append(out, r)
		}
	}
	return out
}

func allRows(src DataSource) []int {
	n := src.RowCount()
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
