package engine

// ============================================================================
// GRAND TOTALS — row, column and corner summaries
// ============================================================================
// Totals of aggregate fields are plain sums of the cube values (an Avg field
// is summed, not re-averaged). Totals of calculated fields apply the
// calculation to summed operands.
// ============================================================================

// GrandTotalForRow totals a data field across every column key of one row.
func (r *Result) GrandTotalForRow(f *Field, rowKey Key) float64 {
	sumRow := func(field *Field) float64 {
		var total float64
		for _, ck := range r.columnKeys {
			total += numericOrZero(r.ValueAt(field, rowKey, ck))
		}
		return total
	}
	if f.IsCalculated() {
		return calculateTotal(f, r.fields, func(op *Field) Value {
			if !r.isDataField(op, true) {
				return 0.0
			}
			return sumRow(op)
		})
	}
	return sumRow(f)
}

// GrandTotalForColumn totals a data field across every row key of one column.
// Calculated fields only see the aggregate data fields' totals.
func (r *Result) GrandTotalForColumn(f *Field, columnKey Key) float64 {
	sumColumn := func(field *Field) float64 {
		var total float64
		for _, rk := range r.rowKeys {
			total += numericOrZero(r.ValueAt(field, rk, columnKey))
		}
		return total
	}
	if f.IsCalculated() {
		return calculateTotal(f, r.fields, func(op *Field) Value {
			if !r.isDataField(op, false) {
				return 0.0
			}
			return sumColumn(op)
		})
	}
	return sumColumn(f)
}

// GrandTotal is the corner total of a data field: the sum of its column
// totals, or for a calculated field the calculation over the aggregate
// fields' corner totals.
func (r *Result) GrandTotal(f *Field) float64 {
	corner := func(field *Field) float64 {
		var total float64
		for _, ck := range r.columnKeys {
			total += r.GrandTotalForColumn(field, ck)
		}
		return total
	}
	if f.IsCalculated() {
		return calculateTotal(f, r.fields, func(op *Field) Value {
			if !r.isDataField(op, false) {
				return 0.0
			}
			return corner(op)
		})
	}
	return corner(f)
}

// isDataField reports whether f is one of the result's data fields.
// Calculated data fields only count when withCalculated is set.
func (r *Result) isDataField(f *Field, withCalculated bool) bool {
	if f == nil {
		return false
	}
	for _, df := range r.dataFields {
		if df.Index == f.Index {
			return withCalculated || !df.IsCalculated()
		}
	}
	return false
}

func calculateTotal(f *Field, fields []*Field, provider FieldValueProvider) float64 {
	v, _ := ToFloat(f.Calculation.Calculate(fields, provider))
	return v
}

func numericOrZero(v Value, ok bool) float64 {
	if !ok {
		return 0
	}
	f, isNum := ToFloat(v)
	if !isNum {
		return 0
	}
	return f
}
