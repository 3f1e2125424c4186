package engine

// Result is the immutable outcome of one Calculate: the field layout it was
// computed with, both key trees and the sparse cube.
type Result struct {
	fields       []*Field
	rowFields    []*Field
	columnFields []*Field
	dataFields   []*Field

	rowTree    *Tree
	columnTree *Tree
	rowKeys    []Key
	columnKeys []Key

	// data field index → pairKey(row, column) → value
	cube map[int]map[string]Value

	showGrandTotalForRow    bool
	showGrandTotalForColumn bool
	descriptions            map[string]string
}

// RowFields returns the row fields in area order, as they were at Calculate.
func (r *Result) RowFields() []*Field { return r.rowFields }

// ColumnFields returns the column fields in area order.
func (r *Result) ColumnFields() []*Field { return r.columnFields }

// DataFields returns the data fields in area order.
func (r *Result) DataFields() []*Field { return r.dataFields }

// RowTree returns the row key tree.
func (r *Result) RowTree() *Tree { return r.rowTree }

// ColumnTree returns the column key tree.
func (r *Result) ColumnTree() *Tree { return r.columnTree }

// RowKeys returns the realized row keys in tree order.
func (r *Result) RowKeys() []Key { return r.rowKeys }

// ColumnKeys returns the realized column keys in tree order.
func (r *Result) ColumnKeys() []Key { return r.columnKeys }

// ValueAt returns the cube value of a data field. ok is false when no source
// rows matched the combination (or the field is not a data field).
func (r *Result) ValueAt(f *Field, rowKey, columnKey Key) (Value, bool) {
	cells, ok := r.cube[f.Index]
	if !ok {
		return nil, false
	}
	v, ok := cells[pairKey(rowKey, columnKey)]
	return v, ok
}

// CellCount returns how many cells the cube holds for a data field.
func (r *Result) CellCount(f *Field) int {
	return len(r.cube[f.Index])
}

// Description returns the computation description of a data field.
func (r *Result) Description(f *Field) string {
	return r.descriptions[f.Name]
}
