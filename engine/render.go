package engine

import "fmt"

// ============================================================================
// RENDER MODEL — Presentation-agnostic grid with spans
// ============================================================================
// Produces three row groups from a Result:
//   header rows      — column field values (with colspan) and data field titles
//   data rows        — row field values (with rowspan) and cube values
//   grand-total rows — column totals and the corner totals
//
// Exporters (CSV, XLSX, HTML, text) and the HTTP API consume this model only.
// ============================================================================

// GrandTotalLabel is the caption of grand-total headers.
const GrandTotalLabel = "Grand Total"

// CellKind tags a render cell.
type CellKind int

const (
	CellHeader CellKind = iota
	CellHeaderValue
	CellDataHeader
	CellDataValue
	CellGrandTotalHeader
	CellGrandTotalValue
)

var cellKindNames = []string{"header", "headerValue", "dataHeader", "dataValue", "grandTotalHeader", "grandTotalValue"}

func (k CellKind) String() string {
	if int(k) >= 0 && int(k) < len(cellKindNames) {
		return cellKindNames[k]
	}
	return fmt.Sprintf("cell(%d)", int(k))
}

func (k CellKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *CellKind) UnmarshalText(b []byte) error {
	for i, name := range cellKindNames {
		if name == string(b) {
			*k = CellKind(i)
			return nil
		}
	}
	return fmt.Errorf("%w: cell kind %q", ErrUnknownFunction, b)
}

// Cell is one rendered cell. Field names the field the cell belongs to
// (empty for filler and grand-total captions).
type Cell struct {
	Kind    CellKind `json:"kind"`
	Field   string   `json:"field,omitempty"`
	Value   Value    `json:"value"`
	Colspan int      `json:"colspan"`
	Rowspan int      `json:"rowspan"`
	ForRow  bool     `json:"forRow,omitempty"`
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool { return c.Value == nil }

// Row is one rendered row split into its segments.
type Row struct {
	Header     []Cell `json:"header"`
	Values     []Cell `json:"values"`
	GrandTotal []Cell `json:"grandTotal,omitempty"`
}

// Cells returns the row's cells left to right.
func (r Row) Cells() []Cell {
	out := make([]Cell, 0, len(r.Header)+len(r.Values)+len(r.GrandTotal))
	out = append(out, r.Header...)
	out = append(out, r.Values...)
	return append(out, r.GrandTotal...)
}

// RenderModel is the rendered pivot table.
type RenderModel struct {
	HeaderRows     []Row `json:"headerRows"`
	DataRows       []Row `json:"dataRows"`
	GrandTotalRows []Row `json:"grandTotalRows"`

	// Descriptions maps data field names to how their values are computed.
	Descriptions map[string]string `json:"descriptions,omitempty"`
}

// AllRows returns header, data and grand-total rows top to bottom.
func (rm *RenderModel) AllRows() []Row {
	out := make([]Row, 0, len(rm.HeaderRows)+len(rm.DataRows)+len(rm.GrandTotalRows))
	out = append(out, rm.HeaderRows...)
	out = append(out, rm.DataRows...)
	return append(out, rm.GrandTotalRows...)
}

// ============================================================================
// RENDER PASS
// ============================================================================

type axis int

const (
	axisRow axis = iota
	axisColumn
)

type spanKey struct {
	axis axis
	path string
}

// renderPass holds the caches of one Render call.
type renderPass struct {
	res   *Result
	spans map[spanKey]int
}

func (p *renderPass) span(a axis, path Key) int {
	k := spanKey{axis: a, path: encodeKey(path)}
	if s, ok := p.spans[k]; ok {
		return s
	}
	tree := p.res.rowTree
	if a == axisColumn {
		tree = p.res.columnTree
	}
	s := 1
	if n := tree.FindNode(path); n != NoNode {
		s = tree.LeafCount(n)
	}
	p.spans[k] = s
	return s
}

// Render projects the result into a grid.
func (r *Result) Render() *RenderModel {
	p := &renderPass{res: r, spans: make(map[spanKey]int)}
	rm := &RenderModel{
		HeaderRows:     p.headerRows(),
		DataRows:       p.dataRows(),
		GrandTotalRows: p.grandTotalRows(),
		Descriptions:   make(map[string]string, len(r.descriptions)),
	}
	for k, v := range r.descriptions {
		rm.Descriptions[k] = v
	}
	return rm
}

func (r *Result) rowTotalsVisible() bool {
	return r.showGrandTotalForRow && len(r.columnFields) > 0
}

func (r *Result) columnTotalsVisible() bool {
	return r.showGrandTotalForColumn && len(r.rowFields) > 0
}

func headerCell(f *Field) Cell {
	c := Cell{Kind: CellHeader, Colspan: 1, Rowspan: 1}
	if f != nil {
		c.Field = f.Name
		c.Value = f.Title
	}
	return c
}

func (p *renderPass) headerRows() []Row {
	r := p.res
	columnCount := len(r.columnFields)
	dataCount := len(r.dataFields)
	dataSpan := max(1, dataCount)

	rowCount := max(1, columnCount)
	if dataCount > 1 && columnCount > 0 {
		rowCount++
	}

	rows := make([]Row, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		var row Row

		for _, rf := range r.rowFields {
			if i < rowCount-1 {
				row.Header = append(row.Header, headerCell(nil))
			} else {
				row.Header = append(row.Header, headerCell(rf))
			}
		}

		seen := make(map[string]bool)
		for _, ck := range r.columnKeys {
			if i < columnCount {
				path := ck.Prefix(i + 1)
				pk := encodeKey(path)
				if seen[pk] {
					continue
				}
				seen[pk] = true
				row.Values = append(row.Values, Cell{
					Kind:    CellHeaderValue,
					Field:   r.columnFields[i].Name,
					Value:   ck[i],
					Colspan: p.span(axisColumn, path) * dataSpan,
					Rowspan: 1,
				})
				continue
			}
			for _, df := range r.dataFields {
				row.Values = append(row.Values, headerCell(df))
			}
		}

		if r.rowTotalsVisible() {
			switch {
			case i == 0:
				row.GrandTotal = append(row.GrandTotal, Cell{
					Kind: CellGrandTotalHeader, Value: GrandTotalLabel, Colspan: dataSpan, Rowspan: 1,
				})
			case i < columnCount:
				row.GrandTotal = append(row.GrandTotal, Cell{
					Kind: CellGrandTotalHeader, Colspan: dataSpan, Rowspan: 1,
				})
			default:
				for _, df := range r.dataFields {
					row.GrandTotal = append(row.GrandTotal, headerCell(df))
				}
			}
		}

		rows = append(rows, row)
	}
	return rows
}

func (p *renderPass) dataRows() []Row {
	r := p.res
	rows := make([]Row, 0, len(r.rowKeys))
	seen := make(map[string]bool)

	for _, rk := range r.rowKeys {
		var row Row

		for k := range rk {
			path := rk.Prefix(k + 1)
			pk := encodeKey(path)
			if seen[pk] {
				continue
			}
			seen[pk] = true
			row.Header = append(row.Header, Cell{
				Kind:    CellDataHeader,
				Field:   r.rowFields[k].Name,
				Value:   rk[k],
				Colspan: 1,
				Rowspan: p.span(axisRow, path),
			})
		}

		for _, ck := range r.columnKeys {
			for _, df := range r.dataFields {
				v, _ := r.ValueAt(df, rk, ck)
				row.Values = append(row.Values, Cell{
					Kind: CellDataValue, Field: df.Name, Value: v, Colspan: 1, Rowspan: 1,
				})
			}
		}

		if r.rowTotalsVisible() {
			for _, df := range r.dataFields {
				row.GrandTotal = append(row.GrandTotal, Cell{
					Kind:    CellGrandTotalValue,
					Field:   df.Name,
					Value:   r.GrandTotalForRow(df, rk),
					Colspan: 1,
					Rowspan: 1,
					ForRow:  true,
				})
			}
		}

		rows = append(rows, row)
	}
	return rows
}

func (p *renderPass) grandTotalRows() []Row {
	r := p.res
	if !r.columnTotalsVisible() {
		return []Row{}
	}

	row := Row{
		Header: []Cell{{
			Kind:    CellGrandTotalHeader,
			Value:   GrandTotalLabel,
			Colspan: len(r.rowFields),
			Rowspan: 1,
		}},
	}
	for _, ck := range r.columnKeys {
		for _, df := range r.dataFields {
			row.Values = append(row.Values, Cell{
				Kind:    CellGrandTotalValue,
				Field:   df.Name,
				Value:   r.GrandTotalForColumn(df, ck),
				Colspan: 1,
				Rowspan: 1,
			})
		}
	}
	if r.rowTotalsVisible() {
		for _, df := range r.dataFields {
			row.GrandTotal = append(row.GrandTotal, Cell{
				Kind:    CellGrandTotalValue,
				Field:   df.Name,
				Value:   r.GrandTotal(df),
				Colspan: 1,
				Rowspan: 1,
				ForRow:  true,
			})
		}
	}
	return []Row{row}
}
