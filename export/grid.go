package export

import "github.com/spektr-org/pivot/engine"

// ============================================================================
// GRID — Places span-carrying cells on a rectangular grid
// ============================================================================
// Rows are filled left to right, skipping positions already covered by a
// rowspan from above, the way an HTML table lays out its cells.
// ============================================================================

// Placed is a cell anchored at its top-left grid position.
type Placed struct {
	engine.Cell
	Row, Col int
}

// Grid is the laid out table. Anchor cells are kept in row order.
type Grid struct {
	Rows, Cols int
	Cells      []Placed

	cover map[[2]int]int // position → index into Cells
}

// Layout places every cell of the render model.
func Layout(rm *engine.RenderModel) *Grid {
	g := &Grid{cover: make(map[[2]int]int)}

	for r, row := range rm.AllRows() {
		col := 0
		for _, cell := range row.Cells() {
			for g.covered(r, col) {
				col++
			}
			rowspan, colspan := max(1, cell.Rowspan), max(1, cell.Colspan)
			idx := len(g.Cells)
			g.Cells = append(g.Cells, Placed{Cell: cell, Row: r, Col: col})
			for dr := 0; dr < rowspan; dr++ {
				for dc := 0; dc < colspan; dc++ {
					g.cover[[2]int{r + dr, col + dc}] = idx
				}
			}
			g.Rows = max(g.Rows, r+rowspan)
			g.Cols = max(g.Cols, col+colspan)
			col += colspan
		}
		g.Rows = max(g.Rows, r+1)
	}
	return g
}

func (g *Grid) covered(r, c int) bool {
	_, ok := g.cover[[2]int{r, c}]
	return ok
}

// At returns the cell covering a position. anchor is true only at the
// cell's top-left position.
func (g *Grid) At(r, c int) (cell Placed, anchor, ok bool) {
	idx, ok := g.cover[[2]int{r, c}]
	if !ok {
		return Placed{}, false, false
	}
	cell = g.Cells[idx]
	return cell, cell.Row == r && cell.Col == c, true
}

// Text returns the grid as strings; covered positions are empty.
func (g *Grid) Text() [][]string {
	out := make([][]string, g.Rows)
	for r := range out {
		out[r] = make([]string, g.Cols)
		for c := range out[r] {
			if cell, anchor, ok := g.At(r, c); ok && anchor {
				out[r][c] = FormatValue(cell.Value)
			}
		}
	}
	return out
}
