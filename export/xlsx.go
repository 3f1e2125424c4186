package export

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/pivot/engine"
)

// DefaultSheet names the worksheet when none is set.
const DefaultSheet = "Pivot"

const (
	minColumnWidth = 8
	maxColumnWidth = 40
)

// XLSX writes a workbook with one sheet. Spans become merged ranges and
// numbers stay numeric.
type XLSX struct {
	Sheet string
}

func (XLSX) FormatName() string { return "xlsx" }
func (XLSX) MimeType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSX) Extension() string { return "xlsx" }

func (e XLSX) Export(w io.Writer, rm *engine.RenderModel) error {
	f, err := e.Workbook(rm)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Workbook builds the workbook without writing it.
func (e XLSX) Workbook(rm *engine.RenderModel) (*excelize.File, error) {
	sheet := e.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	styles, err := newCellStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	g := Layout(rm)
	widths := make([]int, g.Cols)

	for _, cell := range g.Cells {
		topLeft, err := excelize.CoordinatesToCellName(cell.Col+1, cell.Row+1)
		if err != nil {
			f.Close()
			return nil, err
		}
		bottomRight, err := excelize.CoordinatesToCellName(
			cell.Col+max(1, cell.Colspan), cell.Row+max(1, cell.Rowspan))
		if err != nil {
			f.Close()
			return nil, err
		}

		if cell.Value != nil {
			if err := f.SetCellValue(sheet, topLeft, xlsxValue(cell.Value)); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set %s: %w", topLeft, err)
			}
		}
		if err := f.SetCellStyle(sheet, topLeft, bottomRight, styles[cell.Kind]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style %s: %w", topLeft, err)
		}
		if topLeft != bottomRight {
			if err := f.MergeCell(sheet, topLeft, bottomRight); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to merge %s:%s: %w", topLeft, bottomRight, err)
			}
		}

		if cell.Colspan <= 1 {
			widths[cell.Col] = max(widths[cell.Col], utf8.RuneCountInString(FormatValue(cell.Value)))
		}
	}

	for c, width := range widths {
		name, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		width = min(max(width+2, minColumnWidth), maxColumnWidth)
		if err := f.SetColWidth(sheet, name, name, float64(width)); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// xlsxValue keeps numbers numeric; every other value is written as
// FormatValue renders it.
func xlsxValue(v engine.Value) interface{} {
	if f, ok := engine.ToFloat(v); ok {
		return f
	}
	return FormatValue(v)
}

func newCellStyles(f *excelize.File) (map[engine.CellKind]int, error) {
	border := []excelize.Border{
		{Type: "left", Color: "#BFBFBF", Style: 1},
		{Type: "top", Color: "#BFBFBF", Style: 1},
		{Type: "right", Color: "#BFBFBF", Style: 1},
		{Type: "bottom", Color: "#BFBFBF", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	top := &excelize.Alignment{Vertical: "top"}

	defs := map[engine.CellKind]*excelize.Style{
		engine.CellHeader: {
			Border: border, Alignment: center,
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		},
		engine.CellHeaderValue: {
			Border: border, Alignment: center,
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#EDF1F9"}},
		},
		engine.CellDataHeader: {
			Border: border, Alignment: top,
			Font: &excelize.Font{Bold: true},
		},
		engine.CellDataValue: {
			Border: border,
		},
		engine.CellGrandTotalHeader: {
			Border: border, Alignment: center,
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FCE4D6"}},
		},
		engine.CellGrandTotalValue: {
			Border: border,
			Font:   &excelize.Font{Bold: true},
			Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#FCE4D6"}},
		},
	}

	styles := make(map[engine.CellKind]int, len(defs))
	for kind, def := range defs {
		id, err := f.NewStyle(def)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s style: %w", kind, err)
		}
		styles[kind] = id
	}
	return styles, nil
}
