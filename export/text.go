package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/spektr-org/pivot/engine"
)

const columnSeparator = " │ "

// Text writes an aligned grid for terminals. Colors and bold are only
// emitted when the writer is a terminal that supports them.
type Text struct{}

func (Text) FormatName() string { return "text" }
func (Text) MimeType() string   { return "text/plain; charset=utf-8" }
func (Text) Extension() string  { return "txt" }

type textStyles struct {
	header     lipgloss.Style
	dataHeader lipgloss.Style
	value      lipgloss.Style
	total      lipgloss.Style
	rule       lipgloss.Style
}

func newTextStyles(r *lipgloss.Renderer) textStyles {
	return textStyles{
		header:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B5CF6")),
		dataHeader: r.NewStyle().Bold(true),
		value:      r.NewStyle().Align(lipgloss.Right),
		total:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B")).Align(lipgloss.Right),
		rule:       r.NewStyle().Foreground(lipgloss.Color("#64748B")),
	}
}

func (s textStyles) forKind(k engine.CellKind) lipgloss.Style {
	switch k {
	case engine.CellHeader, engine.CellHeaderValue, engine.CellGrandTotalHeader:
		return s.header
	case engine.CellDataHeader:
		return s.dataHeader
	case engine.CellGrandTotalValue:
		return s.total
	default:
		return s.value
	}
}

func (Text) Export(w io.Writer, rm *engine.RenderModel) error {
	styles := newTextStyles(lipgloss.NewRenderer(w))
	g := Layout(rm)
	widths := columnWidths(g)

	var b strings.Builder
	for r := 0; r < g.Rows; r++ {
		if r == len(rm.HeaderRows) && r > 0 {
			b.WriteString(styles.rule.Render(rule(widths)))
			b.WriteByte('\n')
		}

		var line []string
		for c := 0; c < g.Cols; {
			cell, anchor, ok := g.At(r, c)
			if !ok {
				line = append(line, strings.Repeat(" ", widths[c]))
				c++
				continue
			}
			// Continuations of a rowspan from above print blank
			span := cell.Col + max(1, cell.Colspan) - c
			width := spanWidth(widths, c, span)
			text := ""
			if anchor {
				text = FormatValue(cell.Value)
			}
			line = append(line, styles.forKind(cell.Kind).Width(width).Render(text))
			c += span
		}
		b.WriteString(strings.TrimRight(strings.Join(line, columnSeparator), " "))
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write text: %w", err)
	}
	return nil
}

// columnWidths sizes each column for its single-span cells, then widens the
// last spanned column where a wider spanning cell does not fit.
func columnWidths(g *Grid) []int {
	widths := make([]int, g.Cols)
	for _, cell := range g.Cells {
		if max(1, cell.Colspan) == 1 {
			widths[cell.Col] = max(widths[cell.Col], lipgloss.Width(FormatValue(cell.Value)))
		}
	}
	for _, cell := range g.Cells {
		span := max(1, cell.Colspan)
		if span == 1 {
			continue
		}
		need := lipgloss.Width(FormatValue(cell.Value))
		if have := spanWidth(widths, cell.Col, span); need > have {
			widths[cell.Col+span-1] += need - have
		}
	}
	return widths
}

func spanWidth(widths []int, from, span int) int {
	total := 0
	for c := from; c < from+span && c < len(widths); c++ {
		total += widths[c]
	}
	return total + (span-1)*lipgloss.Width(columnSeparator)
}

func rule(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	return strings.Join(parts, "─┼─")
}
