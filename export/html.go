package export

import (
	"fmt"
	"html/template"
	"io"

	"github.com/spektr-org/pivot/engine"
)

// HTML writes a standalone <table>. Data field headers carry their
// description as a tooltip.
type HTML struct {
	// Class is set on the table element.
	Class string
}

func (HTML) FormatName() string { return "html" }
func (HTML) MimeType() string   { return "text/html; charset=utf-8" }
func (HTML) Extension() string  { return "html" }

var htmlTable = template.Must(template.New("pivot").Funcs(template.FuncMap{
	"value": FormatValue,
}).Parse(`{{define "rows"}}
{{- range .}}
<tr>
{{- range .}}
{{- if .Header}}<th class="{{.Kind}}"{{else}}<td class="{{.Kind}}"{{end}}
{{- if gt .Colspan 1}} colspan="{{.Colspan}}"{{end}}
{{- if gt .Rowspan 1}} rowspan="{{.Rowspan}}"{{end}}
{{- with .Title}} title="{{.}}"{{end}}>{{value .Value}}{{if .Header}}</th>{{else}}</td>{{end}}
{{- end}}
</tr>
{{- end}}
{{- end}}<table class="{{.Class}}">
{{- with .Head}}
<thead>{{template "rows" .}}
</thead>
{{- end}}
{{- with .Body}}
<tbody>{{template "rows" .}}
</tbody>
{{- end}}
{{- with .Foot}}
<tfoot>{{template "rows" .}}
</tfoot>
{{- end}}
</table>
`))

type htmlCell struct {
	engine.Cell
	Header bool
	Title  string
}

func (e HTML) Export(w io.Writer, rm *engine.RenderModel) error {
	class := e.Class
	if class == "" {
		class = "pivot"
	}

	section := func(rows []engine.Row) [][]htmlCell {
		var out [][]htmlCell
		for _, row := range rows {
			cells := make([]htmlCell, 0, len(row.Header)+len(row.Values)+len(row.GrandTotal))
			for _, c := range row.Cells() {
				hc := htmlCell{
					Cell:   c,
					Header: c.Kind != engine.CellDataValue && c.Kind != engine.CellGrandTotalValue,
				}
				if c.Kind == engine.CellHeader && c.Field != "" {
					hc.Title = rm.Descriptions[c.Field]
				}
				cells = append(cells, hc)
			}
			out = append(out, cells)
		}
		return out
	}

	data := struct {
		Class            string
		Head, Body, Foot [][]htmlCell
	}{
		Class: class,
		Head:  section(rm.HeaderRows),
		Body:  section(rm.DataRows),
		Foot:  section(rm.GrandTotalRows),
	}
	if err := htmlTable.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	return nil
}
