package export

import (
	"encoding/json"
	"io"

	"github.com/spektr-org/pivot/engine"
)

// JSON writes the render model itself, as served by the HTTP API.
type JSON struct {
	Indent bool
}

func (JSON) FormatName() string { return "json" }
func (JSON) MimeType() string   { return "application/json" }
func (JSON) Extension() string  { return "json" }

func (e JSON) Export(w io.Writer, rm *engine.RenderModel) error {
	enc := json.NewEncoder(w)
	if e.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(rm)
}
