package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/spektr-org/pivot/engine"
)

// DefaultSeparator is the CSV field separator when none is set.
const DefaultSeparator = ";"

// CSV writes the flat grid: spanned positions become empty fields.
type CSV struct {
	Separator string
}

func (CSV) FormatName() string { return "csv" }
func (CSV) MimeType() string   { return "text/csv" }
func (CSV) Extension() string  { return "csv" }

func (e CSV) Export(w io.Writer, rm *engine.RenderModel) error {
	sep := e.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	comma, size := utf8.DecodeRuneInString(sep)
	if size != len(sep) {
		return fmt.Errorf("csv separator must be one character, got %q", sep)
	}

	cw := csv.NewWriter(w)
	cw.Comma = comma
	if err := cw.WriteAll(Layout(rm).Text()); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
