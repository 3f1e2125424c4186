// Package export writes a rendered pivot table (engine.RenderModel) as CSV,
// XLSX, HTML, JSON or an aligned text grid.
package export

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/pivot/engine"
)

// ErrUnknownFormat is returned by ForFormat.
var ErrUnknownFormat = errors.New("unknown export format")

// Exporter writes one rendered table.
type Exporter interface {
	FormatName() string
	MimeType() string
	Extension() string
	Export(w io.Writer, rm *engine.RenderModel) error
}

// ForFormat returns the exporter registered under name (case-insensitive),
// configured with its defaults.
func ForFormat(name string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "csv":
		return CSV{}, nil
	case "xlsx", "excel":
		return XLSX{}, nil
	case "html":
		return HTML{}, nil
	case "text", "txt":
		return Text{}, nil
	case "json":
		return JSON{}, nil
	case "pretty":
		return JSON{Indent: true}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Formats lists the names ForFormat accepts.
func Formats() []string {
	return []string{"csv", "xlsx", "html", "text", "json", "pretty"}
}

// FormatValue renders a cell value as text: whole numbers without decimals,
// other numbers with two, times as dates, nil as empty.
func FormatValue(v engine.Value) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format("2006-01-02")
	}
	if f, ok := engine.ToFloat(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return ""
		}
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return strconv.FormatFloat(f, 'f', 0, 64)
		}
		return strconv.FormatFloat(f, 'f', 2, 64)
	}
	return fmt.Sprint(v)
}
