package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/export"
	"github.com/spektr-org/pivot/internal/logging"
	"github.com/spektr-org/pivot/storage"
)

var (
	// errBadRequest marks request decoding failures.
	errBadRequest = errors.New("bad request")

	// errTooLarge marks bodies over Options.MaxBodyBytes.
	errTooLarge = errors.New("request body too large")
)

// clientErrors are reported as 400.
var clientErrors = []error{
	errBadRequest,
	engine.ErrUnknownFunction,
	engine.ErrUnknownField,
	engine.ErrNoAggregator,
	engine.ErrCalculationCycle,
	engine.ErrCalculationDepth,
	engine.ErrFieldNameMismatch,
	storage.ErrInvalidName,
	export.ErrUnknownFormat,
}

func statusFor(err error) int {
	if errors.Is(err, storage.ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, errTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	for _, target := range clientErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// writeError writes {"error": "..."}; internal errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", "error", err)
		msg = http.StatusText(status)
	}
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeJSON encodes v as JSON. Encoding errors are logged since headers are
// already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Warn("json encode error", "error", err)
	}
}
