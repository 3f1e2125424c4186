package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pivot/engine"
	"github.com/spektr-org/pivot/schema"
	"github.com/spektr-org/pivot/storage"
)

func testSource() *engine.SliceSource {
	return engine.NewSliceSource(
		[]string{"REGION", "YEAR", "SALES"},
		[]engine.FieldType{engine.TypeString, engine.TypeNumber, engine.TypeNumber},
		[][]engine.Value{
			{"East", 2020.0, 10.0},
			{"East", 2021.0, 20.0},
			{"West", 2020.0, 30.0},
			{"West", 2021.0, 40.0},
		},
	)
}

const regionSnapshot = `{
	"name": "by region",
	"showGrandTotalForColumn": true,
	"fields": [
		{"name": "REGION", "title": "Region", "area": "row", "areaIndex": 0, "sortOrder": "asc"},
		{"name": "SALES", "title": "Sales", "area": "data", "areaIndex": 0, "aggregate": "sum", "sortOrder": "asc"}
	]
}`

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	sch := &schema.Config{Fields: []schema.FieldMeta{
		{Name: "REGION", DisplayName: "Region", Type: engine.TypeString, Role: schema.RoleDimension},
		{Name: "SALES", DisplayName: "Sales", Type: engine.TypeNumber, Role: schema.RoleMeasure},
	}}
	store := storage.NewMemory()
	return New(testSource(), sch, store, Options{}), store
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFields(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/fields", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var fields []FieldInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	require.Len(t, fields, 3)

	assert.Equal(t, FieldInfo{Name: "REGION", DisplayName: "Region", Type: engine.TypeString, Role: schema.RoleDimension}, fields[0])
	// Not in the schema
	assert.Equal(t, FieldInfo{Name: "YEAR", DisplayName: "YEAR", Type: engine.TypeNumber}, fields[1])
}

func TestPivot(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/pivot", regionSnapshot)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var rm engine.RenderModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rm))
	require.Len(t, rm.DataRows, 2)
	require.Len(t, rm.GrandTotalRows, 1)

	east := rm.DataRows[0]
	require.Len(t, east.Header, 1)
	assert.Equal(t, "East", east.Header[0].Value)
	require.Len(t, east.Values, 1)
	assert.Equal(t, 30.0, east.Values[0].Value)

	total := rm.GrandTotalRows[0]
	require.Len(t, total.Values, 1)
	assert.Equal(t, 100.0, total.Values[0].Value)
}

func TestPivotBadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"fields": [`},
		{"unknown key", `{"bogus": 1}`},
		{"unknown aggregate", `{"fields": [{"name": "SALES", "area": "data", "aggregate": "median"}]}`},
		{"unknown area", `{"fields": [{"name": "SALES", "area": "side"}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/pivot", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeError(t, rec))
		})
	}
}

func TestPivotBodyLimit(t *testing.T) {
	s := New(testSource(), nil, storage.NewMemory(), Options{MaxBodyBytes: 16})
	rec := do(t, s, http.MethodPost, "/api/pivot", regionSnapshot)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, decodeError(t, rec), "request body too large")

	rec = do(t, s, http.MethodPut, "/api/configs/big", regionSnapshot)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	// Malformed but small bodies stay 400
	rec = do(t, s, http.MethodPost, "/api/pivot", `{"x`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/pivot/export/csv", regionSnapshot)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename="by_region.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "East;30")
	assert.Contains(t, rec.Body.String(), "Grand Total;100")

	rec = do(t, s, http.MethodPost, "/api/pivot/export/pdf", regionSnapshot)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "unknown export format")
}

func TestConfigLifecycle(t *testing.T) {
	s, store := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/configs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, s, http.MethodPut, "/api/configs/weekly", regionSnapshot)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The URL name wins over the body name
	saved, err := store.Load(context.Background(), "weekly")
	require.NoError(t, err)
	assert.Equal(t, "weekly", saved.Name)

	rec = do(t, s, http.MethodGet, "/api/configs", "")
	assert.JSONEq(t, `["weekly"]`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/configs/weekly", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var snap engine.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Len(t, snap.Fields, 2)

	rec = do(t, s, http.MethodPost, "/api/configs/weekly/pivot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rm engine.RenderModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rm))
	assert.Len(t, rm.DataRows, 2)

	rec = do(t, s, http.MethodPost, "/api/configs/weekly/pivot?format=html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<table")

	rec = do(t, s, http.MethodDelete, "/api/configs/weekly", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/configs/weekly", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/configs/weekly", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/configs/weekly/pivot", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPutConfigRejectsInvalidSnapshot(t *testing.T) {
	s, store := newTestServer(t)
	rec := do(t, s, http.MethodPut, "/api/configs/bad",
		`{"fields": [{"name": "SALES", "area": "data", "aggregate": "median"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, err := store.Load(context.Background(), "bad")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(storage.ErrNotFound))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(errTooLarge))
	assert.Equal(t, http.StatusBadRequest, statusFor(&engine.FieldError{Field: "X", Err: engine.ErrUnknownField}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestInternalErrorsHideDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(rec, req, assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decodeError(t, rec))
}
