package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"attritionboard/domain/dataset"
	"attritionboard/internal/errors"
	"attritionboard/internal/pipeline"
	"attritionboard/ports"
)

type staticProvider struct {
	ds  *dataset.Dataset
	err error
}

func (p *staticProvider) Dataset(ctx context.Context) (*dataset.Dataset, error) {
	return p.ds, p.err
}

func (p *staticProvider) Status() ports.LoadStatus {
	if p.err != nil {
		return ports.LoadStatus{State: ports.LoadStateFailed, Error: p.err.Error(), UpdatedAt: time.Now()}
	}
	return ports.LoadStatus{State: ports.LoadStateLoaded, Rows: p.ds.Len(), UpdatedAt: time.Now()}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ds, err := dataset.New("test.csv",
		[]string{"Age", "Monthly Income", "Department", "Attrition"},
		[][]string{
			{"35", "5000", "Sales", "Left"},
			{"22", "3000", "R&D", "Stayed"},
			{"150", "4000", "Sales", "Stayed"},
			{"28", "", "HR", "Stayed"},
			{"45", "6100", "R&D", "Left"},
			{"30", "5200", "Sales", "Stayed"},
		})
	require.NoError(t, err)
	return NewServer(&staticProvider{ds: ds}, pipeline.New(nil))
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "loaded", body["dataset"].(map[string]interface{})["state"])
}

func TestSchema(t *testing.T) {
	rec := get(t, newTestServer(t), "/schema")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, 2.0, body["num_numerical"])
	assert.Equal(t, 2.0, body["num_categorical"])
	assert.Equal(t, true, body["response_present"])
}

func TestCharts(t *testing.T) {
	rec := get(t, newTestServer(t), "/charts?categorical=Department&numerical=Age")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)

	assert.Len(t, body["charts"], 6)
	assert.Equal(t, "Department", body["selection"].(map[string]interface{})["categorical"])
	assert.Equal(t, 6.0, body["metrics"].(map[string]interface{})["data_points"])
}

func TestFrequencyWithEscapedColumn(t *testing.T) {
	rec := get(t, newTestServer(t), "/frequency/Department")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	entries := body["entries"].([]interface{})
	assert.Equal(t, "Sales", entries[0].(map[string]interface{})["value"])

	rec = get(t, newTestServer(t), "/histogram/Monthly%20Income?bins=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["bins"], 2)
}

func TestUnknownColumnIsNotFound(t *testing.T) {
	rec := get(t, newTestServer(t), "/frequency/Location")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.CodeEmptySelection, decode(t, rec)["code"])
}

func TestCrossTab(t *testing.T) {
	rec := get(t, newTestServer(t), "/crosstab/Department")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["cells"], 6)
}

func TestOutliers(t *testing.T) {
	rec := get(t, newTestServer(t), "/outliers/Age")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, 1.0, result["dropped"])
	assert.Len(t, body["boxes"], 2)
}

func TestDegenerateOutliers(t *testing.T) {
	ds, err := dataset.New("test.csv", []string{"Score"}, [][]string{{""}, {""}})
	require.NoError(t, err)
	s := NewServer(&staticProvider{ds: ds}, pipeline.New(nil))

	rec := get(t, s, "/outliers/Score")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestPreviewValidation(t *testing.T) {
	s := newTestServer(t)
	rec := get(t, s, "/preview?rows=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["rows"], 2)

	rec = get(t, s, "/preview?rows=many")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.CodeInvalidInput, decode(t, rec)["code"])
}

func TestLoadFailureIsServiceUnavailable(t *testing.T) {
	s := NewServer(&staticProvider{err: errors.LoadError("https://example.com/train.csv", stderrors.New("timeout"))}, pipeline.New(nil))
	rec := get(t, s, "/charts")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, errors.CodeLoadError, decode(t, rec)["code"])
}

func TestExportAndReport(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/export.xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Summary")
	assert.Contains(t, f.GetSheetList(), "Preview")

	rec = get(t, s, "/report.md")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "## Overview")
}
