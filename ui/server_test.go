package ui

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attritionboard/domain/dataset"
	"attritionboard/internal/api"
	"attritionboard/internal/errors"
	"attritionboard/internal/pipeline"
	"attritionboard/ports"
)

type staticProvider struct {
	ds  *dataset.Dataset
	err error
}

func (p *staticProvider) Dataset(ctx context.Context) (*dataset.Dataset, error) { return p.ds, p.err }

func (p *staticProvider) Status() ports.LoadStatus {
	if p.err != nil {
		return ports.LoadStatus{Source: "test.csv", State: ports.LoadStateFailed, Error: p.err.Error(), UpdatedAt: time.Now()}
	}
	return ports.LoadStatus{Source: "test.csv", State: ports.LoadStateLoaded, Rows: p.ds.Len(), UpdatedAt: time.Now()}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, provider *staticProvider) *Server {
	t.Helper()
	p := pipeline.New(nil)
	s, err := NewServer(provider, p, api.NewServer(provider, p))
	require.NoError(t, err)
	return s
}

func employees(t *testing.T) *staticProvider {
	t.Helper()
	ds, err := dataset.New("test.csv",
		[]string{"Age", "Department", "Attrition"},
		[][]string{
			{"35", "Sales", "Left"}, {"22", "R&D", "Stayed"}, {"150", "Sales", "Stayed"},
			{"28", "HR", "Stayed"}, {"45", "R&D", "Left"}, {"30", "Sales", "Stayed"},
		})
	require.NoError(t, err)
	return &staticProvider{ds: ds}
}

func get(t *testing.T, s *Server, path string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexRendersDashboard(t *testing.T) {
	rec := get(t, newServer(t, employees(t)), "/?categorical=Department&numerical=Age")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "No. of Data Points")
	assert.Contains(t, body, `<option value="Department" selected>`)
	assert.Contains(t, body, `id="chart-heatmap"`)
	assert.Contains(t, body, "Data Preview")
	assert.Contains(t, body, "</html>")
}

func TestIndexShowsLoadError(t *testing.T) {
	provider := &staticProvider{err: errors.LoadError("https://example.com/train.csv", stderrors.New("connection refused"))}
	rec := get(t, newServer(t, provider), "/")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "The dataset could not be loaded.")
}

func TestFragmentCharts(t *testing.T) {
	rec := get(t, newServer(t, employees(t)), "/fragments/charts?categorical=Nope", "HX-Request", "true")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "<html")
	assert.Contains(t, body, `categorical column &#34;Nope&#34; not found`)
	assert.Contains(t, body, "data-spec=")
}

func TestReportPage(t *testing.T) {
	rec := get(t, newServer(t, employees(t)), "/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<table>")
}

func TestChartPNG(t *testing.T) {
	s := newServer(t, employees(t))

	rec := get(t, s, "/charts/response.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = get(t, s, "/charts/boxplot.png")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, s, "/charts/response.svg")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDatasetStatusAndMountedAPI(t *testing.T) {
	s := newServer(t, employees(t))

	rec := get(t, s, "/api/dataset/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"loaded"`)

	rec = get(t, s, "/api/frequency/Department")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"column":"Department"`)

	rec = get(t, s, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
