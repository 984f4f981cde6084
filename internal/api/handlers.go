package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"attritionboard/domain/dataset"
	"attritionboard/domain/stats"
	"attritionboard/internal/analysis"
	"attritionboard/internal/errors"
	"attritionboard/internal/profiling"
	"attritionboard/internal/report"
)

const maxPreviewRows = 500

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[API] encode response: %v", err)
	}
}

// writeError renders {"error", "code"} with the status mapped from the code.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errors.HTTPStatus(err), map[string]string{
		"error": err.Error(),
		"code":  errors.GetCode(err),
	})
}

// dataset loads the shared dataset or writes the load failure.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (*dataset.Dataset, bool) {
	ds, err := s.provider.Dataset(r.Context())
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	return ds, true
}

func columnParam(r *http.Request) string {
	raw := chi.URLParam(r, "column")
	if col, err := url.PathUnescape(raw); err == nil {
		return col
	}
	return raw
}

func selectionFrom(r *http.Request) dataset.Selection {
	q := r.URL.Query()
	return dataset.Selection{Categorical: q.Get("categorical"), Numerical: q.Get("numerical")}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.InvalidInput(fmt.Sprintf("%s must be an integer, got %q", name, v))
	}
	return n, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"dataset": s.provider.Status(),
	})
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, profiling.Classify(ds, s.pipeline.Profile().ResponseColumn))
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	data, err := s.pipeline.Compute(r.Context(), ds, selectionFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	t, err := analysis.Frequency(ds, columnParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleCrossTab(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	profile := s.pipeline.Profile()
	response := r.URL.Query().Get("response")
	if response == "" {
		response = profile.ResponseColumn
	}
	x, err := analysis.CrossTabulate(ds, columnParam(r), response, profile.ResponseLevels)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"column":    x.Column,
		"response":  x.Response,
		"values":    x.Values,
		"responses": x.Responses,
		"counts":    x.Counts,
		"cells":     x.Cells(),
	})
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	bins, err := intParam(r, "bins", s.pipeline.Profile().HistogramBins)
	if err != nil {
		writeError(w, err)
		return
	}
	h, err := analysis.Bucketize(ds, columnParam(r), bins)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleOutliers(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	profile := s.pipeline.Profile()
	column := columnParam(r)
	res, err := analysis.FilterOutliers(ds, column, profile.FenceMultiplier)
	if err != nil {
		writeError(w, err)
		return
	}
	var boxes []stats.BoxSummary
	if _, present := ds.Column(profile.ResponseColumn); present {
		boxes, err = analysis.BoxSummaries(res.Dataset, column, profile.ResponseColumn, profile.ResponseLevels, profile.FenceMultiplier)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": res,
		"boxes":  boxes,
	})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	d, err := profiling.Describe(ds, columnParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	rows, err := intParam(r, "rows", s.pipeline.Profile().PreviewRows)
	if err != nil {
		writeError(w, err)
		return
	}
	if rows < 0 || rows > maxPreviewRows {
		writeError(w, errors.InvalidInput(fmt.Sprintf("rows must be between 0 and %d", maxPreviewRows)))
		return
	}
	preview := ds.DropAllNullRows().Head(rows)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"columns": preview.ColumnNames(),
		"rows":    preview.Records(),
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	data, err := s.pipeline.Compute(r.Context(), ds, selectionFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = w.Write([]byte(report.Markdown(data)))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	data, err := s.pipeline.Compute(r.Context(), ds, selectionFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="attrition-dashboard.xlsx"`)
	if err := data.WriteXLSX(w); err != nil {
		log.Printf("[API] export failed: %v", err)
	}
}
