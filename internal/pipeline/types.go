package pipeline

import (
	"time"

	"attritionboard/domain/core"
	"attritionboard/domain/dataset"
	"attritionboard/domain/stats"
	"attritionboard/internal/charts"
	"attritionboard/internal/profiling"
)

// Chart names, in dashboard order.
const (
	ChartResponse  = "response"
	ChartCategory  = "category"
	ChartHistogram = "histogram"
	ChartStacked   = "stacked"
	ChartBoxPlot   = "boxplot"
	ChartHeatmap   = "heatmap"
)

// Metrics are the header boxes of the dashboard.
type Metrics struct {
	DataPoints     int    `json:"data_points"`
	NumCategorical int    `json:"num_categorical"`
	NumNumerical   int    `json:"num_numerical"`
	Response       string `json:"response"`
}

// ResponseLabel is the caption shown next to the donut for one level.
type ResponseLabel struct {
	Level   string  `json:"level"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color,omitempty"`
}

// ChartResult is one rendered widget. Exactly one of Spec and Error is set.
type ChartResult struct {
	Name  string      `json:"name"`
	Title string      `json:"title"`
	Spec  charts.Spec `json:"spec,omitempty"`
	Error string      `json:"error,omitempty"`
	Code  string      `json:"code,omitempty"`
}

// OK reports whether the chart was computed.
func (c ChartResult) OK() bool { return c.Error == "" }

// PreviewTable is the data preview in a transport-friendly shape.
type PreviewTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ChartData is everything the dashboard shows for one selection.
type ChartData struct {
	RunID     core.RunID        `json:"run_id"`
	Source    string            `json:"source"`
	Hash      string            `json:"hash,omitempty"`
	Title     string            `json:"title"`
	Metrics   Metrics           `json:"metrics"`
	Schema    *profiling.Schema `json:"schema"`
	Selection dataset.Selection `json:"selection"`

	Response       *stats.FrequencyTable       `json:"response_distribution,omitempty"`
	ResponseLabels []ResponseLabel             `json:"response_labels,omitempty"`
	Frequency      *stats.FrequencyTable       `json:"frequency,omitempty"`
	Histogram      *stats.Histogram            `json:"histogram,omitempty"`
	CrossTab       *stats.CrossTabulation      `json:"crosstab,omitempty"`
	Heatmap        *stats.CrossTabulation      `json:"heatmap,omitempty"`
	Outliers       *stats.QuartileFilterResult `json:"outliers,omitempty"`
	Boxes          []stats.BoxSummary          `json:"boxes,omitempty"`
	Summary        *stats.NumericSummary       `json:"summary,omitempty"`

	Charts   []ChartResult    `json:"charts"`
	Preview  PreviewTable     `json:"preview"`
	Warnings []string         `json:"warnings,omitempty"`
	Dataset  *dataset.Dataset `json:"-"`

	preview *dataset.Dataset

	ComputedAt time.Time     `json:"computed_at"`
	Duration   time.Duration `json:"duration_ns"`
}

// Chart returns the named chart result.
func (d *ChartData) Chart(name string) (ChartResult, bool) {
	for _, c := range d.Charts {
		if c.Name == name {
			return c, true
		}
	}
	return ChartResult{}, false
}

// Failed lists the charts that could not be computed.
func (d *ChartData) Failed() []ChartResult {
	var out []ChartResult
	for _, c := range d.Charts {
		if !c.OK() {
			out = append(out, c)
		}
	}
	return out
}
