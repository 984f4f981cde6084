package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"attritionboard/domain/core"
	"attritionboard/domain/dataset"
	"attritionboard/domain/stats"
	"attritionboard/internal/analysis"
	"attritionboard/internal/charts"
	"attritionboard/internal/config"
	"attritionboard/internal/errors"
	"attritionboard/internal/profiling"
)

// Pipeline turns a dataset and a selection into the dashboard's charts.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	profile *config.Profile
	palette charts.Palette
}

// New creates a pipeline for the given profile; nil selects the defaults.
func New(profile *config.Profile) *Pipeline {
	if profile == nil {
		profile = config.DefaultProfile()
	}
	return &Pipeline{
		profile: profile,
		palette: charts.Palette{Levels: profile.ResponseLevels, Colors: profile.ResponseColors},
	}
}

// Profile returns the profile the pipeline was built with.
func (p *Pipeline) Profile() *config.Profile { return p.profile }

// Palette returns the response colour palette.
func (p *Pipeline) Palette() charts.Palette { return p.palette }

// ResolveSelection replaces unknown columns with the first column of their
// partition. An empty request picks the first column silently; an unknown one
// is reported as a warning.
func ResolveSelection(schema *profiling.Schema, sel dataset.Selection) (dataset.Selection, []string) {
	var warnings []string
	pick := func(kind dataset.Kind, requested string, options []string) string {
		if requested != "" && schema.Has(kind, requested) {
			return requested
		}
		if len(options) == 0 {
			if requested != "" {
				warnings = append(warnings, fmt.Sprintf("no %s columns available for %q", kind, requested))
			}
			return ""
		}
		if requested != "" {
			warnings = append(warnings, fmt.Sprintf("%s column %q not found, showing %q", kind, requested, options[0]))
		}
		return options[0]
	}
	return dataset.Selection{
		Categorical: pick(dataset.KindCategorical, sel.Categorical, schema.Categorical),
		Numerical:   pick(dataset.KindNumerical, sel.Numerical, schema.Numerical),
	}, warnings
}

// Compute runs every aggregation and chart for sel. A chart that fails records
// its error and leaves the others untouched; only a nil dataset or a cancelled
// context fails the whole run.
func (p *Pipeline) Compute(ctx context.Context, ds *dataset.Dataset, sel dataset.Selection) (*ChartData, error) {
	if ds == nil {
		return nil, errors.LoadError("", fmt.Errorf("dataset is not loaded"))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	response := p.profile.ResponseColumn

	schema := profiling.Classify(ds, response)
	resolved, warnings := ResolveSelection(schema, sel)
	if !schema.ResponsePresent {
		warnings = append(warnings, fmt.Sprintf("response column %q not found", response))
	}

	data := &ChartData{
		RunID:  core.NewRunID(),
		Source: ds.Source(),
		Hash:   ds.Hash().Short(),
		Title:  p.profile.Title,
		Metrics: Metrics{
			DataPoints:     ds.Len(),
			NumCategorical: schema.NumCategorical,
			NumNumerical:   schema.NumNumerical,
			Response:       response,
		},
		Schema:    schema,
		Selection: resolved,
		Warnings:  warnings,
		Dataset:   ds,
	}

	p.run(ctx, data, ChartResponse, "Response Variable Distribution", func() (charts.Spec, error) {
		t, err := analysis.Frequency(ds, response)
		if err != nil {
			return nil, err
		}
		data.Response = t
		data.ResponseLabels = p.labels(t)
		return charts.ResponseDonut(t, p.palette, p.profile.DonutInnerRadius), nil
	})

	p.run(ctx, data, ChartCategory, "Categorical Variables Distribution", func() (charts.Spec, error) {
		t, err := analysis.Frequency(ds, resolved.Categorical)
		if err != nil {
			return nil, err
		}
		data.Frequency = t
		return charts.CategoryBar(t), nil
	})

	p.run(ctx, data, ChartHistogram, "Numerical Variables Distribution", func() (charts.Spec, error) {
		h, err := analysis.Bucketize(ds, resolved.Numerical, p.profile.HistogramBins)
		if err != nil {
			return nil, err
		}
		data.Histogram = h
		if s, err := profiling.Describe(ds, resolved.Numerical); err == nil {
			data.Summary = s
		}
		return charts.Histogram(h), nil
	})

	p.run(ctx, data, ChartStacked, "Response vs Categorical Variables", func() (charts.Spec, error) {
		x, err := analysis.CrossTabulate(ds, resolved.Categorical, response, p.profile.ResponseLevels)
		if err != nil {
			return nil, err
		}
		data.CrossTab = x
		return charts.StackedBar(x, p.palette), nil
	})

	p.run(ctx, data, ChartBoxPlot, "Response vs Numerical Variables", func() (charts.Spec, error) {
		res, err := analysis.FilterOutliers(ds, resolved.Numerical, p.profile.FenceMultiplier)
		if err != nil {
			return nil, err
		}
		data.Outliers = res
		if res.Degenerate {
			data.Warnings = append(data.Warnings, fmt.Sprintf("%s has zero interquartile range; no rows were treated as outliers", resolved.Numerical))
		}
		boxes, err := analysis.BoxSummaries(res.Dataset, resolved.Numerical, response, p.profile.ResponseLevels, p.profile.FenceMultiplier)
		if err != nil {
			return nil, err
		}
		data.Boxes = boxes
		return charts.BoxPlot(resolved.Numerical, response, boxes, p.palette), nil
	})

	p.run(ctx, data, ChartHeatmap, p.profile.HeatmapColumn+" vs "+response, func() (charts.Spec, error) {
		x, err := analysis.CrossTabulate(ds, p.profile.HeatmapColumn, response, p.profile.ResponseLevels)
		if err != nil {
			return nil, err
		}
		data.Heatmap = x
		return charts.Heatmap(x), nil
	})

	preview := ds.DropAllNullRows().Head(p.profile.PreviewRows)
	data.preview = preview
	data.Preview = PreviewTable{Columns: preview.ColumnNames(), Rows: preview.Records()}

	data.ComputedAt = time.Now()
	data.Duration = time.Since(start)
	log.Printf("[Pipeline] run %s: %d charts, %d failed, %d warnings in %s",
		data.RunID.String()[:8], len(data.Charts), len(data.Failed()), len(data.Warnings), data.Duration.Round(time.Microsecond))
	return data, nil
}

// run computes one chart, turning errors and panics into a per-chart failure.
func (p *Pipeline) run(ctx context.Context, data *ChartData, name, title string, fn func() (charts.Spec, error)) {
	result := ChartResult{Name: name, Title: title}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Pipeline] PANIC in chart %s: %v", name, r)
			result.Spec = nil
			result.Error = fmt.Sprintf("internal error: %v", r)
			result.Code = errors.CodeInternalError
		}
		data.Charts = append(data.Charts, result)
	}()

	if err := ctx.Err(); err != nil {
		result.Error = err.Error()
		result.Code = errors.CodeInternalError
		return
	}
	spec, err := fn()
	if err != nil {
		log.Printf("[Pipeline] chart %s failed: %v", name, err)
		result.Error = err.Error()
		result.Code = errors.GetCode(err)
		return
	}
	result.Spec = spec
}

// labels builds the donut captions for the configured levels in order, then
// any unexpected level in frequency order.
func (p *Pipeline) labels(t *stats.FrequencyTable) []ResponseLabel {
	var out []ResponseLabel
	seen := make(map[string]bool)
	add := func(level string) {
		e, ok := t.Entry(level)
		if !ok || seen[level] {
			return
		}
		seen[level] = true
		color, _ := p.palette.Color(level)
		out = append(out, ResponseLabel{Level: level, Count: e.Count, Percent: e.DisplayPercent(), Color: color})
	}
	for _, l := range p.profile.ResponseLevels {
		add(l)
	}
	for _, e := range t.Entries {
		add(e.Value)
	}
	return out
}
