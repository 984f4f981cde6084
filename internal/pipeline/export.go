package pipeline

import (
	"io"
	"strconv"

	"attritionboard/adapters/excel"
	"attritionboard/internal/charts"
	"attritionboard/internal/errors"
)

// Workbook collects the tables of a run for the XLSX export.
func (d *ChartData) Workbook() excel.Workbook {
	wb := excel.Workbook{
		Summary: [][2]string{
			{"Source", d.Source},
			{"No. of Data Points", strconv.Itoa(d.Metrics.DataPoints)},
			{"No. of Categorical Variables", strconv.Itoa(d.Metrics.NumCategorical)},
			{"No. of Numerical Variables", strconv.Itoa(d.Metrics.NumNumerical)},
			{"Response Variable", d.Metrics.Response},
			{"Categorical selection", d.Selection.Categorical},
			{"Numerical selection", d.Selection.Numerical},
			{"Run", d.RunID.String()},
		},
		Response:  d.Response,
		Frequency: d.Frequency,
		CrossTab:  d.CrossTab,
		Histogram: d.Histogram,
		Preview:   d.preview,
	}
	if d.Outliers != nil {
		fence := d.Outliers.Fence
		wb.Fence = &fence
	}
	return wb
}

// WriteXLSX exports the run as a workbook.
func (d *ChartData) WriteXLSX(w io.Writer) error {
	return excel.WriteWorkbook(w, d.Workbook())
}

// RenderPNG draws the named chart of a run server-side. A chart whose table
// failed reports that chart's error.
func (p *Pipeline) RenderPNG(w io.Writer, name string, data *ChartData) error {
	if res, ok := data.Chart(name); ok && !res.OK() {
		return errors.New(res.Code, res.Error)
	}
	switch name {
	case charts.PNGResponse:
		return charts.RenderDonutPNG(w, data.Response, p.palette)
	case charts.PNGCategory:
		return charts.RenderCategoryPNG(w, data.Frequency)
	case charts.PNGHistogram:
		return charts.RenderHistogramPNG(w, data.Histogram)
	case charts.PNGStacked:
		return charts.RenderStackedPNG(w, data.CrossTab, p.palette)
	default:
		return errors.NotFound("chart " + name)
	}
}
