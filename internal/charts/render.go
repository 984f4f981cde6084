package charts

import (
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"attritionboard/domain/stats"
)

const (
	pngWidth  = 640
	pngHeight = 400
)

// PNG chart names served by the dashboard and written by the CLI.
const (
	PNGResponse  = "response"
	PNGCategory  = "category"
	PNGHistogram = "histogram"
	PNGStacked   = "stacked"
)

// PNGNames lists the charts that can be rendered server-side.
var PNGNames = []string{PNGResponse, PNGCategory, PNGHistogram, PNGStacked}

var fallbackColors = []drawing.Color{chart.ColorBlue, chart.ColorOrange, chart.ColorGreen, chart.ColorRed, chart.ColorAlternateGray}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func (p Palette) drawingColor(level string, i int) drawing.Color {
	if c, ok := p.Color(level); ok {
		return hexColor(c)
	}
	return fallbackColors[i%len(fallbackColors)]
}

func barStyle(c drawing.Color) chart.Style {
	return chart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1}
}

// RenderDonutPNG writes the response split as a donut chart.
func RenderDonutPNG(w io.Writer, t *stats.FrequencyTable, p Palette) error {
	if t.Total == 0 {
		return fmt.Errorf("no values to draw for %s", t.Column)
	}
	values := make([]chart.Value, len(t.Entries))
	for i, e := range t.Entries {
		values[i] = chart.Value{
			Value: float64(e.Count),
			Label: fmt.Sprintf("%s %d (%.1f%%)", e.Value, e.Count, e.DisplayPercent()),
			Style: barStyle(p.drawingColor(e.Value, i)),
		}
	}
	donut := chart.DonutChart{
		Title:  fmt.Sprintf("%s (total %d)", t.Column, t.Total),
		Width:  pngWidth,
		Height: pngHeight,
		Values: values,
	}
	return donut.Render(chart.PNG, w)
}

// RenderCategoryPNG writes the frequency bar chart of a categorical column.
func RenderCategoryPNG(w io.Writer, t *stats.FrequencyTable) error {
	if len(t.Entries) == 0 {
		return fmt.Errorf("no values to draw for %s", t.Column)
	}
	bars := make([]chart.Value, len(t.Entries))
	for i, e := range t.Entries {
		bars[i] = chart.Value{Value: float64(e.Count), Label: e.Value, Style: barStyle(chart.ColorBlue)}
	}
	return renderBars(w, t.Column, bars)
}

// RenderHistogramPNG writes pre-binned counts as adjacent bars.
func RenderHistogramPNG(w io.Writer, h *stats.Histogram) error {
	if len(h.Bins) == 0 {
		return fmt.Errorf("no values to draw for %s", h.Column)
	}
	bars := make([]chart.Value, len(h.Bins))
	for i, b := range h.Bins {
		bars[i] = chart.Value{
			Value: float64(b.Count),
			Label: fmt.Sprintf("%g", b.Start),
			Style: barStyle(hexColor("4682B4")),
		}
	}
	return renderBars(w, h.Column, bars)
}

func renderBars(w io.Writer, title string, bars []chart.Value) error {
	width := pngWidth / (len(bars) + 1)
	if width > 60 {
		width = 60
	}
	bc := chart.BarChart{
		Title:      title,
		Width:      pngWidth,
		Height:     pngHeight,
		BarWidth:   width,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Bars:       bars,
	}
	return bc.Render(chart.PNG, w)
}

// RenderStackedPNG writes one stacked bar per category, split by response.
func RenderStackedPNG(w io.Writer, x *stats.CrossTabulation, p Palette) error {
	if len(x.Values) == 0 {
		return fmt.Errorf("no values to draw for %s", x.Column)
	}
	bars := make([]chart.StackedBar, len(x.Values))
	for i, v := range x.Values {
		segments := make([]chart.Value, 0, len(x.Responses))
		for j, r := range x.Responses {
			if x.Counts[i][j] == 0 {
				continue
			}
			segments = append(segments, chart.Value{
				Value: float64(x.Counts[i][j]),
				Label: r,
				Style: barStyle(p.drawingColor(r, j)),
			})
		}
		bars[i] = chart.StackedBar{Name: v, Values: segments}
	}
	sbc := chart.StackedBarChart{
		Title:      fmt.Sprintf("%s by %s", x.Response, x.Column),
		Width:      pngWidth,
		Height:     pngHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Bars:       bars,
	}
	return sbc.Render(chart.PNG, w)
}
