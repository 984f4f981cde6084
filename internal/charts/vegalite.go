// Package charts maps computed tables onto declarative Vega-Lite v5 specs and
// server-side PNG images. It computes no statistics of its own.
package charts

import (
	"strconv"
	"strings"

	"attritionboard/domain/stats"
)

const schemaURL = "https://vega.github.io/schema/vega-lite/v5.json"

// Default chart geometry.
const (
	DefaultWidth       = 300
	DefaultHeight      = 300
	DefaultInnerRadius = 50
	boxSize            = 40
	centerTextSize     = 28
)

// Spec is a Vega-Lite specification ready for vega-embed.
type Spec map[string]interface{}

// Palette pins colours to response levels.
type Palette struct {
	Levels []string
	Colors []string
}

// scale returns the ordinal colour scale, or nil when no levels are pinned.
func (p Palette) scale() map[string]interface{} {
	if len(p.Levels) == 0 || len(p.Levels) != len(p.Colors) {
		return nil
	}
	return map[string]interface{}{"domain": p.Levels, "range": p.Colors}
}

// Color returns the colour pinned to level.
func (p Palette) Color(level string) (string, bool) {
	for i, l := range p.Levels {
		if l == level && i < len(p.Colors) {
			return p.Colors[i], true
		}
	}
	return "", false
}

var topLegend = map[string]interface{}{"orient": "top", "direction": "horizontal"}

func base() Spec {
	return Spec{
		"$schema":  schemaURL,
		"width":    DefaultWidth,
		"height":   DefaultHeight,
		"autosize": map[string]interface{}{"type": "fit", "contains": "padding"},
	}
}

// field escapes a column name for use as a Vega-Lite field reference; dots and
// brackets would otherwise address nested properties.
func field(name string) string {
	r := strings.NewReplacer(`\`, `\\`, ".", `\.`, "[", `\[`, "]", `\]`)
	return r.Replace(name)
}

func colorEncoding(response string, p Palette) map[string]interface{} {
	enc := map[string]interface{}{
		"field":  field(response),
		"type":   "nominal",
		"legend": topLegend,
	}
	if sc := p.scale(); sc != nil {
		enc["scale"] = sc
	}
	return enc
}

// ResponseDonut draws the response split as a donut with the total in the centre.
func ResponseDonut(t *stats.FrequencyTable, p Palette, innerRadius int) Spec {
	if innerRadius <= 0 {
		innerRadius = DefaultInnerRadius
	}
	values := make([]map[string]interface{}, len(t.Entries))
	for i, e := range t.Entries {
		values[i] = map[string]interface{}{
			t.Column:     e.Value,
			"Count":      e.Count,
			"Percentage": e.DisplayPercent(),
		}
	}
	total := strconv.Itoa(t.Total)

	s := base()
	s["data"] = map[string]interface{}{"values": values}
	s["layer"] = []interface{}{
		map[string]interface{}{
			"mark": map[string]interface{}{"type": "arc", "innerRadius": innerRadius},
			"encoding": map[string]interface{}{
				"theta": map[string]interface{}{"field": "Count", "type": "quantitative"},
				"color": colorEncoding(t.Column, p),
				"tooltip": []interface{}{
					map[string]interface{}{"field": field(t.Column), "type": "nominal"},
					map[string]interface{}{"field": "Count", "type": "quantitative"},
					map[string]interface{}{"field": "Percentage", "type": "quantitative", "format": ".1f"},
				},
			},
		},
		map[string]interface{}{
			"data": map[string]interface{}{"values": []interface{}{map[string]interface{}{"text": total}}},
			"mark": map[string]interface{}{"type": "text", "text": total, "size": centerTextSize, "color": "white"},
			"encoding": map[string]interface{}{
				"text": map[string]interface{}{"field": "text", "type": "nominal"},
			},
		},
	}
	return s
}

// CategoryBar draws the frequency of a categorical column, tallest bar first.
func CategoryBar(t *stats.FrequencyTable) Spec {
	values := make([]map[string]interface{}, len(t.Entries))
	for i, e := range t.Entries {
		values[i] = map[string]interface{}{t.Column: e.Value, "Count": e.Count}
	}
	s := base()
	s["data"] = map[string]interface{}{"values": values}
	s["mark"] = "bar"
	s["encoding"] = map[string]interface{}{
		"x": map[string]interface{}{"field": field(t.Column), "type": "nominal", "sort": "-y"},
		"y": map[string]interface{}{"field": "Count", "type": "quantitative"},
		"tooltip": []interface{}{
			map[string]interface{}{"field": field(t.Column), "type": "nominal"},
			map[string]interface{}{"field": "Count", "type": "quantitative"},
		},
	}
	return s
}

// Histogram draws pre-binned counts of a numerical column.
func Histogram(h *stats.Histogram) Spec {
	values := make([]map[string]interface{}, len(h.Bins))
	for i, b := range h.Bins {
		values[i] = map[string]interface{}{"bin_start": b.Start, "bin_end": b.End, "Count": b.Count}
	}
	x := map[string]interface{}{
		"field": "bin_start",
		"type":  "quantitative",
		"bin":   map[string]interface{}{"binned": true},
		"title": h.Column,
	}
	if h.Step > 0 {
		x["bin"] = map[string]interface{}{"binned": true, "step": h.Step}
	}
	s := base()
	s["data"] = map[string]interface{}{"values": values}
	s["mark"] = "bar"
	s["encoding"] = map[string]interface{}{
		"x":  x,
		"x2": map[string]interface{}{"field": "bin_end"},
		"y":  map[string]interface{}{"field": "Count", "type": "quantitative", "title": "Count of Records"},
		"tooltip": []interface{}{
			map[string]interface{}{"field": "bin_start", "type": "quantitative", "title": h.Column + " (from)"},
			map[string]interface{}{"field": "bin_end", "type": "quantitative", "title": h.Column + " (to)"},
			map[string]interface{}{"field": "Count", "type": "quantitative"},
		},
	}
	return s
}

func crossValues(x *stats.CrossTabulation) []map[string]interface{} {
	cells := x.Cells()
	values := make([]map[string]interface{}, len(cells))
	for i, c := range cells {
		values[i] = map[string]interface{}{x.Column: c.Value, x.Response: c.Response, "Count": c.Count}
	}
	return values
}

// StackedBar draws response counts per category as horizontal stacked bars.
func StackedBar(x *stats.CrossTabulation, p Palette) Spec {
	s := base()
	s["data"] = map[string]interface{}{"values": crossValues(x)}
	s["mark"] = "bar"
	s["encoding"] = map[string]interface{}{
		"y": map[string]interface{}{"field": field(x.Column), "type": "nominal", "title": x.Column, "sort": "-x"},
		"x": map[string]interface{}{
			"aggregate": "sum", "field": "Count", "type": "quantitative", "title": "Count",
		},
		"color": colorEncoding(x.Response, p),
		"tooltip": []interface{}{
			map[string]interface{}{"field": field(x.Column), "type": "nominal"},
			map[string]interface{}{"field": field(x.Response), "type": "nominal"},
			map[string]interface{}{"field": "Count", "type": "quantitative"},
		},
	}
	return s
}

// BoxPlot draws per-response box summaries of a filtered numerical column:
// whisker rules, a white box of fixed width and a median tick.
func BoxPlot(column, response string, boxes []stats.BoxSummary, p Palette) Spec {
	values := make([]map[string]interface{}, len(boxes))
	for i, b := range boxes {
		values[i] = map[string]interface{}{
			response: b.Group, "lower": b.WhiskerLow, "q1": b.Q1, "median": b.Median,
			"q3": b.Q3, "upper": b.WhiskerHigh, "count": b.Count,
		}
	}
	x := map[string]interface{}{"field": field(response), "type": "nominal", "title": response}
	y := func(f string) map[string]interface{} {
		return map[string]interface{}{"field": f, "type": "quantitative", "title": column, "scale": map[string]interface{}{"zero": false}}
	}

	s := base()
	s["data"] = map[string]interface{}{"values": values}
	s["encoding"] = map[string]interface{}{"x": x}
	s["layer"] = []interface{}{
		map[string]interface{}{
			"mark":     map[string]interface{}{"type": "rule", "color": "white"},
			"encoding": map[string]interface{}{"y": y("lower"), "y2": map[string]interface{}{"field": "upper"}},
		},
		map[string]interface{}{
			"mark": map[string]interface{}{"type": "bar", "size": boxSize, "color": "white", "strokeWidth": 1},
			"encoding": map[string]interface{}{
				"y":      y("q1"),
				"y2":     map[string]interface{}{"field": "q3"},
				"stroke": colorEncoding(response, p),
				"tooltip": []interface{}{
					map[string]interface{}{"field": field(response), "type": "nominal"},
					map[string]interface{}{"field": "q1", "type": "quantitative"},
					map[string]interface{}{"field": "median", "type": "quantitative"},
					map[string]interface{}{"field": "q3", "type": "quantitative"},
					map[string]interface{}{"field": "count", "type": "quantitative"},
				},
			},
		},
		map[string]interface{}{
			"mark":     map[string]interface{}{"type": "tick", "size": boxSize, "thickness": 2},
			"encoding": map[string]interface{}{"y": y("median"), "color": colorEncoding(response, p)},
		},
	}
	return s
}

// Heatmap shades each (category, response) cell by its count.
func Heatmap(x *stats.CrossTabulation) Spec {
	s := base()
	s["data"] = map[string]interface{}{"values": crossValues(x)}
	s["mark"] = "rect"
	s["encoding"] = map[string]interface{}{
		"x":     map[string]interface{}{"field": field(x.Column), "type": "nominal", "title": x.Column},
		"y":     map[string]interface{}{"field": field(x.Response), "type": "nominal", "title": x.Response},
		"color": map[string]interface{}{"field": "Count", "type": "quantitative", "title": "Count", "scale": map[string]interface{}{"scheme": "blues"}},
		"tooltip": []interface{}{
			map[string]interface{}{"field": field(x.Column), "type": "nominal"},
			map[string]interface{}{"field": field(x.Response), "type": "nominal"},
			map[string]interface{}{"field": "Count", "type": "quantitative"},
		},
	}
	return s
}
