package charts

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attritionboard/domain/stats"
)

var palette = Palette{Levels: []string{"Left", "Stayed"}, Colors: []string{"#FF6347", "#4682B4"}}

func responseTable() *stats.FrequencyTable {
	return &stats.FrequencyTable{
		Column: "Attrition",
		Total:  1000,
		Entries: []stats.FrequencyEntry{
			{Value: "Stayed", Count: 800, Percent: 80},
			{Value: "Left", Count: 200, Percent: 20},
		},
	}
}

func crossTab() *stats.CrossTabulation {
	return &stats.CrossTabulation{
		Column:    "Department",
		Response:  "Attrition",
		Values:    []string{"Sales", "R&D", "HR"},
		Responses: []string{"Left", "Stayed"},
		Counts:    [][]int{{1, 2}, {0, 2}, {1, 0}},
	}
}

// roundTrip mirrors what vega-embed receives.
func roundTrip(t *testing.T, s Spec) map[string]interface{} {
	t.Helper()
	raw, err := json.Marshal(s)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestResponseDonut(t *testing.T) {
	s := roundTrip(t, ResponseDonut(responseTable(), palette, 0))

	assert.Equal(t, schemaURL, s["$schema"])
	layers := s["layer"].([]interface{})
	require.Len(t, layers, 2)

	arc := layers[0].(map[string]interface{})
	assert.Equal(t, "arc", arc["mark"].(map[string]interface{})["type"])
	assert.Equal(t, 50.0, arc["mark"].(map[string]interface{})["innerRadius"])
	scale := arc["encoding"].(map[string]interface{})["color"].(map[string]interface{})["scale"].(map[string]interface{})
	assert.Equal(t, []interface{}{"#FF6347", "#4682B4"}, scale["range"])

	text := layers[1].(map[string]interface{})["mark"].(map[string]interface{})
	assert.Equal(t, "1000", text["text"])
}

func TestCategoryBarSortsByCount(t *testing.T) {
	s := roundTrip(t, CategoryBar(&stats.FrequencyTable{Column: "Job.Role", Entries: []stats.FrequencyEntry{{Value: "Analyst", Count: 3}}}))
	x := s["encoding"].(map[string]interface{})["x"].(map[string]interface{})
	assert.Equal(t, "-y", x["sort"])
	assert.Equal(t, `Job\.Role`, x["field"])

	values := s["data"].(map[string]interface{})["values"].([]interface{})
	assert.Equal(t, "Analyst", values[0].(map[string]interface{})["Job.Role"])
}

func TestHistogramIsPreBinned(t *testing.T) {
	s := roundTrip(t, Histogram(&stats.Histogram{Column: "Age", Step: 5, Bins: []stats.Bin{{Start: 20, End: 25, Count: 3}}}))
	x := s["encoding"].(map[string]interface{})["x"].(map[string]interface{})
	assert.Equal(t, true, x["bin"].(map[string]interface{})["binned"])
	assert.Equal(t, "bin_end", s["encoding"].(map[string]interface{})["x2"].(map[string]interface{})["field"])
}

func TestStackedBarAndHeatmapCarryEveryCell(t *testing.T) {
	stacked := roundTrip(t, StackedBar(crossTab(), palette))
	assert.Len(t, stacked["data"].(map[string]interface{})["values"], 6)
	y := stacked["encoding"].(map[string]interface{})["y"].(map[string]interface{})
	assert.Equal(t, "-x", y["sort"])

	heat := roundTrip(t, Heatmap(crossTab()))
	assert.Equal(t, "rect", heat["mark"])
	color := heat["encoding"].(map[string]interface{})["color"].(map[string]interface{})
	assert.Equal(t, "blues", color["scale"].(map[string]interface{})["scheme"])
}

func TestBoxPlotLayers(t *testing.T) {
	boxes := []stats.BoxSummary{{Group: "Left", Count: 4, Q1: 28, Median: 32, Q3: 40, WhiskerLow: 22, WhiskerHigh: 50}}
	s := roundTrip(t, BoxPlot("Age", "Attrition", boxes, palette))

	layers := s["layer"].([]interface{})
	require.Len(t, layers, 3)
	box := layers[1].(map[string]interface{})["mark"].(map[string]interface{})
	assert.Equal(t, "white", box["color"])
	assert.Equal(t, 40.0, box["size"])
}

func TestPaletteWithoutLevelsHasNoScale(t *testing.T) {
	enc := colorEncoding("Attrition", Palette{})
	_, ok := enc["scale"]
	assert.False(t, ok)
}

func TestRenderPNG(t *testing.T) {
	pngMagic := []byte("\x89PNG")

	var buf bytes.Buffer
	require.NoError(t, RenderDonutPNG(&buf, responseTable(), palette))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	require.NoError(t, RenderCategoryPNG(&buf, responseTable()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	buf.Reset()
	require.NoError(t, RenderStackedPNG(&buf, crossTab(), palette))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	assert.Error(t, RenderHistogramPNG(&buf, &stats.Histogram{Column: "Age"}))
}
