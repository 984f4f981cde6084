package report

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attritionboard/domain/dataset"
	"attritionboard/internal/pipeline"
)

func run(t *testing.T) *pipeline.ChartData {
	t.Helper()
	ds, err := dataset.New("test.csv",
		[]string{"Age", "Department", "Attrition"},
		[][]string{
			{"35", "Sales", "Left"}, {"22", "R&D", "Stayed"}, {"150", "Sales", "Stayed"},
			{"28", "HR", "Stayed"}, {"45", "R&D", "Left"},
		})
	require.NoError(t, err)
	data, err := pipeline.New(nil).Compute(context.Background(), ds, dataset.Selection{})
	require.NoError(t, err)
	return data
}

func TestMarkdownSections(t *testing.T) {
	md := Markdown(run(t))

	assert.Contains(t, md, "# Employee Attrition Dashboard")
	assert.Contains(t, md, "| No. of Data Points | 5 |")
	assert.Contains(t, md, "| Left | 2 | 40.0% |")
	assert.Contains(t, md, "| Stayed | 3 | 60.0% |")
	assert.Contains(t, md, "### Outlier fence")
	assert.Contains(t, md, "### Attrition by Department")
}

func TestHTMLRendersTables(t *testing.T) {
	out := string(HTML(Markdown(run(t))))

	assert.True(t, strings.Contains(out, "<table>"))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "Employee Attrition Dashboard")
}

func TestEscapePipes(t *testing.T) {
	assert.Equal(t, `a\|b`, escape("a|b"))
}
