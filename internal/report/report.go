// Package report renders a dashboard run as Markdown and HTML.
package report

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"attritionboard/internal/pipeline"
)

const topCategories = 10

// Markdown summarizes a run: metrics, response split, selected columns,
// outlier fence and any chart failures.
func Markdown(data *pipeline.ChartData) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", data.Title)
	fmt.Fprintf(&b, "Source: `%s`", data.Source)
	if data.Hash != "" {
		fmt.Fprintf(&b, " (sha256 %s)", data.Hash)
	}
	fmt.Fprintf(&b, "  \nRun: `%s`\n\n", data.RunID)

	b.WriteString("## Overview\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| No. of Data Points | %d |\n", data.Metrics.DataPoints)
	fmt.Fprintf(&b, "| No. of Categorical Variables | %d |\n", data.Metrics.NumCategorical)
	fmt.Fprintf(&b, "| No. of Numerical Variables | %d |\n", data.Metrics.NumNumerical)
	fmt.Fprintf(&b, "| Response Variable | %s |\n\n", data.Metrics.Response)

	if data.Response != nil {
		b.WriteString("## Response Variable Distribution\n\n")
		b.WriteString("| Level | Count | Share |\n|---|---:|---:|\n")
		for _, l := range data.ResponseLabels {
			fmt.Fprintf(&b, "| %s | %d | %.1f%% |\n", escape(l.Level), l.Count, l.Percent)
		}
		fmt.Fprintf(&b, "\nTotal: **%d**\n\n", data.Response.Total)
	}

	if data.Frequency != nil {
		fmt.Fprintf(&b, "## %s\n\n", escape(data.Frequency.Column))
		b.WriteString("| Value | Count | Share |\n|---|---:|---:|\n")
		for i, e := range data.Frequency.Entries {
			if i == topCategories {
				fmt.Fprintf(&b, "| … %d more | | |\n", len(data.Frequency.Entries)-topCategories)
				break
			}
			fmt.Fprintf(&b, "| %s | %d | %.1f%% |\n", escape(e.Value), e.Count, e.DisplayPercent())
		}
		b.WriteString("\n")
	}

	if data.CrossTab != nil {
		fmt.Fprintf(&b, "### %s by %s\n\n", escape(data.CrossTab.Response), escape(data.CrossTab.Column))
		b.WriteString("| " + escape(data.CrossTab.Column))
		for _, r := range data.CrossTab.Responses {
			b.WriteString(" | " + escape(r))
		}
		b.WriteString(" |\n|---" + strings.Repeat("|---:", len(data.CrossTab.Responses)) + "|\n")
		for i, v := range data.CrossTab.Values {
			if i == topCategories {
				break
			}
			b.WriteString("| " + escape(v))
			for _, c := range data.CrossTab.Counts[i] {
				fmt.Fprintf(&b, " | %d", c)
			}
			b.WriteString(" |\n")
		}
		b.WriteString("\n")
	}

	if s := data.Summary; s != nil {
		fmt.Fprintf(&b, "## %s\n\n", escape(s.Column))
		b.WriteString("| count | mean | std | min | 25% | 50% | 75% | max |\n|---:|---:|---:|---:|---:|---:|---:|---:|\n")
		fmt.Fprintf(&b, "| %d | %.2f | %.2f | %g | %g | %g | %g | %g |\n\n",
			s.Count, s.Mean, s.StdDev, s.Min, s.Q1, s.Median, s.Q3, s.Max)
	}

	if o := data.Outliers; o != nil {
		b.WriteString("### Outlier fence\n\n")
		fmt.Fprintf(&b, "- Q1 = %g, Q3 = %g, IQR = %g\n", o.Fence.Q1, o.Fence.Q3, o.Fence.IQR)
		fmt.Fprintf(&b, "- Kept values in [%g, %g]: %d rows kept, %d outliers and %d missing dropped\n",
			o.Fence.Lower, o.Fence.Upper, o.Retained, o.Dropped, o.Nulls)
		if o.Degenerate {
			b.WriteString("- Zero spread: every non-missing row was kept\n")
		}
		b.WriteString("\n")
	}

	if failed := data.Failed(); len(failed) > 0 || len(data.Warnings) > 0 {
		b.WriteString("## Notes\n\n")
		for _, w := range data.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		for _, c := range failed {
			fmt.Fprintf(&b, "- **%s** unavailable: %s\n", c.Title, c.Error)
		}
	}

	return b.String()
}

// HTML renders Markdown output as an HTML fragment.
func HTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.Render(doc, renderer)
}

// escape keeps cell text from breaking the table syntax.
func escape(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
