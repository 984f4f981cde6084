package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"attritionboard/domain/stats"
	"attritionboard/internal/pipeline"
	"attritionboard/internal/profiling"
)

func newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	return table
}

func pct(v float64) string { return fmt.Sprintf("%.1f%%", v) }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func printMetrics(m pipeline.Metrics) {
	table := newTable("Data Points", "Categorical", "Numerical", "Response")
	table.Append([]string{
		strconv.Itoa(m.DataPoints),
		strconv.Itoa(m.NumCategorical),
		strconv.Itoa(m.NumNumerical),
		m.Response,
	})
	table.Render()
}

func printSchema(s *profiling.Schema) {
	if s == nil {
		return
	}
	table := newTable("Column", "Kind", "Non-null", "Nulls", "Distinct")
	for _, c := range s.Columns {
		table.Append([]string{c.Name, string(c.Kind), strconv.Itoa(c.NonNull), strconv.Itoa(c.Nulls), strconv.Itoa(c.Distinct)})
	}
	table.Render()
}

func printResponse(labels []pipeline.ResponseLabel) {
	if len(labels) == 0 {
		return
	}
	table := newTable("Response", "Count", "Share")
	for _, l := range labels {
		table.Append([]string{l.Level, strconv.Itoa(l.Count), pct(l.Percent)})
	}
	table.Render()
}

func printCharts(results []pipeline.ChartResult) {
	table := newTable("Chart", "Title", "Status")
	for _, r := range results {
		status := "ok"
		if !r.OK() {
			status = fmt.Sprintf("%s: %s", r.Code, r.Error)
		}
		table.Append([]string{r.Name, r.Title, status})
	}
	table.Render()
}

func printFrequency(t *stats.FrequencyTable, top int) {
	table := newTable(t.Column, "Count", "Share")
	for i, e := range t.Entries {
		if top > 0 && i >= top {
			break
		}
		table.Append([]string{e.Value, strconv.Itoa(e.Count), pct(e.DisplayPercent())})
	}
	table.SetFooter([]string{"Total", strconv.Itoa(t.Total), ""})
	table.Render()
}

func printCrossTab(x *stats.CrossTabulation) {
	header := append([]string{x.Column}, x.Responses...)
	table := newTable(append(header, "Total")...)
	for i, v := range x.Values {
		row := []string{v}
		total := 0
		for _, c := range x.Counts[i] {
			row = append(row, strconv.Itoa(c))
			total += c
		}
		table.Append(append(row, strconv.Itoa(total)))
	}
	table.Render()
}

func printFence(res *stats.QuartileFilterResult) {
	f := res.Fence
	table := newTable("Column", "Q1", "Q3", "IQR", "Lower", "Upper", "Retained", "Dropped", "Nulls")
	table.Append([]string{
		res.Column, num(f.Q1), num(f.Q3), num(f.IQR), num(f.Lower), num(f.Upper),
		strconv.Itoa(res.Retained), strconv.Itoa(res.Dropped), strconv.Itoa(res.Nulls),
	})
	table.Render()
	if res.Degenerate {
		fmt.Println("Fence is degenerate (zero IQR); every non-null row was kept.")
	}
}

func printNumericSummary(s *stats.NumericSummary) {
	table := newTable("Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max", "Skew")
	table.Append([]string{
		strconv.Itoa(s.Count),
		fmt.Sprintf("%.2f", s.Mean), fmt.Sprintf("%.2f", s.StdDev),
		num(s.Min), num(s.Q1), num(s.Median), num(s.Q3), num(s.Max),
		fmt.Sprintf("%.3f", s.Skew),
	})
	table.Render()
}

func printHistogram(h *stats.Histogram) {
	table := newTable(h.Column, "Count")
	for i, b := range h.Bins {
		closing := ")"
		if i == len(h.Bins)-1 {
			closing = "]"
		}
		table.Append([]string{fmt.Sprintf("[%s, %s%s", num(b.Start), num(b.End), closing), strconv.Itoa(b.Count)})
	}
	table.SetFooter([]string{"Total", strconv.Itoa(h.Total)})
	table.Render()
}
