package analysis

import (
	"attritionboard/domain/dataset"
	"attritionboard/domain/stats"
	"attritionboard/internal/errors"
)

// Frequency counts the distinct non-null values of column. Entries are ordered
// by descending count; ties keep first-seen order.
func Frequency(ds *dataset.Dataset, column string) (*stats.FrequencyTable, error) {
	col, ok := ds.Column(column)
	if !ok {
		return nil, errors.EmptySelection(column)
	}
	rows := make([]int, 0, col.Len())
	for i := 0; i < col.Len(); i++ {
		rows = append(rows, i)
	}
	return frequencyOver(col, rows), nil
}

// frequencyOver counts col over the given rows, skipping nulls.
func frequencyOver(col *dataset.Column, rows []int) *stats.FrequencyTable {
	var order []string
	counts := make(map[string]int)
	total := 0
	for _, i := range rows {
		if col.IsNull(i) {
			continue
		}
		v := col.String(i)
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
		total++
	}

	entries := make([]stats.FrequencyEntry, len(order))
	for i, v := range order {
		entries[i] = stats.FrequencyEntry{
			Value:   v,
			Count:   counts[v],
			Percent: float64(counts[v]) / float64(total) * 100,
		}
	}
	sortByCount(entries)

	return &stats.FrequencyTable{Column: col.Name, Total: total, Entries: entries}
}

// sortByCount is a stable insertion sort on descending count; value tables are
// small and stability gives the first-seen tie order.
func sortByCount(entries []stats.FrequencyEntry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Count > entries[j-1].Count; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// CrossTabulate counts rows per (column value, response value) pair. Rows with
// a null in either column are excluded. The table is dense: pairs that never
// occur are present with a zero count.
//
// Column values follow their frequency order over the included rows. Every
// configured level is a response column, observed or not, in levels order;
// unexpected values follow in first-seen order.
func CrossTabulate(ds *dataset.Dataset, column, response string, levels []string) (*stats.CrossTabulation, error) {
	col, ok := ds.Column(column)
	if !ok {
		return nil, errors.EmptySelection(column)
	}
	resp, ok := ds.Column(response)
	if !ok {
		return nil, errors.EmptySelection(response)
	}

	rows := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		if !col.IsNull(i) && !resp.IsNull(i) {
			rows = append(rows, i)
		}
	}

	values := frequencyOver(col, rows)
	responses := orderLevels(resp, rows, levels)

	x := &stats.CrossTabulation{
		Column:    column,
		Response:  response,
		Values:    make([]string, len(values.Entries)),
		Responses: responses,
		Counts:    make([][]int, len(values.Entries)),
	}
	valueIdx := make(map[string]int, len(values.Entries))
	for i, e := range values.Entries {
		x.Values[i] = e.Value
		x.Counts[i] = make([]int, len(responses))
		valueIdx[e.Value] = i
	}
	respIdx := make(map[string]int, len(responses))
	for j, r := range responses {
		respIdx[r] = j
	}

	for _, i := range rows {
		x.Counts[valueIdx[col.String(i)]][respIdx[resp.String(i)]]++
	}
	return x, nil
}

// orderLevels lists the configured levels, then the other non-null values of
// col over rows in first-seen order.
func orderLevels(col *dataset.Column, rows []int, levels []string) []string {
	seen := make(map[string]bool)
	var extra []string
	for _, i := range rows {
		if col.IsNull(i) {
			continue
		}
		v := col.String(i)
		if !seen[v] {
			seen[v] = true
			extra = append(extra, v)
		}
	}

	out := make([]string, 0, len(levels)+len(extra))
	placed := make(map[string]bool, len(levels))
	for _, l := range levels {
		if !placed[l] {
			out = append(out, l)
			placed[l] = true
		}
	}
	for _, v := range extra {
		if !placed[v] {
			out = append(out, v)
		}
	}
	return out
}
