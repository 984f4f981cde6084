package stats

import (
	"math"

	"attritionboard/domain/dataset"
)

// FrequencyEntry is one row of a frequency table.
type FrequencyEntry struct {
	Value   string  `json:"value"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"` // count / total * 100, unrounded
}

// DisplayPercent rounds the share to one decimal place.
func (e FrequencyEntry) DisplayPercent() float64 {
	return math.Round(e.Percent*10) / 10
}

// FrequencyTable is the value_counts of one column.
// INVARIANTS:
// - Entries ordered by descending Count, ties in first-seen order
// - sum(Count) == Total == non-null rows of the column
// - sum(Percent) == 100 for Total > 0
type FrequencyTable struct {
	Column  string           `json:"column"`
	Total   int              `json:"total"`
	Entries []FrequencyEntry `json:"entries"`
}

// Count returns the count of value, or 0 when absent.
func (t *FrequencyTable) Count(value string) int {
	for _, e := range t.Entries {
		if e.Value == value {
			return e.Count
		}
	}
	return 0
}

// Entry returns the entry for value.
func (t *FrequencyTable) Entry(value string) (FrequencyEntry, bool) {
	for _, e := range t.Entries {
		if e.Value == value {
			return e, true
		}
	}
	return FrequencyEntry{}, false
}

// CrossCell is one (value, response) count.
type CrossCell struct {
	Value    string `json:"value"`
	Response string `json:"response"`
	Count    int    `json:"count"`
}

// CrossTabulation counts rows per (column value, response value) pair.
// INVARIANTS:
// - len(Cells) == len(Values) * len(Responses), zero counts included
// - Counts[i][j] is the count for (Values[i], Responses[j])
// - summing a row over Responses gives that value's frequency count
type CrossTabulation struct {
	Column    string   `json:"column"`
	Response  string   `json:"response"`
	Values    []string `json:"values"`
	Responses []string `json:"responses"`
	Counts    [][]int  `json:"counts"`
}

// Cells flattens the table in row-major order.
func (x *CrossTabulation) Cells() []CrossCell {
	out := make([]CrossCell, 0, len(x.Values)*len(x.Responses))
	for i, v := range x.Values {
		for j, r := range x.Responses {
			out = append(out, CrossCell{Value: v, Response: r, Count: x.Counts[i][j]})
		}
	}
	return out
}

// Count returns the count for a (value, response) pair.
func (x *CrossTabulation) Count(value, response string) int {
	for i, v := range x.Values {
		if v != value {
			continue
		}
		for j, r := range x.Responses {
			if r == response {
				return x.Counts[i][j]
			}
		}
	}
	return 0
}

// RowTotal sums the counts of value over every response.
func (x *CrossTabulation) RowTotal(value string) int {
	total := 0
	for i, v := range x.Values {
		if v == value {
			for _, c := range x.Counts[i] {
				total += c
			}
		}
	}
	return total
}

// Bin is one histogram interval. Bins are [Start, End) except the last one,
// which is [Start, End].
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// Histogram is the bucketized distribution of a numerical column.
type Histogram struct {
	Column string  `json:"column"`
	Step   float64 `json:"step"`
	Total  int     `json:"total"`
	Bins   []Bin   `json:"bins"`
}

// Fence is the Tukey fence of a numerical column.
// INVARIANTS:
// - Lower <= Q1 <= Q3 <= Upper
// - computed from the unfiltered column only
type Fence struct {
	Column     string  `json:"column"`
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	Multiplier float64 `json:"multiplier"`
	Lower      float64 `json:"lower"`
	Upper      float64 `json:"upper"`
}

// Contains reports whether v lies inside the closed fence.
func (f Fence) Contains(v float64) bool {
	return v >= f.Lower && v <= f.Upper
}

// Degenerate reports a zero-spread fence.
func (f Fence) Degenerate() bool { return f.IQR == 0 }

// QuartileFilterResult is the subset of rows inside a fence.
// INVARIANTS:
// - Dataset rows are a subset of the input rows, input order kept
// - every retained value v satisfies Fence.Lower <= v <= Fence.Upper unless Degenerate
type QuartileFilterResult struct {
	Column     string           `json:"column"`
	Dataset    *dataset.Dataset `json:"-"`
	Fence      Fence            `json:"fence"`
	Degenerate bool             `json:"degenerate"`
	Retained   int              `json:"retained"`
	Dropped    int              `json:"dropped"` // non-null rows outside the fence
	Nulls      int              `json:"nulls"`   // rows dropped for a missing value
}

// BoxSummary holds box-plot statistics for one response group.
type BoxSummary struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`

	// Whiskers reach the most extreme values within 1.5 IQR of the box.
	WhiskerLow  float64 `json:"whisker_low"`
	WhiskerHigh float64 `json:"whisker_high"`
}

// NumericSummary describes a numerical column.
type NumericSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Skew   float64 `json:"skew"`
}
