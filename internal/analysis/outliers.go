package analysis

import (
	"log"
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"

	"attritionboard/domain/dataset"
	"attritionboard/domain/stats"
	"attritionboard/internal/errors"
)

// DefaultFenceMultiplier is Tukey's k.
const DefaultFenceMultiplier = 1.5

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks (rank = q*(n-1)). It returns NaN for an
// empty slice. sorted must be in ascending order.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	h := q * float64(n-1)
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// ComputeFence derives the Tukey fence of a numerical column from all of its
// non-null values. multiplier <= 0 selects DefaultFenceMultiplier.
func ComputeFence(ds *dataset.Dataset, column string, multiplier float64) (stats.Fence, error) {
	col, ok := ds.Column(column)
	if !ok || col.Kind != dataset.KindNumerical {
		return stats.Fence{}, errors.EmptySelection(column)
	}
	values := col.Floats()
	if len(values) == 0 {
		return stats.Fence{}, errors.DegenerateDistribution(column, "no non-null values")
	}
	if multiplier <= 0 {
		multiplier = DefaultFenceMultiplier
	}

	sort.Float64s(values)
	q1 := Quantile(values, 0.25)
	q3 := Quantile(values, 0.75)
	iqr := q3 - q1
	return stats.Fence{
		Column:     column,
		Q1:         q1,
		Q3:         q3,
		IQR:        iqr,
		Multiplier: multiplier,
		Lower:      q1 - multiplier*iqr,
		Upper:      q3 + multiplier*iqr,
	}, nil
}

// FilterOutliers keeps the rows whose value in column lies inside the fence
// computed from the unfiltered column. It runs once; the survivors are not
// re-fenced.
func FilterOutliers(ds *dataset.Dataset, column string, multiplier float64) (*stats.QuartileFilterResult, error) {
	fence, err := ComputeFence(ds, column, multiplier)
	if err != nil {
		return nil, err
	}
	return ApplyFence(ds, fence)
}

// ApplyFence filters ds by a precomputed fence. Rows with a null in the fenced
// column are always dropped. A zero-IQR fence keeps every non-null row and
// marks the result degenerate. Applying a fence to its own output is a no-op.
func ApplyFence(ds *dataset.Dataset, fence stats.Fence) (*stats.QuartileFilterResult, error) {
	col, ok := ds.Column(fence.Column)
	if !ok || col.Kind != dataset.KindNumerical {
		return nil, errors.EmptySelection(fence.Column)
	}

	res := &stats.QuartileFilterResult{
		Column:     fence.Column,
		Fence:      fence,
		Degenerate: fence.Degenerate(),
	}
	keep := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		v, ok := col.Float(i)
		if !ok {
			res.Nulls++
			continue
		}
		if res.Degenerate || fence.Contains(v) {
			keep = append(keep, i)
			continue
		}
		res.Dropped++
	}
	if res.Degenerate {
		log.Printf("[Outliers] column %s has zero IQR; keeping all %d non-null rows", fence.Column, len(keep))
	}

	res.Retained = len(keep)
	if len(keep) == ds.Len() {
		res.Dataset = ds
	} else {
		res.Dataset = ds.Subset(keep)
	}
	return res, nil
}

// BoxSummaries computes box statistics of a numerical column per response
// group. Groups follow levels first, then first-seen order; levels with no
// rows are left out. Rows with a null in either column are skipped. Whiskers
// reach multiplier IQRs past the box; multiplier <= 0 selects
// DefaultFenceMultiplier.
func BoxSummaries(ds *dataset.Dataset, column, response string, levels []string, multiplier float64) ([]stats.BoxSummary, error) {
	if multiplier <= 0 {
		multiplier = DefaultFenceMultiplier
	}
	col, ok := ds.Column(column)
	if !ok || col.Kind != dataset.KindNumerical {
		return nil, errors.EmptySelection(column)
	}
	resp, ok := ds.Column(response)
	if !ok {
		return nil, errors.EmptySelection(response)
	}

	groups := make(map[string][]float64)
	rows := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		v, ok := col.Float(i)
		if !ok || resp.IsNull(i) {
			continue
		}
		rows = append(rows, i)
		groups[resp.String(i)] = append(groups[resp.String(i)], v)
	}

	order := orderLevels(resp, rows, levels)
	out := make([]stats.BoxSummary, 0, len(order))
	for _, g := range order {
		values := groups[g]
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)
		mean, err := mstats.Mean(values)
		if err != nil {
			return nil, errors.Wrapf(err, "mean of %s for %s", column, g)
		}
		box := stats.BoxSummary{
			Group:  g,
			Count:  len(values),
			Min:    values[0],
			Q1:     Quantile(values, 0.25),
			Median: Quantile(values, 0.5),
			Q3:     Quantile(values, 0.75),
			Max:    values[len(values)-1],
			Mean:   mean,
		}
		box.WhiskerLow, box.WhiskerHigh = whiskers(values, box.Q1, box.Q3, multiplier)
		out = append(out, box)
	}
	return out, nil
}

// whiskers returns the extreme values of sorted that lie within multiplier
// IQRs of the box.
func whiskers(sorted []float64, q1, q3, multiplier float64) (float64, float64) {
	iqr := q3 - q1
	lo, hi := q1-multiplier*iqr, q3+multiplier*iqr
	low, high := q1, q3
	for _, v := range sorted {
		if v >= lo {
			low = v
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= hi {
			high = sorted[i]
			break
		}
	}
	return low, high
}
