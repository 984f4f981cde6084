package profiling

import (
	"math"
	"sort"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"attritionboard/domain/dataset"
	"attritionboard/domain/stats"
	"attritionboard/internal/analysis"
	"attritionboard/internal/errors"
)

// Describe summarizes a numerical column: count, mean, sample standard
// deviation, extremes, quartiles and skewness over the non-null values.
func Describe(ds *dataset.Dataset, column string) (*stats.NumericSummary, error) {
	col, ok := ds.Column(column)
	if !ok || col.Kind != dataset.KindNumerical {
		return nil, errors.EmptySelection(column)
	}
	data := col.Floats()
	if len(data) == 0 {
		return nil, errors.DegenerateDistribution(column, "no non-null values")
	}

	sort.Float64s(data)
	mean, stdDev := stat.MeanStdDev(data, nil)
	if len(data) < 2 {
		stdDev = 0
	}

	median, err := mstats.Median(data)
	if err != nil {
		return nil, errors.Wrapf(err, "median of %s", column)
	}

	return &stats.NumericSummary{
		Column: column,
		Count:  len(data),
		Mean:   mean,
		StdDev: stdDev,
		Min:    floats.Min(data),
		Q1:     analysis.Quantile(data, 0.25),
		Median: median,
		Q3:     analysis.Quantile(data, 0.75),
		Max:    floats.Max(data),
		Skew:   calculateSkewness(data, mean, stdDev),
	}, nil
}

// DescribeAll summarizes every numerical column in dataset order, skipping
// columns without values.
func DescribeAll(ds *dataset.Dataset) []stats.NumericSummary {
	var out []stats.NumericSummary
	for _, col := range ds.Columns() {
		if col.Kind != dataset.KindNumerical {
			continue
		}
		s, err := Describe(ds, col.Name)
		if err != nil {
			continue
		}
		out = append(out, *s)
	}
	return out
}

// calculateSkewness computes sample skewness using the adjusted Fisher-Pearson coefficient
func calculateSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubedDeviations := 0.0
	for _, x := range data {
		deviation := (x - mean) / stdDev
		sumCubedDeviations += deviation * deviation * deviation
	}

	// Bias correction for sample skewness
	skewness := sumCubedDeviations / n
	skewness *= math.Sqrt(n*(n-1)) / (n - 2)
	return skewness
}
