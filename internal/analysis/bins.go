package analysis

import (
	"math"

	"attritionboard/domain/dataset"
	"attritionboard/domain/stats"
	"attritionboard/internal/errors"
)

// Automatic binning parameters, the defaults of a Vega-Lite `bin: true` field.
const (
	autoMaxBins = 10
	binBase     = 10.0
	binEpsilon  = 1e-14
)

var binDivisors = []float64{5, 2}

// Bucketize groups the non-null values of a numerical column into bins.
// binCount > 0 gives that many equal-width bins from min to max; binCount <= 0
// picks "nice" boundaries automatically. Every bin is [Start, End) except the
// last, which also holds End. A constant column yields a single bin.
func Bucketize(ds *dataset.Dataset, column string, binCount int) (*stats.Histogram, error) {
	col, ok := ds.Column(column)
	if !ok || col.Kind != dataset.KindNumerical {
		return nil, errors.EmptySelection(column)
	}
	values := col.Floats()
	h := &stats.Histogram{Column: column, Total: len(values)}
	if len(values) == 0 {
		return h, nil
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	if binCount > 0 {
		bucketizeEqualWidth(h, values, lo, hi, binCount)
	} else {
		bucketizeNice(h, values, lo, hi)
	}
	return h, nil
}

func bucketizeEqualWidth(h *stats.Histogram, values []float64, lo, hi float64, n int) {
	if lo == hi {
		h.Bins = []stats.Bin{{Start: lo, End: hi, Count: len(values)}}
		return
	}
	step := (hi - lo) / float64(n)
	h.Step = step
	h.Bins = make([]stats.Bin, n)
	for i := range h.Bins {
		h.Bins[i].Start = lo + float64(i)*step
		h.Bins[i].End = lo + float64(i+1)*step
	}
	h.Bins[n-1].End = hi

	for _, v := range values {
		idx := int((v - lo) / step)
		if idx >= n {
			idx = n - 1
		}
		h.Bins[idx].Count++
	}
}

// niceExtent computes start, stop and step the way the Vega bin transform does
// for maxbins 10, base 10 and divisors 5 and 2.
func niceExtent(lo, hi float64) (start, stop, step float64, precision int) {
	logb := math.Log(binBase)
	span := hi - lo
	if span == 0 {
		span = math.Abs(lo)
	}
	if span == 0 {
		span = 1
	}

	level := math.Ceil(math.Log(autoMaxBins) / logb)
	step = math.Pow(binBase, math.Round(math.Log(span)/logb)-level)
	for math.Ceil(span/step) > autoMaxBins {
		step *= binBase
	}
	for _, d := range binDivisors {
		if v := step / d; span/v <= autoMaxBins {
			step = v
		}
	}

	if v := math.Log(step); v < 0 {
		precision = int(-v/logb) + 1
	}
	eps := math.Pow(binBase, float64(-precision-1))

	v := math.Floor(lo/step+eps) * step
	start = v
	if lo < v {
		start = v - step
	}
	stop = math.Ceil(hi/step) * step
	if stop == start {
		stop = start + step
	}
	return start, stop, step, precision
}

func bucketizeNice(h *stats.Histogram, values []float64, lo, hi float64) {
	start, stop, step, precision := niceExtent(lo, hi)
	n := int(math.Round((stop - start) / step))
	if n < 1 {
		n = 1
	}
	h.Step = step
	h.Bins = make([]stats.Bin, n)
	for i := range h.Bins {
		h.Bins[i].Start = roundTo(start+float64(i)*step, precision)
		h.Bins[i].End = roundTo(start+float64(i+1)*step, precision)
	}

	for _, v := range values {
		v = math.Max(start, math.Min(v, stop-step))
		idx := int(math.Floor(binEpsilon + (v-start)/step))
		if idx >= n {
			idx = n - 1
		}
		if idx < 0 {
			idx = 0
		}
		h.Bins[idx].Count++
	}
}

func roundTo(v float64, precision int) float64 {
	p := math.Pow(10, float64(precision+1))
	return math.Round(v*p) / p
}
