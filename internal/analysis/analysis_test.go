package analysis

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attritionboard/domain/dataset"
	"attritionboard/internal/errors"
)

func newDataset(t *testing.T, header []string, records [][]string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.New("test", header, records)
	require.NoError(t, err)
	return ds
}

func responseDataset(t *testing.T, stayed, left int) *dataset.Dataset {
	records := make([][]string, 0, stayed+left)
	for i := 0; i < stayed; i++ {
		records = append(records, []string{"Stayed"})
	}
	for i := 0; i < left; i++ {
		records = append(records, []string{"Left"})
	}
	return newDataset(t, []string{"Attrition"}, records)
}

func TestFrequencyPercentages(t *testing.T) {
	table, err := Frequency(responseDataset(t, 800, 200), "Attrition")
	require.NoError(t, err)

	require.Len(t, table.Entries, 2)
	assert.Equal(t, "Stayed", table.Entries[0].Value)
	assert.Equal(t, 800, table.Entries[0].Count)
	assert.Equal(t, 80.0, table.Entries[0].DisplayPercent())
	assert.Equal(t, "Left", table.Entries[1].Value)
	assert.Equal(t, 20.0, table.Entries[1].DisplayPercent())
	assert.Equal(t, 1000, table.Total)
}

func TestFrequencyTiesKeepFirstSeenOrder(t *testing.T) {
	ds := newDataset(t, []string{"Dept"}, [][]string{{"HR"}, {"Sales"}, {"R&D"}, {"Sales"}, {"HR"}, {""}})
	table, err := Frequency(ds, "Dept")
	require.NoError(t, err)

	var values []string
	var sum float64
	for _, e := range table.Entries {
		values = append(values, e.Value)
		sum += e.Percent
	}
	assert.Equal(t, []string{"HR", "Sales", "R&D"}, values)
	assert.Equal(t, 5, table.Total, "nulls are not counted")
	assert.InDelta(t, 100.0, sum, 0.1)
}

func TestFrequencyUnknownColumn(t *testing.T) {
	_, err := Frequency(responseDataset(t, 1, 1), "Department")
	assert.True(t, errors.HasCode(err, errors.CodeEmptySelection))
}

func TestCrossTabulateIsDense(t *testing.T) {
	ds := newDataset(t, []string{"Department", "Attrition"}, [][]string{
		{"Sales", "Left"}, {"Sales", "Stayed"}, {"Sales", "Stayed"},
		{"R&D", "Stayed"}, {"R&D", "Stayed"},
		{"HR", "Left"},
		{"", "Left"}, {"HR", ""},
	})
	x, err := CrossTabulate(ds, "Department", "Attrition", []string{"Left", "Stayed"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Sales", "R&D", "HR"}, x.Values)
	assert.Equal(t, []string{"Left", "Stayed"}, x.Responses)
	assert.Len(t, x.Cells(), 6)
	assert.Equal(t, 0, x.Count("R&D", "Left"))
	assert.Equal(t, 0, x.Count("HR", "Stayed"))
	assert.Equal(t, 2, x.Count("Sales", "Stayed"))
	assert.Equal(t, 3, x.RowTotal("Sales"))
}

func TestCrossTabulateKeepsUnobservedLevels(t *testing.T) {
	ds := newDataset(t, []string{"Department", "Attrition"}, [][]string{
		{"Sales", "Stayed"}, {"R&D", "Stayed"}, {"HR", "Stayed"}, {"Sales", "Stayed"},
	})
	x, err := CrossTabulate(ds, "Department", "Attrition", []string{"Left", "Stayed"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Left", "Stayed"}, x.Responses)
	assert.Len(t, x.Cells(), 6)
	for _, v := range x.Values {
		assert.Equal(t, 0, x.Count(v, "Left"))
	}
	assert.Equal(t, 2, x.Count("Sales", "Stayed"))
}

func TestCrossTabulateMarginalMatchesFrequency(t *testing.T) {
	ds := newDataset(t, []string{"Gender", "Attrition"}, [][]string{
		{"F", "Stayed"}, {"M", "Left"}, {"F", "Left"}, {"M", "Stayed"}, {"F", "Stayed"},
	})
	x, err := CrossTabulate(ds, "Gender", "Attrition", nil)
	require.NoError(t, err)
	freq, err := Frequency(ds, "Gender")
	require.NoError(t, err)

	assert.Equal(t, []string{"Stayed", "Left"}, x.Responses, "first-seen order without configured levels")
	for _, e := range freq.Entries {
		assert.Equal(t, e.Count, x.RowTotal(e.Value))
	}
}

func TestQuantileLinearInterpolation(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	assert.Equal(t, 1.75, Quantile(s, 0.25))
	assert.Equal(t, 2.5, Quantile(s, 0.5))
	assert.Equal(t, 3.25, Quantile(s, 0.75))
	assert.Equal(t, 4.0, Quantile(s, 1))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
}

func ageDataset(t *testing.T) *dataset.Dataset {
	ages := []string{"35", "22", "150", "28", "45", "30", "50", "25", "40", ""}
	records := make([][]string, len(ages))
	for i, a := range ages {
		records[i] = []string{a, []string{"Left", "Stayed"}[i%2]}
	}
	return newDataset(t, []string{"Age", "Attrition"}, records)
}

func TestFilterOutliersDropsFarValues(t *testing.T) {
	res, err := FilterOutliers(ageDataset(t), "Age", 0)
	require.NoError(t, err)

	assert.Equal(t, 28.0, res.Fence.Q1)
	assert.Equal(t, 45.0, res.Fence.Q3)
	assert.Equal(t, 70.5, res.Fence.Upper)
	assert.Equal(t, 2.5, res.Fence.Lower)
	assert.False(t, res.Degenerate)
	assert.Equal(t, 8, res.Retained)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, 1, res.Nulls)

	age, _ := res.Dataset.Column("Age")
	for _, v := range age.Floats() {
		assert.NotEqual(t, 150.0, v)
		assert.True(t, res.Fence.Contains(v))
	}
	assert.LessOrEqual(t, res.Fence.Lower, res.Fence.Q1)
	assert.LessOrEqual(t, res.Fence.Q3, res.Fence.Upper)
}

func TestApplyFenceIsIdempotent(t *testing.T) {
	first, err := FilterOutliers(ageDataset(t), "Age", 0)
	require.NoError(t, err)
	second, err := ApplyFence(first.Dataset, first.Fence)
	require.NoError(t, err)

	assert.Equal(t, first.Dataset.Records(), second.Dataset.Records())
	assert.Zero(t, second.Dropped)
}

func TestFilterOutliersConstantColumnKeepsRows(t *testing.T) {
	ds := newDataset(t, []string{"Score"}, [][]string{{"7"}, {"7"}, {"7"}, {""}})
	res, err := FilterOutliers(ds, "Score", 0)
	require.NoError(t, err)

	assert.True(t, res.Degenerate)
	assert.Equal(t, 3, res.Retained)
	assert.Equal(t, 1, res.Nulls)
}

func TestFilterOutliersAllNull(t *testing.T) {
	ds := newDataset(t, []string{"Score"}, [][]string{{""}, {"NA"}})
	_, err := FilterOutliers(ds, "Score", 0)
	assert.Equal(t, errors.CodeDegenerateDistribution, errors.GetCode(err))
}

func TestFilterOutliersRejectsCategorical(t *testing.T) {
	_, err := FilterOutliers(ageDataset(t), "Attrition", 0)
	assert.True(t, errors.HasCode(err, errors.CodeEmptySelection))
}

func TestBucketizeNiceBins(t *testing.T) {
	records := make([][]string, 0, 39)
	for age := 22; age <= 60; age++ {
		records = append(records, []string{strconv.Itoa(age)})
	}
	h, err := Bucketize(newDataset(t, []string{"Age"}, records), "Age", 0)
	require.NoError(t, err)

	assert.Equal(t, 5.0, h.Step)
	require.Len(t, h.Bins, 8)
	assert.Equal(t, 20.0, h.Bins[0].Start)
	assert.Equal(t, 60.0, h.Bins[7].End)
	assert.Equal(t, 3, h.Bins[0].Count)
	assert.Equal(t, 6, h.Bins[7].Count, "55..60 with the maximum counted in the last bin")

	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	assert.Equal(t, 39, total)
}

func TestBucketizeEqualWidth(t *testing.T) {
	ds := newDataset(t, []string{"X"}, [][]string{{"0"}, {"2.5"}, {"5"}, {"7.5"}, {"10"}, {""}})
	h, err := Bucketize(ds, "X", 4)
	require.NoError(t, err)

	require.Len(t, h.Bins, 4)
	counts := []int{h.Bins[0].Count, h.Bins[1].Count, h.Bins[2].Count, h.Bins[3].Count}
	assert.Equal(t, []int{1, 1, 1, 2}, counts)
	assert.Equal(t, 5, h.Total)
}

func TestBucketizeConstantColumn(t *testing.T) {
	ds := newDataset(t, []string{"X"}, [][]string{{"5"}, {"5"}, {"5"}})
	for _, bins := range []int{0, 4} {
		h, err := Bucketize(ds, "X", bins)
		require.NoError(t, err)
		require.Len(t, h.Bins, 1, "bins=%d", bins)
		assert.Equal(t, 3, h.Bins[0].Count)
	}
}

func TestBoxSummariesByResponse(t *testing.T) {
	res, err := FilterOutliers(ageDataset(t), "Age", 0)
	require.NoError(t, err)
	boxes, err := BoxSummaries(res.Dataset, "Age", "Attrition", []string{"Left", "Stayed"}, 0)
	require.NoError(t, err)

	require.Len(t, boxes, 2)
	assert.Equal(t, "Left", boxes[0].Group)
	assert.Equal(t, "Stayed", boxes[1].Group)
	assert.Equal(t, res.Retained, boxes[0].Count+boxes[1].Count)
	for _, b := range boxes {
		assert.LessOrEqual(t, b.Min, b.Q1)
		assert.LessOrEqual(t, b.Q1, b.Median)
		assert.LessOrEqual(t, b.Median, b.Q3)
		assert.LessOrEqual(t, b.Q3, b.Max)
	}
}

func TestBoxSummariesSkipEmptyLevels(t *testing.T) {
	ds := newDataset(t, []string{"Age", "Attrition"}, [][]string{
		{"30", "Stayed"}, {"40", "Stayed"}, {"50", "Stayed"},
	})
	boxes, err := BoxSummaries(ds, "Age", "Attrition", []string{"Left", "Stayed"}, 0)
	require.NoError(t, err)
	require.Len(t, boxes, 1)
	assert.Equal(t, "Stayed", boxes[0].Group)
}

func TestBoxSummariesWhiskersFollowMultiplier(t *testing.T) {
	// Q1 = 11.5, Q3 = 14.5, IQR = 3: 20 is past 1.5 IQR (19) but inside 3 IQR (23.5).
	ds := newDataset(t, []string{"Age", "Attrition"}, [][]string{
		{"10", "Left"}, {"11", "Left"}, {"12", "Left"}, {"13", "Left"},
		{"14", "Left"}, {"15", "Left"}, {"20", "Left"},
	})
	def, err := BoxSummaries(ds, "Age", "Attrition", nil, 0)
	require.NoError(t, err)
	wide, err := BoxSummaries(ds, "Age", "Attrition", nil, 3)
	require.NoError(t, err)

	assert.Equal(t, 15.0, def[0].WhiskerHigh)
	assert.Equal(t, 20.0, wide[0].WhiskerHigh)
	assert.Equal(t, 10.0, wide[0].WhiskerLow)
}
