package profiling

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	s, err := Describe([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, 5, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 3.0, s.Median)
	assert.InDelta(t, 1.5811, s.StdDev, 1e-4)
	assert.InDelta(t, 0, s.Skewness, 1e-9)

	_, err = Describe(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDescribeBins(t *testing.T) {
	s, err := DescribeBins([]float64{0, 10, 20}, []float64{10, 20, 30}, []float64{1, 0, 1})
	require.NoError(t, err)

	assert.Equal(t, 2, s.Count)
	assert.Equal(t, 15.0, s.Mean)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 30.0, s.Max)

	_, err = DescribeBins([]float64{0, 10}, []float64{10, 20}, []float64{0, 0.2})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDescribeBinsLargeCounts(t *testing.T) {
	starts := []float64{0, 10, 20, 30}
	ends := []float64{10, 20, 30, 40}
	counts := []float64{5e6, 5e6, 5e6, 5e6}

	s, err := DescribeBins(starts, ends, counts)
	require.NoError(t, err)

	assert.Equal(t, 20000000, s.Count)
	assert.InDelta(t, 20, s.Mean, 1e-9)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 40.0, s.Max)
	assert.Equal(t, 5.0, s.Q1)
	assert.Equal(t, 15.0, s.Median)
	assert.Equal(t, 25.0, s.Q3)
	assert.InDelta(t, math.Sqrt(125), s.StdDev, 1e-6)
	assert.InDelta(t, 0, s.Skewness, 1e-6)

	allocs := testing.AllocsPerRun(5, func() {
		_, _ = DescribeBins(starts, ends, counts)
	})
	assert.LessOrEqual(t, allocs, 16.0, "allocations must not scale with the record count")
}

func TestDescribeBinsUnsortedInput(t *testing.T) {
	s, err := DescribeBins([]float64{20, 0, 10}, []float64{30, 10, 20}, []float64{1, 2, 1})
	require.NoError(t, err)

	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 30.0, s.Max)
	assert.Equal(t, 5.0, s.Median)
	assert.InDelta(t, 12.5, s.Mean, 1e-9)
}

func TestBestFit(t *testing.T) {
	line, err := BestFit([]float64{0, 1, 2, 3}, []float64{1, 3, 5, 7})
	require.NoError(t, err)

	assert.InDelta(t, 1, line.Intercept, 1e-9)
	assert.InDelta(t, 2, line.Slope, 1e-9)
	assert.InDelta(t, 1, line.R2, 1e-9)
	assert.InDelta(t, 9, line.At(4), 1e-9)

	_, err = BestFit([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrInsufficientData)
	_, err = BestFit([]float64{1}, []float64{1})
	assert.ErrorIs(t, err, ErrInsufficientData)
}
