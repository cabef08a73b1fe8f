package profiling

import (
	"cmp"
	"errors"
	"math"
	"slices"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData is returned when too few values are available for a statistic
var ErrInsufficientData = errors.New("insufficient data")

// Summary holds the descriptive statistics of one numeric variable
type Summary struct {
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Q1       float64 `json:"q1"`
	Median   float64 `json:"median"`
	Mean     float64 `json:"mean"`
	Q3       float64 `json:"q3"`
	Max      float64 `json:"max"`
	StdDev   float64 `json:"stdDev"`
	Skewness float64 `json:"skewness"`
}

// Describe computes summary statistics of data
func Describe(data []float64) (Summary, error) {
	summary := Summary{Count: len(data)}
	if len(data) == 0 {
		return summary, ErrInsufficientData
	}

	var err error
	if summary.Mean, err = stats.Mean(data); err != nil {
		return summary, err
	}
	if summary.Min, err = stats.Min(data); err != nil {
		return summary, err
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return summary, err
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return summary, err
	}
	if summary.Q1, err = stats.Percentile(data, 25); err != nil {
		return summary, err
	}
	if summary.Q3, err = stats.Percentile(data, 75); err != nil {
		return summary, err
	}
	if len(data) > 1 {
		if summary.StdDev, err = stats.StandardDeviationSample(data); err != nil {
			return summary, err
		}
	}
	summary.Skewness = skewness(data, summary.Mean, summary.StdDev)
	return summary, nil
}

// DescribeBins approximates summary statistics of binned data by weighting each bin's
// midpoint with its rounded count. Work grows with the number of bins, not the number of
// records they hold.
func DescribeBins(starts, ends, counts []float64) (Summary, error) {
	type bin struct{ start, end, mid, weight float64 }
	var bins []bin
	for i := range starts {
		if i >= len(ends) || i >= len(counts) {
			break
		}
		if w := math.Round(counts[i]); w > 0 {
			bins = append(bins, bin{start: starts[i], end: ends[i], mid: (starts[i] + ends[i]) / 2, weight: w})
		}
	}
	if len(bins) == 0 {
		return Summary{}, ErrInsufficientData
	}
	slices.SortFunc(bins, func(a, b bin) int { return cmp.Compare(a.mid, b.mid) })

	mids := make([]float64, len(bins))
	weights := make([]float64, len(bins))
	summary := Summary{Min: bins[0].start, Max: bins[0].end}
	total := 0.0
	for i, b := range bins {
		mids[i], weights[i] = b.mid, b.weight
		summary.Min = math.Min(summary.Min, b.start)
		summary.Max = math.Max(summary.Max, b.end)
		total += b.weight
	}
	summary.Count = int(total)
	summary.Mean = stat.Mean(mids, weights)
	summary.Q1 = stat.Quantile(0.25, stat.Empirical, mids, weights)
	summary.Median = stat.Quantile(0.5, stat.Empirical, mids, weights)
	summary.Q3 = stat.Quantile(0.75, stat.Empirical, mids, weights)
	if total > 1 {
		summary.StdDev = stat.StdDev(mids, weights)
	}
	if total > 2 && summary.StdDev > 0 {
		summary.Skewness = stat.Skew(mids, weights)
	}
	return summary, nil
}

// Line is a least-squares fit y = Intercept + Slope*x
type Line struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	R2        float64 `json:"r2"`
}

// At evaluates the line
func (l Line) At(x float64) float64 {
	return l.Intercept + l.Slope*x
}

// BestFit fits an ordinary least squares line through the points
func BestFit(xs, ys []float64) (Line, error) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return Line{}, ErrInsufficientData
	}
	if v := stat.Variance(xs, nil); v == 0 || math.IsNaN(v) {
		return Line{}, ErrInsufficientData
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return Line{
		Intercept: alpha,
		Slope:     beta,
		R2:        stat.RSquared(xs, ys, nil, alpha, beta),
	}, nil
}

// skewness is the adjusted Fisher-Pearson coefficient
func skewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}
	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	return sum / n * math.Sqrt(n*(n-1)) / (n - 2)
}
