package stats

import (
	"math"
	"sort"
)

// Sum calculates the sum of values
func Sum(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum
}

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// StdDev calculates the population standard deviation
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := Mean(values)
	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}
	return math.Sqrt(sumSquaredDiff / float64(len(values)))
}

// Quantile calculates the q-th quantile (0 <= q <= 1) of sorted values
// with linear interpolation.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	q = math.Max(0, math.Min(1, q))

	index := q * float64(len(sorted)-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// NormalizedEntropy calculates the Shannon entropy of values treated as
// frequencies, divided by log2(n). 1 means evenly spread, 0 means
// concentrated in one bucket.
func NormalizedEntropy(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	sum := Sum(values)
	if sum == 0 {
		return 0
	}

	var entropy float64
	for _, v := range values {
		if v > 0 {
			p := v / sum
			entropy -= p * math.Log2(p)
		}
	}
	return entropy / math.Log2(float64(len(values)))
}

// Gini calculates the Gini coefficient of sorted non-negative values,
// 0 for perfect equality up to (n-1)/n when one value holds everything.
func Gini(sorted []float64) float64 {
	n := float64(len(sorted))
	sum := Sum(sorted)
	if n == 0 || sum == 0 {
		return 0
	}
	var weighted float64
	for i, v := range sorted {
		weighted += float64(i+1) * v
	}
	return 2*weighted/(n*sum) - (n+1)/n
}

// Summary describes how a set of non-negative counts is distributed
type Summary struct {
	Count   int     `json:"count"`
	NonZero int     `json:"nonZero"`
	Mean    float64 `json:"mean"`
	StdDev  float64 `json:"stdDev"`
	Min     float64 `json:"min"`
	Q1      float64 `json:"q1"`
	Median  float64 `json:"median"`
	Q3      float64 `json:"q3"`
	P90     float64 `json:"p90"`
	Max     float64 `json:"max"`
	Entropy float64 `json:"entropy"` // normalized, 0-1
	Gini    float64 `json:"gini"`
}

// Summarize computes the distribution summary of counts
func Summarize(counts []int64) Summary {
	values := make([]float64, len(counts))
	s := Summary{Count: len(counts)}
	for i, c := range counts {
		values[i] = float64(c)
		if c != 0 {
			s.NonZero++
		}
	}
	if len(values) == 0 {
		return s
	}
	sort.Float64s(values)

	s.Mean = Mean(values)
	s.StdDev = StdDev(values)
	s.Min = values[0]
	s.Q1 = Quantile(values, 0.25)
	s.Median = Quantile(values, 0.5)
	s.Q3 = Quantile(values, 0.75)
	s.P90 = Quantile(values, 0.9)
	s.Max = values[len(values)-1]
	s.Entropy = NormalizedEntropy(values)
	s.Gini = Gini(values)
	return s
}
