// Package indicator computes technical indicators over price and volume series.
//
// Every function is pure: it takes input series and returns new output series of
// the same length. Positions without enough history hold an undefined value (NaN);
// use IsDefined to test them. When an input is too short for the requested period
// the output is entirely undefined. A non-positive period yields a nil series.
package indicator

import (
	"math"
	"sort"
)

// IsDefined reports whether v carries a computed indicator value.
func IsDefined(v float64) bool {
	return !math.IsNaN(v)
}

// FirstDefined returns the index of the first defined value, or -1.
func FirstDefined(series []float64) int {
	for i, v := range series {
		if IsDefined(v) {
			return i
		}
	}

	return -1
}

// CountDefined returns how many values of the series are defined.
func CountDefined(series []float64) int {
	count := 0

	for _, v := range series {
		if IsDefined(v) {
			count++
		}
	}

	return count
}

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// window returns values[end-period+1 : end+1] and whether every value in it is defined.
func window(values []float64, end, period int) ([]float64, bool) {
	w := values[end-period+1 : end+1]
	for _, v := range w {
		if !IsDefined(v) {
			return w, false
		}
	}

	return w, true
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// SampleStd returns the sample standard deviation (n-1 denominator) of values.
// It returns NaN for fewer than two values and exactly 0 when every value is equal.
func SampleStd(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}

	if allEqual(values) {
		return 0
	}

	m := mean(values)
	sum := 0.0

	for _, v := range values {
		d := v - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(values)-1))
}

func allEqual(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}

	return true
}

// RollingStd returns the trailing sample standard deviation over period values.
func RollingStd(values []float64, period int) []float64 {
	if period < 1 {
		return nil
	}

	out := undefinedSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		w, ok := window(values, i, period)
		if !ok {
			continue
		}

		out[i] = SampleStd(w)
	}

	return out
}

// RollingMax returns the trailing maximum over period values.
func RollingMax(values []float64, period int) []float64 {
	return rollingExtreme(values, period, math.Max)
}

// RollingMin returns the trailing minimum over period values.
func RollingMin(values []float64, period int) []float64 {
	return rollingExtreme(values, period, math.Min)
}

func rollingExtreme(values []float64, period int, pick func(a, b float64) float64) []float64 {
	if period < 1 {
		return nil
	}

	out := undefinedSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		w, ok := window(values, i, period)
		if !ok {
			continue
		}

		extreme := w[0]
		for _, v := range w[1:] {
			extreme = pick(extreme, v)
		}

		out[i] = extreme
	}

	return out
}

// PctChange returns the fractional change between each value and the one lag positions earlier.
// A zero base value yields an undefined result.
func PctChange(values []float64, lag int) []float64 {
	if lag < 1 {
		return nil
	}

	out := undefinedSeries(len(values))
	for i := lag; i < len(values); i++ {
		base := values[i-lag]
		if !IsDefined(base) || !IsDefined(values[i]) || base == 0 {
			continue
		}

		out[i] = (values[i] - base) / base
	}

	return out
}

// ExpandingZScore standardizes each value against the mean and sample standard
// deviation of all defined values up to and including it. At least two
// observations are required. Zero dispersion yields a score of 0.
func ExpandingZScore(values []float64) []float64 {
	out := undefinedSeries(len(values))

	var (
		count int
		m     float64
		m2    float64
	)

	for i, v := range values {
		if !IsDefined(v) {
			continue
		}

		// Welford update
		count++
		delta := v - m
		m += delta / float64(count)
		m2 += delta * (v - m)

		if count < 2 {
			continue
		}

		std := math.Sqrt(m2 / float64(count-1))
		if std < 1e-12 {
			out[i] = 0

			continue
		}

		out[i] = (v - m) / std
	}

	return out
}

// RollingPercentRank returns the percentile rank of each value among the trailing
// period values, in (0, 1]. Ties share the average rank.
func RollingPercentRank(values []float64, period int) []float64 {
	if period < 1 {
		return nil
	}

	out := undefinedSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		w, ok := window(values, i, period)
		if !ok {
			continue
		}

		out[i] = percentRank(w, values[i])
	}

	return out
}

func percentRank(population []float64, v float64) float64 {
	less, equal := 0, 0

	for _, p := range population {
		switch {
		case p < v:
			less++
		case p == v:
			equal++
		}
	}

	// average rank of the tied group, 1-based
	rank := float64(less) + float64(equal+1)/2

	return rank / float64(len(population))
}

// Quantile returns the q-th quantile of the defined values using linear interpolation.
func Quantile(values []float64, q float64) float64 {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if IsDefined(v) {
			defined = append(defined, v)
		}
	}

	if len(defined) == 0 || q < 0 || q > 1 {
		return math.NaN()
	}

	sort.Float64s(defined)

	pos := q * float64(len(defined)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))

	if lower == upper {
		return defined[lower]
	}

	frac := pos - float64(lower)

	return defined[lower] + (defined[upper]-defined[lower])*frac
}
