// Package performance computes summary statistics from return series.
package performance

import (
	"math"

	"github.com/rxtech-lab/argo-quant/internal/types"
)

// TradingDaysPerYear is the annualization convention.
const TradingDaysPerYear = 252

// Analyzer computes Metrics. The zero value is not useful, use NewAnalyzer.
type Analyzer struct {
	// TradingDaysPerYear scales per-bar statistics to a year
	TradingDaysPerYear int
	// RiskFreeRate is the annual rate subtracted from returns before the Sharpe ratio
	RiskFreeRate float64
}

// NewAnalyzer returns an analyzer with 252 trading days and no risk free rate.
func NewAnalyzer() Analyzer {
	return Analyzer{TradingDaysPerYear: TradingDaysPerYear}
}

// CalculateMetrics computes metrics with the default analyzer.
func CalculateMetrics(returns []float64, curve []float64) types.Metrics {
	return NewAnalyzer().CalculateMetrics(returns, curve)
}

// CalculateMetrics computes the summary statistics of returns and their cumulative curve.
//
// returns holds the N return observations; curve is the cumulative curve they produced,
// measured from a base of 1.0.
// Undefined returns count as 0. Ratios with a zero denominator fall back to 0.
// A curve that ends at or below zero has an annualized return of -1.
func (a Analyzer) CalculateMetrics(returns []float64, curve []float64) types.Metrics {
	days := a.TradingDaysPerYear
	if days <= 0 {
		days = TradingDaysPerYear
	}

	clean := make([]float64, len(returns))
	for i, r := range returns {
		if !math.IsNaN(r) {
			clean[i] = r
		}
	}

	m := types.Metrics{
		TradingDays: len(clean),
		MaxDrawdown: MaxDrawdown(curve),
	}

	if len(curve) > 0 {
		final := curve[len(curve)-1]
		m.TotalReturn = final - 1

		if n := len(clean); n > 0 {
			if final <= 0 {
				m.AnnualizedReturn = -1
			} else {
				m.AnnualizedReturn = math.Pow(final, float64(days)/float64(n)) - 1
			}
		}
	}

	nonZero := 0

	for _, r := range clean {
		switch {
		case r > 0:
			m.WinningDays++
			nonZero++
		case r < 0:
			m.LosingDays++
			nonZero++
		}
	}

	if nonZero > 0 {
		m.WinRate = float64(m.WinningDays) / float64(nonZero)
	}

	std := stddev(clean)
	m.Volatility = std * math.Sqrt(float64(days))

	if std > 0 {
		excess := mean(clean) - a.RiskFreeRate/float64(days)
		m.SharpeRatio = excess / std * math.Sqrt(float64(days))
	}

	return m
}

// CumulativeCurve returns the running product of (1 + r). Undefined returns count as 0.
func CumulativeCurve(returns []float64) []float64 {
	curve := make([]float64, len(returns))
	running := 1.0

	for i, r := range returns {
		if !math.IsNaN(r) {
			running *= 1 + r
		}

		curve[i] = running
	}

	return curve
}

// DrawdownSeries returns (running peak - value) / running peak for every point of curve,
// clamped to [0, 1]. A non-positive peak yields a drawdown of 1.
func DrawdownSeries(curve []float64) []float64 {
	out := make([]float64, len(curve))
	if len(curve) == 0 {
		return out
	}

	peak := curve[0]

	for i, v := range curve {
		peak = math.Max(peak, v)

		if peak <= 0 {
			out[i] = 1

			continue
		}

		out[i] = math.Min(math.Max((peak-v)/peak, 0), 1)
	}

	return out
}

// MaxDrawdown returns the largest value of DrawdownSeries, or 0 for an empty curve.
func MaxDrawdown(curve []float64) float64 {
	worst := 0.0
	for _, dd := range DrawdownSeries(curve) {
		worst = math.Max(worst, dd)
	}

	return worst
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// stddev is the sample standard deviation. Fewer than two values, and identical values, give 0.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	identical := true

	for _, v := range values[1:] {
		if v != values[0] {
			identical = false

			break
		}
	}

	if identical {
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
