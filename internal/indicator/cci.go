package indicator

import "math"

const cciConstant = 0.015

// CCI returns the commodity channel index of the typical price over period.
// A window with zero mean deviation yields 0.
func CCI(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	if period < 1 || len(highs) != n || len(lows) != n {
		return nil
	}

	typical := make([]float64, n)
	for i := range typical {
		typical[i] = (highs[i] + lows[i] + closes[i]) / 3
	}

	avg := SMA(typical, period)

	out := undefinedSeries(n)
	for i := period - 1; i < n; i++ {
		w, ok := window(typical, i, period)
		if !ok || !IsDefined(avg[i]) {
			continue
		}

		dev := 0.0
		for _, v := range w {
			dev += math.Abs(v - avg[i])
		}

		dev /= float64(period)
		if dev == 0 {
			out[i] = 0

			continue
		}

		out[i] = (typical[i] - avg[i]) / (cciConstant * dev)
	}

	return out
}
