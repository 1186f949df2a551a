package indicator

import "math"

// RSI returns the relative strength index of closes over period.
//
// Gains and losses are smoothed with EMA. The result lies in [0, 100] and is
// exactly 100 when the smoothed loss is zero. The first period values are undefined.
func RSI(closes []float64, period int) []float64 {
	if period < 1 {
		return nil
	}

	n := len(closes)
	gains := undefinedSeries(n)
	losses := undefinedSeries(n)

	for i := 1; i < n; i++ {
		if !IsDefined(closes[i]) || !IsDefined(closes[i-1]) {
			continue
		}

		delta := closes[i] - closes[i-1]
		gains[i] = math.Max(delta, 0)
		losses[i] = math.Max(-delta, 0)
	}

	avgGain := EMA(gains, period)
	avgLoss := EMA(losses, period)

	out := undefinedSeries(n)
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		if !IsDefined(g) || !IsDefined(l) {
			continue
		}

		if l == 0 {
			out[i] = 100

			continue
		}

		rs := g / l
		out[i] = 100 - 100/(1+rs)
	}

	return out
}
