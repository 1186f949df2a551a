package indicator

// OBV returns on-balance volume. The first bar starts at its own volume.
func OBV(closes, volumes []float64) []float64 {
	if len(closes) != len(volumes) {
		return nil
	}

	out := make([]float64, len(closes))
	if len(closes) == 0 {
		return out
	}

	out[0] = volumes[0]
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}

	return out
}

// AD returns the cumulative accumulation/distribution line.
// A bar with a flat range contributes nothing.
func AD(highs, lows, closes, volumes []float64) []float64 {
	n := len(closes)
	if len(highs) != n || len(lows) != n || len(volumes) != n {
		return nil
	}

	out := make([]float64, n)
	running := 0.0

	for i := 0; i < n; i++ {
		if span := highs[i] - lows[i]; span != 0 {
			clv := ((closes[i] - lows[i]) - (highs[i] - closes[i])) / span
			running += clv * volumes[i]
		}

		out[i] = running
	}

	return out
}

// Chaikin returns EMA(fast) - EMA(slow) of the accumulation/distribution line.
func Chaikin(highs, lows, closes, volumes []float64, fast, slow int) []float64 {
	if fast < 1 || slow < 1 {
		return nil
	}

	ad := AD(highs, lows, closes, volumes)
	if ad == nil {
		return nil
	}

	fastEMA := EMA(ad, fast)
	slowEMA := EMA(ad, slow)

	out := undefinedSeries(len(ad))
	for i := range out {
		if IsDefined(fastEMA[i]) && IsDefined(slowEMA[i]) {
			out[i] = fastEMA[i] - slowEMA[i]
		}
	}

	return out
}
