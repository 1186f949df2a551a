package indicator

import "math"

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|) per bar.
// The first bar has no previous close and uses high-low.
func TrueRange(highs, lows, closes []float64) []float64 {
	if len(highs) != len(closes) || len(lows) != len(closes) {
		return nil
	}

	out := undefinedSeries(len(closes))
	for i := range closes {
		hl := highs[i] - lows[i]
		if i == 0 {
			out[i] = hl

			continue
		}

		prevClose := closes[i-1]
		out[i] = math.Max(hl, math.Max(math.Abs(highs[i]-prevClose), math.Abs(lows[i]-prevClose)))
	}

	return out
}

// ATR returns the simple moving average of the true range over period.
func ATR(highs, lows, closes []float64, period int) []float64 {
	if period < 1 {
		return nil
	}

	tr := TrueRange(highs, lows, closes)
	if tr == nil {
		return nil
	}

	return SMA(tr, period)
}
