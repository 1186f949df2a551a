package indicator

// SuperTrendResult holds the SuperTrend line and its direction.
type SuperTrendResult struct {
	Line []float64
	// Direction is +1 while the line follows the lower band and -1 while it follows the upper band.
	Direction []float64
	Upper     []float64
	Lower     []float64
}

// SuperTrend computes ATR-based trailing bands around the bar midpoint.
//
// The final upper band only moves down unless the previous close broke above it,
// the final lower band only moves up unless the previous close broke below it.
// The line starts on the upper band and switches bands when the close crosses the
// band it is following.
func SuperTrend(highs, lows, closes []float64, period int, multiplier float64) SuperTrendResult {
	if period < 1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return SuperTrendResult{}
	}

	n := len(closes)
	atr := ATR(highs, lows, closes, period)

	result := SuperTrendResult{
		Line:      undefinedSeries(n),
		Direction: undefinedSeries(n),
		Upper:     undefinedSeries(n),
		Lower:     undefinedSeries(n),
	}

	start := FirstDefined(atr)
	if start < 0 {
		return result
	}

	onUpper := true

	for i := start; i < n; i++ {
		mid := (highs[i] + lows[i]) / 2
		basicUpper := mid + multiplier*atr[i]
		basicLower := mid - multiplier*atr[i]

		if i == start {
			result.Upper[i] = basicUpper
			result.Lower[i] = basicLower
			result.Line[i] = basicUpper
			result.Direction[i] = -1

			continue
		}

		prevUpper := result.Upper[i-1]
		prevLower := result.Lower[i-1]
		prevClose := closes[i-1]

		if basicUpper < prevUpper || prevClose > prevUpper {
			result.Upper[i] = basicUpper
		} else {
			result.Upper[i] = prevUpper
		}

		if basicLower > prevLower || prevClose < prevLower {
			result.Lower[i] = basicLower
		} else {
			result.Lower[i] = prevLower
		}

		if onUpper {
			onUpper = closes[i] <= result.Upper[i]
		} else {
			onUpper = closes[i] < result.Lower[i]
		}

		if onUpper {
			result.Line[i] = result.Upper[i]
			result.Direction[i] = -1
		} else {
			result.Line[i] = result.Lower[i]
			result.Direction[i] = 1
		}
	}

	return result
}
