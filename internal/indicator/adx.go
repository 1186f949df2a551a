package indicator

import "math"

// ADXResult holds the directional movement system.
type ADXResult struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
	DX      []float64
}

// ADX computes the average directional index with simple moving averages over period.
//
// A directional indicator is 0 when the average true range is 0, and DX is 0 when
// both indicators are 0.
func ADX(highs, lows, closes []float64, period int) ADXResult {
	if period < 1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return ADXResult{}
	}

	n := len(closes)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)

	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]

		if up > down && up > 0 {
			plusDM[i] = up
		}

		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	atr := ATR(highs, lows, closes, period)
	avgPlus := SMA(plusDM, period)
	avgMinus := SMA(minusDM, period)

	plusDI := undefinedSeries(n)
	minusDI := undefinedSeries(n)
	dx := undefinedSeries(n)

	for i := 0; i < n; i++ {
		if !IsDefined(atr[i]) {
			continue
		}

		if atr[i] == 0 {
			plusDI[i], minusDI[i] = 0, 0
		} else {
			plusDI[i] = 100 * avgPlus[i] / atr[i]
			minusDI[i] = 100 * avgMinus[i] / atr[i]
		}

		sum := plusDI[i] + minusDI[i]
		if sum == 0 {
			dx[i] = 0

			continue
		}

		dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
	}

	return ADXResult{
		ADX:     SMA(dx, period),
		PlusDI:  plusDI,
		MinusDI: minusDI,
		DX:      dx,
	}
}
