package indicator

// KDJResult holds the stochastic K, D and J lines.
type KDJResult struct {
	K []float64
	D []float64
	J []float64
}

// KDJ computes the stochastic oscillator with smoothing periods m1 for K and m2 for D.
//
// RSV is the position of the close within the trailing n-bar high/low range, scaled
// to [0, 100] and 0 when the range is flat. K and D are seeded at 50 and updated with
// weight 1/m1 and 1/m2 respectively. J = 3K - 2D.
func KDJ(highs, lows, closes []float64, n, m1, m2 int) KDJResult {
	if n < 1 || m1 < 1 || m2 < 1 || len(highs) != len(closes) || len(lows) != len(closes) {
		return KDJResult{}
	}

	size := len(closes)
	hh := RollingMax(highs, n)
	ll := RollingMin(lows, n)

	k := undefinedSeries(size)
	d := undefinedSeries(size)
	j := undefinedSeries(size)

	prevK, prevD := 50.0, 50.0
	wk := 1 / float64(m1)
	wd := 1 / float64(m2)

	for i := 0; i < size; i++ {
		if !IsDefined(hh[i]) || !IsDefined(ll[i]) || !IsDefined(closes[i]) {
			continue
		}

		rsv := 0.0
		if span := hh[i] - ll[i]; span != 0 {
			rsv = (closes[i] - ll[i]) / span * 100
		}

		prevK = (1-wk)*prevK + wk*rsv
		prevD = (1-wd)*prevD + wd*prevK

		k[i] = prevK
		d[i] = prevD
		j[i] = 3*prevK - 2*prevD
	}

	return KDJResult{K: k, D: d, J: j}
}
