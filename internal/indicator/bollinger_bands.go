package indicator

// BandsResult holds an upper, middle and lower band.
type BandsResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger returns SMA(period) ± k standard deviations, using the sample standard deviation.
func Bollinger(closes []float64, period int, k float64) BandsResult {
	if period < 1 {
		return BandsResult{}
	}

	middle := SMA(closes, period)
	std := RollingStd(closes, period)

	upper := undefinedSeries(len(closes))
	lower := undefinedSeries(len(closes))

	for i := range closes {
		if !IsDefined(middle[i]) || !IsDefined(std[i]) {
			continue
		}

		upper[i] = middle[i] + k*std[i]
		lower[i] = middle[i] - k*std[i]
	}

	return BandsResult{
		Upper:  upper,
		Middle: middle,
		Lower:  lower,
	}
}
