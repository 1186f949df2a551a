package indicator

// SpanAlpha is the smoothing factor 2/(period+1) used by every EMA in this package.
func SpanAlpha(period int) float64 {
	return 2.0 / float64(period+1)
}

// EMA returns the exponential moving average of values over period.
//
// Leading undefined values are skipped. The first output is the simple average of
// the first period defined values; each later output is prev + alpha*(v - prev) with
// alpha = SpanAlpha(period). An undefined value after the seed yields an undefined
// output and leaves the running average unchanged.
func EMA(values []float64, period int) []float64 {
	if period < 1 {
		return nil
	}

	return smooth(values, period, SpanAlpha(period))
}

func smooth(values []float64, period int, alpha float64) []float64 {
	out := undefinedSeries(len(values))

	start := FirstDefined(values)
	if start < 0 || len(values)-start < period {
		return out
	}

	seedEnd := start + period - 1

	seed, ok := window(values, seedEnd, period)
	if !ok {
		return out
	}

	prev := mean(seed)
	out[seedEnd] = prev

	for i := seedEnd + 1; i < len(values); i++ {
		v := values[i]
		if !IsDefined(v) {
			continue
		}

		prev += alpha * (v - prev)
		out[i] = prev
	}

	return out
}
