package indicator

// SMA returns the simple moving average of values over period.
func SMA(values []float64, period int) []float64 {
	if period < 1 {
		return nil
	}

	out := undefinedSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		w, ok := window(values, i, period)
		if !ok {
			continue
		}

		out[i] = mean(w)
	}

	return out
}

// WMA returns the linearly weighted moving average of values over period.
// The most recent value carries weight period, the oldest weight 1.
func WMA(values []float64, period int) []float64 {
	if period < 1 {
		return nil
	}

	denominator := float64(period*(period+1)) / 2

	out := undefinedSeries(len(values))
	for i := period - 1; i < len(values); i++ {
		w, ok := window(values, i, period)
		if !ok {
			continue
		}

		sum := 0.0
		for j, v := range w {
			sum += float64(j+1) * v
		}

		out[i] = sum / denominator
	}

	return out
}
