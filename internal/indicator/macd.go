package indicator

// MACDResult holds the three MACD series.
type MACDResult struct {
	MACD      []float64
	Signal    []float64
	Histogram []float64
}

// MACD returns EMA(fast) - EMA(slow), its EMA(signal) line and their difference.
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	if fast < 1 || slow < 1 || signal < 1 {
		return MACDResult{}
	}

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	line := undefinedSeries(len(closes))
	for i := range line {
		if IsDefined(fastEMA[i]) && IsDefined(slowEMA[i]) {
			line[i] = fastEMA[i] - slowEMA[i]
		}
	}

	signalLine := EMA(line, signal)

	histogram := undefinedSeries(len(closes))
	for i := range histogram {
		if IsDefined(line[i]) && IsDefined(signalLine[i]) {
			histogram[i] = line[i] - signalLine[i]
		}
	}

	return MACDResult{
		MACD:      line,
		Signal:    signalLine,
		Histogram: histogram,
	}
}
