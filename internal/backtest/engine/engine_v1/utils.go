package engine

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/backtest/engine"
)

// ResultFolder is where WriteResults puts a run under root:
// <root>/<strategy>/<symbol>_<first bar>_<last bar>.
func ResultFolder(root string, result *engine.Result) string {
	symbol := result.Symbol
	if symbol == "" {
		symbol = "unknown"
	}

	symbol = strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(symbol)

	timeRange := "empty"
	if len(result.Bars) > 0 {
		timeRange = fmt.Sprintf("%s_%s",
			result.Bars[0].Time.Format("20060102"),
			result.Bars[len(result.Bars)-1].Time.Format("20060102"))
	}

	return filepath.Join(root, result.Strategy.Name, fmt.Sprintf("%s_%s", symbol, timeRange))
}

// instrumentReturns is the close-to-close percent change. The first bar, and any bar whose
// previous close is zero or undefined, has a return of 0.
func instrumentReturns(closes []float64) []float64 {
	out := make([]float64, len(closes))

	for t := 1; t < len(closes); t++ {
		prev := closes[t-1]
		if prev == 0 || math.IsNaN(prev) || math.IsNaN(closes[t]) {
			continue
		}

		out[t] = closes[t]/prev - 1
	}

	return out
}

func timeOrZero(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.DateOnly)
}
