package performance

import (
	"fmt"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// ReportRow is one labelled, formatted metric.
type ReportRow struct {
	Label string
	Value string
}

// ReportRows formats metrics into labelled rows in report order.
func ReportRows(m types.Metrics) []ReportRow {
	return []ReportRow{
		{"Total return", percent(m.TotalReturn)},
		{"Annualized return", percent(m.AnnualizedReturn)},
		{"Max drawdown", percent(m.MaxDrawdown)},
		{"Sharpe ratio", fmt.Sprintf("%.2f", m.SharpeRatio)},
		{"Win rate", percent(m.WinRate)},
		{"Volatility", percent(m.Volatility)},
		{"Trades", fmt.Sprintf("%d", m.TradeCount)},
		{"Trading days", fmt.Sprintf("%d", m.TradingDays)},
		{"Winning days", fmt.Sprintf("%d", m.WinningDays)},
		{"Losing days", fmt.Sprintf("%d", m.LosingDays)},
	}
}

// GenerateReport renders metrics, and optionally benchmark metrics next to them, as plain text.
// It only formats; nothing is recomputed.
func GenerateReport(title string, m types.Metrics, benchmark optional.Option[types.Metrics]) string {
	var b strings.Builder

	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", len(title)))
	b.WriteString("\n")

	rows := ReportRows(m)

	var benchRows []ReportRow
	if benchmark.IsSome() {
		benchRows = ReportRows(benchmark.Unwrap())
		fmt.Fprintf(&b, "%-20s %14s %14s\n", "", "strategy", "buy & hold")
	}

	for i, row := range rows {
		if benchRows != nil {
			fmt.Fprintf(&b, "%-20s %14s %14s\n", row.Label+":", row.Value, benchRows[i].Value)

			continue
		}

		fmt.Fprintf(&b, "%-20s %14s\n", row.Label+":", row.Value)
	}

	return b.String()
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
