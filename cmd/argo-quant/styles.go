package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-quant/internal/performance"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for secondary text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	positiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	negativeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// renderTable lays out rows under headers with a normal border.
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TitleStyle.Padding(0, 1)
			}

			return lipgloss.NewStyle().Padding(0, 1)
		})

	return t.String()
}

// renderMetrics renders strategy metrics next to buy and hold metrics.
func renderMetrics(title string, metrics types.Metrics, benchmark types.Metrics) string {
	strategyRows := performance.ReportRows(metrics)
	benchmarkRows := performance.ReportRows(benchmark)

	rows := make([][]string, len(strategyRows))
	for i, row := range strategyRows {
		rows[i] = []string{row.Label, row.Value, benchmarkRows[i].Value}
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(renderTable([]string{"Metric", "Strategy", "Buy & hold"}, rows))

	return b.String()
}

// signedPercent colors a fraction green when positive and red when negative.
func signedPercent(v float64) string {
	s := fmt.Sprintf("%.2f%%", v*100)

	switch {
	case v > 0:
		return positiveStyle.Render(s)
	case v < 0:
		return negativeStyle.Render(s)
	default:
		return s
	}
}
