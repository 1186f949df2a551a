package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Metrics are the summary statistics of one return series. Ratios are
// fractions (0.12 means 12%), never percentages.
type Metrics struct {
	// Compounded return over the whole run.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	// cum[-1] ** (252/N) - 1.
	AnnualizedReturn float64 `yaml:"annualized_return" json:"annualized_return"`
	// Largest peak-to-trough decline of the cumulative curve, in [0,1].
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// mean/std * sqrt(252); 0 when std is 0.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// Positive bars over non-zero bars.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// std * sqrt(252).
	Volatility float64 `yaml:"volatility" json:"volatility"`
	// Number of position changes.
	TradeCount int `yaml:"trade_count" json:"trade_count"`
	// Number of return observations.
	TradingDays int `yaml:"trading_days" json:"trading_days"`
	WinningDays int `yaml:"winning_days" json:"winning_days"`
	LosingDays  int `yaml:"losing_days" json:"losing_days"`
}

// ToMap flattens the metrics into name -> scalar for tabular export.
func (m Metrics) ToMap() map[string]float64 {
	return map[string]float64{
		"total_return":      m.TotalReturn,
		"annualized_return": m.AnnualizedReturn,
		"max_drawdown":      m.MaxDrawdown,
		"sharpe_ratio":      m.SharpeRatio,
		"win_rate":          m.WinRate,
		"volatility":        m.Volatility,
		"trade_count":       float64(m.TradeCount),
		"trading_days":      float64(m.TradingDays),
		"winning_days":      float64(m.WinningDays),
		"losing_days":       float64(m.LosingDays),
	}
}

// StrategyInfo contains metadata about the strategy that produced a run.
type StrategyInfo struct {
	Name       string       `yaml:"name" json:"name"`
	Parameters ParameterSet `yaml:"parameters" json:"parameters"`
}

// RunStats is the persisted summary of one backtest run.
type RunStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time    `yaml:"timestamp" json:"timestamp"`
	Symbol    string       `yaml:"symbol" json:"symbol"`
	Strategy  StrategyInfo `yaml:"strategy" json:"strategy"`
	// Strategy metrics.
	Metrics Metrics `yaml:"metrics" json:"metrics"`
	// Buy and hold metrics over the same bars.
	Benchmark      Metrics `yaml:"benchmark" json:"benchmark"`
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	FinalEquity    float64 `yaml:"final_equity" json:"final_equity"`
	TotalFees      float64 `yaml:"total_fees" json:"total_fees"`
	RiskEvents     int     `yaml:"risk_events" json:"risk_events"`
	// TradesFilePath is the path to the trades parquet file.
	TradesFilePath string `yaml:"trades_file_path" json:"trades_file_path"`
	// EquityFilePath is the path to the per-bar series parquet file.
	EquityFilePath string `yaml:"equity_file_path" json:"equity_file_path"`
	// DataPath is the path to the market data file used for this backtest.
	DataPath string `yaml:"data_path" json:"data_path"`
}

func WriteRunStats(path string, stats []RunStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal run stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run stats to file: %w", err)
	}

	return nil
}

// ReadRunStats loads a stats file written by WriteRunStats.
func ReadRunStats(path string) ([]RunStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run stats: %w", err)
	}

	var stats []RunStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run stats: %w", err)
	}

	return stats, nil
}
