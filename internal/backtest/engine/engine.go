package engine

import (
	"context"

	"github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Lifecycle callback types for backtest phases
// All callbacks with error return can abort execution if they return an error

// OnRunStartCallback is called when a run begins.
// runID is a unique identifier for this run, generated before processing starts.
type OnRunStartCallback func(runID string, strategyName string, symbol string, totalDataPoints int) error

// OnRunEndCallback is called when a run ends (always called via defer). err is nil on success.
type OnRunEndCallback func(runID string, err error)

// OnProcessDataCallback is called for each bar processed.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the backtest engine.
// All fields are pointers - nil means no callback will be invoked.
type LifecycleCallbacks struct {
	OnRunStart    *OnRunStartCallback
	OnRunEnd      *OnRunEndCallback
	OnProcessData *OnProcessDataCallback
}

type Engine interface {
	// Initialize the engine with the given yaml configuration.
	Initialize(config string) error
	// Run backtests strategy over bars. bars must be sorted by time.
	// Engines are safe for concurrent Run calls once initialized.
	Run(ctx context.Context, s strategy.Strategy, bars []types.Bar, callbacks LifecycleCallbacks) (*Result, error)
	// RunWithDataSource loads the configured symbol and time window from source and runs strategy on it.
	RunWithDataSource(ctx context.Context, s strategy.Strategy, source datasource.DataSource, callbacks LifecycleCallbacks) (*Result, error)
	// WriteResults saves result to folder as stats.yaml, trades.parquet and equity.parquet.
	WriteResults(result *Result, folder string) error
	// GetConfigSchema returns the schema of the engine configuration
	GetConfigSchema() (string, error)
}

// Result is the outcome of one backtest run. Every per-bar slice is aligned with Bars.
type Result struct {
	ID       string             `json:"id"`
	Symbol   string             `json:"symbol"`
	Strategy types.StrategyInfo `json:"strategy"`
	Bars     []types.Bar        `json:"bars"`
	// Signals is the strategy decision per bar.
	Signals []types.Signal `json:"signals"`
	// Columns are the intermediate series the strategy computed.
	Columns map[string][]float64 `json:"columns"`
	// Positions is the exposure held over each bar: the previous signal, clipped.
	Positions []float64 `json:"positions"`
	// Returns is the close-to-close instrument return. Returns[0] is 0.
	Returns []float64 `json:"returns"`
	// StrategyReturns is Positions[t]*Returns[t] net of commission.
	StrategyReturns     []float64 `json:"strategy_returns"`
	Cumulative          []float64 `json:"cumulative"`
	BenchmarkCumulative []float64 `json:"benchmark_cumulative"`
	Drawdown            []float64 `json:"drawdown"`
	Equity              []float64 `json:"equity"`

	Trades     []types.TradeRecord `json:"trades"`
	RiskEvents []types.RiskEvent   `json:"risk_events"`

	Metrics        types.Metrics `json:"metrics"`
	Benchmark      types.Metrics `json:"benchmark"`
	InitialCapital float64       `json:"initial_capital"`
	TotalFees      float64       `json:"total_fees"`
	// DrawdownWithinLimit is the risk manager's drawdown check. Always true when risk is disabled.
	DrawdownWithinLimit bool `json:"drawdown_within_limit"`
}

// FinalEquity is the equity after the last bar.
func (r *Result) FinalEquity() float64 {
	if len(r.Equity) == 0 {
		return r.InitialCapital
	}

	return r.Equity[len(r.Equity)-1]
}

type RunOutcome string

const (
	OutcomeSuccess          RunOutcome = "success"
	OutcomeParameterInvalid RunOutcome = "parameter_invalid"
	OutcomeNoData           RunOutcome = "no_data"
	OutcomeFailed           RunOutcome = "failed"
)

// Outcome maps the error returned by Run to a flat status.
func Outcome(err error) RunOutcome {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.IsParameterInvalid(err):
		return OutcomeParameterInvalid
	case errors.IsNoData(err):
		return OutcomeNoData
	default:
		return OutcomeFailed
	}
}
