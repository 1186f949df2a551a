package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-quant/internal/backtest/engine"
	"github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/performance"
	"github.com/rxtech-lab/argo-quant/internal/risk"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"go.uber.org/zap"
)

// contextCheckInterval is how many bars are processed between cancellation checks.
const contextCheckInterval = 256

type BacktestEngineV1 struct {
	mu            sync.RWMutex
	config        BacktestEngineV1Config
	log           *logger.Logger
	commissionFee commission_fee.CommissionFee
	riskManager   *risk.Manager
	analyzer      performance.Analyzer
}

// NewBacktestEngineV1 creates an engine with EmptyConfig. Initialize replaces the config
// and creates a production logger.
func NewBacktestEngineV1() engine.Engine {
	return NewBacktestEngineV1WithLogger(nil)
}

// NewBacktestEngineV1WithLogger creates an engine that logs to log. With a nil log the
// engine is silent until Initialize creates a production logger.
func NewBacktestEngineV1WithLogger(log *logger.Logger) *BacktestEngineV1 {
	b := &BacktestEngineV1{
		log:      log,
		analyzer: performance.NewAnalyzer(),
	}

	// EmptyConfig is always valid
	_ = b.apply(EmptyConfig())

	return b
}

// Initialize implements engine.Engine.
func (b *BacktestEngineV1) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	if b.log == nil {
		log, err := logger.NewLogger()
		if err != nil {
			return errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to create logger", err)
		}

		b.log = log
	}

	if err := b.InitializeWithConfig(parsed); err != nil {
		return err
	}

	b.logger().Debug("Backtest engine initialized",
		zap.String("config", config),
	)

	return nil
}

// InitializeWithConfig validates and applies a config built in code.
func (b *BacktestEngineV1) InitializeWithConfig(config BacktestEngineV1Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	return b.apply(config)
}

func (b *BacktestEngineV1) apply(config BacktestEngineV1Config) error {
	var manager *risk.Manager

	if config.Risk.Enabled {
		m, err := risk.NewManager(config.Risk.Config)
		if err != nil {
			return err
		}

		manager = m
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.config = config
	b.commissionFee = commission_fee.GetCommissionFeeHandler(config.Broker, config.CommissionRate)
	b.riskManager = manager

	return nil
}

func (b *BacktestEngineV1) logger() *logger.Logger {
	if b.log == nil {
		return logger.NewNopLogger()
	}

	return b.log
}

// Config returns the applied configuration.
func (b *BacktestEngineV1) Config() BacktestEngineV1Config {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.config
}

// Run implements engine.Engine.
//
// The position held over bar t is the signal of bar t-1 clipped to the position limit, and
// position[0] is 0. The strategy return of bar t is position[t] times the close-to-close
// return of bar t, less the commission of moving from position[t-1] to position[t].
func (b *BacktestEngineV1) Run(ctx context.Context, s strategy.Strategy, bars []types.Bar, callbacks engine.LifecycleCallbacks) (result *engine.Result, err error) {
	runID := uuid.New().String()

	if callbacks.OnRunEnd != nil {
		defer func() {
			(*callbacks.OnRunEnd)(runID, err)
		}()
	}

	log := b.logger()

	b.mu.RLock()
	config := b.config
	fee := b.commissionFee
	manager := b.riskManager
	b.mu.RUnlock()

	frame, err := strategy.RunStrategy(s, bars)
	if err != nil {
		log.Warn("Strategy produced no result",
			zap.String("run_id", runID),
			zap.Int("bars", len(bars)),
			zap.Error(err),
		)

		return nil, err
	}

	n := frame.Len()

	symbol := config.Symbol
	if symbol == "" {
		symbol = frame.Bars[0].Symbol
	}

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(runID, s.Name(), symbol, n); err != nil {
			return nil, err
		}
	}

	if manager != nil {
		if stops, ok := s.(strategy.StopLevels); ok {
			manager = manager.WithStops(stops.StopLevels())
		}
	}

	limit := config.MaxPositionSize
	if manager != nil && manager.PositionLimit() < limit {
		limit = manager.PositionLimit()
	}

	log.Debug("Running backtest",
		zap.String("run_id", runID),
		zap.String("strategy", s.Name()),
		zap.String("parameters", s.Parameters().String()),
		zap.String("symbol", symbol),
		zap.String("start", timeOrZero(frame.Bars[0].Time)),
		zap.String("end", timeOrZero(frame.Bars[n-1].Time)),
		zap.Float64("position_limit", limit),
	)

	closes := types.Closes(frame.Bars)
	returns := instrumentReturns(closes)
	positions := make([]float64, n)
	strategyReturns := make([]float64, n)
	cumulative := make([]float64, n)
	equity := make([]float64, n)

	cumulative[0] = 1
	equity[0] = config.InitialCapital

	ledger := newTradeLedger(symbol, fee, config.DecimalPrecision)
	tracker := newRiskTracker(manager)

	if err := reportProgress(callbacks, 1, n); err != nil {
		return nil, err
	}

	for t := 1; t < n; t++ {
		if t%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		positions[t] = risk.ClipPosition(frame.Signals[t-1].Float(), limit)

		charge := 0.0
		if positions[t] != positions[t-1] {
			charge = ledger.rebalance(frame.Bars[t].Time, closes[t-1], equity[t-1], positions[t-1], positions[t])
		}

		strategyReturns[t] = positions[t]*returns[t] - charge
		cumulative[t] = cumulative[t-1] * (1 + strategyReturns[t])
		equity[t] = config.InitialCapital * cumulative[t]

		tracker.observe(t, frame.Bars[t].Time, positions[t], closes[t-1], closes[t])

		if err := reportProgress(callbacks, t+1, n); err != nil {
			return nil, err
		}
	}

	drawdown := performance.DrawdownSeries(cumulative)
	benchmark := performance.CumulativeCurve(returns)
	tracker.observeDrawdown(frame.Bars, drawdown)

	metrics := b.analyzer.CalculateMetrics(strategyReturns[1:], cumulative)
	metrics.TradeCount = len(ledger.Trades())

	benchmarkMetrics := b.analyzer.CalculateMetrics(returns[1:], benchmark)

	result = &engine.Result{
		ID:     runID,
		Symbol: symbol,
		Strategy: types.StrategyInfo{
			Name:       s.Name(),
			Parameters: s.Parameters(),
		},
		Bars:                frame.Bars,
		Signals:             frame.Signals,
		Columns:             frame.Columns,
		Positions:           positions,
		Returns:             returns,
		StrategyReturns:     strategyReturns,
		Cumulative:          cumulative,
		BenchmarkCumulative: benchmark,
		Drawdown:            drawdown,
		Equity:              equity,
		Trades:              ledger.Trades(),
		RiskEvents:          tracker.Events(),
		Metrics:             metrics,
		Benchmark:           benchmarkMetrics,
		InitialCapital:      config.InitialCapital,
		TotalFees:           ledger.TotalFees(),
		DrawdownWithinLimit: manager == nil || manager.CheckDrawdown(cumulative),
	}

	log.Info("Backtest finished",
		zap.String("run_id", runID),
		zap.String("strategy", s.Name()),
		zap.String("symbol", symbol),
		zap.Int("bars", n),
		zap.Int("trades", metrics.TradeCount),
		zap.Float64("total_return", metrics.TotalReturn),
		zap.Float64("sharpe_ratio", metrics.SharpeRatio),
		zap.Int("risk_events", len(result.RiskEvents)),
	)

	return result, nil
}

func reportProgress(callbacks engine.LifecycleCallbacks, current, total int) error {
	if callbacks.OnProcessData == nil {
		return nil
	}

	return (*callbacks.OnProcessData)(current, total)
}

// RunWithDataSource implements engine.Engine.
func (b *BacktestEngineV1) RunWithDataSource(ctx context.Context, s strategy.Strategy, source datasource.DataSource, callbacks engine.LifecycleCallbacks) (*engine.Result, error) {
	if source == nil {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "no data source set")
	}

	config := b.Config()
	log := b.logger()

	bars, err := source.GetRange(ctx, config.Symbol, config.StartTime, config.EndTime)
	if err != nil {
		log.Warn("No market data",
			zap.String("symbol", config.Symbol),
			zap.Error(err),
		)

		return nil, err
	}

	return b.Run(ctx, s, bars, callbacks)
}

// WriteResults implements engine.Engine.
func (b *BacktestEngineV1) WriteResults(result *engine.Result, folder string) error {
	_, err := b.WriteResultsWithDataPath(result, folder, "")

	return err
}

// WriteResultsWithDataPath writes result like WriteResults and records dataPath in stats.yaml.
func (b *BacktestEngineV1) WriteResultsWithDataPath(result *engine.Result, folder string, dataPath string) (types.RunStats, error) {
	if result == nil {
		return types.RunStats{}, errors.New(errors.ErrCodeWriteFailed, "result is nil")
	}

	writer, err := NewResultWriter(b.logger())
	if err != nil {
		return types.RunStats{}, err
	}
	defer writer.Close()

	return writer.Write(result, folder, dataPath)
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	config := b.Config()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "failed to generate schema", err)
	}

	return schema, nil
}
