package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	engine_types "github.com/rxtech-lab/argo-quant/internal/backtest/engine"
	"github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/risk"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/mocks"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type BacktestEngineV1TestSuite struct {
	suite.Suite
	ctrl *gomock.Controller
}

func TestBacktestEngineV1Suite(t *testing.T) {
	suite.Run(t, new(BacktestEngineV1TestSuite))
}

func (suite *BacktestEngineV1TestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
}

func (suite *BacktestEngineV1TestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

// signalStrategy returns a mock strategy that always emits signals.
func (suite *BacktestEngineV1TestSuite) signalStrategy(signals ...types.Signal) *mocks.MockStrategy {
	s := mocks.NewMockStrategy(suite.ctrl)
	s.EXPECT().Name().Return("fixed").AnyTimes()
	s.EXPECT().Parameters().Return(types.NewParameterSet(nil)).AnyTimes()
	s.EXPECT().ValidateParameters().Return(true).AnyTimes()
	s.EXPECT().GenerateSignals(gomock.Any()).DoAndReturn(func(bars []types.Bar) (*strategy.SignalFrame, error) {
		frame := strategy.NewSignalFrame(bars)
		copy(frame.Signals, signals)

		return frame, nil
	}).AnyTimes()

	return s
}

func repeat(signal types.Signal, n int) []types.Signal {
	out := make([]types.Signal, n)
	for i := range out {
		out[i] = signal
	}

	return out
}

// stoppedStrategy carries its own stop-loss and take-profit ratios.
type stoppedStrategy struct {
	*mocks.MockStrategy
	stopLoss   float64
	takeProfit float64
}

func (s stoppedStrategy) StopLevels() (float64, float64) {
	return s.stopLoss, s.takeProfit
}

func (suite *BacktestEngineV1TestSuite) newEngine(mutate func(*BacktestEngineV1Config)) *BacktestEngineV1 {
	config := EmptyConfig()
	if mutate != nil {
		mutate(&config)
	}

	b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())
	suite.Require().NoError(b.InitializeWithConfig(config))

	return b
}

func (suite *BacktestEngineV1TestSuite) TestMACrossoverScenario() {
	bars := mocks.FromCloses("600000", []float64{100, 101, 102, 103, 102, 101, 100, 99, 98, 97})
	s := strategy.NewMACrossover(types.NewParameterSet(map[string]float64{
		"short_window": 2,
		"long_window":  4,
	}))

	result, err := suite.newEngine(nil).Run(context.Background(), s, bars, engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Equal([]types.Signal{0, 0, 0, 1, 1, -1, -1, -1, -1, -1}, result.Signals)
	suite.Equal([]float64{0, 0, 0, 0, 1, 1, -1, -1, -1, -1}, result.Positions)
	suite.InDelta(-0.0097, result.StrategyReturns[4], 1e-4)
	suite.InDelta(102.0/103.0-1, result.StrategyReturns[4], 1e-12)
	suite.Equal(0.0, result.Returns[0])
	suite.Contains(result.Columns, "ma_short")
	suite.Contains(result.Columns, "ma_long")
	suite.Equal("600000", result.Symbol)
	suite.Equal(strategy.MACrossoverName, result.Strategy.Name)
	suite.NotEmpty(result.ID)
}

func (suite *BacktestEngineV1TestSuite) TestPositionLagsSignal() {
	signals := []types.Signal{1, 1, -1, 0, 0, 1, -1, -1, 1, 0}
	bars := mocks.GenerateDaily("600000", len(signals))

	result, err := suite.newEngine(nil).Run(context.Background(), suite.signalStrategy(signals...), bars, engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Equal(0.0, result.Positions[0])

	for t := 1; t < len(bars); t++ {
		suite.Equal(signals[t-1].Float(), result.Positions[t], "bar %d", t)
	}
}

func (suite *BacktestEngineV1TestSuite) TestCumulativeRecurrence() {
	bars := mocks.GenerateDaily("600000", 120)
	signals := make([]types.Signal, len(bars))

	for i := range signals {
		signals[i] = types.Signal(i%3 - 1)
	}

	b := suite.newEngine(func(c *BacktestEngineV1Config) {
		c.InitialCapital = 50000
	})

	result, err := b.Run(context.Background(), suite.signalStrategy(signals...), bars, engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Equal(1.0, result.Cumulative[0])
	suite.Equal(1.0, result.BenchmarkCumulative[0])
	suite.Equal(50000.0, result.Equity[0])

	for t := 1; t < len(bars); t++ {
		suite.InDelta(result.Cumulative[t-1]*(1+result.StrategyReturns[t]), result.Cumulative[t], 1e-12)
		suite.InDelta(result.Positions[t]*result.Returns[t], result.StrategyReturns[t], 1e-12)
		suite.InDelta(50000*result.Cumulative[t], result.Equity[t], 1e-6)
	}

	suite.InDelta(result.Cumulative[len(bars)-1]-1, result.Metrics.TotalReturn, 1e-12)
	suite.Equal(len(bars)-1, result.Metrics.TradingDays)
	suite.Equal(len(result.Trades), result.Metrics.TradeCount)
	suite.Equal(result.FinalEquity(), result.Equity[len(bars)-1])
}

func (suite *BacktestEngineV1TestSuite) TestAlwaysLongOnRisingPrices() {
	bars := mocks.Trending("600000", 10, 0.1, 30)

	result, err := suite.newEngine(nil).Run(context.Background(), suite.signalStrategy(repeat(types.SignalLong, 30)...), bars, engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Equal(0.0, result.Metrics.MaxDrawdown)
	suite.Equal(1.0, result.Metrics.WinRate)
	suite.InDelta(bars[29].Close/bars[0].Close-1, result.Metrics.TotalReturn, 1e-9)
	suite.InDelta(result.Benchmark.TotalReturn, result.Metrics.TotalReturn, 1e-9)
	suite.Len(result.Trades, 1)
	suite.True(result.DrawdownWithinLimit)
}

func (suite *BacktestEngineV1TestSuite) TestInvalidParameters() {
	s := strategy.NewMACrossover(types.NewParameterSet(map[string]float64{
		"short_window": 10,
		"long_window":  5,
	}))

	result, err := suite.newEngine(nil).Run(context.Background(), s, mocks.GenerateDaily("600000", 50), engine_types.LifecycleCallbacks{})
	suite.Nil(result)
	suite.Equal(engine_types.OutcomeParameterInvalid, engine_types.Outcome(err))
}

func (suite *BacktestEngineV1TestSuite) TestNoBars() {
	result, err := suite.newEngine(nil).Run(context.Background(), strategy.NewMACrossover(types.ParameterSet{}), nil, engine_types.LifecycleCallbacks{})
	suite.Nil(result)
	suite.Equal(engine_types.OutcomeNoData, engine_types.Outcome(err))
}

func (suite *BacktestEngineV1TestSuite) TestStrategyFailure() {
	s := mocks.NewMockStrategy(suite.ctrl)
	s.EXPECT().Name().Return("broken").AnyTimes()
	s.EXPECT().ValidateParameters().Return(true)
	s.EXPECT().GenerateSignals(gomock.Any()).Return(nil, fmt.Errorf("boom"))

	_, err := suite.newEngine(nil).Run(context.Background(), s, mocks.GenerateDaily("600000", 10), engine_types.LifecycleCallbacks{})
	suite.EqualError(err, "boom")
	suite.Equal(engine_types.OutcomeFailed, engine_types.Outcome(err))
}

func (suite *BacktestEngineV1TestSuite) TestMisalignedSignals() {
	bars := mocks.GenerateDaily("600000", 10)

	short := mocks.NewMockStrategy(suite.ctrl)
	short.EXPECT().Name().Return("short").AnyTimes()
	short.EXPECT().Parameters().Return(types.NewParameterSet(nil)).AnyTimes()
	short.EXPECT().ValidateParameters().Return(true)
	short.EXPECT().GenerateSignals(gomock.Any()).DoAndReturn(func(bars []types.Bar) (*strategy.SignalFrame, error) {
		frame := strategy.NewSignalFrame(bars)
		frame.Signals = frame.Signals[:len(bars)-3]

		return frame, nil
	})

	_, err := suite.newEngine(nil).Run(context.Background(), short, bars, engine_types.LifecycleCallbacks{})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyRuntimeError))
	suite.Equal(engine_types.OutcomeFailed, engine_types.Outcome(err))

	empty := mocks.NewMockStrategy(suite.ctrl)
	empty.EXPECT().Name().Return("empty").AnyTimes()
	empty.EXPECT().Parameters().Return(types.NewParameterSet(nil)).AnyTimes()
	empty.EXPECT().ValidateParameters().Return(true)
	empty.EXPECT().GenerateSignals(gomock.Any()).Return(nil, nil)

	_, err = suite.newEngine(nil).Run(context.Background(), empty, bars, engine_types.LifecycleCallbacks{})
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyRuntimeError))
}

func (suite *BacktestEngineV1TestSuite) TestCallbacks() {
	bars := mocks.GenerateDaily("600000", 20)

	var (
		startID    string
		startTotal int
		progress   []int
		endID      string
		endErr     error
		endCalled  bool
	)

	onStart := engine_types.OnRunStartCallback(func(runID string, strategyName string, symbol string, total int) error {
		startID = runID
		startTotal = total

		suite.Equal("fixed", strategyName)
		suite.Equal("600000", symbol)

		return nil
	})
	onProcess := engine_types.OnProcessDataCallback(func(current int, total int) error {
		progress = append(progress, current)

		return nil
	})
	onEnd := engine_types.OnRunEndCallback(func(runID string, err error) {
		endCalled = true
		endID = runID
		endErr = err
	})

	result, err := suite.newEngine(nil).Run(context.Background(), suite.signalStrategy(repeat(types.SignalLong, 20)...), bars, engine_types.LifecycleCallbacks{
		OnRunStart:    &onStart,
		OnRunEnd:      &onEnd,
		OnProcessData: &onProcess,
	})
	suite.Require().NoError(err)

	suite.Equal(20, startTotal)
	suite.Equal(result.ID, startID)
	suite.Len(progress, 20)
	suite.Equal(20, progress[len(progress)-1])
	suite.True(endCalled)
	suite.Equal(result.ID, endID)
	suite.NoError(endErr)
}

func (suite *BacktestEngineV1TestSuite) TestCallbackAbortsRun() {
	stop := fmt.Errorf("stop")

	var endErr error

	onProcess := engine_types.OnProcessDataCallback(func(current int, total int) error {
		if current == 5 {
			return stop
		}

		return nil
	})
	onEnd := engine_types.OnRunEndCallback(func(runID string, err error) {
		endErr = err
	})

	result, err := suite.newEngine(nil).Run(context.Background(), suite.signalStrategy(), mocks.GenerateDaily("600000", 20), engine_types.LifecycleCallbacks{
		OnProcessData: &onProcess,
		OnRunEnd:      &onEnd,
	})
	suite.Nil(result)
	suite.ErrorIs(err, stop)
	suite.ErrorIs(endErr, stop)
}

func (suite *BacktestEngineV1TestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.newEngine(nil).Run(ctx, suite.signalStrategy(), mocks.GenerateDaily("600000", 600), engine_types.LifecycleCallbacks{})
	suite.ErrorIs(err, context.Canceled)
}

func (suite *BacktestEngineV1TestSuite) TestFixedRateCommission() {
	closes := []float64{100, 100, 100, 100, 100}
	b := suite.newEngine(func(c *BacktestEngineV1Config) {
		c.Broker = commission_fee.BrokerFixedRate
		c.CommissionRate = 0.001
	})

	result, err := b.Run(context.Background(), suite.signalStrategy(1, 1, -1, 0, 0), mocks.FromCloses("600000", closes), engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	// 0 -> 1, then 1 -> -1, then -1 -> 0
	suite.InDelta(-0.001, result.StrategyReturns[1], 1e-12)
	suite.InDelta(0.0, result.StrategyReturns[2], 1e-12)
	suite.InDelta(-0.002, result.StrategyReturns[3], 1e-12)
	suite.InDelta(-0.001, result.StrategyReturns[4], 1e-12)
	suite.Len(result.Trades, 3)
	suite.Positive(result.TotalFees)
	suite.Less(result.Metrics.TotalReturn, 0.0)
}

func (suite *BacktestEngineV1TestSuite) TestTradesFromLedger() {
	bars := mocks.FromCloses("600000", []float64{100, 101, 102, 103, 102, 101, 100, 99, 98, 97})
	s := strategy.NewMACrossover(types.NewParameterSet(map[string]float64{
		"short_window": 2,
		"long_window":  4,
	}))

	result, err := suite.newEngine(nil).Run(context.Background(), s, bars, engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)
	suite.Require().Len(result.Trades, 2)

	buy := result.Trades[0]
	suite.Equal(types.PurchaseTypeBuy, buy.Side)
	suite.Equal(bars[4].Time, buy.Date)
	suite.Equal(103.0, buy.Price)
	suite.Equal(970.0, buy.Shares)

	sell := result.Trades[1]
	suite.Equal(types.PurchaseTypeSell, sell.Side)
	suite.Equal(bars[6].Time, sell.Date)
	suite.Equal(101.0, sell.Price)
	suite.Equal(1940.0, sell.Shares)
	suite.InDelta(-1940.0, sell.Profit, 1e-9)
	suite.Equal(1.0, sell.PositionFrom)
	suite.Equal(-1.0, sell.PositionTo)
}

func (suite *BacktestEngineV1TestSuite) TestRiskClipsPosition() {
	b := suite.newEngine(func(c *BacktestEngineV1Config) {
		c.Risk.Enabled = true
		c.Risk.MaxPositionRatio = 0.2
	})

	result, err := b.Run(context.Background(), suite.signalStrategy(1, 1, -1, -1), mocks.GenerateDaily("600000", 4), engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Equal([]float64{0, 0.2, 0.2, -0.2}, result.Positions)
}

func (suite *BacktestEngineV1TestSuite) TestRiskEvents() {
	bars := mocks.FromCloses("600000", []float64{100, 100, 99, 97, 96, 94, 110})
	config := func(c *BacktestEngineV1Config) {
		c.Risk.Enabled = true
		c.Risk.Config = risk.Config{
			MaxPositionRatio: 1,
			MaxDrawdown:      0.05,
			StopLossRatio:    0.05,
			TakeProfitRatio:  0.15,
		}
	}

	suite.Run("manager thresholds", func() {
		result, err := suite.newEngine(config).Run(context.Background(), suite.signalStrategy(repeat(types.SignalLong, 7)...), bars, engine_types.LifecycleCallbacks{})
		suite.Require().NoError(err)
		suite.Require().Len(result.RiskEvents, 2)

		suite.Equal(types.RiskEventStopLoss, result.RiskEvents[0].Kind)
		suite.Equal(5, result.RiskEvents[0].Index)
		suite.Equal(100.0, result.RiskEvents[0].EntryPrice)
		suite.Equal(types.RiskEventDrawdownLimit, result.RiskEvents[1].Kind)
		suite.Equal(5, result.RiskEvents[1].Index)
		suite.False(result.DrawdownWithinLimit)
	})

	suite.Run("strategy stop levels", func() {
		s := stoppedStrategy{MockStrategy: suite.signalStrategy(repeat(types.SignalLong, 7)...), stopLoss: 0.02, takeProfit: 0.08}

		result, err := suite.newEngine(config).Run(context.Background(), s, bars, engine_types.LifecycleCallbacks{})
		suite.Require().NoError(err)
		suite.Require().Len(result.RiskEvents, 3)

		suite.Equal(types.RiskEventStopLoss, result.RiskEvents[0].Kind)
		suite.Equal(3, result.RiskEvents[0].Index)
		suite.Equal(types.RiskEventDrawdownLimit, result.RiskEvents[1].Kind)
		suite.Equal(types.RiskEventTakeProfit, result.RiskEvents[2].Kind)
		suite.Equal(6, result.RiskEvents[2].Index)
	})

	suite.Run("disabled", func() {
		result, err := suite.newEngine(nil).Run(context.Background(), suite.signalStrategy(repeat(types.SignalLong, 7)...), bars, engine_types.LifecycleCallbacks{})
		suite.Require().NoError(err)
		suite.Empty(result.RiskEvents)
		suite.True(result.DrawdownWithinLimit)
	})
}

func (suite *BacktestEngineV1TestSuite) TestConcurrentRuns() {
	b := suite.newEngine(func(c *BacktestEngineV1Config) {
		c.Broker = commission_fee.BrokerFixedRate
		c.CommissionRate = 0.0005
	})
	bars := mocks.GenerateDaily("600000", 300)
	s := strategy.NewMACrossover(types.ParameterSet{})

	expected, err := b.Run(context.Background(), s, bars, engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	var wg sync.WaitGroup

	results := make([]*engine_types.Result, 8)
	errs := make([]error, 8)

	for i := range results {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			results[i], errs[i] = b.Run(context.Background(), s, bars, engine_types.LifecycleCallbacks{})
		}(i)
	}

	wg.Wait()

	for i := range results {
		suite.Require().NoError(errs[i])
		suite.Equal(expected.Cumulative, results[i].Cumulative)
		suite.Equal(expected.Trades, results[i].Trades)
	}
}

func (suite *BacktestEngineV1TestSuite) TestRunWithDataSource() {
	start := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	b := suite.newEngine(func(c *BacktestEngineV1Config) {
		c.Symbol = "600000"
		c.StartTime = optional.Some(start)
		c.EndTime = optional.Some(end)
	})

	suite.Run("loads the configured window", func() {
		source := mocks.NewMockDataSource(suite.ctrl)
		source.EXPECT().
			GetRange(gomock.Any(), "600000", optional.Some(start), optional.Some(end)).
			Return(mocks.GenerateDaily("600000", 40), nil)

		result, err := b.RunWithDataSource(context.Background(), strategy.NewMACrossover(types.ParameterSet{}), source, engine_types.LifecycleCallbacks{})
		suite.Require().NoError(err)
		suite.Len(result.Bars, 40)
	})

	suite.Run("no data", func() {
		source := mocks.NewMockDataSource(suite.ctrl)
		source.EXPECT().
			GetRange(gomock.Any(), "600000", gomock.Any(), gomock.Any()).
			Return(nil, errors.New(errors.ErrCodeNoDataFound, "no rows"))

		_, err := b.RunWithDataSource(context.Background(), strategy.NewMACrossover(types.ParameterSet{}), source, engine_types.LifecycleCallbacks{})
		suite.Equal(engine_types.OutcomeNoData, engine_types.Outcome(err))
	})

	suite.Run("in memory source", func() {
		source := datasource.NewInMemoryDataSource(mocks.GenerateDaily("600000", 100))

		result, err := b.RunWithDataSource(context.Background(), strategy.NewMACrossover(types.ParameterSet{}), source, engine_types.LifecycleCallbacks{})
		suite.Require().NoError(err)
		suite.False(result.Bars[0].Time.Before(start))
		suite.False(result.Bars[len(result.Bars)-1].Time.After(end))
	})

	suite.Run("nil source", func() {
		_, err := b.RunWithDataSource(context.Background(), strategy.NewMACrossover(types.ParameterSet{}), nil, engine_types.LifecycleCallbacks{})
		suite.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
	})
}

func (suite *BacktestEngineV1TestSuite) TestWriteResults() {
	b := suite.newEngine(func(c *BacktestEngineV1Config) {
		c.Risk.Enabled = true
	})
	bars := mocks.GenerateDaily("600000", 120)

	result, err := b.Run(context.Background(), strategy.NewMACrossover(types.ParameterSet{}), bars, engine_types.LifecycleCallbacks{})
	suite.Require().NoError(err)

	folder := ResultFolder(suite.T().TempDir(), result)
	stats, err := b.WriteResultsWithDataPath(result, folder, "data/600000.parquet")
	suite.Require().NoError(err)

	suite.FileExists(filepath.Join(folder, tradesFileName))
	suite.FileExists(filepath.Join(folder, equityFileName))
	suite.FileExists(filepath.Join(folder, riskEventsFileName))

	read, err := types.ReadRunStats(filepath.Join(folder, statsFileName))
	suite.Require().NoError(err)
	suite.Require().Len(read, 1)
	suite.Equal(result.ID, read[0].ID)
	suite.Equal(stats.TradesFilePath, read[0].TradesFilePath)
	suite.Equal("data/600000.parquet", read[0].DataPath)
	suite.InDelta(result.FinalEquity(), read[0].FinalEquity, 1e-6)
	suite.Equal(len(result.Trades), read[0].Metrics.TradeCount)

	suite.Error(b.WriteResults(nil, folder))
}

func (suite *BacktestEngineV1TestSuite) TestInitialize() {
	b := NewBacktestEngineV1WithLogger(logger.NewNopLogger())

	err := b.Initialize(`
symbol: "600000"
initial_capital: 20000
broker: fixed_rate
commission_rate: 0.001
risk:
  enabled: true
  max_position_ratio: 0.5
`)
	suite.Require().NoError(err)

	config := b.Config()
	suite.Equal("600000", config.Symbol)
	suite.Equal(20000.0, config.InitialCapital)
	suite.True(config.Risk.Enabled)
	suite.Equal(0.5, config.Risk.MaxPositionRatio)

	err = b.Initialize("initial_capital: -1")
	suite.True(errors.HasCode(err, errors.ErrCodeBacktestConfigError))
	suite.Equal(20000.0, b.Config().InitialCapital)
}

func (suite *BacktestEngineV1TestSuite) TestGetConfigSchema() {
	schema, err := NewBacktestEngineV1().GetConfigSchema()
	suite.Require().NoError(err)
	suite.Contains(schema, "backtest-engine-v1-config")
	suite.Contains(schema, "commission_rate")
}
