package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-quant/internal/backtest/engine"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"go.uber.org/zap"
)

const (
	statsFileName      = "stats.yaml"
	tradesFileName     = "trades.parquet"
	equityFileName     = "equity.parquet"
	riskEventsFileName = "risk_events.parquet"
)

// ResultWriter exports a Result as parquet files through an in-memory DuckDB database.
type ResultWriter struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewResultWriter creates a new instance of ResultWriter.
func NewResultWriter(logger *logger.Logger) (*ResultWriter, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		logger.Error("Failed to open database", zap.Error(err))

		return nil, errors.Wrap(errors.ErrCodeWriteFailed, "failed to open database", err)
	}

	if err := db.Ping(); err != nil {
		logger.Error("Failed to connect to database", zap.Error(err))
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeWriteFailed, "failed to connect to database", err)
	}

	writer := &ResultWriter{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}

	if err := writer.initialize(); err != nil {
		db.Close()

		return nil, err
	}

	return writer, nil
}

func (w *ResultWriter) initialize() error {
	_, err := w.db.Exec(`
		CREATE TABLE trades (
			time TIMESTAMP,
			symbol TEXT,
			side TEXT,
			price DOUBLE,
			shares DOUBLE,
			profit DOUBLE,
			fee DOUBLE,
			position_from DOUBLE,
			position_to DOUBLE
		);
		CREATE TABLE equity (
			time TIMESTAMP,
			close DOUBLE,
			signal INTEGER,
			position DOUBLE,
			instrument_return DOUBLE,
			strategy_return DOUBLE,
			cumulative DOUBLE,
			benchmark_cumulative DOUBLE,
			drawdown DOUBLE,
			equity DOUBLE
		);
		CREATE TABLE risk_events (
			bar_index INTEGER,
			time TIMESTAMP,
			kind TEXT,
			entry_price DOUBLE,
			price DOUBLE,
			drawdown DOUBLE
		);
	`)
	if err != nil {
		w.logger.Error("Failed to create result tables", zap.Error(err))

		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to create result tables", err)
	}

	return nil
}

// Write exports result into folder, replacing any files from an earlier run,
// and returns the run summary written to stats.yaml.
func (w *ResultWriter) Write(result *engine.Result, folder string, dataPath string) (types.RunStats, error) {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return types.RunStats{}, errors.Wrap(errors.ErrCodeWriteFailed, "failed to create results folder", err)
	}

	if err := w.reset(); err != nil {
		return types.RunStats{}, err
	}

	if err := w.insertTrades(result.Trades); err != nil {
		return types.RunStats{}, err
	}

	if err := w.insertEquity(result); err != nil {
		return types.RunStats{}, err
	}

	if err := w.insertRiskEvents(result.RiskEvents); err != nil {
		return types.RunStats{}, err
	}

	tradesPath := filepath.Join(folder, tradesFileName)
	equityPath := filepath.Join(folder, equityFileName)

	for table, path := range map[string]string{
		"trades":      tradesPath,
		"equity":      equityPath,
		"risk_events": filepath.Join(folder, riskEventsFileName),
	} {
		// COPY cannot be parameterized
		query := fmt.Sprintf(`COPY %s TO '%s' (FORMAT PARQUET)`, table, strings.ReplaceAll(path, "'", "''"))
		if _, err := w.db.Exec(query); err != nil {
			return types.RunStats{}, errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to export %s", table)
		}
	}

	stats := RunStats(result, time.Now(), dataPath)
	stats.TradesFilePath = tradesPath
	stats.EquityFilePath = equityPath

	if err := types.WriteRunStats(filepath.Join(folder, statsFileName), []types.RunStats{stats}); err != nil {
		return types.RunStats{}, errors.Wrap(errors.ErrCodeWriteFailed, "failed to write stats", err)
	}

	w.logger.Debug("Results written",
		zap.String("run_id", result.ID),
		zap.String("folder", folder),
		zap.Int("trades", len(result.Trades)),
	)

	return stats, nil
}

func (w *ResultWriter) reset() error {
	for _, table := range []string{"trades", "equity", "risk_events"} {
		if _, err := w.sq.Delete(table).RunWith(w.db).Exec(); err != nil {
			return errors.Wrapf(errors.ErrCodeWriteFailed, err, "failed to clear %s", table)
		}
	}

	return nil
}

func (w *ResultWriter) insertTrades(trades []types.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	insert := w.sq.Insert("trades").Columns(
		"time", "symbol", "side", "price", "shares", "profit", "fee", "position_from", "position_to",
	)

	for _, t := range trades {
		insert = insert.Values(t.Date, t.Symbol, string(t.Side), t.Price, t.Shares, t.Profit, t.Fee, t.PositionFrom, t.PositionTo)
	}

	if _, err := insert.RunWith(w.db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert trades", err)
	}

	return nil
}

func (w *ResultWriter) insertEquity(result *engine.Result) error {
	if len(result.Bars) == 0 {
		return nil
	}

	insert := w.sq.Insert("equity").Columns(
		"time", "close", "signal", "position", "instrument_return", "strategy_return",
		"cumulative", "benchmark_cumulative", "drawdown", "equity",
	)

	for i, bar := range result.Bars {
		insert = insert.Values(
			bar.Time, bar.Close, int(result.Signals[i]), result.Positions[i], result.Returns[i], result.StrategyReturns[i],
			result.Cumulative[i], result.BenchmarkCumulative[i], result.Drawdown[i], result.Equity[i],
		)
	}

	if _, err := insert.RunWith(w.db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert equity curve", err)
	}

	return nil
}

func (w *ResultWriter) insertRiskEvents(events []types.RiskEvent) error {
	if len(events) == 0 {
		return nil
	}

	insert := w.sq.Insert("risk_events").Columns("bar_index", "time", "kind", "entry_price", "price", "drawdown")

	for _, e := range events {
		insert = insert.Values(e.Index, e.Date, string(e.Kind), e.EntryPrice, e.Price, e.Drawdown)
	}

	if _, err := insert.RunWith(w.db).Exec(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert risk events", err)
	}

	return nil
}

// Close releases the database.
func (w *ResultWriter) Close() error {
	return w.db.Close()
}

// RunStats summarizes result as the record persisted in stats.yaml.
func RunStats(result *engine.Result, timestamp time.Time, dataPath string) types.RunStats {
	return types.RunStats{
		ID:             result.ID,
		Timestamp:      timestamp,
		Symbol:         result.Symbol,
		Strategy:       result.Strategy,
		Metrics:        result.Metrics,
		Benchmark:      result.Benchmark,
		InitialCapital: result.InitialCapital,
		FinalEquity:    result.FinalEquity(),
		TotalFees:      result.TotalFees,
		RiskEvents:     len(result.RiskEvents),
		DataPath:       dataPath,
	}
}
