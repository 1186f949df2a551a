package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	timestamp TEXT NOT NULL,
	symbol TEXT NOT NULL,
	strategy TEXT NOT NULL,
	parameters TEXT NOT NULL,
	total_return REAL NOT NULL,
	sharpe_ratio REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	metrics TEXT NOT NULL,
	benchmark TEXT NOT NULL,
	initial_capital REAL NOT NULL,
	final_equity REAL NOT NULL,
	total_fees REAL NOT NULL,
	risk_events INTEGER NOT NULL,
	trades_file_path TEXT NOT NULL,
	equity_file_path TEXT NOT NULL,
	data_path TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	date TEXT NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	shares REAL NOT NULL,
	profit REAL NOT NULL,
	fee REAL NOT NULL,
	position_from REAL NOT NULL,
	position_to REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS runs_symbol_strategy ON runs(symbol, strategy);
`

var runColumns = []string{
	"id", "timestamp", "symbol", "strategy", "parameters", "total_return", "sharpe_ratio", "max_drawdown",
	"metrics", "benchmark", "initial_capital", "final_equity", "total_fees", "risk_events",
	"trades_file_path", "equity_file_path", "data_path",
}

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	db     *sql.DB
	sq     squirrel.StatementBuilderType
	logger *logger.Logger
}

// NewSQLiteStore opens (or creates) the database at dbPath. ":memory:" gives a private in-memory database.
func NewSQLiteStore(dbPath string, log *logger.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open run store", err)
	}

	// one connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to configure run store", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to create run store tables", err)
	}

	log.Debug("Run store opened", zap.String("path", dbPath))

	return &SQLiteStore{
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
		logger: log,
	}, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, stats types.RunStats, trades []types.TradeRecord) error {
	if stats.ID == "" {
		return errors.New(errors.ErrCodeInvalidParameter, "run id is empty")
	}

	parameters, err := json.Marshal(stats.Strategy.Parameters)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to encode parameters", err)
	}

	metrics, err := json.Marshal(stats.Metrics)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to encode metrics", err)
	}

	benchmark, err := json.Marshal(stats.Benchmark)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to encode benchmark", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.deleteRun(ctx, tx, stats.ID); err != nil {
		return err
	}

	_, err = s.sq.Insert("runs").Columns(runColumns...).Values(
		stats.ID,
		stats.Timestamp.UTC().Format(time.RFC3339Nano),
		stats.Symbol,
		stats.Strategy.Name,
		string(parameters),
		stats.Metrics.TotalReturn,
		stats.Metrics.SharpeRatio,
		stats.Metrics.MaxDrawdown,
		string(metrics),
		string(benchmark),
		stats.InitialCapital,
		stats.FinalEquity,
		stats.TotalFees,
		stats.RiskEvents,
		stats.TradesFilePath,
		stats.EquityFilePath,
		stats.DataPath,
	).RunWith(tx).ExecContext(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert run", err)
	}

	if len(trades) > 0 {
		insert := s.sq.Insert("trades").Columns(
			"run_id", "seq", "date", "symbol", "side", "price", "shares", "profit", "fee", "position_from", "position_to",
		)

		for i, t := range trades {
			insert = insert.Values(
				stats.ID, i, t.Date.UTC().Format(time.RFC3339Nano), t.Symbol, string(t.Side),
				t.Price, t.Shares, t.Profit, t.Fee, t.PositionFrom, t.PositionTo,
			)
		}

		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return errors.Wrap(errors.ErrCodeWriteFailed, "failed to insert trades", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit run", err)
	}

	s.logger.Debug("Run saved",
		zap.String("run_id", stats.ID),
		zap.String("strategy", stats.Strategy.Name),
		zap.Int("trades", len(trades)),
	)

	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (types.RunStats, error) {
	runs, err := s.queryRuns(ctx, s.sq.Select(runColumns...).From("runs").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return types.RunStats{}, err
	}

	if len(runs) == 0 {
		return types.RunStats{}, errors.Newf(errors.ErrCodeDataNotFound, "run %s not found", id)
	}

	return runs[0], nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]types.RunStats, error) {
	query := s.sq.Select(runColumns...).From("runs").OrderBy("timestamp DESC", "id")

	if filter.Symbol != "" {
		query = query.Where(squirrel.Eq{"symbol": filter.Symbol})
	}

	if filter.Strategy != "" {
		query = query.Where(squirrel.Eq{"strategy": filter.Strategy})
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	return s.queryRuns(ctx, query)
}

func (s *SQLiteStore) queryRuns(ctx context.Context, query squirrel.SelectBuilder) ([]types.RunStats, error) {
	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query runs", err)
	}
	defer rows.Close()

	var runs []types.RunStats

	for rows.Next() {
		var (
			run                          types.RunStats
			timestamp, parameters        string
			metrics, benchmark           string
			totalReturn, sharpe, maxDown float64
		)

		err := rows.Scan(
			&run.ID, &timestamp, &run.Symbol, &run.Strategy.Name, &parameters,
			&totalReturn, &sharpe, &maxDown, &metrics, &benchmark,
			&run.InitialCapital, &run.FinalEquity, &run.TotalFees, &run.RiskEvents,
			&run.TradesFilePath, &run.EquityFilePath, &run.DataPath,
		)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan run", err)
		}

		if run.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "run %s has a malformed timestamp", run.ID)
		}

		if err := json.Unmarshal([]byte(parameters), &run.Strategy.Parameters); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "run %s has malformed parameters", run.ID)
		}

		if err := json.Unmarshal([]byte(metrics), &run.Metrics); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "run %s has malformed metrics", run.ID)
		}

		if err := json.Unmarshal([]byte(benchmark), &run.Benchmark); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "run %s has malformed benchmark", run.ID)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read runs", err)
	}

	return runs, nil
}

func (s *SQLiteStore) GetTrades(ctx context.Context, runID string) ([]types.TradeRecord, error) {
	rows, err := s.sq.
		Select("date", "symbol", "side", "price", "shares", "profit", "fee", "position_from", "position_to").
		From("trades").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("seq").
		RunWith(s.db).
		QueryContext(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query trades", err)
	}
	defer rows.Close()

	var trades []types.TradeRecord

	for rows.Next() {
		var (
			t    types.TradeRecord
			date string
			side string
		)

		if err := rows.Scan(&date, &t.Symbol, &side, &t.Price, &t.Shares, &t.Profit, &t.Fee, &t.PositionFrom, &t.PositionTo); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan trade", err)
		}

		if t.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "trade has a malformed date", err)
		}

		t.Side = types.PurchaseType(side)
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read trades", err)
	}

	return trades, nil
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := s.deleteRun(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to commit delete", err)
	}

	return nil
}

func (s *SQLiteStore) deleteRun(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := s.sq.Delete("trades").Where(squirrel.Eq{"run_id": id}).RunWith(tx).ExecContext(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to delete trades", err)
	}

	if _, err := s.sq.Delete("runs").Where(squirrel.Eq{"id": id}).RunWith(tx).ExecContext(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeWriteFailed, "failed to delete run", err)
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
