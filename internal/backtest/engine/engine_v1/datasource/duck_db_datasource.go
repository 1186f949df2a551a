package datasource

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"go.uber.org/zap"
)

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType

	// columns present in the loaded file
	hasSymbol bool
	hasAmount bool
	ready     bool
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// Use ":memory:" or "" for an in-memory database.
// This is distinct from Initialize() which loads market data into the database.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	if path == ":memory:" {
		path = ""
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	if path == "" {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "data path is empty")
	}

	_, err := d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to drop existing view", err)
	}

	reader := "read_parquet"
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		reader = "read_csv_auto"
	}

	// CREATE VIEW cannot be parameterized
	query := fmt.Sprintf(`CREATE VIEW market_data AS SELECT * FROM %s('%s');`,
		reader, strings.ReplaceAll(path, "'", "''"))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to load market data from %s", path)
	}

	columns, err := d.columns()
	if err != nil {
		return err
	}

	for _, name := range []string{"time", "open", "high", "low", "close", "volume"} {
		if !columns[name] {
			return errors.Newf(errors.ErrCodeDataSourceUnavailable, "market data %s has no %s column", path, name)
		}
	}

	d.hasSymbol = columns["symbol"]
	d.hasAmount = columns["amount"]
	d.ready = true

	d.logger.Debug("Market data loaded",
		zap.String("reader", reader),
		zap.Bool("symbol_column", d.hasSymbol),
		zap.Bool("amount_column", d.hasAmount),
	)

	return nil
}

func (d *DuckDBDataSource) columns() (map[string]bool, error) {
	rows, err := d.db.Query(`SELECT * FROM market_data LIMIT 0`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe market data", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe market data", err)
	}

	columns := make(map[string]bool, len(names))
	for _, name := range names {
		columns[strings.ToLower(name)] = true
	}

	return columns, nil
}

func (d *DuckDBDataSource) where(builder squirrel.SelectBuilder, symbol string, start, end optional.Option[time.Time]) squirrel.SelectBuilder {
	if d.hasSymbol && symbol != "" {
		builder = builder.Where(squirrel.Eq{"symbol": symbol})
	}

	if start.IsSome() {
		builder = builder.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return builder
}

// GetStockData implements DataSource.
func (d *DuckDBDataSource) GetStockData(ctx context.Context, symbol string, start optional.Option[time.Time]) ([]types.Bar, error) {
	return d.GetRange(ctx, symbol, start, optional.None[time.Time]())
}

// GetRange implements DataSource.
func (d *DuckDBDataSource) GetRange(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	if !d.ready {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized")
	}

	if err := d.checkSymbol(ctx, symbol); err != nil {
		return nil, err
	}

	symbolColumn := "symbol"
	if !d.hasSymbol {
		symbolColumn = "'' AS symbol"
	}

	amountColumn := "CAST(COALESCE(amount, 0) AS DOUBLE) AS amount"
	if !d.hasAmount {
		amountColumn = "CAST(0 AS DOUBLE) AS amount"
	}

	// DECIMAL columns do not scan into float64
	builder := d.sq.Select("time", symbolColumn,
		"CAST(open AS DOUBLE) AS open", "CAST(high AS DOUBLE) AS high", "CAST(low AS DOUBLE) AS low",
		"CAST(close AS DOUBLE) AS close", "CAST(volume AS DOUBLE) AS volume", amountColumn).
		From("market_data").
		OrderBy("time ASC")

	query, args, err := d.where(builder, symbol, start, end).ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err)
	}
	defer rows.Close()

	bars := make([]types.Bar, 0, 256)

	for rows.Next() {
		var bar types.Bar

		if err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &bar.Amount); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan row", err)
		}

		if bar.Symbol == "" {
			bar.Symbol = symbol
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "error iterating rows", err)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars for %s in the requested range", symbol)
	}

	return bars, nil
}

func (d *DuckDBDataSource) checkSymbol(ctx context.Context, symbol string) error {
	if !d.hasSymbol || symbol == "" {
		return nil
	}

	symbols, err := d.Symbols(ctx)
	if err != nil {
		return err
	}

	for _, s := range symbols {
		if s == symbol {
			return nil
		}
	}

	return errors.Newf(errors.ErrCodeDataNotFound, "symbol %s not found", symbol)
}

// Symbols implements DataSource. A file without a symbol column has no symbols.
func (d *DuckDBDataSource) Symbols(ctx context.Context) ([]string, error) {
	if !d.ready {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized")
	}

	if !d.hasSymbol {
		return []string{}, nil
	}

	query, args, err := d.sq.Select("DISTINCT symbol").From("market_data").OrderBy("symbol").ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query symbols", err)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if !d.ready {
		return 0, errors.New(errors.ErrCodeDataSourceUnavailable, "data source is not initialized")
	}

	query, args, err := d.where(d.sq.Select("COUNT(*)").From("market_data"), symbol, start, end).ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	var count int
	if err := d.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count market data", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
