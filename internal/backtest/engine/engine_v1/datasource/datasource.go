package datasource

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// DataSource supplies daily bars. Every method that returns bars returns them sorted by time.
// A query that matches nothing returns an error carrying errors.ErrCodeNoDataFound,
// and an unknown symbol returns errors.ErrCodeDataNotFound.
type DataSource interface {
	// Initialize loads the data at path. Parquet and CSV files are supported, globs are allowed.
	Initialize(path string) error
	// GetStockData returns every bar of symbol at or after start.
	GetStockData(ctx context.Context, symbol string, start optional.Option[time.Time]) ([]types.Bar, error)
	// GetRange returns the bars of symbol in [start, end].
	GetRange(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error)
	// Symbols lists the symbols available, sorted.
	Symbols(ctx context.Context) ([]string, error)
	// Count returns the number of bars of symbol in [start, end].
	Count(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases any resources.
	Close() error
}
