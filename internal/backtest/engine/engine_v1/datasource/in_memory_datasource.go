package datasource

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// InMemoryDataSource serves bars held in memory, indexed by symbol.
type InMemoryDataSource struct {
	loader func(path string) ([]types.Bar, error)
	closer func() error

	mu   sync.RWMutex
	data map[string][]types.Bar
}

// NewInMemoryDataSource creates a source holding bars. Bars are grouped by symbol and sorted by time.
func NewInMemoryDataSource(bars []types.Bar) *InMemoryDataSource {
	ds := &InMemoryDataSource{data: make(map[string][]types.Bar)}
	ds.Load(bars)

	return ds
}

// NewPreloadedDataSource creates a source that reads every bar of underlying's file into memory on
// Initialize, so repeated queries do not touch the file again.
func NewPreloadedDataSource(underlying DataSource) *InMemoryDataSource {
	return &InMemoryDataSource{
		data: make(map[string][]types.Bar),
		loader: func(path string) ([]types.Bar, error) {
			if err := underlying.Initialize(path); err != nil {
				return nil, err
			}

			return underlying.GetRange(context.Background(), "", optional.None[time.Time](), optional.None[time.Time]())
		},
		closer: underlying.Close,
	}
}

// Load replaces the held bars.
func (ds *InMemoryDataSource) Load(bars []types.Bar) {
	data := make(map[string][]types.Bar)
	for _, bar := range bars {
		data[bar.Symbol] = append(data[bar.Symbol], bar)
	}

	for symbol := range data {
		sort.SliceStable(data[symbol], func(i, j int) bool {
			return data[symbol][i].Time.Before(data[symbol][j].Time)
		})
	}

	ds.mu.Lock()
	ds.data = data
	ds.mu.Unlock()
}

// Initialize implements DataSource. Without an underlying source it is a no-op.
func (ds *InMemoryDataSource) Initialize(path string) error {
	if ds.loader == nil {
		return nil
	}

	bars, err := ds.loader(path)
	if err != nil {
		return err
	}

	ds.Load(bars)

	return nil
}

// GetStockData implements DataSource.
func (ds *InMemoryDataSource) GetStockData(ctx context.Context, symbol string, start optional.Option[time.Time]) ([]types.Bar, error) {
	return ds.GetRange(ctx, symbol, start, optional.None[time.Time]())
}

// GetRange implements DataSource. An empty symbol matches the only symbol held.
func (ds *InMemoryDataSource) GetRange(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := ds.series(symbol)
	if err != nil {
		return nil, err
	}

	lo := 0
	if start.IsSome() {
		lo = sort.Search(len(all), func(i int) bool { return !all[i].Time.Before(start.Unwrap()) })
	}

	hi := len(all)
	if end.IsSome() {
		hi = sort.Search(len(all), func(i int) bool { return all[i].Time.After(end.Unwrap()) })
	}

	if lo >= hi {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars for %s in the requested range", symbol)
	}

	out := make([]types.Bar, hi-lo)
	copy(out, all[lo:hi])

	return out, nil
}

func (ds *InMemoryDataSource) series(symbol string) ([]types.Bar, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if symbol == "" && len(ds.data) == 1 {
		for _, bars := range ds.data {
			return bars, nil
		}
	}

	bars, ok := ds.data[symbol]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeDataNotFound, "symbol %s not found", symbol)
	}

	return bars, nil
}

// Symbols implements DataSource.
func (ds *InMemoryDataSource) Symbols(_ context.Context) ([]string, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	symbols := make([]string, 0, len(ds.data))
	for symbol := range ds.data {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols, nil
}

// Count implements DataSource.
func (ds *InMemoryDataSource) Count(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	bars, err := ds.GetRange(ctx, symbol, start, end)
	if errors.HasCode(err, errors.ErrCodeNoDataFound) {
		return 0, nil
	}

	return len(bars), err
}

// Close implements DataSource. A preloaded source also closes its underlying source.
func (ds *InMemoryDataSource) Close() error {
	if ds.closer == nil {
		return nil
	}

	return ds.closer()
}
