package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1/cache"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// CachedDataSource wraps a DataSource and keeps query results in a cache for ttl.
// A miss, stale or absent, is served by the underlying source. Errors are not cached.
type CachedDataSource struct {
	underlying DataSource
	cache      cache.Cache
	ttl        optional.Option[time.Duration]
}

// NewCachedDataSource creates a new CachedDataSource wrapping the given DataSource.
func NewCachedDataSource(underlying DataSource, c cache.Cache, ttl optional.Option[time.Duration]) *CachedDataSource {
	return &CachedDataSource{
		underlying: underlying,
		cache:      c,
		ttl:        ttl,
	}
}

// Initialize implements DataSource. Loading new data drops every cached result.
func (c *CachedDataSource) Initialize(path string) error {
	c.cache.Reset()

	return c.underlying.Initialize(path)
}

// GetStockData implements DataSource.
func (c *CachedDataSource) GetStockData(ctx context.Context, symbol string, start optional.Option[time.Time]) ([]types.Bar, error) {
	return c.GetRange(ctx, symbol, start, optional.None[time.Time]())
}

// GetRange implements DataSource with caching.
func (c *CachedDataSource) GetRange(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	key := buildRangeKey(symbol, start, end)

	if value, ok := c.cache.Get(key, c.ttl); ok {
		if bars, ok := value.([]types.Bar); ok {
			return copyBars(bars), nil
		}
	}

	bars, err := c.underlying.GetRange(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}

	c.cache.Set(key, copyBars(bars))

	return bars, nil
}

// Invalidate drops the cached result of one query.
func (c *CachedDataSource) Invalidate(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) {
	c.cache.Clear(buildRangeKey(symbol, start, end))
}

// Symbols implements DataSource.
func (c *CachedDataSource) Symbols(ctx context.Context) ([]string, error) {
	return c.underlying.Symbols(ctx)
}

// Count implements DataSource.
func (c *CachedDataSource) Count(ctx context.Context, symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	return c.underlying.Count(ctx, symbol, start, end)
}

// Close implements DataSource.
func (c *CachedDataSource) Close() error {
	c.cache.Reset()

	return c.underlying.Close()
}

func buildRangeKey(symbol string, start optional.Option[time.Time], end optional.Option[time.Time]) string {
	return fmt.Sprintf("range:%s:%s:%s", symbol, formatBound(start), formatBound(end))
}

func formatBound(t optional.Option[time.Time]) string {
	if t.IsNone() {
		return "none"
	}

	return fmt.Sprintf("%d", t.Unwrap().UnixNano())
}

func copyBars(bars []types.Bar) []types.Bar {
	out := make([]types.Bar, len(bars))
	copy(out, bars)

	return out
}
