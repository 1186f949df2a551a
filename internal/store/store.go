// Package store keeps a history of backtest runs and their trades.
package store

import (
	"context"

	"github.com/rxtech-lab/argo-quant/internal/types"
)

// RunFilter narrows ListRuns. Zero fields match everything.
type RunFilter struct {
	Symbol   string
	Strategy string
	// Limit caps the number of runs returned, 0 means no cap.
	Limit uint64
}

// Store persists run summaries and trade rows.
type Store interface {
	// SaveRun inserts stats and its trades. Saving a run id twice replaces the earlier run.
	SaveRun(ctx context.Context, stats types.RunStats, trades []types.TradeRecord) error
	// GetRun returns one run. It fails with errors.ErrCodeDataNotFound for an unknown id.
	GetRun(ctx context.Context, id string) (types.RunStats, error)
	// ListRuns returns matching runs, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]types.RunStats, error)
	// GetTrades returns the trades of a run in the order they were saved.
	GetTrades(ctx context.Context, runID string) ([]types.TradeRecord, error)
	// DeleteRun removes a run and its trades.
	DeleteRun(ctx context.Context, id string) error
	Close() error
}
