// Package optimizer sweeps a parameter grid over one dataset and picks the set with the best Sharpe ratio.
package optimizer

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-quant/internal/backtest/engine"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Trial is the result of one parameter set.
type Trial struct {
	Parameters types.ParameterSet `json:"parameters"`
	Outcome    engine.RunOutcome  `json:"outcome"`
	Metrics    types.Metrics      `json:"metrics"`
	Error      string             `json:"error,omitempty"`
}

// Report holds every trial in grid order and the best one.
type Report struct {
	Strategy string  `json:"strategy"`
	Best     Trial   `json:"best"`
	Trials   []Trial `json:"trials"`
}

// ProgressFunc is called after each finished trial.
type ProgressFunc func(done int, total int)

type Optimizer struct {
	engine      engine.Engine
	log         *logger.Logger
	concurrency int
	onProgress  ProgressFunc
}

type Option func(*Optimizer)

// WithConcurrency bounds the number of trials run at once. Values below 1 mean GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(o *Optimizer) {
		o.concurrency = n
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(o *Optimizer) {
		o.log = log
	}
}

func WithProgress(fn ProgressFunc) Option {
	return func(o *Optimizer) {
		o.onProgress = fn
	}
}

// NewOptimizer creates an optimizer that backtests through e. e must be initialized.
func NewOptimizer(e engine.Engine, opts ...Option) *Optimizer {
	o := &Optimizer{
		engine: e,
		log:    logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.concurrency < 1 {
		o.concurrency = runtime.GOMAXPROCS(0)
	}

	return o
}

// Optimize runs base with every parameter set of grid laid over its parameters. Parameter sets
// that fail validation or find no data are reported as trials and skipped; any other engine
// error is reported the same way. Only cancellation of ctx aborts the sweep.
//
// The best trial has the highest Sharpe ratio, ties going to the lexically smallest
// parameter string so that repeated sweeps agree.
func (o *Optimizer) Optimize(ctx context.Context, base strategy.Strategy, bars []types.Bar, grid Grid) (*Report, error) {
	if base == nil {
		return nil, errors.New(errors.ErrCodeBacktestNoStrategy, "no strategy to optimize")
	}

	combinations := grid.Combinations()
	if len(combinations) == 0 {
		return nil, errors.New(errors.ErrCodeOptimizationFailed, "parameter grid is empty")
	}

	trials := make([]Trial, len(combinations))

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)

	for i, params := range combinations {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			candidate := base.WithParameters(params)
			trial := Trial{Parameters: candidate.Parameters()}

			result, err := o.engine.Run(gctx, candidate, bars, engine.LifecycleCallbacks{})
			trial.Outcome = engine.Outcome(err)

			switch {
			case err == nil:
				trial.Metrics = result.Metrics
			case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
				return err
			default:
				trial.Error = err.Error()
			}

			trials[i] = trial

			mu.Lock()
			done++
			if o.onProgress != nil {
				o.onProgress(done, len(combinations))
			}
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Strategy: base.Name(), Trials: trials}

	best, ok := bestTrial(trials)
	if !ok {
		return report, errors.Newf(errors.ErrCodeOptimizationFailed, "no parameter set of %s produced a result", base.Name())
	}

	report.Best = best

	o.log.Info("Optimization finished",
		zap.String("strategy", base.Name()),
		zap.Int("trials", len(trials)),
		zap.String("best_parameters", best.Parameters.String()),
		zap.Float64("best_sharpe", best.Metrics.SharpeRatio),
	)

	return report, nil
}

func bestTrial(trials []Trial) (Trial, bool) {
	ranked := rank(trials)
	if len(ranked) == 0 {
		return Trial{}, false
	}

	return ranked[0], true
}

// rank returns the successful trials, best first.
func rank(trials []Trial) []Trial {
	var out []Trial

	for _, t := range trials {
		if t.Outcome == engine.OutcomeSuccess {
			out = append(out, t)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Metrics.SharpeRatio != out[j].Metrics.SharpeRatio {
			return out[i].Metrics.SharpeRatio > out[j].Metrics.SharpeRatio
		}

		return out[i].Parameters.String() < out[j].Parameters.String()
	})

	return out
}

// Ranked returns the successful trials, best first.
func (r *Report) Ranked() []Trial {
	return rank(r.Trials)
}
