// Package strategy turns bars into tri-state signal series.
//
// Every variant holds an immutable types.ParameterSet. GenerateSignals is a pure
// function of the bars and those parameters, so one Strategy value may be shared
// across goroutines. Changing parameters goes through WithParameters, which
// returns a new Strategy.
package strategy

import (
	"math"

	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Strategy generates one signal per bar.
type Strategy interface {
	// Name returns the registered name of the variant, e.g. "ma_crossover"
	Name() string
	// Parameters returns the parameter set the strategy was built with
	Parameters() types.ParameterSet
	// WithParameters returns a new strategy of the same variant with params laid over the defaults
	WithParameters(params types.ParameterSet) Strategy
	// ValidateParameters reports whether every parameter is positive and the variant constraints hold
	ValidateParameters() bool
	// Lookback is the number of bars the largest indicator needs
	Lookback() int
	// GenerateSignals computes the signal series and the intermediate columns for bars
	GenerateSignals(bars []types.Bar) (*SignalFrame, error)
}

// StopLevels is implemented by strategies that carry their own stop-loss and
// take-profit ratios. The engine hands them to the risk manager.
type StopLevels interface {
	StopLevels() (stopLoss float64, takeProfit float64)
}

// RunStrategy validates the strategy parameters and generates signals for bars.
// It fails fast with ErrCodeInvalidParameter before any computation when the
// parameters are invalid, and with ErrCodeNoDataFound when bars is empty. A frame
// whose bars or signals do not line up with bars fails with ErrCodeStrategyRuntimeError.
func RunStrategy(s Strategy, bars []types.Bar) (*SignalFrame, error) {
	if s == nil {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "strategy is nil")
	}

	if !s.ValidateParameters() {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "invalid parameters for strategy %s: %s", s.Name(), s.Parameters())
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars to run strategy %s on", s.Name())
	}

	if err := types.ValidateBars(bars); err != nil {
		return nil, err
	}

	frame, err := s.GenerateSignals(bars)
	if err != nil {
		return nil, err
	}

	if frame == nil {
		return nil, errors.Newf(errors.ErrCodeStrategyRuntimeError, "strategy %s returned no signals", s.Name())
	}

	if len(frame.Bars) != len(bars) || len(frame.Signals) != len(bars) {
		return nil, errors.Newf(errors.ErrCodeStrategyRuntimeError,
			"strategy %s returned %d signals for %d bars (frame has %d bars)", s.Name(), len(frame.Signals), len(bars), len(frame.Bars))
	}

	return frame, nil
}

// base carries the name and parameters every variant shares.
type base struct {
	name   string
	params types.ParameterSet
}

func (b base) Name() string {
	return b.name
}

func (b base) Parameters() types.ParameterSet {
	return b.params
}

// positive reports whether every required parameter is present and every parameter is positive.
func (b base) positive(required ...string) bool {
	if b.params.Require(required...) != nil {
		return false
	}

	return b.params.AllPositive()
}

func (b base) invalid() error {
	return errors.Newf(errors.ErrCodeInvalidParameter, "invalid parameters for strategy %s: %s", b.name, b.params)
}

// whole reports whether every named parameter is a whole number. Windows and periods
// are used as bar counts.
func (b base) whole(names ...string) bool {
	for _, name := range names {
		v := b.params.Float(name)
		if v != math.Trunc(v) {
			return false
		}
	}

	return true
}

// fraction reports whether the named parameter lies in (0, 1].
func (b base) fraction(name string) bool {
	v := b.params.Float(name)

	return v > 0 && v <= 1
}

// signalsFrom applies rule to every bar index. Indices where any of the
// guard series is undefined stay flat.
func signalsFrom(n int, rule func(i int) types.Signal, guards ...[]float64) []types.Signal {
	signals := make([]types.Signal, n)

	for i := 0; i < n; i++ {
		defined := true

		for _, g := range guards {
			if !indicator.IsDefined(g[i]) {
				defined = false

				break
			}
		}

		if defined {
			signals[i] = rule(i)
		}
	}

	return signals
}

// targetSize scales each signal by size.
func targetSize(signals []types.Signal, size float64) []float64 {
	out := make([]float64, len(signals))
	for i, s := range signals {
		out[i] = s.Float() * size
	}

	return out
}
