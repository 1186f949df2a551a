package strategy

import (
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// MomentumName is the registered name of the momentum variant.
const MomentumName = "momentum"

// Momentum trades the standardized trailing return.
//
// The trailing return over lookback bars is averaged over another lookback bars and
// standardized against its own history up to each bar. The raw signal is long above
// +momentum_threshold, short below -momentum_threshold and flat in between. Once a
// position opens it is held for holding_period bars before being re-evaluated.
type Momentum struct {
	base
}

// MomentumDefaults returns the default parameters.
func MomentumDefaults() types.ParameterSet {
	return types.NewParameterSet(map[string]float64{
		"lookback":           20,
		"holding_period":     5,
		"momentum_threshold": 0.5,
	})
}

// NewMomentum creates the variant with params laid over the defaults.
func NewMomentum(params types.ParameterSet) Strategy {
	return &Momentum{base{name: MomentumName, params: MomentumDefaults().Merge(params)}}
}

func (s *Momentum) WithParameters(params types.ParameterSet) Strategy {
	return NewMomentum(s.params.Merge(params))
}

func (s *Momentum) ValidateParameters() bool {
	return s.positive("lookback", "holding_period", "momentum_threshold") &&
		s.whole("lookback", "holding_period") &&
		s.params.Int("lookback") >= 1 &&
		s.params.Int("holding_period") >= 1
}

func (s *Momentum) Lookback() int {
	return 2 * s.params.Int("lookback")
}

func (s *Momentum) GenerateSignals(bars []types.Bar) (*SignalFrame, error) {
	if !s.ValidateParameters() {
		return nil, s.invalid()
	}

	lookback := s.params.Int("lookback")
	threshold := s.params.Float("momentum_threshold")

	returns := indicator.PctChange(types.Closes(bars), lookback)
	momentum := indicator.SMA(returns, lookback)
	z := indicator.ExpandingZScore(momentum)

	raw := signalsFrom(len(bars), func(i int) types.Signal {
		switch {
		case z[i] > threshold:
			return types.SignalLong
		case z[i] < -threshold:
			return types.SignalShort
		default:
			return types.SignalFlat
		}
	}, z)

	frame := NewSignalFrame(bars)
	frame.AddColumn("returns", returns)
	frame.AddColumn("momentum", momentum)
	frame.AddColumn("momentum_z", z)
	frame.Signals = holdFor(raw, s.params.Int("holding_period"))

	return frame, nil
}

// holdFor keeps every opened position for period bars. Flat bars are re-evaluated every bar.
func holdFor(raw []types.Signal, period int) []types.Signal {
	if period <= 1 {
		return raw
	}

	out := make([]types.Signal, len(raw))
	current := types.SignalFlat
	held := 0

	for i, signal := range raw {
		if current != types.SignalFlat && held < period {
			held++
			out[i] = current

			continue
		}

		current = signal
		held = 0

		if current != types.SignalFlat {
			held = 1
		}

		out[i] = current
	}

	return out
}
