package strategy

import (
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// MACrossoverName is the registered name of the moving average crossover variant.
const MACrossoverName = "ma_crossover"

// MACrossover is long while the short moving average is above the long one and short otherwise.
// Bars before the long average is defined stay flat.
type MACrossover struct {
	base
}

// MACrossoverDefaults returns the default parameters.
func MACrossoverDefaults() types.ParameterSet {
	return types.NewParameterSet(map[string]float64{
		"short_window": 5,
		"long_window":  20,
	})
}

// NewMACrossover creates the variant with params laid over the defaults.
func NewMACrossover(params types.ParameterSet) Strategy {
	return &MACrossover{base{name: MACrossoverName, params: MACrossoverDefaults().Merge(params)}}
}

func (s *MACrossover) WithParameters(params types.ParameterSet) Strategy {
	return NewMACrossover(s.params.Merge(params))
}

func (s *MACrossover) ValidateParameters() bool {
	return s.positive("short_window", "long_window") &&
		s.whole("short_window", "long_window") &&
		s.params.Int("short_window") >= 1 &&
		s.params.Int("short_window") < s.params.Int("long_window")
}

func (s *MACrossover) Lookback() int {
	return s.params.Int("long_window")
}

func (s *MACrossover) GenerateSignals(bars []types.Bar) (*SignalFrame, error) {
	if !s.ValidateParameters() {
		return nil, s.invalid()
	}

	closes := types.Closes(bars)
	short := indicator.SMA(closes, s.params.Int("short_window"))
	long := indicator.SMA(closes, s.params.Int("long_window"))

	frame := NewSignalFrame(bars)
	frame.AddColumn("ma_short", short)
	frame.AddColumn("ma_long", long)
	frame.Signals = signalsFrom(len(bars), func(i int) types.Signal {
		if short[i] > long[i] {
			return types.SignalLong
		}

		return types.SignalShort
	}, short, long)

	return frame, nil
}
