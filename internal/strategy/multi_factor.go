package strategy

import (
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// MultiFactorName is the registered name of the multi-factor variant.
const MultiFactorName = "multi_factor"

// Factor weights of the composite score. They sum to one so the score stays in [0, 1].
const (
	momentumWeight   = 0.4
	volatilityWeight = 0.3
	volumeWeight     = 0.3
)

// MultiFactor ranks momentum, inverse volatility and average volume against their
// trailing rank_window values and combines the ranks into a score in [0, 1].
// The score above upper_threshold is long, below lower_threshold is short.
type MultiFactor struct {
	base
}

// MultiFactorDefaults returns the default parameters.
func MultiFactorDefaults() types.ParameterSet {
	return types.NewParameterSet(map[string]float64{
		"momentum_period":   20,
		"volatility_period": 20,
		"volume_period":     20,
		"rank_window":       60,
		"upper_threshold":   0.8,
		"lower_threshold":   0.2,
		"position_size":     0.1,
	})
}

// NewMultiFactor creates the variant with params laid over the defaults.
func NewMultiFactor(params types.ParameterSet) Strategy {
	return &MultiFactor{base{name: MultiFactorName, params: MultiFactorDefaults().Merge(params)}}
}

func (s *MultiFactor) WithParameters(params types.ParameterSet) Strategy {
	return NewMultiFactor(s.params.Merge(params))
}

func (s *MultiFactor) ValidateParameters() bool {
	if !s.positive("momentum_period", "volatility_period", "volume_period", "rank_window",
		"upper_threshold", "lower_threshold", "position_size") {
		return false
	}

	return s.whole("momentum_period", "volatility_period", "volume_period", "rank_window") &&
		s.params.Int("momentum_period") >= 1 &&
		s.params.Int("volatility_period") >= 2 &&
		s.params.Int("volume_period") >= 1 &&
		s.params.Int("rank_window") >= 2 &&
		s.params.Float("lower_threshold") < s.params.Float("upper_threshold") &&
		s.params.Float("upper_threshold") < 1 &&
		s.fraction("position_size")
}

func (s *MultiFactor) Lookback() int {
	longest := max(s.params.Int("momentum_period"), s.params.Int("volatility_period")+1, s.params.Int("volume_period"))

	return longest + s.params.Int("rank_window") - 1
}

func (s *MultiFactor) GenerateSignals(bars []types.Bar) (*SignalFrame, error) {
	if !s.ValidateParameters() {
		return nil, s.invalid()
	}

	closes := types.Closes(bars)
	rankWindow := s.params.Int("rank_window")

	momentum := indicator.PctChange(closes, s.params.Int("momentum_period"))
	volatility := indicator.RollingStd(indicator.PctChange(closes, 1), s.params.Int("volatility_period"))
	volume := indicator.SMA(types.Volumes(bars), s.params.Int("volume_period"))

	momentumRank := indicator.RollingPercentRank(momentum, rankWindow)
	volatilityRank := indicator.RollingPercentRank(volatility, rankWindow)
	volumeRank := indicator.RollingPercentRank(volume, rankWindow)

	n := len(bars)
	score := make([]float64, n)

	for i := 0; i < n; i++ {
		score[i] = momentumRank[i]*momentumWeight +
			(1-volatilityRank[i])*volatilityWeight +
			volumeRank[i]*volumeWeight
	}

	upper := s.params.Float("upper_threshold")
	lower := s.params.Float("lower_threshold")

	frame := NewSignalFrame(bars)
	frame.AddColumn("momentum", momentum)
	frame.AddColumn("volatility", volatility)
	frame.AddColumn("volume_factor", volume)
	frame.AddColumn("factor_score", score)
	frame.Signals = signalsFrom(n, func(i int) types.Signal {
		switch {
		case score[i] > upper:
			return types.SignalLong
		case score[i] < lower:
			return types.SignalShort
		default:
			return types.SignalFlat
		}
	}, score)
	frame.AddColumn("target_size", targetSize(frame.Signals, s.params.Float("position_size")))

	return frame, nil
}
