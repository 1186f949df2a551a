package strategy

import (
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// TrendFollowingName is the registered name of the trend following variant.
const TrendFollowingName = "trend_following"

// TrendFollowing follows the fast/slow moving average cross and publishes an ATR
// based stop distance. Stops are checked by the risk manager, never here.
type TrendFollowing struct {
	base
}

// TrendFollowingDefaults returns the default parameters.
func TrendFollowingDefaults() types.ParameterSet {
	return types.NewParameterSet(map[string]float64{
		"fast_period":    10,
		"slow_period":    30,
		"atr_period":     14,
		"atr_multiplier": 2,
		"position_size":  0.1,
		"max_positions":  1,
		"stop_loss":      0.05,
		"take_profit":    0.15,
	})
}

// NewTrendFollowing creates the variant with params laid over the defaults.
func NewTrendFollowing(params types.ParameterSet) Strategy {
	return &TrendFollowing{base{name: TrendFollowingName, params: TrendFollowingDefaults().Merge(params)}}
}

func (s *TrendFollowing) WithParameters(params types.ParameterSet) Strategy {
	return NewTrendFollowing(s.params.Merge(params))
}

func (s *TrendFollowing) ValidateParameters() bool {
	if !s.positive("fast_period", "slow_period", "atr_period", "atr_multiplier", "position_size", "stop_loss", "take_profit") {
		return false
	}

	return s.whole("fast_period", "slow_period", "atr_period") &&
		s.params.Int("fast_period") >= 1 &&
		s.params.Int("atr_period") >= 1 &&
		s.params.Int("fast_period") < s.params.Int("slow_period") &&
		s.fraction("position_size") &&
		s.params.Float("stop_loss") < 1
}

func (s *TrendFollowing) Lookback() int {
	return max(s.params.Int("slow_period"), s.params.Int("atr_period"))
}

// StopLevels implements StopLevels.
func (s *TrendFollowing) StopLevels() (float64, float64) {
	return s.params.Float("stop_loss"), s.params.Float("take_profit")
}

func (s *TrendFollowing) GenerateSignals(bars []types.Bar) (*SignalFrame, error) {
	if !s.ValidateParameters() {
		return nil, s.invalid()
	}

	closes := types.Closes(bars)
	highs := types.Highs(bars)
	lows := types.Lows(bars)

	fast := indicator.SMA(closes, s.params.Int("fast_period"))
	slow := indicator.SMA(closes, s.params.Int("slow_period"))
	tr := indicator.TrueRange(highs, lows, closes)
	atr := indicator.SMA(tr, s.params.Int("atr_period"))

	multiplier := s.params.Float("atr_multiplier")
	stopDistance := make([]float64, len(atr))

	for i, v := range atr {
		stopDistance[i] = v * multiplier
	}

	frame := NewSignalFrame(bars)
	frame.AddColumn("ma_fast", fast)
	frame.AddColumn("ma_slow", slow)
	frame.AddColumn("tr", tr)
	frame.AddColumn("atr", atr)
	frame.AddColumn("stop_distance", stopDistance)
	frame.Signals = signalsFrom(len(bars), func(i int) types.Signal {
		switch {
		case fast[i] > slow[i]:
			return types.SignalLong
		case fast[i] < slow[i]:
			return types.SignalShort
		default:
			return types.SignalFlat
		}
	}, fast, slow)
	frame.AddColumn("target_size", targetSize(frame.Signals, s.params.Float("position_size")))

	return frame, nil
}
