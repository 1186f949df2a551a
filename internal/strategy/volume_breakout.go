package strategy

import (
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// VolumeBreakoutName is the registered name of the volume breakout variant.
const VolumeBreakoutName = "volume_breakout"

// VolumeBreakout trades closes that leave a volatility channel around the price
// average on volume of at least volume_ratio times its own average.
type VolumeBreakout struct {
	base
}

// VolumeBreakoutDefaults returns the default parameters.
func VolumeBreakoutDefaults() types.ParameterSet {
	return types.NewParameterSet(map[string]float64{
		"price_ma_period":  20,
		"volume_ma_period": 20,
		"breakout_std":     2,
		"volume_ratio":     2,
		"lookback_period":  20,
		"position_size":    0.1,
	})
}

// NewVolumeBreakout creates the variant with params laid over the defaults.
func NewVolumeBreakout(params types.ParameterSet) Strategy {
	return &VolumeBreakout{base{name: VolumeBreakoutName, params: VolumeBreakoutDefaults().Merge(params)}}
}

func (s *VolumeBreakout) WithParameters(params types.ParameterSet) Strategy {
	return NewVolumeBreakout(s.params.Merge(params))
}

func (s *VolumeBreakout) ValidateParameters() bool {
	if !s.positive("price_ma_period", "volume_ma_period", "breakout_std", "volume_ratio", "lookback_period", "position_size") {
		return false
	}

	return s.whole("price_ma_period", "volume_ma_period", "lookback_period") &&
		s.params.Int("price_ma_period") >= 1 &&
		s.params.Int("volume_ma_period") >= 1 &&
		s.params.Int("lookback_period") >= 2 &&
		s.fraction("position_size")
}

func (s *VolumeBreakout) Lookback() int {
	return max(s.params.Int("price_ma_period"), s.params.Int("volume_ma_period"), s.params.Int("lookback_period"))
}

func (s *VolumeBreakout) GenerateSignals(bars []types.Bar) (*SignalFrame, error) {
	if !s.ValidateParameters() {
		return nil, s.invalid()
	}

	closes := types.Closes(bars)
	volumes := types.Volumes(bars)

	priceMA := indicator.SMA(closes, s.params.Int("price_ma_period"))
	volumeMA := indicator.SMA(volumes, s.params.Int("volume_ma_period"))
	std := indicator.RollingStd(closes, s.params.Int("lookback_period"))
	k := s.params.Float("breakout_std")

	n := len(bars)
	upper := make([]float64, n)
	lower := make([]float64, n)
	ratio := make([]float64, n)

	for i := 0; i < n; i++ {
		upper[i] = priceMA[i] + k*std[i]
		lower[i] = priceMA[i] - k*std[i]
		ratio[i] = volumes[i] / volumeMA[i]
	}

	minRatio := s.params.Float("volume_ratio")

	frame := NewSignalFrame(bars)
	frame.AddColumn("price_ma", priceMA)
	frame.AddColumn("volume_ma", volumeMA)
	frame.AddColumn("upper_band", upper)
	frame.AddColumn("lower_band", lower)
	frame.AddColumn("volume_ratio", ratio)
	frame.Signals = signalsFrom(n, func(i int) types.Signal {
		if ratio[i] < minRatio {
			return types.SignalFlat
		}

		switch {
		case closes[i] > upper[i] && closes[i] > priceMA[i]:
			return types.SignalLong
		case closes[i] < lower[i] && closes[i] < priceMA[i]:
			return types.SignalShort
		default:
			return types.SignalFlat
		}
	}, upper, lower, ratio)
	frame.AddColumn("target_size", targetSize(frame.Signals, s.params.Float("position_size")))

	return frame, nil
}
