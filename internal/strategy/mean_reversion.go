package strategy

import (
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// MeanReversionName is the registered name of the mean reversion variant.
const MeanReversionName = "mean_reversion"

// MeanReversion buys oversold closes below the lower Bollinger band and sells
// overbought closes above the upper band.
type MeanReversion struct {
	base
}

// MeanReversionDefaults returns the default parameters.
func MeanReversionDefaults() types.ParameterSet {
	return types.NewParameterSet(map[string]float64{
		"ma_period":     20,
		"std_dev":       2,
		"rsi_period":    14,
		"rsi_upper":     70,
		"rsi_lower":     30,
		"position_size": 0.1,
	})
}

// NewMeanReversion creates the variant with params laid over the defaults.
func NewMeanReversion(params types.ParameterSet) Strategy {
	return &MeanReversion{base{name: MeanReversionName, params: MeanReversionDefaults().Merge(params)}}
}

func (s *MeanReversion) WithParameters(params types.ParameterSet) Strategy {
	return NewMeanReversion(s.params.Merge(params))
}

func (s *MeanReversion) ValidateParameters() bool {
	if !s.positive("ma_period", "std_dev", "rsi_period", "rsi_upper", "rsi_lower", "position_size") {
		return false
	}

	if !s.whole("ma_period", "rsi_period") || s.params.Int("ma_period") < 2 || s.params.Int("rsi_period") < 1 {
		return false
	}

	return s.params.Float("rsi_lower") < s.params.Float("rsi_upper") &&
		s.params.Float("rsi_upper") <= 100 &&
		s.fraction("position_size")
}

func (s *MeanReversion) Lookback() int {
	return max(s.params.Int("ma_period"), s.params.Int("rsi_period")+1)
}

func (s *MeanReversion) GenerateSignals(bars []types.Bar) (*SignalFrame, error) {
	if !s.ValidateParameters() {
		return nil, s.invalid()
	}

	closes := types.Closes(bars)
	bands := indicator.Bollinger(closes, s.params.Int("ma_period"), s.params.Float("std_dev"))
	rsi := indicator.RSI(closes, s.params.Int("rsi_period"))
	upperRSI := s.params.Float("rsi_upper")
	lowerRSI := s.params.Float("rsi_lower")

	frame := NewSignalFrame(bars)
	frame.AddColumn("bb_middle", bands.Middle)
	frame.AddColumn("bb_upper", bands.Upper)
	frame.AddColumn("bb_lower", bands.Lower)
	frame.AddColumn("rsi", rsi)
	frame.Signals = signalsFrom(len(bars), func(i int) types.Signal {
		switch {
		case closes[i] < bands.Lower[i] && rsi[i] < lowerRSI:
			return types.SignalLong
		case closes[i] > bands.Upper[i] && rsi[i] > upperRSI:
			return types.SignalShort
		default:
			return types.SignalFlat
		}
	}, bands.Upper, bands.Lower, rsi)
	frame.AddColumn("target_size", targetSize(frame.Signals, s.params.Float("position_size")))

	return frame, nil
}
