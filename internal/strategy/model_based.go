package strategy

import (
	"math"

	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// ModelBasedName is the registered name of the feature-rule variant.
const ModelBasedName = "model_based"

// ModelBased combines a moving average trend feature with a volume feature.
//
// The trend feature holds when MA(fast_period) > MA(lookback_period). Agreement is
// the share of the last prediction_period bars on which it held. A bar with volume
// above MA(volume_period) goes long when agreement reaches confidence_threshold and
// short when disagreement does.
type ModelBased struct {
	base
}

// ModelBasedDefaults returns the default parameters.
func ModelBasedDefaults() types.ParameterSet {
	return types.NewParameterSet(map[string]float64{
		"lookback_period":      20,
		"fast_period":          5,
		"volume_period":        5,
		"prediction_period":    5,
		"confidence_threshold": 0.6,
		"position_size":        0.1,
	})
}

// NewModelBased creates the variant with params laid over the defaults.
func NewModelBased(params types.ParameterSet) Strategy {
	return &ModelBased{base{name: ModelBasedName, params: ModelBasedDefaults().Merge(params)}}
}

func (s *ModelBased) WithParameters(params types.ParameterSet) Strategy {
	return NewModelBased(s.params.Merge(params))
}

func (s *ModelBased) ValidateParameters() bool {
	if !s.positive("lookback_period", "fast_period", "volume_period", "prediction_period", "confidence_threshold", "position_size") {
		return false
	}

	threshold := s.params.Float("confidence_threshold")

	return s.whole("lookback_period", "fast_period", "volume_period", "prediction_period") &&
		s.params.Int("fast_period") >= 1 &&
		s.params.Int("volume_period") >= 1 &&
		s.params.Int("prediction_period") >= 1 &&
		s.params.Int("fast_period") < s.params.Int("lookback_period") &&
		threshold > 0.5 && threshold <= 1 &&
		s.fraction("position_size")
}

func (s *ModelBased) Lookback() int {
	return max(s.params.Int("lookback_period")+s.params.Int("prediction_period")-1, s.params.Int("volume_period"))
}

func (s *ModelBased) GenerateSignals(bars []types.Bar) (*SignalFrame, error) {
	if !s.ValidateParameters() {
		return nil, s.invalid()
	}

	closes := types.Closes(bars)
	volumes := types.Volumes(bars)
	n := len(bars)

	fast := indicator.SMA(closes, s.params.Int("fast_period"))
	slow := indicator.SMA(closes, s.params.Int("lookback_period"))
	volumeMA := indicator.SMA(volumes, s.params.Int("volume_period"))

	trend := make([]float64, n)
	for i := range trend {
		switch {
		case !indicator.IsDefined(fast[i]) || !indicator.IsDefined(slow[i]):
			trend[i] = math.NaN()
		case fast[i] > slow[i]:
			trend[i] = 1
		default:
			trend[i] = 0
		}
	}

	agreement := indicator.SMA(trend, s.params.Int("prediction_period"))
	threshold := s.params.Float("confidence_threshold")

	frame := NewSignalFrame(bars)
	frame.AddColumn("ma_fast", fast)
	frame.AddColumn("ma_slow", slow)
	frame.AddColumn("volume_ma", volumeMA)
	frame.AddColumn("trend_agreement", agreement)
	frame.Signals = signalsFrom(n, func(i int) types.Signal {
		if volumes[i] <= volumeMA[i] {
			return types.SignalFlat
		}

		switch {
		case agreement[i] >= threshold:
			return types.SignalLong
		case 1-agreement[i] >= threshold:
			return types.SignalShort
		default:
			return types.SignalFlat
		}
	}, agreement, volumeMA)
	frame.AddColumn("target_size", targetSize(frame.Signals, s.params.Float("position_size")))

	return frame, nil
}
