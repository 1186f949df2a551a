package indicator

import (
	"fmt"
	"math"
	"strings"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Indicator is a configurable named wrapper around one of the series functions.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config replaces the indicator parameters. Every parameter must be supplied in order.
	Config(params ...any) error
	// Parameters returns the current parameter values by name
	Parameters() types.ParameterSet
	// Lookback is the number of bars needed before the first defined value
	Lookback() int
	// Calculate computes the indicator columns for bars
	Calculate(bars []types.Bar) (Output, error)
}

// Output is a set of named indicator columns aligned with the input bars.
type Output struct {
	Columns []string
	Values  map[string][]float64
}

// Column returns the named column or nil.
func (o Output) Column(name string) []float64 {
	return o.Values[name]
}

func newOutput() Output {
	return Output{Values: make(map[string][]float64)}
}

func (o *Output) add(name string, series []float64) {
	o.Columns = append(o.Columns, name)
	o.Values[name] = series
}

type paramKind int

const (
	periodParam paramKind = iota
	floatParam
)

type paramSpec struct {
	name  string
	kind  paramKind
	value float64
}

// barSeries are the columns extracted once per Calculate call.
type barSeries struct {
	high, low, close, volume []float64
}

type seriesIndicator struct {
	name     types.IndicatorType
	params   []paramSpec
	lookback func(p []float64) int
	compute  func(s barSeries, p []float64) Output
}

func (si *seriesIndicator) Name() types.IndicatorType {
	return si.name
}

func (si *seriesIndicator) Config(params ...any) error {
	if len(params) != len(si.params) {
		names := make([]string, len(si.params))
		for i, p := range si.params {
			names[i] = p.name
		}

		return errors.Newf(errors.ErrCodeMissingParameter, "%s expects %d parameters: %s", si.name, len(si.params), strings.Join(names, ", "))
	}

	values := make([]float64, len(params))

	for i, raw := range params {
		spec := si.params[i]

		v, err := toFloat(raw)
		if err != nil {
			return errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter %s, expected number", si.name, spec.name)
		}

		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "%s parameter %s must be positive, got %v", si.name, spec.name, raw)
		}

		if spec.kind == periodParam && v != math.Trunc(v) {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "%s parameter %s must be a whole number, got %v", si.name, spec.name, raw)
		}

		values[i] = v
	}

	for i := range si.params {
		si.params[i].value = values[i]
	}

	return nil
}

func (si *seriesIndicator) Parameters() types.ParameterSet {
	values := make(map[string]float64, len(si.params))
	for _, p := range si.params {
		values[p.name] = p.value
	}

	return types.NewParameterSet(values)
}

func (si *seriesIndicator) values() []float64 {
	out := make([]float64, len(si.params))
	for i, p := range si.params {
		out[i] = p.value
	}

	return out
}

func (si *seriesIndicator) Lookback() int {
	return si.lookback(si.values())
}

func (si *seriesIndicator) Calculate(bars []types.Bar) (Output, error) {
	if len(bars) == 0 {
		return Output{}, errors.New(errors.ErrCodeNoDataFound, "no bars to calculate indicator on")
	}

	s := barSeries{
		close:  types.Closes(bars),
		high:   types.Highs(bars),
		low:    types.Lows(bars),
		volume: types.Volumes(bars),
	}

	out := si.compute(s, si.values())
	if len(out.Columns) == 0 || CountDefined(out.Values[out.Columns[0]]) == 0 {
		return out, errors.NewInsufficientDataErrorf(si.Lookback(), len(bars), bars[0].Symbol,
			"%s needs %d bars, got %d", si.name, si.Lookback(), len(bars))
	}

	return out, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func period(name string, value float64) paramSpec {
	return paramSpec{name: name, kind: periodParam, value: value}
}

func factor(name string, value float64) paramSpec {
	return paramSpec{name: name, kind: floatParam, value: value}
}

func single(name string, series []float64) Output {
	out := newOutput()
	out.add(name, series)

	return out
}

// NewMA creates a simple moving average indicator with period 20.
func NewMA() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeMA,
		params:   []paramSpec{period("period", 20)},
		lookback: func(p []float64) int { return int(p[0]) },
		compute: func(s barSeries, p []float64) Output {
			return single("ma", SMA(s.close, int(p[0])))
		},
	}
}

// NewWMA creates a weighted moving average indicator with period 20.
func NewWMA() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeWMA,
		params:   []paramSpec{period("period", 20)},
		lookback: func(p []float64) int { return int(p[0]) },
		compute: func(s barSeries, p []float64) Output {
			return single("wma", WMA(s.close, int(p[0])))
		},
	}
}

// NewEMA creates an exponential moving average indicator with period 20.
func NewEMA() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeEMA,
		params:   []paramSpec{period("period", 20)},
		lookback: func(p []float64) int { return int(p[0]) },
		compute: func(s barSeries, p []float64) Output {
			return single("ema", EMA(s.close, int(p[0])))
		},
	}
}

// NewRSI creates a relative strength index indicator with period 14.
func NewRSI() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeRSI,
		params:   []paramSpec{period("period", 14)},
		lookback: func(p []float64) int { return int(p[0]) + 1 },
		compute: func(s barSeries, p []float64) Output {
			return single("rsi", RSI(s.close, int(p[0])))
		},
	}
}

// NewMACD creates a MACD indicator with periods 12, 26 and 9.
func NewMACD() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeMACD,
		params:   []paramSpec{period("fast_period", 12), period("slow_period", 26), period("signal_period", 9)},
		lookback: func(p []float64) int { return int(math.Max(p[0], p[1])+p[2]) - 1 },
		compute: func(s barSeries, p []float64) Output {
			r := MACD(s.close, int(p[0]), int(p[1]), int(p[2]))
			out := newOutput()
			out.add("macd", r.MACD)
			out.add("macd_signal", r.Signal)
			out.add("macd_hist", r.Histogram)

			return out
		},
	}
}

// NewKDJ creates a KDJ indicator with n=9, m1=3 and m2=3.
func NewKDJ() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeKDJ,
		params:   []paramSpec{period("n", 9), period("m1", 3), period("m2", 3)},
		lookback: func(p []float64) int { return int(p[0]) },
		compute: func(s barSeries, p []float64) Output {
			r := KDJ(s.high, s.low, s.close, int(p[0]), int(p[1]), int(p[2]))
			out := newOutput()
			out.add("k", r.K)
			out.add("d", r.D)
			out.add("j", r.J)

			return out
		},
	}
}

// NewATR creates an average true range indicator with period 14.
func NewATR() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeATR,
		params:   []paramSpec{period("period", 14)},
		lookback: func(p []float64) int { return int(p[0]) },
		compute: func(s barSeries, p []float64) Output {
			out := newOutput()
			out.add("atr", ATR(s.high, s.low, s.close, int(p[0])))
			out.add("tr", TrueRange(s.high, s.low, s.close))

			return out
		},
	}
}

// NewBollingerBands creates a Bollinger Bands indicator with period 20 and 2 standard deviations.
func NewBollingerBands() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeBollingerBands,
		params:   []paramSpec{period("period", 20), factor("std_dev", 2)},
		lookback: func(p []float64) int { return int(p[0]) },
		compute: func(s barSeries, p []float64) Output {
			r := Bollinger(s.close, int(p[0]), p[1])
			out := newOutput()
			out.add("bb_middle", r.Middle)
			out.add("bb_upper", r.Upper)
			out.add("bb_lower", r.Lower)

			return out
		},
	}
}

// NewADX creates an average directional index indicator with period 14.
func NewADX() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeADX,
		params:   []paramSpec{period("period", 14)},
		lookback: func(p []float64) int { return 2*int(p[0]) - 1 },
		compute: func(s barSeries, p []float64) Output {
			r := ADX(s.high, s.low, s.close, int(p[0]))
			out := newOutput()
			out.add("adx", r.ADX)
			out.add("plus_di", r.PlusDI)
			out.add("minus_di", r.MinusDI)
			out.add("dx", r.DX)

			return out
		},
	}
}

// NewSuperTrend creates a SuperTrend indicator with period 10 and multiplier 3.
func NewSuperTrend() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeSuperTrend,
		params:   []paramSpec{period("period", 10), factor("multiplier", 3)},
		lookback: func(p []float64) int { return int(p[0]) },
		compute: func(s barSeries, p []float64) Output {
			r := SuperTrend(s.high, s.low, s.close, int(p[0]), p[1])
			out := newOutput()
			out.add("supertrend", r.Line)
			out.add("supertrend_direction", r.Direction)

			return out
		},
	}
}

// NewCCI creates a commodity channel index indicator with period 20.
func NewCCI() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeCCI,
		params:   []paramSpec{period("period", 20)},
		lookback: func(p []float64) int { return int(p[0]) },
		compute: func(s barSeries, p []float64) Output {
			return single("cci", CCI(s.high, s.low, s.close, int(p[0])))
		},
	}
}

// NewOBV creates an on-balance volume indicator.
func NewOBV() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeOBV,
		lookback: func([]float64) int { return 1 },
		compute: func(s barSeries, _ []float64) Output {
			return single("obv", OBV(s.close, s.volume))
		},
	}
}

// NewAD creates an accumulation/distribution line indicator.
func NewAD() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeAD,
		lookback: func([]float64) int { return 1 },
		compute: func(s barSeries, _ []float64) Output {
			return single("ad", AD(s.high, s.low, s.close, s.volume))
		},
	}
}

// NewChaikin creates a Chaikin oscillator with fast period 3 and slow period 10.
func NewChaikin() Indicator {
	return &seriesIndicator{
		name:     types.IndicatorTypeChaikin,
		params:   []paramSpec{period("fast_period", 3), period("slow_period", 10)},
		lookback: func(p []float64) int { return int(math.Max(p[0], p[1])) },
		compute: func(s barSeries, p []float64) Output {
			return single("chaikin", Chaikin(s.high, s.low, s.close, s.volume, int(p[0]), int(p[1])))
		},
	}
}
