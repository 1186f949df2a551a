package strategy

import (
	"sort"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

type constructor struct {
	create   func(types.ParameterSet) Strategy
	defaults func() types.ParameterSet
}

var variants = map[string]constructor{
	MACrossoverName:    {NewMACrossover, MACrossoverDefaults},
	MomentumName:       {NewMomentum, MomentumDefaults},
	MeanReversionName:  {NewMeanReversion, MeanReversionDefaults},
	TrendFollowingName: {NewTrendFollowing, TrendFollowingDefaults},
	VolumeBreakoutName: {NewVolumeBreakout, VolumeBreakoutDefaults},
	MultiFactorName:    {NewMultiFactor, MultiFactorDefaults},
	ModelBasedName:     {NewModelBased, ModelBasedDefaults},
}

// New creates the named strategy with params laid over its defaults.
// It does not validate the parameters; RunStrategy does.
func New(name string, params types.ParameterSet) (Strategy, error) {
	c, ok := variants[name]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy %q, expected one of %v", name, Names())
	}

	return c.create(params), nil
}

// Defaults returns the default parameters of the named strategy.
func Defaults(name string) (types.ParameterSet, error) {
	c, ok := variants[name]
	if !ok {
		return types.ParameterSet{}, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy %q", name)
	}

	return c.defaults(), nil
}

// Names returns every registered strategy name in sorted order.
func Names() []string {
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
