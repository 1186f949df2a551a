package optimizer

import (
	"math"

	"github.com/rxtech-lab/argo-quant/internal/strategy"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// Axis is one swept parameter.
type Axis struct {
	Name   string
	Values []float64
}

// Grid is the cartesian product of its axes.
type Grid []Axis

// Range returns start, start+step, ... up to and including stop.
// A non-positive step yields just start.
func Range(start, stop, step float64) []float64 {
	if step <= 0 || stop < start {
		return []float64{start}
	}

	n := int(math.Floor((stop-start)/step+1e-9)) + 1
	out := make([]float64, n)

	for i := range out {
		out[i] = start + float64(i)*step
	}

	return out
}

// Size is the number of combinations in the grid.
func (g Grid) Size() int {
	if len(g) == 0 {
		return 0
	}

	size := 1
	for _, axis := range g {
		size *= len(axis.Values)
	}

	return size
}

// Combinations enumerates every parameter set of the grid. The last axis varies fastest.
func (g Grid) Combinations() []types.ParameterSet {
	size := g.Size()
	if size == 0 {
		return nil
	}

	out := make([]types.ParameterSet, 0, size)
	index := make([]int, len(g))

	for {
		values := make(map[string]float64, len(g))
		for i, axis := range g {
			values[axis.Name] = axis.Values[index[i]]
		}

		out = append(out, types.NewParameterSet(values))

		// odometer increment
		i := len(g) - 1
		for ; i >= 0; i-- {
			index[i]++
			if index[i] < len(g[i].Values) {
				break
			}

			index[i] = 0
		}

		if i < 0 {
			return out
		}
	}
}

// MAGrid sweeps the moving average crossover windows.
func MAGrid() Grid {
	return Grid{
		{Name: "short_window", Values: Range(5, 20, 5)},
		{Name: "long_window", Values: Range(20, 60, 10)},
	}
}

// MomentumGrid sweeps lookback 10..50 and holding period 1..9.
func MomentumGrid() Grid {
	return Grid{
		{Name: "lookback", Values: Range(10, 50, 10)},
		{Name: "holding_period", Values: Range(1, 9, 2)},
	}
}

// DefaultGrid returns the built-in grid for a strategy, if it has one.
func DefaultGrid(strategyName string) (Grid, bool) {
	switch strategyName {
	case strategy.MACrossoverName:
		return MAGrid(), true
	case strategy.MomentumName:
		return MomentumGrid(), true
	default:
		return nil, false
	}
}
