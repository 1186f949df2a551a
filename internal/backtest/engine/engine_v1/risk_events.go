package engine

import (
	"sort"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/risk"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// riskTracker asks the risk manager about every open position. Each stop and take-profit
// fires at most once per position, and the drawdown limit at most once per run.
// A nil manager records nothing.
type riskTracker struct {
	manager *risk.Manager

	direction  int
	entryPrice float64
	stopHit    bool
	profitHit  bool

	events []types.RiskEvent
}

func newRiskTracker(manager *risk.Manager) *riskTracker {
	return &riskTracker{manager: manager}
}

// observe is called for every bar t once positions[t] is known. entry is the price a
// position opened on this bar starts from.
func (r *riskTracker) observe(index int, date time.Time, position float64, entry float64, price float64) {
	if r.manager == nil {
		return
	}

	direction := sign(position)
	if direction != r.direction {
		r.direction = direction
		r.entryPrice = entry
		r.stopHit = false
		r.profitHit = false
	}

	var stop, profit bool

	switch direction {
	case 1:
		stop = r.manager.CheckStopLoss(r.entryPrice, price)
		profit = r.manager.CheckTakeProfit(r.entryPrice, price)
	case -1:
		stop = r.manager.CheckShortStopLoss(r.entryPrice, price)
		profit = r.manager.CheckShortTakeProfit(r.entryPrice, price)
	default:
		return
	}

	if stop && !r.stopHit {
		r.stopHit = true
		r.record(index, date, types.RiskEventStopLoss, price, 0)
	}

	if profit && !r.profitHit {
		r.profitHit = true
		r.record(index, date, types.RiskEventTakeProfit, price, 0)
	}
}

// observeDrawdown records the first bar whose drawdown exceeds the limit.
func (r *riskTracker) observeDrawdown(bars []types.Bar, drawdown []float64) {
	if r.manager == nil {
		return
	}

	limit := r.manager.Config().MaxDrawdown

	for i, dd := range drawdown {
		if dd > limit {
			r.events = append(r.events, types.RiskEvent{
				Index:    i,
				Date:     bars[i].Time,
				Kind:     types.RiskEventDrawdownLimit,
				Price:    bars[i].Close,
				Drawdown: dd,
			})

			return
		}
	}
}

func (r *riskTracker) record(index int, date time.Time, kind types.RiskEventKind, price float64, drawdown float64) {
	r.events = append(r.events, types.RiskEvent{
		Index:      index,
		Date:       date,
		Kind:       kind,
		EntryPrice: r.entryPrice,
		Price:      price,
		Drawdown:   drawdown,
	})
}

// Events returns the recorded events ordered by bar.
func (r *riskTracker) Events() []types.RiskEvent {
	sort.SliceStable(r.events, func(i, j int) bool {
		return r.events[i].Index < r.events[j].Index
	})

	return r.events
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
