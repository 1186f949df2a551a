package types

import "time"

type RiskEventKind string

const (
	RiskEventStopLoss      RiskEventKind = "stop_loss"
	RiskEventTakeProfit    RiskEventKind = "take_profit"
	RiskEventDrawdownLimit RiskEventKind = "drawdown_limit"
)

// RiskEvent is an advisory flag raised by the risk manager during a run. It
// never changes positions or returns.
type RiskEvent struct {
	Index      int           `yaml:"index" json:"index"`
	Date       time.Time     `yaml:"date" json:"date"`
	Kind       RiskEventKind `yaml:"kind" json:"kind"`
	EntryPrice float64       `yaml:"entry_price" json:"entry_price"`
	Price      float64       `yaml:"price" json:"price"`
	// Drawdown of the strategy curve at this bar, for drawdown events.
	Drawdown float64 `yaml:"drawdown" json:"drawdown"`
}
