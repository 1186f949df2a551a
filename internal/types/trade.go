package types

import "time"

type PurchaseType string

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

// TradeRecord is a reporting-only log entry emitted whenever the held position
// changes. Returns are never derived from it.
type TradeRecord struct {
	Date   time.Time    `yaml:"date" json:"date" csv:"date"`
	Symbol string       `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side   PurchaseType `yaml:"side" json:"side" csv:"side"`
	Price  float64      `yaml:"price" json:"price" csv:"price"`
	Shares float64      `yaml:"shares" json:"shares" csv:"shares"`
	// Profit is the realized profit of the shares closed by this trade, net of
	// the commission charged on it. Opening trades carry 0 plus the negative fee.
	Profit float64 `yaml:"profit" json:"profit" csv:"profit"`
	// Fee is the commission charged on this trade.
	Fee float64 `yaml:"fee" json:"fee" csv:"fee"`
	// PositionFrom and PositionTo are the exposures before and after the trade.
	PositionFrom float64 `yaml:"position_from" json:"position_from" csv:"position_from"`
	PositionTo   float64 `yaml:"position_to" json:"position_to" csv:"position_to"`
}
