package engine

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/shopspring/decimal"
)

// tradeLedger converts exposure changes into share trades priced at the previous close.
// It only records; returns are computed from positions, not from the ledger.
type tradeLedger struct {
	symbol    string
	fee       commission_fee.CommissionFee
	precision int32

	// held is signed: negative for a short
	held      decimal.Decimal
	avgEntry  decimal.Decimal
	totalFees decimal.Decimal
	trades    []types.TradeRecord
}

func newTradeLedger(symbol string, fee commission_fee.CommissionFee, precision int) *tradeLedger {
	return &tradeLedger{
		symbol:    symbol,
		fee:       fee,
		precision: int32(precision),
		held:      decimal.Zero,
		avgEntry:  decimal.Zero,
		totalFees: decimal.Zero,
	}
}

// rebalance moves the held shares from exposure from to exposure to, at price, with equity
// the account value before the trade. It returns the commission as a fraction of equity,
// computed on the unrounded share count.
func (l *tradeLedger) rebalance(date time.Time, price, equity, from, to float64) float64 {
	record := types.TradeRecord{
		Date:         date,
		Symbol:       l.symbol,
		Side:         types.PurchaseTypeBuy,
		Price:        price,
		PositionFrom: from,
		PositionTo:   to,
	}

	if to < from {
		record.Side = types.PurchaseTypeSell
	}

	if price <= 0 || equity <= 0 || math.IsNaN(price) || math.IsNaN(equity) {
		l.trades = append(l.trades, record)

		return 0
	}

	charge := l.fee.Calculate((to-from)*equity/price, price) / equity

	target := decimal.NewFromFloat(to * equity / price).Truncate(l.precision)
	delta := target.Sub(l.held)
	px := decimal.NewFromFloat(price)
	quantity := delta.Abs()

	fee := decimal.Zero
	if !quantity.IsZero() {
		q, _ := quantity.Float64()
		fee = decimal.NewFromFloat(l.fee.Calculate(q, price))
	}

	profit := decimal.Zero

	// shares closed out of the existing position
	if !l.held.IsZero() && !delta.IsZero() && delta.Sign() != l.held.Sign() {
		closed := decimal.Min(quantity, l.held.Abs())
		profit = px.Sub(l.avgEntry).Mul(closed).Mul(decimal.NewFromInt(int64(l.held.Sign())))
	}

	next := l.held.Add(delta)

	switch {
	case next.IsZero():
		l.avgEntry = decimal.Zero
	case l.held.IsZero() || next.Sign() != l.held.Sign():
		l.avgEntry = px
	case next.Abs().GreaterThan(l.held.Abs()):
		l.avgEntry = l.avgEntry.Mul(l.held.Abs()).Add(px.Mul(quantity)).Div(next.Abs())
	}

	l.held = next
	l.totalFees = l.totalFees.Add(fee)

	record.Shares, _ = quantity.Float64()
	record.Fee, _ = fee.Float64()
	record.Profit, _ = profit.Sub(fee).Float64()

	if delta.IsPositive() {
		record.Side = types.PurchaseTypeBuy
	} else if delta.IsNegative() {
		record.Side = types.PurchaseTypeSell
	}

	l.trades = append(l.trades, record)

	return charge
}

// Held returns the signed share count.
func (l *tradeLedger) Held() float64 {
	v, _ := l.held.Float64()

	return v
}

// TotalFees is the commission charged on every recorded trade.
func (l *tradeLedger) TotalFees() float64 {
	v, _ := l.totalFees.Float64()

	return v
}

func (l *tradeLedger) Trades() []types.TradeRecord {
	return l.trades
}
