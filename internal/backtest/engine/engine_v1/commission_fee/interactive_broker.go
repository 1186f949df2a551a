package commission_fee

import "math"

// InteractiveBrokerCommissionFee charges 0.005 per share with a minimum of 1.0 per trade.
type InteractiveBrokerCommissionFee struct {
}

func NewInteractiveBrokerCommissionFee() CommissionFee {
	return &InteractiveBrokerCommissionFee{}
}

func (c *InteractiveBrokerCommissionFee) Calculate(quantity float64, _ float64) float64 {
	quantity = math.Abs(quantity)
	if quantity == 0 {
		return 0
	}

	fee := 0.005 * quantity
	if fee < 1.0 {
		return 1.0
	}

	return fee
}
