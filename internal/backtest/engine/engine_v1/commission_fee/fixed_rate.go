package commission_fee

import "math"

// FixedRateCommissionFee charges a fixed fraction of the traded notional.
type FixedRateCommissionFee struct {
	rate float64
}

func NewFixedRateCommissionFee(rate float64) CommissionFee {
	return &FixedRateCommissionFee{rate: math.Abs(rate)}
}

func (c *FixedRateCommissionFee) Calculate(quantity float64, price float64) float64 {
	return c.rate * math.Abs(quantity*price)
}

// Rate is the fraction of notional charged.
func (c *FixedRateCommissionFee) Rate() float64 {
	return c.rate
}
