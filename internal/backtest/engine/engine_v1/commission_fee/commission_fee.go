package commission_fee

type CommissionFee interface {
	// Calculate the commission charged for trading quantity shares at price.
	// The fee is in the same currency as price.
	Calculate(quantity float64, price float64) float64
}

type Broker string

const (
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerFixedRate         Broker = "fixed_rate"
	BrokerZero              Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerZero,
	BrokerFixedRate,
	BrokerInteractiveBroker,
}

// GetCommissionFeeHandler returns the fee model of broker. rate is only used by BrokerFixedRate.
// Unknown brokers charge nothing.
func GetCommissionFeeHandler(broker Broker, rate float64) CommissionFee {
	switch broker {
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case BrokerFixedRate:
		return NewFixedRateCommissionFee(rate)
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
