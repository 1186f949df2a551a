package types

type IndicatorType string

const (
	IndicatorTypeMA             IndicatorType = "ma"
	IndicatorTypeWMA            IndicatorType = "wma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeKDJ            IndicatorType = "kdj"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeADX            IndicatorType = "adx"
	IndicatorTypeSuperTrend     IndicatorType = "supertrend"
	IndicatorTypeCCI            IndicatorType = "cci"
	IndicatorTypeOBV            IndicatorType = "obv"
	IndicatorTypeAD             IndicatorType = "ad"
	IndicatorTypeChaikin        IndicatorType = "chaikin"
)
