package indicator

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func testBars(n int) []types.Bar {
	highs, lows, closes, volumes := randomWalk(23, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := make([]types.Bar, n)
	for i := range bars {
		bars[i] = types.Bar{
			Time:   start.AddDate(0, 0, i),
			Symbol: "sh.600000",
			Open:   closes[i],
			High:   highs[i],
			Low:    lows[i],
			Close:  closes[i],
			Volume: volumes[i],
		}
	}

	return bars
}

func (suite *RegistryTestSuite) TestRegisterAndGet() {
	registry := NewIndicatorRegistry()

	err := registry.RegisterIndicator(NewRSI())
	suite.NoError(err)

	indicator, err := registry.GetIndicator(types.IndicatorTypeRSI)
	suite.NoError(err)
	suite.Equal(types.IndicatorTypeRSI, indicator.Name())
}

func (suite *RegistryTestSuite) TestRegisterDuplicate() {
	registry := NewIndicatorRegistry()
	suite.NoError(registry.RegisterIndicator(NewMA()))

	err := registry.RegisterIndicator(NewMA())
	suite.Error(err)
	suite.Equal(errors.ErrCodeIndicatorAlreadyExists, errors.GetCode(err))
}

func (suite *RegistryTestSuite) TestGetMissing() {
	registry := NewIndicatorRegistry()

	_, err := registry.GetIndicator(types.IndicatorTypeMACD)
	suite.Equal(errors.ErrCodeIndicatorNotFound, errors.GetCode(err))
}

func (suite *RegistryTestSuite) TestRemove() {
	registry := NewIndicatorRegistry()
	suite.NoError(registry.RegisterIndicator(NewATR()))
	suite.NoError(registry.RemoveIndicator(types.IndicatorTypeATR))
	suite.Empty(registry.ListIndicators())

	err := registry.RemoveIndicator(types.IndicatorTypeATR)
	suite.Equal(errors.ErrCodeIndicatorNotFound, errors.GetCode(err))
}

func (suite *RegistryTestSuite) TestDefaultRegistryIsSorted() {
	names := NewDefaultRegistry().ListIndicators()
	suite.Len(names, 14)

	for i := 1; i < len(names); i++ {
		suite.Less(string(names[i-1]), string(names[i]))
	}
}

func (suite *RegistryTestSuite) TestEveryDefaultIndicatorCalculates() {
	registry := NewDefaultRegistry()
	bars := testBars(120)

	for _, name := range registry.ListIndicators() {
		indicator, err := registry.GetIndicator(name)
		suite.Require().NoError(err)

		out, err := indicator.Calculate(bars)
		suite.NoError(err, "indicator %s", name)
		suite.NotEmpty(out.Columns, "indicator %s", name)

		for _, column := range out.Columns {
			suite.Len(out.Column(column), len(bars), "indicator %s column %s", name, column)
		}
	}
}

type IndicatorConfigTestSuite struct {
	suite.Suite
}

func TestIndicatorConfigSuite(t *testing.T) {
	suite.Run(t, new(IndicatorConfigTestSuite))
}

func (suite *IndicatorConfigTestSuite) TestConfigValid() {
	macd := NewMACD()
	suite.NoError(macd.Config(10, 20, 5))

	params := macd.Parameters()
	suite.Equal(10, params.Int("fast_period"))
	suite.Equal(20, params.Int("slow_period"))
	suite.Equal(5, params.Int("signal_period"))
	suite.Equal(24, macd.Lookback())
}

func (suite *IndicatorConfigTestSuite) TestConfigParamCount() {
	err := NewMACD().Config(10, 20)
	suite.Error(err)
	suite.Equal(errors.ErrCodeMissingParameter, errors.GetCode(err))
	suite.Contains(err.Error(), "expects 3 parameters")
}

func (suite *IndicatorConfigTestSuite) TestConfigInvalidType() {
	err := NewRSI().Config("14")
	suite.Equal(errors.ErrCodeInvalidType, errors.GetCode(err))
}

func (suite *IndicatorConfigTestSuite) TestConfigInvalidPeriod() {
	suite.Equal(errors.ErrCodeInvalidPeriod, errors.GetCode(NewRSI().Config(0)))
	suite.Equal(errors.ErrCodeInvalidPeriod, errors.GetCode(NewRSI().Config(2.5)))
	suite.NoError(NewBollingerBands().Config(20, 2.5))
}

func (suite *IndicatorConfigTestSuite) TestConfigFailureKeepsPreviousValues() {
	bb := NewBollingerBands()
	suite.Error(bb.Config(10, -1.0))
	suite.Equal(20, bb.Parameters().Int("period"))
}

func (suite *IndicatorConfigTestSuite) TestCalculateInsufficientData() {
	_, err := NewMA().Calculate(testBars(5))
	suite.Error(err)
	suite.True(errors.IsInsufficientDataError(err))
	suite.Equal(errors.ErrCodeInsufficientData, errors.GetCode(err))
}

func (suite *IndicatorConfigTestSuite) TestCalculateNoBars() {
	_, err := NewMA().Calculate(nil)
	suite.Equal(errors.ErrCodeNoDataFound, errors.GetCode(err))
}

func (suite *IndicatorConfigTestSuite) TestNoParameterIndicators() {
	obv := NewOBV()
	suite.NoError(obv.Config())
	suite.Equal(0, obv.Parameters().Len())
}
