package marketdata

import (
	"testing"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ProviderRegistryTestSuite struct {
	suite.Suite
}

func TestProviderRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(ProviderRegistryTestSuite))
}

func (suite *ProviderRegistryTestSuite) TestGetSupportedProviders() {
	suite.Equal([]string{"binance", "polygon"}, GetSupportedProviders())
}

func (suite *ProviderRegistryTestSuite) TestGetProviderInfo() {
	info, err := GetProviderInfo("polygon")
	suite.Require().NoError(err)
	suite.Equal("Polygon.io", info.DisplayName)
	suite.True(info.RequiresAuth)

	info, err = GetProviderInfo("binance")
	suite.Require().NoError(err)
	suite.Equal("Binance", info.DisplayName)
	suite.False(info.RequiresAuth)

	_, err = GetProviderInfo("invalid")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func (suite *ProviderRegistryTestSuite) TestGetDownloadConfigSchemaInvalidProvider() {
	_, err := GetDownloadConfigSchema("invalid")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func (suite *ProviderRegistryTestSuite) TestParseDownloadConfig() {
	parsed, err := ParseDownloadConfig("polygon", `{"ticker":"SPY","startDate":"2024-01-01","endDate":"2024-01-31","apiKey":"k"}`)
	suite.Require().NoError(err)

	polygon, ok := parsed.(*PolygonDownloadConfig)
	suite.Require().True(ok)
	suite.Equal("k", polygon.ApiKey)

	parsed, err = ParseDownloadConfig("binance", `{"ticker":"ETHUSDT","startDate":"2024-01-01","endDate":"2024-01-31"}`)
	suite.Require().NoError(err)
	suite.IsType(&BinanceDownloadConfig{}, parsed)

	_, err = ParseDownloadConfig("invalid", `{}`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))

	_, err = ParseDownloadConfig("binance", `{"ticker":"ETHUSDT"}`)
	suite.Error(err)
}
