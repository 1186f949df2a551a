package marketdata

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type DownloadConfigTestSuite struct {
	suite.Suite
}

func TestDownloadConfigTestSuite(t *testing.T) {
	suite.Run(t, new(DownloadConfigTestSuite))
}

func base() BaseDownloadConfig {
	return BaseDownloadConfig{
		Ticker:    "SPY",
		StartDate: "2024-01-01",
		EndDate:   "2024-06-30",
	}
}

func (suite *DownloadConfigTestSuite) TestPolygonConfigValidation() {
	tests := []struct {
		name   string
		mutate func(c *PolygonDownloadConfig)
		code   errors.ErrorCode
	}{
		{name: "valid", mutate: func(_ *PolygonDownloadConfig) {}},
		{name: "csv format", mutate: func(c *PolygonDownloadConfig) { c.Format = "csv" }},
		{name: "missing ticker", mutate: func(c *PolygonDownloadConfig) { c.Ticker = "" }, code: errors.ErrCodeInvalidConfiguration},
		{name: "missing api key", mutate: func(c *PolygonDownloadConfig) { c.ApiKey = "" }, code: errors.ErrCodeInvalidConfiguration},
		{name: "unknown format", mutate: func(c *PolygonDownloadConfig) { c.Format = "xlsx" }, code: errors.ErrCodeInvalidConfiguration},
		{name: "rfc3339 date", mutate: func(c *PolygonDownloadConfig) { c.StartDate = "2024-01-01T00:00:00Z" }, code: errors.ErrCodeInvalidDate},
		{name: "end before start", mutate: func(c *PolygonDownloadConfig) { c.EndDate = "2023-12-31" }, code: errors.ErrCodeInvalidDate},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := PolygonDownloadConfig{BaseDownloadConfig: base(), ApiKey: "key"}
			tc.mutate(&config)

			err := config.Validate()
			if tc.code == 0 {
				suite.NoError(err)

				return
			}

			suite.True(errors.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func (suite *DownloadConfigTestSuite) TestBinanceConfigValidation() {
	config := BinanceDownloadConfig{BaseDownloadConfig: base()}
	suite.NoError(config.Validate())

	config.EndDate = ""
	suite.Error(config.Validate())
}

func (suite *DownloadConfigTestSuite) TestParsePolygonConfig() {
	config, err := ParsePolygonConfig(`{"ticker":"AAPL","startDate":"2024-01-01","endDate":"2024-01-31","apiKey":"abc"}`)
	suite.Require().NoError(err)
	suite.Equal("AAPL", config.Ticker)
	suite.Equal("abc", config.ApiKey)

	_, err = ParsePolygonConfig(`{invalid`)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	_, err = ParsePolygonConfig(`{"ticker":"AAPL","startDate":"2024-01-01","endDate":"2024-01-31"}`)
	suite.Error(err)
}

func (suite *DownloadConfigTestSuite) TestParseBinanceConfig() {
	config, err := ParseBinanceConfig(`{"ticker":"BTCUSDT","startDate":"2024-01-01","endDate":"2024-01-31","format":"csv"}`)
	suite.Require().NoError(err)
	suite.Equal("BTCUSDT", config.Ticker)
	suite.Equal("csv", config.Format)
}

func (suite *DownloadConfigTestSuite) TestToDownloadParams() {
	config := base()

	params, err := config.ToDownloadParams()
	suite.Require().NoError(err)
	suite.Equal("SPY", params.Ticker)
	suite.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), params.StartDate)
	suite.Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), params.EndDate)

	config.StartDate = config.EndDate
	_, err = config.ToDownloadParams()
	suite.NoError(err, "a single day is a valid range")
}

func (suite *DownloadConfigTestSuite) TestToClientConfig() {
	polygon := PolygonDownloadConfig{BaseDownloadConfig: base(), ApiKey: "key"}
	polygon.Format = "csv"

	client := polygon.ToClientConfig("/data")
	suite.Equal(ProviderPolygon, client.ProviderType)
	suite.Equal(WriterDuckDB, client.WriterType)
	suite.Equal("/data", client.DataPath)
	suite.Equal("key", client.PolygonApiKey)
	suite.Equal("csv", client.Format)

	binance := BinanceDownloadConfig{BaseDownloadConfig: base()}

	client = binance.ToClientConfig("/data")
	suite.Equal(ProviderBinance, client.ProviderType)
	suite.Empty(client.PolygonApiKey)
}

func (suite *DownloadConfigTestSuite) TestConfigJSONSchema() {
	for provider, hasKey := range map[string]bool{"polygon": true, "binance": false} {
		schema, err := GetDownloadConfigSchema(provider)
		suite.Require().NoError(err)

		var schemaMap map[string]any
		suite.Require().NoError(json.Unmarshal([]byte(schema), &schemaMap))

		properties, ok := schemaMap["properties"].(map[string]any)
		suite.Require().True(ok, "schema should have properties")
		suite.Contains(properties, "ticker")
		suite.Contains(properties, "startDate")
		suite.Contains(properties, "endDate")
		suite.Contains(properties, "format")
		suite.NotContains(properties, "interval")
		suite.Equal(hasKey, properties["apiKey"] != nil, provider)
	}
}
