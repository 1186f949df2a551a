package marketdata

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/backtest/engine/engine_v1/datasource"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/rxtech-lab/argo-quant/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-quant/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
)

// fakeProvider writes one bar per day of the requested range into the configured writer.
type fakeProvider struct {
	writer writer.MarketDataWriter
	err    error
}

func (f *fakeProvider) ConfigWriter(w writer.MarketDataWriter) {
	f.writer = w
}

func (f *fakeProvider) Download(_ context.Context, ticker string, start time.Time, end time.Time, onProgress provider.OnDownloadProgress) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	if err := f.writer.Initialize(); err != nil {
		return "", err
	}

	price := 100.0

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := f.writer.Write(types.Bar{
			Time: day, Symbol: ticker, Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 10, Amount: 10 * price,
		}); err != nil {
			return "", err
		}

		price++
	}

	if onProgress != nil {
		onProgress(1, 1, "done")
	}

	return f.writer.Finalize()
}

type ClientTestSuite struct {
	suite.Suite
	dataPath string
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (suite *ClientTestSuite) SetupTest() {
	suite.dataPath = filepath.Join(suite.T().TempDir(), "data")
}

func (suite *ClientTestSuite) params() DownloadParams {
	return DownloadParams{
		Ticker:    "SPY",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func (suite *ClientTestSuite) TestClientDownload() {
	var progressed bool

	client, err := NewClientWithProvider(ClientConfig{
		ProviderType: ProviderBinance,
		WriterType:   WriterDuckDB,
		DataPath:     suite.dataPath,
	}, &fakeProvider{}, func(_, _ float64, _ string) { progressed = true }, nil)
	suite.Require().NoError(err)

	path, err := client.Download(context.Background(), suite.params())
	suite.Require().NoError(err)
	suite.Equal(filepath.Join(suite.dataPath, "SPY_2024-01-01_2024-01-10.parquet"), path)
	suite.True(progressed)

	_, err = os.Stat(path)
	suite.Require().NoError(err)

	// the written file loads back as daily bars
	source, err := datasource.NewDataSource(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	defer source.Close()

	suite.Require().NoError(source.Initialize(path))

	bars, err := source.GetRange(context.Background(), "SPY", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 10)
	suite.InDelta(100.0, bars[0].Close, 1e-9)
	suite.InDelta(109.0, bars[9].Close, 1e-9)
}

func (suite *ClientTestSuite) TestClientDownloadCSV() {
	client, err := NewClientWithProvider(ClientConfig{
		ProviderType: ProviderBinance,
		WriterType:   WriterDuckDB,
		DataPath:     suite.dataPath,
		Format:       "csv",
	}, &fakeProvider{}, nil, nil)
	suite.Require().NoError(err)

	params := suite.params()
	params.Ticker = "BTC/USDT"

	path, err := client.Download(context.Background(), params)
	suite.Require().NoError(err)
	suite.Equal("BTC_USDT_2024-01-01_2024-01-10.csv", filepath.Base(path))
}

func (suite *ClientTestSuite) TestClientDownloadProviderError() {
	client, err := NewClientWithProvider(ClientConfig{
		ProviderType: ProviderPolygon,
		WriterType:   WriterDuckDB,
		DataPath:     suite.dataPath,
	}, &fakeProvider{err: errors.New(errors.ErrCodeMarketDataFetchFailed, "upstream down")}, nil, nil)
	suite.Require().NoError(err)

	_, err = client.Download(context.Background(), suite.params())
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
	suite.Contains(err.Error(), "upstream down")

	client.provider = &fakeProvider{err: context.Canceled}
	_, err = client.Download(context.Background(), suite.params())
	suite.True(stderrors.Is(err, context.Canceled))
}

func (suite *ClientTestSuite) TestClientConfigValidation() {
	tests := []struct {
		name    string
		config  ClientConfig
		wantErr bool
	}{
		{
			name:   "polygon with key",
			config: ClientConfig{ProviderType: ProviderPolygon, WriterType: WriterDuckDB, DataPath: "/tmp", PolygonApiKey: "k"},
		},
		{
			name:   "binance without key",
			config: ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB, DataPath: "/tmp"},
		},
		{
			name:    "polygon without key",
			config:  ClientConfig{ProviderType: ProviderPolygon, WriterType: WriterDuckDB, DataPath: "/tmp"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			config:  ClientConfig{ProviderType: "yahoo", WriterType: WriterDuckDB, DataPath: "/tmp"},
			wantErr: true,
		},
		{
			name:    "unknown writer",
			config:  ClientConfig{ProviderType: ProviderBinance, WriterType: "sqlite", DataPath: "/tmp"},
			wantErr: true,
		},
		{
			name:    "missing data path",
			config:  ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB},
			wantErr: true,
		},
		{
			name:    "unknown format",
			config:  ClientConfig{ProviderType: ProviderBinance, WriterType: WriterDuckDB, DataPath: "/tmp", Format: "json"},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			client, err := NewClient(tc.config, nil, nil)
			if tc.wantErr {
				suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
				suite.Nil(client)

				return
			}

			suite.NoError(err)
			suite.NotNil(client)
		})
	}
}

func (suite *ClientTestSuite) TestDownloadParamsValidation() {
	client, err := NewClientWithProvider(ClientConfig{
		ProviderType: ProviderBinance,
		WriterType:   WriterDuckDB,
		DataPath:     suite.dataPath,
	}, &fakeProvider{}, nil, nil)
	suite.Require().NoError(err)

	params := suite.params()
	params.Ticker = ""
	_, err = client.Download(context.Background(), params)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	params = suite.params()
	params.EndDate = params.StartDate.AddDate(0, 0, -1)
	_, err = client.Download(context.Background(), params)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	params = suite.params()
	params.EndDate = params.StartDate
	_, err = client.Download(context.Background(), params)
	suite.NoError(err)
}
