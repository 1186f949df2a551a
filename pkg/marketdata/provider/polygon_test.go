package provider

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// mockPolygonAPIClient implements PolygonAPIClient for testing.
type mockPolygonAPIClient struct {
	iterator PolygonAggsIterator
	params   *models.ListAggsParams
}

func (m *mockPolygonAPIClient) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	m.params = params

	return m.iterator
}

// mockPolygonIterator implements PolygonAggsIterator for testing.
type mockPolygonIterator struct {
	aggs  []models.Agg
	index int
	err   error
}

func (m *mockPolygonIterator) Next() bool {
	if m.index < len(m.aggs) {
		m.index++

		return true
	}

	return false
}

func (m *mockPolygonIterator) Item() models.Agg {
	if m.index > 0 && m.index <= len(m.aggs) {
		return m.aggs[m.index-1]
	}

	return models.Agg{}
}

func (m *mockPolygonIterator) Err() error {
	return m.err
}

func dailyAggs(n int) []models.Agg {
	aggs := make([]models.Agg, n)

	for i := range aggs {
		price := 100 + float64(i)
		aggs[i] = models.Agg{
			Timestamp: models.Millis(time.Date(2024, 1, 1+i, 5, 0, 0, 0, time.UTC)),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price + 0.5,
			Volume:    1000,
			VWAP:      price + 0.25,
		}
	}

	return aggs
}

type PolygonClientTestSuite struct {
	suite.Suite
	start time.Time
	end   time.Time
}

func TestPolygonClientSuite(t *testing.T) {
	suite.Run(t, new(PolygonClientTestSuite))
}

func (suite *PolygonClientTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.end = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
}

func (suite *PolygonClientTestSuite) client(iter *mockPolygonIterator, w *mockWriter) (*PolygonClient, *mockPolygonAPIClient) {
	api := &mockPolygonAPIClient{iterator: iter}
	client := NewPolygonClientWithAPI(api)

	if w != nil {
		client.ConfigWriter(w)
	}

	return client, api
}

func (suite *PolygonClientTestSuite) TestNewPolygonClient() {
	client, err := NewPolygonClient("test-api-key", nil)
	suite.Require().NoError(err)

	polygonClient, ok := client.(*PolygonClient)
	suite.Require().True(ok)
	suite.NotNil(polygonClient.apiClient)
	suite.NotNil(polygonClient.logger)
	suite.Nil(polygonClient.writer)

	_, err = NewPolygonClient("", nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *PolygonClientTestSuite) TestDownloadWithoutWriter() {
	client, _ := suite.client(&mockPolygonIterator{}, nil)

	_, err := client.Download(context.Background(), "SPY", suite.start, suite.end, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "ConfigWriter")
}

func (suite *PolygonClientTestSuite) TestDownloadEndBeforeStart() {
	w := &mockWriter{}
	client, _ := suite.client(&mockPolygonIterator{}, w)

	_, err := client.Download(context.Background(), "SPY", suite.end, suite.start, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidDate))
	suite.False(w.initialized)
}

func (suite *PolygonClientTestSuite) TestDownloadWriterInitializeError() {
	w := &mockWriter{initializeErr: stderrors.New("init failed")}
	client, _ := suite.client(&mockPolygonIterator{aggs: dailyAggs(1)}, w)

	_, err := client.Download(context.Background(), "SPY", suite.start, suite.end, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "init failed")
	suite.Equal(0, w.closeCallCount)
}

func (suite *PolygonClientTestSuite) TestDownloadSuccess() {
	w := &mockWriter{outputPath: "/tmp/SPY.parquet"}
	client, api := suite.client(&mockPolygonIterator{aggs: dailyAggs(3)}, w)

	path, err := client.Download(context.Background(), "SPY", suite.start, suite.end, nil)
	suite.Require().NoError(err)
	suite.Equal("/tmp/SPY.parquet", path)
	suite.Equal(1, w.finalizeCallCount)
	suite.Equal(1, w.closeCallCount)

	suite.Require().NotNil(api.params)
	suite.Equal("SPY", api.params.Ticker)
	suite.Equal(1, api.params.Multiplier)
	suite.Equal(models.Day, api.params.Timespan)

	suite.Require().Len(w.writtenData, 3)

	first := w.writtenData[0]
	suite.Equal("SPY", first.Symbol)
	suite.True(first.Time.Equal(time.Date(2024, 1, 1, 5, 0, 0, 0, time.UTC)))
	suite.InDelta(100.0, first.Open, 1e-9)
	suite.InDelta(101.0, first.High, 1e-9)
	suite.InDelta(99.0, first.Low, 1e-9)
	suite.InDelta(100.5, first.Close, 1e-9)
	suite.InDelta(1000, first.Volume, 1e-9)
	suite.InDelta(100250, first.Amount, 1e-9)
}

func (suite *PolygonClientTestSuite) TestDownloadEmpty() {
	w := &mockWriter{}
	client, _ := suite.client(&mockPolygonIterator{}, w)

	_, err := client.Download(context.Background(), "SPY", suite.start, suite.end, nil)
	suite.True(errors.IsNoData(err))
	suite.Equal(0, w.finalizeCallCount)
	suite.Equal(1, w.closeCallCount)
}

func (suite *PolygonClientTestSuite) TestDownloadIteratorError() {
	w := &mockWriter{}
	client, _ := suite.client(&mockPolygonIterator{aggs: dailyAggs(2), err: stderrors.New("rate limited")}, w)

	_, err := client.Download(context.Background(), "SPY", suite.start, suite.end, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
	suite.Contains(err.Error(), "rate limited")
}

func (suite *PolygonClientTestSuite) TestDownloadWriteError() {
	w := &mockWriter{writeErr: stderrors.New("disk full"), writeErrAfterN: 1}
	client, _ := suite.client(&mockPolygonIterator{aggs: dailyAggs(3)}, w)

	_, err := client.Download(context.Background(), "SPY", suite.start, suite.end, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "disk full")
	suite.Len(w.writtenData, 1)
	suite.Equal(1, w.closeCallCount)
}

func (suite *PolygonClientTestSuite) TestDownloadFinalizeError() {
	w := &mockWriter{finalizeErr: stderrors.New("export failed")}
	client, _ := suite.client(&mockPolygonIterator{aggs: dailyAggs(2)}, w)

	_, err := client.Download(context.Background(), "SPY", suite.start, suite.end, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "export failed")
}

func (suite *PolygonClientTestSuite) TestDownloadCloseError() {
	w := &mockWriter{outputPath: "/tmp/SPY.parquet", closeErr: stderrors.New("close failed")}
	client, _ := suite.client(&mockPolygonIterator{aggs: dailyAggs(2)}, w)

	_, err := client.Download(context.Background(), "SPY", suite.start, suite.end, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
	suite.Contains(err.Error(), "close failed")

	// the first error wins
	w = &mockWriter{writeErr: stderrors.New("disk full"), closeErr: stderrors.New("close failed")}
	client, _ = suite.client(&mockPolygonIterator{aggs: dailyAggs(2)}, w)

	_, err = client.Download(context.Background(), "SPY", suite.start, suite.end, nil)
	suite.Contains(err.Error(), "disk full")
}

func (suite *PolygonClientTestSuite) TestDownloadProgress() {
	w := &mockWriter{}
	client, _ := suite.client(&mockPolygonIterator{aggs: dailyAggs(3)}, w)

	var currents []float64
	var total float64

	_, err := client.Download(context.Background(), "SPY", suite.start, suite.end, func(current float64, t float64, message string) {
		currents = append(currents, current)
		total = t
		suite.Contains(message, "SPY")
	})
	suite.Require().NoError(err)

	suite.Require().Len(currents, 4)
	suite.InDelta(10, total, 1e-9)
	suite.InDelta(total, currents[3], 1e-9)

	for i := 1; i < len(currents); i++ {
		suite.GreaterOrEqual(currents[i], currents[i-1])
	}
}

func (suite *PolygonClientTestSuite) TestDownloadCancellation() {
	w := &mockWriter{}
	client, _ := suite.client(&mockPolygonIterator{aggs: dailyAggs(2)}, w)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Download(ctx, "SPY", suite.start, suite.end, nil)
	suite.ErrorIs(err, context.Canceled)
	suite.Empty(w.writtenData)
	suite.Equal(1, w.closeCallCount)
}
