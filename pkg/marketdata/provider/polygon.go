package provider

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/rxtech-lab/argo-quant/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// PolygonAggsIterator is the part of the polygon aggregates iterator the client reads.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the part of the polygon REST client used for downloads.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPIAdapter struct {
	client *polygon.Client
}

func (a *polygonAPIAdapter) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return a.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	apiClient PolygonAPIClient
	writer    writer.MarketDataWriter
	logger    *logger.Logger
}

func NewPolygonClient(apiKey string, log *logger.Logger) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "apiKey is required")
	}

	client := NewPolygonClientWithAPI(&polygonAPIAdapter{client: polygon.New(apiKey)})
	if log != nil {
		client.logger = log
	}

	return client, nil
}

// NewPolygonClientWithAPI creates a client over an existing API implementation.
func NewPolygonClientWithAPI(api PolygonAPIClient) *PolygonClient {
	return &PolygonClient{
		apiClient: api,
		writer:    nil,
		logger:    logger.NewNopLogger(),
	}
}

func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download requests daily aggregates for ticker. Amount is estimated as VWAP times volume.
func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeInvalidConfiguration, "no writer configured for PolygonClient. Call ConfigWriter first")
	}

	if endDate.Before(startDate) {
		return "", errors.New(errors.ErrCodeInvalidDate, "end date is before start date")
	}

	if err = c.writer.Initialize(); err != nil {
		return "", err
	}

	defer closeWriter(c.writer, c.logger, &err)

	totalDays := endDate.Sub(startDate).Hours()/24 + 1
	message := fmt.Sprintf("Downloading %s", ticker)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     ticker,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(startDate),
		To:         models.Millis(endDate),
	}.WithAdjusted(true).WithOrder(models.Asc).WithLimit(50000)

	iter := c.apiClient.ListAggs(ctx, params)

	processedCount := 0

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		agg := iter.Item()
		timestamp := time.Time(agg.Timestamp).UTC()

		bar := types.Bar{
			Time:   timestamp,
			Symbol: ticker,
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
			Amount: agg.VWAP * agg.Volume,
		}

		if err := c.writer.Write(bar); err != nil {
			return "", err
		}

		processedCount++

		progress(onProgress, timestamp.Sub(startDate).Hours()/24+1, totalDays, message)
	}

	if iter.Err() != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "error iterating polygon aggregates", iter.Err())
	}

	if processedCount == 0 {
		return "", errors.Newf(errors.ErrCodeNoDataFound, "polygon returned no bars for %s", ticker)
	}

	progress(onProgress, totalDays, totalDays, message)

	c.logger.Info("Finished downloading",
		zap.String("provider", string(ProviderPolygon)),
		zap.String("ticker", ticker),
		zap.Int("bars", processedCount),
	)

	return c.writer.Finalize()
}
