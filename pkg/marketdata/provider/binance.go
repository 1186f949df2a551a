package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/rxtech-lab/argo-quant/pkg/marketdata/writer"
	"go.uber.org/zap"
)

const (
	binanceDailyInterval = "1d"
	// binancePageSize is the number of klines requested per call.
	binancePageSize = 500
)

// BinanceKlinesService is the builder used to request klines.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Limit(limit int) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient is the part of the binance client used for downloads.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPIAdapter struct {
	client *binance.Client
}

func (a *binanceAPIAdapter) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesAdapter{service: a.client.NewKlinesService()}
}

type binanceKlinesAdapter struct {
	service *binance.KlinesService
}

func (k *binanceKlinesAdapter) Symbol(symbol string) BinanceKlinesService {
	k.service.Symbol(symbol)

	return k
}

func (k *binanceKlinesAdapter) Interval(interval string) BinanceKlinesService {
	k.service.Interval(interval)

	return k
}

func (k *binanceKlinesAdapter) StartTime(startTime int64) BinanceKlinesService {
	k.service.StartTime(startTime)

	return k
}

func (k *binanceKlinesAdapter) EndTime(endTime int64) BinanceKlinesService {
	k.service.EndTime(endTime)

	return k
}

func (k *binanceKlinesAdapter) Limit(limit int) BinanceKlinesService {
	k.service.Limit(limit)

	return k
}

func (k *binanceKlinesAdapter) Do(ctx context.Context) ([]*binance.Kline, error) {
	return k.service.Do(ctx)
}

type BinanceClient struct {
	apiClient BinanceAPIClient
	writer    writer.MarketDataWriter
	logger    *logger.Logger
}

// NewBinanceClient creates a client for the public klines endpoint. No API key is needed.
func NewBinanceClient(log *logger.Logger) (Provider, error) {
	client := NewBinanceClientWithAPI(&binanceAPIAdapter{client: binance.NewClient("", "")})
	if log != nil {
		client.logger = log
	}

	return client, nil
}

// NewBinanceClientWithAPI creates a client over an existing API implementation.
func NewBinanceClientWithAPI(api BinanceAPIClient) *BinanceClient {
	return &BinanceClient{
		apiClient: api,
		writer:    nil,
		logger:    logger.NewNopLogger(),
	}
}

func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download pages through daily klines for ticker. Amount is the quote asset volume.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, onProgress OnDownloadProgress) (path string, err error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeInvalidConfiguration, "writer is not configured")
	}

	if endDate.Before(startDate) {
		return "", errors.New(errors.ErrCodeInvalidDate, "end date is before start date")
	}

	if err = c.writer.Initialize(); err != nil {
		return "", err
	}

	defer closeWriter(c.writer, c.logger, &err)

	// Binance API uses milliseconds for timestamps
	startTimeMillis := startDate.UnixMilli()
	endTimeMillis := endDate.UnixMilli()
	currentStartTime := startTimeMillis
	message := fmt.Sprintf("Downloading %s klines from Binance", ticker)
	processedCount := 0

	for currentStartTime <= endTimeMillis {
		klines, err := c.apiClient.NewKlinesService().
			Symbol(ticker).
			Interval(binanceDailyInterval).
			StartTime(currentStartTime).
			EndTime(endTimeMillis).
			Limit(binancePageSize).
			Do(ctx)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "failed to fetch klines from Binance", err)
		}

		if err := processKlines(c.writer, ticker, klines); err != nil {
			return "", err
		}

		processedCount += len(klines)

		if len(klines) < binancePageSize {
			break
		}

		// next page starts after the close of the last kline
		currentStartTime = klines[len(klines)-1].CloseTime + 1

		progress(onProgress, float64(min(currentStartTime, endTimeMillis)-startTimeMillis), float64(endTimeMillis-startTimeMillis), message)
	}

	if processedCount == 0 {
		return "", errors.Newf(errors.ErrCodeNoDataFound, "binance returned no klines for %s", ticker)
	}

	progress(onProgress, float64(endTimeMillis-startTimeMillis), float64(endTimeMillis-startTimeMillis), message)

	c.logger.Info("Finished downloading",
		zap.String("provider", string(ProviderBinance)),
		zap.String("ticker", ticker),
		zap.Int("bars", processedCount),
	)

	return c.writer.Finalize()
}

// processKlines converts binance klines to bars and writes them.
func processKlines(w writer.MarketDataWriter, ticker string, klines []*binance.Kline) error {
	for _, k := range klines {
		values := make([]float64, 6)

		for i, raw := range []string{k.Open, k.High, k.Low, k.Close, k.Volume, k.QuoteAssetVolume} {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "invalid kline value %q", raw)
			}

			values[i] = v
		}

		bar := types.Bar{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Symbol: ticker,
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
			Amount: values[5],
		}

		if err := w.Write(bar); err != nil {
			return err
		}
	}

	return nil
}
