package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"
	"MomentumPulse/internal/service/ratelimit"
	phttp "MomentumPulse/pkg/http"
)

// Binance weighs /api/v3/ticker/24hr at 40 against a 6000/min budget.
// The bucket keeps bursts of snapshot calls inside that allowance.
const (
	snapshotWeightCapacity = 120
	snapshotRefillPerSec   = 0.5
)

// /api/v3/klines costs 2 per call at limit <= 500; the backfill walks
// hundreds of symbol/interval pairs, so the bucket is sized for that.
const (
	klinesWeightCapacity = 600
	klinesRefillPerSec   = 10
	defaultKlineLimit    = 200
)

var errRateLimited = fmt.Errorf("snapshot rate limit exceeded")

// RestClient implements MarketSource over the Binance REST API.
type RestClient struct {
	baseURL string
	client  *phttp.Client
	limiter *ratelimit.Limiter
}

// NewRestClient creates a Binance REST MarketSource.
func NewRestClient(baseURL string, timeout time.Duration) drepo.MarketSource {
	return &RestClient{
		baseURL: baseURL,
		client:  phttp.NewClient(phttp.WithTimeout(timeout)),
		limiter: ratelimit.New(),
	}
}

type ticker24hPayload struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
	QuoteVolume        string `json:"quoteVolume"`
	HighPrice          string `json:"highPrice"`
	LowPrice           string `json:"lowPrice"`
	BidPrice           string `json:"bidPrice"`
	AskPrice           string `json:"askPrice"`
}

// Snapshot returns the current 24h ticker universe.
func (c *RestClient) Snapshot(ctx context.Context) ([]models.Ticker24h, error) {
	if !c.limiter.Allow("ticker24h", snapshotWeightCapacity, snapshotRefillPerSec) {
		return nil, errRateLimited
	}

	var payload []ticker24hPayload
	err := c.client.SendAndParse(ctx, &phttp.RequestOptions{
		Method: phttp.MethodGet,
		URL:    c.baseURL + "/api/v3/ticker/24hr",
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("ticker snapshot: %w", err)
	}

	now := time.Now()
	out := make([]models.Ticker24h, 0, len(payload))
	for _, p := range payload {
		out = append(out, models.Ticker24h{
			Symbol:         p.Symbol,
			LastPrice:      parseFloat(p.LastPrice),
			PriceChangePct: parseFloat(p.PriceChangePercent),
			QuoteVolume:    parseFloat(p.QuoteVolume),
			High:           parseFloat(p.HighPrice),
			Low:            parseFloat(p.LowPrice),
			BidPrice:       parseFloat(p.BidPrice),
			AskPrice:       parseFloat(p.AskPrice),
			UpdatedAt:      now,
		})
	}
	return out, nil
}

// Klines fetches up to limit bars for one symbol and interval, oldest
// first, the way the exchange returns them.
func (c *RestClient) Klines(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error) {
	if !c.limiter.Allow("klines", klinesWeightCapacity, klinesRefillPerSec) {
		return nil, errRateLimited
	}
	if limit <= 0 {
		limit = defaultKlineLimit
	}

	var payload [][]any
	err := c.client.SendAndParse(ctx, &phttp.RequestOptions{
		Method: phttp.MethodGet,
		URL:    c.baseURL + "/api/v3/klines",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {string(tf)},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("klines %s %s: %w", symbol, tf, err)
	}

	out := make([]models.Candle, 0, len(payload))
	for _, row := range payload {
		bar, ok := parseKlineRow(symbol, tf, row)
		if !ok {
			continue
		}
		out = append(out, bar)
	}
	return out, nil
}

// parseKlineRow decodes one REST kline array: open time, OHLCV strings,
// close time and quote volume by position.
func parseKlineRow(symbol string, tf models.Timeframe, row []any) (models.Candle, bool) {
	if len(row) < 8 {
		return models.Candle{}, false
	}
	openMs, ok := row[0].(float64)
	if !ok {
		return models.Candle{}, false
	}
	closeMs, _ := row[6].(float64)

	str := func(v any) float64 {
		s, _ := v.(string)
		return parseFloat(s)
	}
	return models.Candle{
		Symbol:      symbol,
		Timeframe:   tf,
		OpenTime:    time.UnixMilli(int64(openMs)).UTC(),
		CloseTime:   time.UnixMilli(int64(closeMs)).UTC(),
		Open:        str(row[1]),
		High:        str(row[2]),
		Low:         str(row[3]),
		Close:       str(row[4]),
		Volume:      str(row[5]),
		QuoteVolume: str(row[7]),
	}, true
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
