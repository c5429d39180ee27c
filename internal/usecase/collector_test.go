package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"
	"MomentumPulse/internal/market"
	"MomentumPulse/pkg/logger"
)

func TestUniverseFilter(t *testing.T) {
	f := UniverseFilter{QuoteAsset: "USDT", MinQuoteVolume: 1_000_000, MinPrice: 0.01, MaxPrice: 1000}

	cases := []struct {
		name   string
		ticker models.Ticker24h
		want   bool
	}{
		{"eligible", models.Ticker24h{Symbol: "BTCUSDT", LastPrice: 500, QuoteVolume: 5e6}, true},
		{"wrong quote", models.Ticker24h{Symbol: "BTCBUSD", LastPrice: 500, QuoteVolume: 5e6}, false},
		{"thin volume", models.Ticker24h{Symbol: "XYZUSDT", LastPrice: 5, QuoteVolume: 5e5}, false},
		{"too cheap", models.Ticker24h{Symbol: "SHIBUSDT", LastPrice: 0.001, QuoteVolume: 5e6}, false},
		{"too expensive", models.Ticker24h{Symbol: "BIGUSDT", LastPrice: 5000, QuoteVolume: 5e6}, false},
		{"price at bounds", models.Ticker24h{Symbol: "LOWUSDT", LastPrice: 0.01, QuoteVolume: 2e6}, true},
	}
	for _, tc := range cases {
		if got := f.Admit(tc.ticker); got != tc.want {
			t.Fatalf("%s: Admit = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestPartition(t *testing.T) {
	symbols := make([]string, 401)
	for i := range symbols {
		symbols[i] = "S"
	}
	batches := partition(symbols, 190)
	if len(batches) != 3 {
		t.Fatalf("got %d batches, want 3", len(batches))
	}
	if len(batches[0]) != 190 || len(batches[1]) != 190 || len(batches[2]) != 21 {
		t.Fatalf("batch sizes %d/%d/%d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
}

type fakeSource struct {
	tickers []models.Ticker24h

	mu      sync.Mutex
	klines  map[models.Timeframe][]models.Candle
	fetched []models.Timeframe
}

func (f *fakeSource) Snapshot(context.Context) ([]models.Ticker24h, error) {
	return f.tickers, nil
}

func (f *fakeSource) Klines(_ context.Context, _ string, tf models.Timeframe, _ int) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, tf)
	return f.klines[tf], nil
}

func (f *fakeSource) fetchedTimeframes() []models.Timeframe {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Timeframe(nil), f.fetched...)
}

type fakeStream struct {
	symbols   []string
	events    chan models.StreamEvent
	errs      chan error
	connected bool
}

func (f *fakeStream) Connect(context.Context) error {
	f.connected = true
	return nil
}
func (f *fakeStream) Read(context.Context) (<-chan models.StreamEvent, <-chan error) {
	return f.events, f.errs
}
func (f *fakeStream) Reconnect(ctx context.Context) error { return f.Connect(ctx) }
func (f *fakeStream) Close() error {
	f.connected = false
	return nil
}
func (f *fakeStream) IsConnected() bool  { return f.connected }
func (f *fakeStream) Symbols() []string  { return f.symbols }

var _ drepo.MarketStream = (*fakeStream)(nil)

func TestCollectorFeedsHub(t *testing.T) {
	hub := market.NewHub(200, logger.Nop())
	stream := &fakeStream{
		events: make(chan models.StreamEvent, 8),
		errs:   make(chan error, 1),
	}
	source := &fakeSource{tickers: []models.Ticker24h{
		{Symbol: "BTCUSDT", LastPrice: 500, QuoteVolume: 5e6},
	}}

	c := NewCollector(source, hub,
		func(name string, symbols []string) drepo.MarketStream {
			stream.symbols = symbols
			return stream
		},
		UniverseFilter{QuoteAsset: "USDT", MinQuoteVolume: 1e6, MinPrice: 0.01, MaxPrice: 1000},
		190, nopMetrics{}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	open := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	stream.events <- models.StreamEvent{Candle: &models.Candle{
		Symbol: "BTCUSDT", Timeframe: models.TF1m, OpenTime: open,
		Open: 499, High: 501, Low: 498, Close: 500, Volume: 3,
	}}

	deadline := time.After(2 * time.Second)
	for hub.CandleCount("BTCUSDT", models.TF1m) == 0 {
		select {
		case <-deadline:
			t.Fatalf("candle never reached the hub")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := c.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestCollectorBackfillsLongHorizons(t *testing.T) {
	hub := market.NewHub(200, logger.Nop())

	daily := make([]models.Candle, 30)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := range daily {
		daily[i] = models.Candle{
			Symbol: "BTCUSDT", Timeframe: models.TF1d,
			OpenTime: base.AddDate(0, 0, i),
			Open:     99, High: 101, Low: 98, Close: 100, Volume: 10,
		}
	}
	source := &fakeSource{
		tickers: []models.Ticker24h{{Symbol: "BTCUSDT", LastPrice: 500, QuoteVolume: 5e6}},
		klines:  map[models.Timeframe][]models.Candle{models.TF1d: daily},
	}

	c := NewCollector(source, hub,
		func(name string, symbols []string) drepo.MarketStream {
			return &fakeStream{
				events: make(chan models.StreamEvent),
				errs:   make(chan error, 1),
			}
		},
		UniverseFilter{QuoteAsset: "USDT", MinQuoteVolume: 1e6, MinPrice: 0.01, MaxPrice: 1000},
		190, nopMetrics{}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(5 * time.Second)
	for hub.CandleCount("BTCUSDT", models.TF1d) != len(daily) {
		select {
		case <-deadline:
			t.Fatalf("daily history never seeded: %d bars", hub.CandleCount("BTCUSDT", models.TF1d))
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	if err := c.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	got := map[models.Timeframe]bool{}
	for _, tf := range source.fetchedTimeframes() {
		got[tf] = true
	}
	for _, tf := range drepo.HistoryTimeframes {
		if !got[tf] {
			t.Fatalf("horizon %s never backfilled", tf)
		}
	}
}
