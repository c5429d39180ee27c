package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"
	"MomentumPulse/internal/market"
	"MomentumPulse/pkg/logger"
)

// UniverseFilter gates which snapshot symbols join the stream universe.
type UniverseFilter struct {
	QuoteAsset     string
	MinQuoteVolume float64
	MinPrice       float64
	MaxPrice       float64
}

// Admit applies the liquidity and price gates to one ticker.
func (f UniverseFilter) Admit(t models.Ticker24h) bool {
	if !strings.HasSuffix(t.Symbol, f.QuoteAsset) {
		return false
	}
	if t.QuoteVolume < f.MinQuoteVolume {
		return false
	}
	return t.LastPrice >= f.MinPrice && t.LastPrice <= f.MaxPrice
}

// ShardFactory builds one MarketStream for a named symbol batch.
type ShardFactory func(name string, symbols []string) drepo.MarketStream

// History backfill pacing for the horizons the stream does not carry.
const (
	historyBars            = 200
	historyRefreshInterval = time.Hour
	historyFetchSpacing    = 75 * time.Millisecond
)

// Collector shards the eligible universe across stream connections and
// feeds every decoded event into the market hub. Each shard runs its own
// loop; a dead connection only ever takes down its own batch.
type Collector struct {
	source    drepo.MarketSource
	hub       *market.Hub
	newShard  ShardFactory
	filter    UniverseFilter
	shardSize int
	metrics   drepo.Metrics
	log       *logger.Logger

	mu     sync.Mutex
	shards []drepo.MarketStream
	wg     sync.WaitGroup
}

func NewCollector(source drepo.MarketSource, hub *market.Hub, newShard ShardFactory, filter UniverseFilter, shardSize int, metrics drepo.Metrics, log *logger.Logger) *Collector {
	return &Collector{
		source:    source,
		hub:       hub,
		newShard:  newShard,
		filter:    filter,
		shardSize: shardSize,
		metrics:   metrics,
		log:       log,
	}
}

// Start snapshots the universe, partitions it into shards and launches
// one loop per shard. It returns once all shard loops are running.
func (c *Collector) Start(ctx context.Context) error {
	snapshot, err := c.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("universe snapshot: %w", err)
	}

	var universe []string
	for _, t := range snapshot {
		if !c.filter.Admit(t) {
			continue
		}
		universe = append(universe, t.Symbol)
		c.hub.Track(t.Symbol)
		c.hub.ApplyTicker(t)
	}
	if len(universe) == 0 {
		return fmt.Errorf("universe snapshot: no symbols passed the filter")
	}

	batches := partition(universe, c.shardSize)
	c.log.Info("starting stream shards",
		logger.Int("symbols", len(universe)),
		logger.Int("shards", len(batches)))

	c.mu.Lock()
	for i, batch := range batches {
		shard := c.newShard(fmt.Sprintf("shard-%d", i), batch)
		c.shards = append(c.shards, shard)
		c.wg.Add(1)
		go c.runShard(ctx, fmt.Sprintf("shard-%d", i), shard)
	}
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runHistory(ctx, universe)
	return nil
}

// runHistory backfills the long-horizon buffers from REST klines and
// keeps refreshing them, so 12h and daily analysis has real bars instead
// of the sliver the 15m window can reconstruct.
func (c *Collector) runHistory(ctx context.Context, symbols []string) {
	defer c.wg.Done()

	c.seedHistory(ctx, symbols)
	ticker := time.NewTicker(historyRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.seedHistory(ctx, symbols)
		}
	}
}

func (c *Collector) seedHistory(ctx context.Context, symbols []string) {
	seeded := 0
	for _, sym := range symbols {
		for _, tf := range drepo.HistoryTimeframes {
			if ctx.Err() != nil {
				return
			}
			candles, err := c.source.Klines(ctx, sym, tf, historyBars)
			if err != nil {
				c.metrics.RecordError("kline_backfill")
				c.log.Warn("kline backfill failed",
					logger.String("symbol", sym),
					logger.String("timeframe", string(tf)),
					logger.Error(err))
				continue
			}
			if len(candles) > 0 {
				c.hub.SeedCandles(sym, tf, candles)
				seeded++
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(historyFetchSpacing):
			}
		}
	}
	c.log.Info("long-horizon history seeded", logger.Int("series", seeded))
}

// runShard owns one connection: connect, drain, and on any failure back
// off and reconnect until the context dies.
func (c *Collector) runShard(ctx context.Context, name string, shard drepo.MarketStream) {
	defer c.wg.Done()

	for ctx.Err() == nil {
		if !shard.IsConnected() {
			if err := shard.Connect(ctx); err != nil {
				c.metrics.RecordError("shard_connect")
				c.metrics.RecordShardState(name, false)
				c.log.Warn("shard connect failed",
					logger.String("shard", name), logger.Error(err))
				if err := shard.Reconnect(ctx); err != nil && ctx.Err() != nil {
					return
				}
				continue
			}
		}
		c.metrics.RecordShardState(name, true)

		events, errs := shard.Read(ctx)
		c.drain(ctx, name, events, errs)

		c.metrics.RecordShardState(name, false)
		if ctx.Err() != nil {
			return
		}
		if err := shard.Reconnect(ctx); err != nil {
			c.metrics.RecordError("shard_reconnect")
			c.log.Warn("shard reconnect failed",
				logger.String("shard", name), logger.Error(err))
		}
	}
}

// drain consumes one connection's events until it errors or the context
// is cancelled.
func (c *Collector) drain(ctx context.Context, name string, events <-chan models.StreamEvent, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			if err != nil {
				c.metrics.RecordError("stream_read")
				c.log.Warn("shard stream error",
					logger.String("shard", name), logger.Error(err))
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.apply(name, ev)
		}
	}
}

func (c *Collector) apply(shard string, ev models.StreamEvent) {
	switch {
	case ev.Ticker != nil:
		c.hub.ApplyTicker(*ev.Ticker)
		c.metrics.RecordStreamMessage(shard, "ticker")
	case ev.Candle != nil:
		c.hub.AppendCandle(*ev.Candle)
		c.metrics.RecordStreamMessage(shard, "candle")
		c.metrics.RecordCandleAppended(string(ev.Candle.Timeframe))
	}
}

// ConnectedShards reports how many shards currently hold a connection.
func (c *Collector) ConnectedShards() (connected, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.shards {
		if s.IsConnected() {
			connected++
		}
	}
	return connected, len(c.shards)
}

// Shutdown closes every shard connection and waits for the loops.
func (c *Collector) Shutdown() error {
	c.mu.Lock()
	for _, s := range c.shards {
		_ = s.Close()
	}
	c.mu.Unlock()
	c.wg.Wait()
	return nil
}

func partition(symbols []string, size int) [][]string {
	if size <= 0 {
		size = len(symbols)
	}
	var out [][]string
	for start := 0; start < len(symbols); start += size {
		end := start + size
		if end > len(symbols) {
			end = len(symbols)
		}
		out = append(out, symbols[start:end])
	}
	return out
}
