package repository

import (
	"context"
	"time"

	"MomentumPulse/internal/domain/models"
)

// MarketSource provides the tradable universe snapshot used to build
// stream shards, plus kline history for the horizons the stream does not
// carry.
type MarketSource interface {
	Snapshot(ctx context.Context) ([]models.Ticker24h, error)
	Klines(ctx context.Context, symbol string, tf models.Timeframe, limit int) ([]models.Candle, error)
}

// MarketStream is one sharded websocket connection to the exchange.
type MarketStream interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.StreamEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
	Symbols() []string
}

// SignalStore persists generated signals. Save reports whether the signal
// was stored, rejected as a duplicate, or failed.
type SignalStore interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, s *models.FinalSignal) (models.SaveOutcome, error)
	Recent(ctx context.Context, limit int) ([]*models.FinalSignal, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher emits generated signals to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, s *models.FinalSignal) error
	Close() error
}

// Notifier delivers an alert for a single signal. Delivery failures are
// the caller's to log; they never propagate into signal generation.
type Notifier interface {
	Notify(ctx context.Context, s *models.FinalSignal) error
}

// ResultCache holds recent per-symbol analysis results with a TTL.
type ResultCache interface {
	Get(ctx context.Context, symbol string) (*models.UnifiedSignal, bool)
	Set(ctx context.Context, symbol string, sig *models.UnifiedSignal, ttl time.Duration)
}

// Metrics is the pipeline's instrumentation surface.
type Metrics interface {
	RecordStreamMessage(shard string, kind string)
	RecordCandleAppended(timeframe string)
	RecordShardState(shard string, connected bool)
	RecordAnalysis(symbol string, seconds float64)
	RecordCycle(symbols int, seconds float64)
	RecordSignal(tier string, outcome string)
	RecordNotifyFailure()
	RecordError(kind string)
}
