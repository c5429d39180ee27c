package market

import (
	"fmt"
	"sync"
	"time"

	"MomentumPulse/internal/domain/models"
	"MomentumPulse/internal/domain/repository"
	"MomentumPulse/pkg/logger"
)

// CandleObserver is invoked after a closed candle lands in a buffer.
// Observers must not block; panics are recovered and logged.
type CandleObserver func(symbol string, tf models.Timeframe, c models.Candle)

type symbolState struct {
	ticker  models.Ticker24h
	buffers map[models.Timeframe]*candleBuffer
}

// Hub holds the rolling in-memory market state for all tracked symbols:
// the latest 24h ticker plus a fixed-size candle history per timeframe.
type Hub struct {
	mu        sync.RWMutex
	symbols   map[string]*symbolState
	capacity  int
	observers []CandleObserver
	log       *logger.Logger
}

func NewHub(capacity int, log *logger.Logger) *Hub {
	return &Hub{
		symbols:  make(map[string]*symbolState),
		capacity: capacity,
		log:      log,
	}
}

// Track registers a symbol so its state exists before the first message.
func (h *Hub) Track(symbol string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ensureLocked(symbol)
}

func (h *Hub) ensureLocked(symbol string) *symbolState {
	st, ok := h.symbols[symbol]
	if !ok {
		st = &symbolState{buffers: make(map[models.Timeframe]*candleBuffer)}
		h.symbols[symbol] = st
	}
	return st
}

// RegisterObserver adds a candle-close callback. Must be called before
// streaming starts.
func (h *Hub) RegisterObserver(obs CandleObserver) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observers = append(h.observers, obs)
}

// ApplyTicker updates the 24h ticker state for the symbol.
func (h *Hub) ApplyTicker(t models.Ticker24h) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.ensureLocked(t.Symbol)
	st.ticker = t
}

// AppendCandle stores a closed candle and fires observers.
func (h *Hub) AppendCandle(c models.Candle) {
	h.mu.Lock()
	st := h.ensureLocked(c.Symbol)
	buf, ok := st.buffers[c.Timeframe]
	if !ok {
		buf = newCandleBuffer(h.capacity)
		st.buffers[c.Timeframe] = buf
	}
	buf.append(c)
	observers := h.observers
	h.mu.Unlock()

	for _, obs := range observers {
		h.invoke(obs, c)
	}
}

func (h *Hub) invoke(obs CandleObserver, c models.Candle) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("candle observer panicked",
				logger.String("symbol", c.Symbol),
				logger.String("timeframe", string(c.Timeframe)),
				logger.Error(fmt.Errorf("%v", r)))
		}
	}()
	obs(c.Symbol, c.Timeframe, c)
}

// SeedCandles replaces the buffer for one timeframe with history fetched
// outside the stream. Observers are not fired for backfilled bars.
func (h *Hub) SeedCandles(symbol string, tf models.Timeframe, candles []models.Candle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.ensureLocked(symbol)
	buf := newCandleBuffer(h.capacity)
	for _, c := range candles {
		c.Symbol = symbol
		c.Timeframe = tf
		buf.append(c)
	}
	st.buffers[tf] = buf
}

// Ticker returns the latest 24h ticker for symbol.
func (h *Hub) Ticker(symbol string) (models.Ticker24h, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st, ok := h.symbols[symbol]
	if !ok || st.ticker.Symbol == "" {
		return models.Ticker24h{}, false
	}
	return st.ticker, true
}

// Candles returns a copy of the buffered candles for symbol and tf.
// Non-streamed timeframes serve their seeded history extended with bars
// aggregated from 15m candles that opened after the seed.
func (h *Hub) Candles(symbol string, tf models.Timeframe) []models.Candle {
	h.mu.RLock()
	var buffered []models.Candle
	if st, ok := h.symbols[symbol]; ok {
		if buf, ok := st.buffers[tf]; ok {
			buffered = buf.snapshot()
		}
	}
	h.mu.RUnlock()

	if repository.IsStreamedTimeframe(tf) {
		return buffered
	}

	agg := h.aggregated(symbol, tf)
	if len(buffered) == 0 {
		return agg
	}
	last := buffered[len(buffered)-1].OpenTime
	for _, c := range agg {
		if c.OpenTime.After(last) {
			buffered = append(buffered, c)
		}
	}
	return buffered
}

// Closes returns the close series for symbol and tf.
func (h *Hub) Closes(symbol string, tf models.Timeframe) []float64 {
	candles := h.Candles(symbol, tf)
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Volumes returns the volume series for symbol and tf.
func (h *Hub) Volumes(symbol string, tf models.Timeframe) []float64 {
	candles := h.Candles(symbol, tf)
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// CandleCount reports how many bars are buffered for symbol and tf.
func (h *Hub) CandleCount(symbol string, tf models.Timeframe) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	st, ok := h.symbols[symbol]
	if !ok {
		return 0
	}
	buf, ok := st.buffers[tf]
	if !ok {
		return 0
	}
	return buf.len()
}

// SymbolCount reports how many symbols the hub tracks.
func (h *Hub) SymbolCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.symbols)
}

// TrackedSymbols returns the tracked symbol names.
func (h *Hub) TrackedSymbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.symbols))
	for s := range h.symbols {
		out = append(out, s)
	}
	return out
}

// aggregated rolls 15m bars up into tf-sized buckets keyed by open time.
func (h *Hub) aggregated(symbol string, tf models.Timeframe) []models.Candle {
	base := h.Candles(symbol, models.TF15m)
	if len(base) == 0 {
		return nil
	}
	dur := repository.TimeframeDuration(tf)

	var out []models.Candle
	var cur *models.Candle
	for _, c := range base {
		bucket := c.OpenTime.Truncate(dur)
		if cur == nil || !cur.OpenTime.Equal(bucket) {
			if cur != nil {
				out = append(out, *cur)
			}
			cc := c
			cc.Timeframe = tf
			cc.OpenTime = bucket
			cc.CloseTime = bucket.Add(dur - time.Millisecond)
			cur = &cc
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
		cur.QuoteVolume += c.QuoteVolume
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out
}
