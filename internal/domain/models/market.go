package models

import "time"

// Timeframe identifies a candle interval.
type Timeframe string

const (
	TF1m  Timeframe = "1m"
	TF5m  Timeframe = "5m"
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF12h Timeframe = "12h"
	TF1d  Timeframe = "1d"
)

// Candle is a single closed OHLCV bar.
type Candle struct {
	Symbol      string    `json:"symbol"`
	Timeframe   Timeframe `json:"timeframe"`
	OpenTime    time.Time `json:"open_time"`
	CloseTime   time.Time `json:"close_time"`
	Open        float64   `json:"open"`
	High        float64   `json:"high"`
	Low         float64   `json:"low"`
	Close       float64   `json:"close"`
	Volume      float64   `json:"volume"`
	QuoteVolume float64   `json:"quote_volume"`
}

// Green reports whether the candle closed above its open.
func (c Candle) Green() bool { return c.Close > c.Open }

// Ticker24h is a rolling 24-hour ticker snapshot for one symbol.
type Ticker24h struct {
	Symbol         string    `json:"symbol"`
	LastPrice      float64   `json:"last_price"`
	PriceChangePct float64   `json:"price_change_pct"`
	QuoteVolume    float64   `json:"quote_volume"`
	High           float64   `json:"high"`
	Low            float64   `json:"low"`
	BidPrice       float64   `json:"bid_price"`
	AskPrice       float64   `json:"ask_price"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// StreamEvent is a single parsed message from a market data shard.
// Exactly one of Ticker or Candle is set.
type StreamEvent struct {
	Ticker *Ticker24h
	Candle *Candle
}
