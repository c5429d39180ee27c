package binance

import (
	"encoding/json"
	"time"

	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"
)

type combinedFrame struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type tickerPayload struct {
	EventType   string `json:"e"`
	Symbol      string `json:"s"`
	LastPrice   string `json:"c"`
	ChangePct   string `json:"P"`
	QuoteVolume string `json:"q"`
	High        string `json:"h"`
	Low         string `json:"l"`
	Bid         string `json:"b"`
	Ask         string `json:"a"`
}

type klinePayload struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Kline     struct {
		OpenTime    int64  `json:"t"`
		CloseTime   int64  `json:"T"`
		Interval    string `json:"i"`
		Open        string `json:"o"`
		High        string `json:"h"`
		Low         string `json:"l"`
		Close       string `json:"c"`
		Volume      string `json:"v"`
		QuoteVolume string `json:"q"`
		Closed      bool   `json:"x"`
	} `json:"k"`
}

// parseStreamMessage decodes one combined-stream frame into a tagged
// event. Open (not yet closed) klines and unknown frames are skipped.
func parseStreamMessage(b []byte) (models.StreamEvent, bool) {
	var frame combinedFrame
	if err := json.Unmarshal(b, &frame); err != nil || len(frame.Data) == 0 {
		return models.StreamEvent{}, false
	}

	var header struct {
		EventType string `json:"e"`
	}
	if err := json.Unmarshal(frame.Data, &header); err != nil {
		return models.StreamEvent{}, false
	}

	switch header.EventType {
	case "24hrTicker":
		var t tickerPayload
		if err := json.Unmarshal(frame.Data, &t); err != nil {
			return models.StreamEvent{}, false
		}
		return models.StreamEvent{Ticker: &models.Ticker24h{
			Symbol:         t.Symbol,
			LastPrice:      parseFloat(t.LastPrice),
			PriceChangePct: parseFloat(t.ChangePct),
			QuoteVolume:    parseFloat(t.QuoteVolume),
			High:           parseFloat(t.High),
			Low:            parseFloat(t.Low),
			BidPrice:       parseFloat(t.Bid),
			AskPrice:       parseFloat(t.Ask),
			UpdatedAt:      time.Now(),
		}}, true

	case "kline":
		var k klinePayload
		if err := json.Unmarshal(frame.Data, &k); err != nil {
			return models.StreamEvent{}, false
		}
		if !k.Kline.Closed {
			return models.StreamEvent{}, false
		}
		return models.StreamEvent{Candle: &models.Candle{
			Symbol:      k.Symbol,
			Timeframe:   drepo.NormalizeTimeframe(k.Kline.Interval),
			OpenTime:    time.UnixMilli(k.Kline.OpenTime).UTC(),
			CloseTime:   time.UnixMilli(k.Kline.CloseTime).UTC(),
			Open:        parseFloat(k.Kline.Open),
			High:        parseFloat(k.Kline.High),
			Low:         parseFloat(k.Kline.Low),
			Close:       parseFloat(k.Kline.Close),
			Volume:      parseFloat(k.Kline.Volume),
			QuoteVolume: parseFloat(k.Kline.QuoteVolume),
		}}, true
	}
	return models.StreamEvent{}, false
}
