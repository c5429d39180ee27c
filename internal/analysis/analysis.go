package analysis

import (
	"MomentumPulse/internal/domain/models"
)

// MarketView is the read surface the analyzers consume. The market hub
// satisfies it; tests supply fixtures.
type MarketView interface {
	Candles(symbol string, tf models.Timeframe) []models.Candle
	Ticker(symbol string) (models.Ticker24h, bool)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func closesOf(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

func volumesOf(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}
