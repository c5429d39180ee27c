package market

import (
	"MomentumPulse/internal/domain/models"
)

// candleBuffer is a fixed-capacity FIFO of closed candles. Appending at
// capacity evicts the oldest bar.
type candleBuffer struct {
	candles  []models.Candle
	capacity int
}

func newCandleBuffer(capacity int) *candleBuffer {
	return &candleBuffer{capacity: capacity}
}

func (b *candleBuffer) append(c models.Candle) {
	if len(b.candles) == b.capacity {
		copy(b.candles, b.candles[1:])
		b.candles[len(b.candles)-1] = c
		return
	}
	b.candles = append(b.candles, c)
}

func (b *candleBuffer) len() int { return len(b.candles) }

// snapshot returns a copy so readers never alias the writer's slice.
func (b *candleBuffer) snapshot() []models.Candle {
	out := make([]models.Candle, len(b.candles))
	copy(out, b.candles)
	return out
}

func (b *candleBuffer) closes() []float64 {
	out := make([]float64, len(b.candles))
	for i, c := range b.candles {
		out[i] = c.Close
	}
	return out
}

func (b *candleBuffer) volumes() []float64 {
	out := make([]float64, len(b.candles))
	for i, c := range b.candles {
		out[i] = c.Volume
	}
	return out
}
