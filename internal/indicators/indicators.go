package indicators

import (
	"errors"
	"math"
)

// ErrNotEnoughData is returned when a series is shorter than the
// indicator's warmup window.
var ErrNotEnoughData = errors.New("indicators: not enough data points")

// SMA returns the simple moving average of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if period <= 0 || len(values) < period {
		return 0, ErrNotEnoughData
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// Mean returns the arithmetic mean of values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// EMASeries computes an exponential moving average with the standard
// smoothing alpha = 2/(period+1), seeded with the first value.
func EMASeries(values []float64, period int) []float64 {
	if len(values) == 0 || period <= 0 {
		return nil
	}
	alpha := 2.0 / float64(period+1)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// RSISeries computes the relative strength index with Wilder smoothing
// (alpha = 1/period). The first period entries are warmup and carry the
// first computed value.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 || len(closes) <= period {
		return nil, ErrNotEnoughData
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	out := make([]float64, len(closes))
	out[period] = rsiFrom(avgGain, avgLoss)
	for i := 0; i < period; i++ {
		out[i] = out[period]
	}
	for i := period + 1; i < len(closes); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out, nil
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDResult holds the MACD line, signal line and histogram series.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes MACD as EMA(fast) - EMA(slow) with an EMA(signal)
// smoothing of the line.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	if len(closes) < slow+signal {
		return MACDResult{}, ErrNotEnoughData
	}
	fastEMA := EMASeries(closes, fast)
	slowEMA := EMASeries(closes, slow)
	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	sig := EMASeries(line, signal)
	hist := make([]float64, len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return MACDResult{Line: line, Signal: sig, Histogram: hist}, nil
}

// VolumeRatio compares the latest volume to the average of the lookback
// bars preceding it.
func VolumeRatio(volumes []float64, lookback int) (float64, error) {
	if lookback <= 0 || len(volumes) < lookback+1 {
		return 0, ErrNotEnoughData
	}
	avg := Mean(volumes[len(volumes)-lookback-1 : len(volumes)-1])
	if avg == 0 {
		return 0, nil
	}
	return volumes[len(volumes)-1] / avg, nil
}

// Rising reports whether the last value of a series is above the value
// lag steps earlier.
func Rising(values []float64, lag int) bool {
	if len(values) <= lag {
		return false
	}
	return values[len(values)-1] > values[len(values)-1-lag]
}

// Peak is a local price maximum.
type Peak struct {
	Index  int
	Price  float64
	Height float64 // smaller margin over the neighbors as a fraction of the peak
}

// Peaks finds 3-point local maxima that exceed both adjacent values by at
// least minProminence of the peak's own value (fractional, e.g. 0.02).
func Peaks(closes []float64, minProminence float64) []Peak {
	var peaks []Peak
	for i := 1; i < len(closes)-1; i++ {
		if closes[i] <= closes[i-1] || closes[i] <= closes[i+1] || closes[i] <= 0 {
			continue
		}
		margin := closes[i] - closes[i-1]
		if m := closes[i] - closes[i+1]; m < margin {
			margin = m
		}
		height := margin / closes[i]
		if height >= minProminence {
			peaks = append(peaks, Peak{Index: i, Price: closes[i], Height: height})
		}
	}
	return peaks
}

// StdDev returns the population standard deviation of values.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
