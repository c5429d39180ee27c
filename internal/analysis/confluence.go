package analysis

import (
	"MomentumPulse/internal/domain/models"
	"MomentumPulse/internal/indicators"
)

// timeframeWeight pairs a confluence timeframe with its weight. Longer
// horizons count more.
type timeframeWeight struct {
	tf     models.Timeframe
	weight float64
}

var confluenceTimeframes = []timeframeWeight{
	{models.TF5m, 1.0},
	{models.TF15m, 1.2},
	{models.TF1h, 1.5},
	{models.TF4h, 2.0},
}

// Verdict thresholds on the raw per-timeframe momentum sum. Weights only
// enter the consistency ratio, never the verdict.
const (
	bullishThreshold     = 7.0
	weakBullishThreshold = 4.0
	bearishThreshold     = -4.0
)

// minConfluenceBars covers RSI(14) and SMA(20) warmup.
const minConfluenceBars = 21

// ConfluenceValidator checks whether bullish momentum agrees across
// timeframes and scores the agreement 0-25.
type ConfluenceValidator struct{}

func NewConfluenceValidator() *ConfluenceValidator {
	return &ConfluenceValidator{}
}

// Analyze produces the 0-25 confluence sub-score for symbol. Timeframes
// without enough bars stay NEUTRAL but still dilute consistency.
func (v *ConfluenceValidator) Analyze(symbol string, view MarketView) models.ConfluenceScore {
	out := models.ConfluenceScore{Symbol: symbol}

	var totalWeight, bullishWeight, rawSum float64
	for _, tw := range confluenceTimeframes {
		ta := v.analyzeTimeframe(symbol, tw, view)
		out.Timeframes = append(out.Timeframes, ta)

		totalWeight += tw.weight
		rawSum += ta.RawScore
		if ta.Verdict == models.VerdictBullish {
			out.BullishCount++
			bullishWeight += tw.weight
		}
	}

	if totalWeight > 0 {
		out.Consistency = bullishWeight / totalWeight
	}

	score := bullishCountScore(out.BullishCount)
	score += strengthScore(rawSum / float64(len(confluenceTimeframes)))
	score += consistencyScore(out.Consistency)

	out.Score = clamp(score, 0, models.MaxConfluenceScore)
	return out
}

func (v *ConfluenceValidator) analyzeTimeframe(symbol string, tw timeframeWeight, view MarketView) models.TimeframeAnalysis {
	ta := models.TimeframeAnalysis{Timeframe: tw.tf, Weight: tw.weight, Verdict: models.VerdictNeutral}

	candles := view.Candles(symbol, tw.tf)
	if len(candles) < minConfluenceBars {
		return ta
	}

	ta.PriceAction = priceActionScore(candles)
	ta.Volume = volumeTrendScore(volumesOf(candles))
	ta.Indicators = indicatorScore(closesOf(candles))

	ta.RawScore = ta.PriceAction + ta.Volume + ta.Indicators
	ta.Weighted = ta.RawScore * tw.weight
	ta.Verdict = verdictFor(ta.RawScore)
	return ta
}

// verdictFor bands the raw momentum sum of one timeframe.
func verdictFor(raw float64) models.TimeframeVerdict {
	switch {
	case raw >= bullishThreshold:
		return models.VerdictBullish
	case raw >= weakBullishThreshold:
		return models.VerdictWeakBullish
	case raw <= bearishThreshold:
		return models.VerdictBearish
	default:
		return models.VerdictNeutral
	}
}

// priceActionScore looks at the last three candles: color majority plus
// a rising/falling close sequence. Range -5..+5.
func priceActionScore(candles []models.Candle) float64 {
	last := candles[len(candles)-3:]

	green := 0
	for _, c := range last {
		if c.Green() {
			green++
		}
	}

	var score float64
	switch green {
	case 3:
		score += 3
	case 2:
		score += 1
	case 1:
		score -= 1
	case 0:
		score -= 3
	}

	if last[2].Close > last[1].Close && last[1].Close > last[0].Close {
		score += 2
	} else if last[2].Close < last[1].Close && last[1].Close < last[0].Close {
		score -= 2
	}
	return score
}

// volumeTrendScore compares the latest of five volumes to the average of
// the prior four. Range -3..+3.
func volumeTrendScore(volumes []float64) float64 {
	if len(volumes) < 5 {
		return 0
	}
	window := volumes[len(volumes)-5:]
	avg := indicators.Mean(window[:4])
	if avg == 0 {
		return 0
	}
	ratio := window[4] / avg
	switch {
	case ratio >= 2:
		return 3
	case ratio >= 1.5:
		return 2
	case ratio >= 1.2:
		return 1
	case ratio <= 0.5:
		return -2
	case ratio <= 0.8:
		return -1
	default:
		return 0
	}
}

// indicatorScore combines RSI zone, MACD posture and distance from SMA20.
// Range -3..+3 after clamping.
func indicatorScore(closes []float64) float64 {
	var score float64

	if rsi, err := indicators.RSISeries(closes, rsiPeriod); err == nil {
		latest := rsi[len(rsi)-1]
		switch {
		case latest > 70:
			score += 1
		case latest > 50:
			score += 2
		case latest > 30:
			score += 1
		default:
			score -= 1
		}
	}

	if res, err := indicators.MACD(closes, macdFast, macdSlow, macdSignal); err == nil {
		last := len(res.Line) - 1
		if res.Line[last] > res.Signal[last] {
			score += 1
		} else {
			score -= 1
		}
	}

	if sma, err := indicators.SMA(closes, 20); err == nil && sma > 0 {
		dist := (closes[len(closes)-1] - sma) / sma * 100
		if dist > 2 {
			score += 1
		} else if dist < -2 {
			score -= 1
		}
	}

	return clamp(score, -3, 3)
}

// bullishCountScore is the step function over agreeing timeframes.
func bullishCountScore(count int) float64 {
	switch count {
	case 4:
		return 15
	case 3:
		return 12
	case 2:
		return 8
	case 1:
		return 3
	default:
		return 0
	}
}

// strengthScore converts the average raw momentum into 0-6 points.
func strengthScore(avgRaw float64) float64 {
	if avgRaw <= 0 {
		return 0
	}
	s := float64(int(avgRaw * 0.6))
	if s > 6 {
		s = 6
	}
	return s
}

// consistencyScore is the step function over the weighted bullish ratio.
func consistencyScore(ratio float64) float64 {
	switch {
	case ratio >= 0.9:
		return 4
	case ratio >= 0.75:
		return 3
	case ratio >= 0.6:
		return 2
	case ratio >= 0.5:
		return 1
	default:
		return 0
	}
}
