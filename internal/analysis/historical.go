package analysis

import (
	"MomentumPulse/internal/domain/models"
	"MomentumPulse/internal/indicators"
)

// Component caps for the historical score.
const (
	maxPriceComponent   = 8.0
	maxPeakComponent    = 10.0
	maxPatternComponent = 7.0
)

// historicalHorizons are the long-horizon candle sets the analyzer walks,
// longest first so patterns favor structure over noise.
var historicalHorizons = []models.Timeframe{models.TF1h, models.TF4h, models.TF12h, models.TF1d}

// minHorizonBars is the floor below which a horizon contributes nothing.
const minHorizonBars = 10

// Weekly and monthly structure is synthesized from the tail of the daily
// series rather than fetched as its own interval.
const (
	weeklyWindowBars  = 7
	monthlyWindowBars = 30
)

// HistoricalAnalyzer scores long-horizon price structure: position versus
// rolling averages, peak topology, and recurring bullish patterns.
type HistoricalAnalyzer struct {
	peakProminence float64
}

func NewHistoricalAnalyzer(peakProminence float64) *HistoricalAnalyzer {
	if peakProminence <= 0 {
		peakProminence = 0.02
	}
	return &HistoricalAnalyzer{peakProminence: peakProminence}
}

// Analyze produces the 0-25 historical sub-score for symbol. Horizons
// without enough bars are skipped; when nothing is usable the result is a
// zero score flagged insufficient, never an error.
func (a *HistoricalAnalyzer) Analyze(symbol string, view MarketView) models.HistoricalScore {
	out := models.HistoricalScore{Symbol: symbol}

	usable := 0
	for _, tf := range historicalHorizons {
		candles := view.Candles(symbol, tf)
		if len(candles) < minHorizonBars {
			continue
		}
		usable++
		closes := closesOf(candles)

		out.PriceComponent += priceVsAverage(closes)
		out.PeakComponent += a.peakScore(closes)
	}

	// Synthesized 1w and 1mo windows over the daily tail.
	daily := view.Candles(symbol, models.TF1d)
	for _, bars := range []int{weeklyWindowBars, monthlyWindowBars} {
		if len(daily) < bars {
			continue
		}
		usable++
		closes := closesOf(daily[len(daily)-bars:])

		out.PriceComponent += priceVsAverage(closes)
		out.PeakComponent += a.peakScore(closes)
	}

	if usable == 0 {
		out.InsufficientData = true
		return out
	}

	if out.PriceComponent > maxPriceComponent {
		out.PriceComponent = maxPriceComponent
	}
	if out.PeakComponent > maxPeakComponent {
		out.PeakComponent = maxPeakComponent
	}

	patterns, tags := a.patternScore(view.Candles(symbol, models.TF1h))
	out.PatternComponent = patterns
	out.Patterns = tags

	out.Score = clamp(out.PriceComponent+out.PeakComponent+out.PatternComponent, 0, models.MaxHistoricalScore)
	return out
}

// priceVsAverage tiers how far the latest close sits above the horizon
// average.
func priceVsAverage(closes []float64) float64 {
	avg := indicators.Mean(closes)
	if avg <= 0 {
		return 0
	}
	pct := (closes[len(closes)-1] - avg) / avg * 100
	switch {
	case pct > 5:
		return 3
	case pct > 2:
		return 2
	case pct > 0:
		return 1
	default:
		return 0
	}
}

// peakScore rewards recent local maxima and their average prominence.
func (a *HistoricalAnalyzer) peakScore(closes []float64) float64 {
	peaks := indicators.Peaks(closes, a.peakProminence)
	if len(peaks) == 0 {
		return 0
	}

	recentFrom := len(closes) - 20
	recent := 0
	var totalHeight float64
	for _, p := range peaks {
		if p.Index >= recentFrom {
			recent++
		}
		totalHeight += p.Height * 100
	}

	score := float64(recent * 2)
	if score > 4 {
		score = 4
	}

	avgHeight := totalHeight / float64(len(peaks))
	switch {
	case avgHeight > 10:
		score += 3
	case avgHeight > 5:
		score += 2
	case avgHeight > 2:
		score += 1
	}
	return score
}

// patternScore counts sustained rises, volume-confirmed breakouts and
// oversold reversals on the hourly series.
func (a *HistoricalAnalyzer) patternScore(candles []models.Candle) (float64, []string) {
	if len(candles) < minHorizonBars {
		return 0, nil
	}

	var tags []string
	var score float64

	rises := sustainedRises(candles)
	if rises > 0 {
		if rises > 3 {
			rises = 3
		}
		score += float64(rises)
		tags = append(tags, "sustained_rise")
	}

	breakouts := volumeBreakouts(candles)
	if breakouts > 0 {
		pts := float64(breakouts * 2)
		if pts > 4 {
			pts = 4
		}
		score += pts
		tags = append(tags, "volume_breakout")
	}

	reversals := oversoldReversals(closesOf(candles))
	if reversals > 0 {
		if reversals > 2 {
			reversals = 2
		}
		score += float64(reversals)
		tags = append(tags, "oversold_reversal")
	}

	if score > maxPatternComponent {
		score = maxPatternComponent
	}
	return score, tags
}

// sustainedRises counts runs of three or more consecutive green candles.
func sustainedRises(candles []models.Candle) int {
	runs, streak := 0, 0
	for _, c := range candles {
		if c.Green() {
			streak++
			if streak == 3 {
				runs++
			}
			continue
		}
		streak = 0
	}
	return runs
}

// volumeBreakouts counts closes above the prior high backed by at least
// twice the 10-bar average volume.
func volumeBreakouts(candles []models.Candle) int {
	const lookback = 10
	count := 0
	for i := lookback + 1; i < len(candles); i++ {
		if candles[i].Close <= candles[i-1].High {
			continue
		}
		var avg float64
		for j := i - lookback; j < i; j++ {
			avg += candles[j].Volume
		}
		avg /= lookback
		if avg > 0 && candles[i].Volume > 2*avg {
			count++
		}
	}
	return count
}

// oversoldReversals counts RSI dips below 30 followed by a higher close.
func oversoldReversals(closes []float64) int {
	rsi, err := indicators.RSISeries(closes, 14)
	if err != nil {
		return 0
	}
	count := 0
	for i := 15; i < len(rsi)-1; i++ {
		if rsi[i] < 30 && closes[i+1] > closes[i] {
			count++
		}
	}
	return count
}
