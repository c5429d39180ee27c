package analysis

import (
	"MomentumPulse/internal/domain/models"
	"MomentumPulse/internal/indicators"
)

// Component caps for the technical score.
const (
	maxRSIComponent    = 15.0
	maxMACDComponent   = 20.0
	maxVolumeComponent = 15.0
	maxConfluenceBonus = 10.0
)

// MACD parameters tuned for short-horizon momentum.
const (
	macdFast   = 3
	macdSlow   = 10
	macdSignal = 16
)

const rsiPeriod = 14

// TechnicalAnalyzer scores short-horizon indicator momentum on the 1m
// series, falling back to 5m when the 1m buffer is still warming up.
type TechnicalAnalyzer struct {
	minPoints int
}

func NewTechnicalAnalyzer(minPoints int) *TechnicalAnalyzer {
	if minPoints <= 0 {
		minPoints = 50
	}
	return &TechnicalAnalyzer{minPoints: minPoints}
}

// Analyze produces the 0-50 technical sub-score for symbol. Fewer than
// minPoints closes yields a zero score flagged insufficient.
func (a *TechnicalAnalyzer) Analyze(symbol string, view MarketView) models.TechnicalScore {
	out := models.TechnicalScore{Symbol: symbol}

	candles := view.Candles(symbol, models.TF1m)
	if len(candles) < a.minPoints {
		candles = view.Candles(symbol, models.TF5m)
	}
	if len(candles) < a.minPoints {
		out.InsufficientData = true
		return out
	}

	closes := closesOf(candles)
	volumes := volumesOf(candles)

	rsiScore, rsiTag, rsiValue := a.rsiScore(closes)
	macdScore, macdTags := a.macdScore(closes)
	volScore, volTag, volRatio := a.volumeScore(volumes)

	out.RSIComponent = rsiScore
	out.MACDComponent = macdScore
	out.VolumeComponent = volScore
	out.RSI = rsiValue
	out.VolumeRatio = volRatio

	if rsiTag != "" {
		out.Signals = append(out.Signals, rsiTag)
	}
	out.Signals = append(out.Signals, macdTags...)
	if volTag != "" {
		out.Signals = append(out.Signals, volTag)
	}

	out.ConfluenceBonus = confluenceBonus(out.Signals, volRatio, &out)

	out.Score = clamp(rsiScore+macdScore+volScore+out.ConfluenceBonus, 0, models.MaxTechnicalScore)
	return out
}

// rsiScore tiers the RSI zone and rewards a rising trend.
func (a *TechnicalAnalyzer) rsiScore(closes []float64) (float64, string, float64) {
	rsi, err := indicators.RSISeries(closes, rsiPeriod)
	if err != nil {
		return 0, "", 0
	}
	latest := rsi[len(rsi)-1]

	var score float64
	var tag string
	switch {
	case latest >= 75:
		score, tag = 6, "rsi_overbought"
	case latest >= 50:
		score, tag = 12, "rsi_bullish"
	case latest >= 25:
		score, tag = 8, "rsi_recovery"
	}

	if indicators.Rising(rsi, 1) {
		score += 3
	}
	if score > maxRSIComponent {
		score = maxRSIComponent
	}
	return score, tag, latest
}

// macdScore stacks line-vs-signal position, histogram sign, fresh
// crossovers, and trend.
func (a *TechnicalAnalyzer) macdScore(closes []float64) (float64, []string) {
	res, err := indicators.MACD(closes, macdFast, macdSlow, macdSignal)
	if err != nil {
		return 0, nil
	}

	last := len(res.Line) - 1
	var score float64
	var tags []string

	if res.Line[last] > res.Signal[last] {
		score += 8
		tags = append(tags, "macd_bullish")
		if res.Histogram[last] > 0 {
			score += 4
		}
		if res.Histogram[last-1] <= 0 {
			score += 8
			tags = append(tags, "macd_crossover")
		}
	}
	if res.Line[last] > 0 {
		score += 3
	}
	if indicators.Rising(res.Line, 1) {
		score += 5
	}

	if score > maxMACDComponent {
		score = maxMACDComponent
	}
	return score, tags
}

// volumeScore tiers the latest volume against its 10-bar average.
func (a *TechnicalAnalyzer) volumeScore(volumes []float64) (float64, string, float64) {
	ratio, err := indicators.VolumeRatio(volumes, 10)
	if err != nil {
		return 0, "", 0
	}

	var score float64
	var tag string
	switch {
	case ratio >= 5:
		score, tag = 15, "volume_explosive"
	case ratio >= 3:
		score, tag = 12, "volume_surge"
	case ratio >= 2:
		score, tag = 8, "volume_high"
	case ratio >= 1.5:
		score, tag = 4, "volume_elevated"
	}

	if volumeIncreasing(volumes) {
		score += 3
	}
	if score > maxVolumeComponent {
		score = maxVolumeComponent
	}
	return score, tag, ratio
}

// volumeIncreasing compares the mean of the last three bars to the three
// before them.
func volumeIncreasing(volumes []float64) bool {
	if len(volumes) < 6 {
		return false
	}
	recent := indicators.Mean(volumes[len(volumes)-3:])
	prior := indicators.Mean(volumes[len(volumes)-6 : len(volumes)-3])
	return recent > prior
}

// confluenceBonus rewards co-occurring bullish tags.
func confluenceBonus(tags []string, volRatio float64, out *models.TechnicalScore) float64 {
	has := func(tag string) bool {
		for _, t := range tags {
			if t == tag {
				return true
			}
		}
		return false
	}

	rsiBullish := has("rsi_bullish") || has("rsi_recovery")
	macdBullish := has("macd_bullish")
	volumeActive := volRatio >= 2

	var bonus float64
	switch {
	case rsiBullish && macdBullish && volumeActive:
		bonus += 5
		out.Signals = append(out.Signals, "triple_confluence")
	case has("macd_crossover") && volRatio >= 3:
		bonus += 4
		out.Signals = append(out.Signals, "momentum_breakout")
	}
	if rsiBullish && macdBullish {
		bonus += 2
	}
	if volumeActive && macdBullish {
		bonus += 2
	}

	if bonus > maxConfluenceBonus {
		bonus = maxConfluenceBonus
	}
	return bonus
}
