package analysis

import (
	"testing"
	"time"

	"MomentumPulse/internal/domain/models"
	"MomentumPulse/internal/indicators"
)

// fakeView serves fixture candles to the analyzers.
type fakeView struct {
	candles map[models.Timeframe][]models.Candle
	ticker  models.Ticker24h
}

func (f *fakeView) Candles(_ string, tf models.Timeframe) []models.Candle {
	return f.candles[tf]
}

func (f *fakeView) Ticker(string) (models.Ticker24h, bool) {
	return f.ticker, f.ticker.Symbol != ""
}

// bullishSeries builds n green candles with closes rising stepPct per bar
// and a volume spike on the final bar.
func bullishSeries(tf models.Timeframe, n int, stepPct float64) []models.Candle {
	out := make([]models.Candle, n)
	price := 100.0
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price *= 1 + stepPct/100
		vol := 10.0
		if i == n-1 {
			vol = 25
		}
		out[i] = models.Candle{
			Symbol:    "BTCUSDT",
			Timeframe: tf,
			OpenTime:  base.Add(time.Duration(i) * time.Minute),
			Open:      price * 0.995,
			High:      price * 1.002,
			Low:       price * 0.99,
			Close:     price,
			Volume:    vol,
		}
	}
	return out
}

func TestConfluenceFullAlignmentCapsAt25(t *testing.T) {
	view := &fakeView{candles: map[models.Timeframe][]models.Candle{
		models.TF5m:  bullishSeries(models.TF5m, 40, 1),
		models.TF15m: bullishSeries(models.TF15m, 40, 1),
		models.TF1h:  bullishSeries(models.TF1h, 40, 1),
		models.TF4h:  bullishSeries(models.TF4h, 40, 1),
	}}

	got := NewConfluenceValidator().Analyze("BTCUSDT", view)
	if got.BullishCount != 4 {
		t.Fatalf("bullish count = %d, want 4", got.BullishCount)
	}
	if got.Score != models.MaxConfluenceScore {
		t.Fatalf("score = %v, want %v", got.Score, models.MaxConfluenceScore)
	}
	if got.Consistency != 1 {
		t.Fatalf("consistency = %v, want 1", got.Consistency)
	}
}

func TestVerdictBandsOnRawMomentum(t *testing.T) {
	cases := []struct {
		raw  float64
		want models.TimeframeVerdict
	}{
		{8, models.VerdictBullish},
		{7, models.VerdictBullish},
		{6, models.VerdictWeakBullish},
		{4, models.VerdictWeakBullish},
		{3.9, models.VerdictNeutral},
		{0, models.VerdictNeutral},
		{-4, models.VerdictBearish},
	}
	for _, tc := range cases {
		if got := verdictFor(tc.raw); got != tc.want {
			t.Fatalf("verdictFor(%v) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

// modestRiser builds a gently accelerating series whose last three bars
// go green, red, green: enough momentum for a weak-bullish raw sum but
// nowhere near a bullish one.
func modestRiser(tf models.Timeframe, n int) []models.Candle {
	out := make([]models.Candle, n)
	price := 100.0
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		switch i {
		case n - 2:
			price -= 0.1
		case n - 1:
			price += 0.2
		default:
			price *= 1.003
		}
		open := price - 0.05
		if i == n-2 {
			open = price + 0.05
		}
		vol := 10.0
		if i == n-1 {
			vol = 13
		}
		out[i] = models.Candle{
			Symbol:    "BTCUSDT",
			Timeframe: tf,
			OpenTime:  base.Add(time.Duration(i) * 4 * time.Hour),
			Open:      open,
			High:      price + 0.2,
			Low:       open - 0.2,
			Close:     price,
			Volume:    vol,
		}
	}
	return out
}

func TestTimeframeVerdictIgnoresWeight(t *testing.T) {
	view := &fakeView{candles: map[models.Timeframe][]models.Candle{
		models.TF4h: modestRiser(models.TF4h, 30),
	}}

	ta := NewConfluenceValidator().analyzeTimeframe("BTCUSDT", timeframeWeight{models.TF4h, 2.0}, view)
	if ta.RawScore < weakBullishThreshold || ta.RawScore >= bullishThreshold {
		t.Fatalf("fixture raw = %v, expected [%v,%v)", ta.RawScore, weakBullishThreshold, bullishThreshold)
	}
	if ta.Weighted < bullishThreshold {
		t.Fatalf("fixture weighted = %v, expected >= %v", ta.Weighted, bullishThreshold)
	}
	if ta.Verdict != models.VerdictWeakBullish {
		t.Fatalf("verdict = %s, want WEAK_BULLISH", ta.Verdict)
	}
}

func TestConfluenceNoDataStaysNeutral(t *testing.T) {
	got := NewConfluenceValidator().Analyze("BTCUSDT", &fakeView{candles: map[models.Timeframe][]models.Candle{}})
	if got.Score != 0 || got.BullishCount != 0 {
		t.Fatalf("empty view scored %v with %d bullish timeframes", got.Score, got.BullishCount)
	}
	for _, tf := range got.Timeframes {
		if tf.Verdict != models.VerdictNeutral {
			t.Fatalf("timeframe %s verdict = %s, want NEUTRAL", tf.Timeframe, tf.Verdict)
		}
	}
}

func TestRSIBullishZoneWithRisingTrendScores15(t *testing.T) {
	// Repeating +1, -0.5, +0.5, -0.4 steps keep Wilder RSI in the bullish
	// zone; the closing +1 step leaves the trend rising.
	steps := []float64{1, -0.5, 0.5, -0.4}
	closes := make([]float64, 62)
	closes[0] = 100
	for i := 1; i < len(closes); i++ {
		closes[i] = closes[i-1] + steps[(i-1)%len(steps)]
	}

	rsi, err := indicators.RSISeries(closes, rsiPeriod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	latest := rsi[len(rsi)-1]
	if latest < 50 || latest >= 75 {
		t.Fatalf("fixture RSI = %v, expected bullish zone [50,75)", latest)
	}
	if !indicators.Rising(rsi, 1) {
		t.Fatalf("fixture RSI not rising")
	}

	score, tag, _ := NewTechnicalAnalyzer(50).rsiScore(closes)
	if score != 15 {
		t.Fatalf("rsi component = %v, want 15", score)
	}
	if tag != "rsi_bullish" {
		t.Fatalf("tag = %q, want rsi_bullish", tag)
	}
}

func TestExplosiveVolumeScores15(t *testing.T) {
	volumes := make([]float64, 20)
	for i := range volumes {
		volumes[i] = 10
	}
	volumes[len(volumes)-1] = 60 // 6x the trailing average

	score, tag, ratio := NewTechnicalAnalyzer(50).volumeScore(volumes)
	if ratio < 5.9 || ratio > 6.1 {
		t.Fatalf("ratio = %v, want ~6", ratio)
	}
	if score != 15 {
		t.Fatalf("volume component = %v, want 15", score)
	}
	if tag != "volume_explosive" {
		t.Fatalf("tag = %q, want volume_explosive", tag)
	}
}

func TestTechnicalInsufficientDataFlags(t *testing.T) {
	view := &fakeView{candles: map[models.Timeframe][]models.Candle{
		models.TF1m: bullishSeries(models.TF1m, 10, 1),
	}}
	got := NewTechnicalAnalyzer(50).Analyze("BTCUSDT", view)
	if !got.InsufficientData || got.Score != 0 {
		t.Fatalf("short series gave score %v, flagged=%v", got.Score, got.InsufficientData)
	}
}

func TestTechnicalScoreBounds(t *testing.T) {
	view := &fakeView{candles: map[models.Timeframe][]models.Candle{
		models.TF1m: bullishSeries(models.TF1m, 120, 1),
	}}
	got := NewTechnicalAnalyzer(50).Analyze("BTCUSDT", view)
	if got.Score < 0 || got.Score > models.MaxTechnicalScore {
		t.Fatalf("score %v out of [0,%v]", got.Score, models.MaxTechnicalScore)
	}
}

func TestHistoricalInsufficientData(t *testing.T) {
	got := NewHistoricalAnalyzer(0.02).Analyze("BTCUSDT", &fakeView{candles: map[models.Timeframe][]models.Candle{}})
	if !got.InsufficientData || got.Score != 0 {
		t.Fatalf("empty view gave score %v, flagged=%v", got.Score, got.InsufficientData)
	}
}

func TestHistoricalSynthesizedWindowsFromDaily(t *testing.T) {
	// Eight daily bars are under the per-horizon floor, but the weekly
	// window needs only seven, so the analyzer still has structure.
	view := &fakeView{candles: map[models.Timeframe][]models.Candle{
		models.TF1d: bullishSeries(models.TF1d, 8, 2),
	}}
	got := NewHistoricalAnalyzer(0.02).Analyze("BTCUSDT", view)
	if got.InsufficientData {
		t.Fatalf("weekly window ignored, result flagged insufficient")
	}
	if got.PriceComponent <= 0 {
		t.Fatalf("rising daily tail gave price component %v", got.PriceComponent)
	}
}

func TestHistoricalLongHorizonsContribute(t *testing.T) {
	view := &fakeView{candles: map[models.Timeframe][]models.Candle{
		models.TF12h: bullishSeries(models.TF12h, 40, 2),
		models.TF1d:  bullishSeries(models.TF1d, 40, 2),
	}}
	got := NewHistoricalAnalyzer(0.02).Analyze("BTCUSDT", view)
	if got.InsufficientData {
		t.Fatalf("seeded long horizons flagged insufficient")
	}
	if got.Score <= 0 {
		t.Fatalf("long-horizon structure scored %v", got.Score)
	}
}

func TestHistoricalScoreBounds(t *testing.T) {
	view := &fakeView{candles: map[models.Timeframe][]models.Candle{
		models.TF1h:  bullishSeries(models.TF1h, 60, 2),
		models.TF4h:  bullishSeries(models.TF4h, 60, 2),
		models.TF12h: bullishSeries(models.TF12h, 30, 2),
		models.TF1d:  bullishSeries(models.TF1d, 30, 2),
	}}
	got := NewHistoricalAnalyzer(0.02).Analyze("BTCUSDT", view)
	if got.Score < 0 || got.Score > models.MaxHistoricalScore {
		t.Fatalf("score %v out of [0,%v]", got.Score, models.MaxHistoricalScore)
	}
	if got.InsufficientData {
		t.Fatalf("unexpected insufficient-data flag")
	}
}

func TestUnifierTierBands(t *testing.T) {
	cases := []struct {
		total float64
		tier  models.SignalTier
	}{
		{95, models.TierStrong},
		{85, models.TierStrong},
		{84, models.TierHigh},
		{70, models.TierHigh},
		{69, models.TierMedium},
		{50, models.TierMedium},
		{49, models.TierWeak},
		{30, models.TierWeak},
		{29, models.TierDiscarded},
		{0, models.TierDiscarded},
	}
	for _, tc := range cases {
		if got := tierFor(tc.total); got != tc.tier {
			t.Fatalf("tierFor(%v) = %s, want %s", tc.total, got, tc.tier)
		}
	}
}

func TestUnifierTotalIsClampedSum(t *testing.T) {
	u := NewUnifier(0.10)
	sig := u.Unify("BTCUSDT",
		models.HistoricalScore{Score: 20},
		models.TechnicalScore{Score: 45},
		models.ConfluenceScore{Score: 22},
		100, time.Now())
	if sig.Total != 87 {
		t.Fatalf("total = %v, want 87", sig.Total)
	}
	if sig.Tier != models.TierStrong {
		t.Fatalf("tier = %s, want STRONG", sig.Tier)
	}
}

func TestProbabilityClampedAt095(t *testing.T) {
	u := NewUnifier(0.10)
	sig := u.Unify("BTCUSDT",
		models.HistoricalScore{Score: 22},
		models.TechnicalScore{Score: 45},
		models.ConfluenceScore{Score: 23},
		100, time.Now())
	if sig.TargetProbability != 0.95 {
		t.Fatalf("probability = %v, want 0.95", sig.TargetProbability)
	}
}

func TestProbabilityImbalancePenalty(t *testing.T) {
	u := NewUnifier(0.10)
	sig := u.Unify("BTCUSDT",
		models.HistoricalScore{Score: 0},
		models.TechnicalScore{Score: 50},
		models.ConfluenceScore{Score: 0},
		100, time.Now())
	// base 0.5 + 0.08 technical bonus - 0.10 imbalance penalty
	want := 0.48
	if sig.TargetProbability < want-1e-9 || sig.TargetProbability > want+1e-9 {
		t.Fatalf("probability = %v, want %v", sig.TargetProbability, want)
	}
	found := false
	for _, r := range sig.RiskFactors {
		if r == "unbalanced_subscores" {
			found = true
		}
	}
	if !found {
		t.Fatalf("imbalanced signal missing risk factor: %v", sig.RiskFactors)
	}
}

func TestStrengthBalanceDowngrade(t *testing.T) {
	cases := []struct {
		total, hist, tech, conf float64
		want                    models.SignalStrength
	}{
		{90, 20, 45, 20, models.StrengthVeryStrong},
		{86, 25, 45, 10, models.StrengthStrong}, // confluence lagging
		{75, 25, 30, 20, models.StrengthStrong},
		{75, 40, 20, 15, models.StrengthModerate}, // technical below 25
		{72, 20, 40, 12, models.StrengthModerate}, // confluence below 15
		{55, 15, 25, 15, models.StrengthModerate},
		{40, 10, 20, 10, models.StrengthWeak},
		{20, 5, 10, 5, models.StrengthVeryWeak},
	}
	for _, tc := range cases {
		if got := strengthFor(tc.total, tc.hist, tc.tech, tc.conf); got != tc.want {
			t.Fatalf("strengthFor(%v,%v,%v,%v) = %s, want %s",
				tc.total, tc.hist, tc.tech, tc.conf, got, tc.want)
		}
	}
}

func TestRecommendationTable(t *testing.T) {
	cases := []struct {
		tier     models.SignalTier
		strength models.SignalStrength
		total    float64
		rec      models.Recommendation
	}{
		{models.TierStrong, models.StrengthVeryStrong, 90, models.RecStrongBuy},
		{models.TierStrong, models.StrengthStrong, 86, models.RecStrongBuy},
		{models.TierHigh, models.StrengthStrong, 78, models.RecBuy},
		{models.TierHigh, models.StrengthModerate, 72, models.RecBuy},
		{models.TierMedium, models.StrengthModerate, 65, models.RecWeakBuy},
		{models.TierMedium, models.StrengthModerate, 59, models.RecWatch},
		{models.TierMedium, models.StrengthModerate, 50, models.RecWatch},
		{models.TierWeak, models.StrengthWeak, 40, models.RecHold},
		{models.TierDiscarded, models.StrengthVeryWeak, 20, models.RecHold},
	}
	for _, tc := range cases {
		if got := recommendationFor(tc.tier, tc.strength, tc.total); got != tc.rec {
			t.Fatalf("recommendationFor(%s,%s,%v) = %s, want %s",
				tc.tier, tc.strength, tc.total, got, tc.rec)
		}
	}
}

func TestMediumTierUnderSixtyStaysWatch(t *testing.T) {
	u := NewUnifier(0.10)
	sig := u.Unify("BTCUSDT",
		models.HistoricalScore{Score: 13},
		models.TechnicalScore{Score: 27},
		models.ConfluenceScore{Score: 15},
		100, time.Now())
	if sig.Total != 55 {
		t.Fatalf("total = %v, want 55", sig.Total)
	}
	if sig.Recommendation != models.RecWatch {
		t.Fatalf("recommendation = %s, want WATCH", sig.Recommendation)
	}
}
