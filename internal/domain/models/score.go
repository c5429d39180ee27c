package models

import "time"

// Sub-score maxima. The three analyzers report on these fixed scales and
// the unified total is their sum on a 0-100 scale.
const (
	MaxHistoricalScore = 25.0
	MaxTechnicalScore  = 50.0
	MaxConfluenceScore = 25.0
)

// HistoricalScore is the price-structure sub-score (0-25).
type HistoricalScore struct {
	Symbol           string   `json:"symbol"`
	Score            float64  `json:"score"`
	PriceComponent   float64  `json:"price_component"`
	PeakComponent    float64  `json:"peak_component"`
	PatternComponent float64  `json:"pattern_component"`
	Patterns         []string `json:"patterns,omitempty"`
	InsufficientData bool     `json:"insufficient_data,omitempty"`
}

// TechnicalScore is the indicator sub-score (0-50).
type TechnicalScore struct {
	Symbol           string   `json:"symbol"`
	Score            float64  `json:"score"`
	RSIComponent     float64  `json:"rsi_component"`
	MACDComponent    float64  `json:"macd_component"`
	VolumeComponent  float64  `json:"volume_component"`
	ConfluenceBonus  float64  `json:"confluence_bonus"`
	RSI              float64  `json:"rsi"`
	VolumeRatio      float64  `json:"volume_ratio"`
	Signals          []string `json:"signals,omitempty"`
	InsufficientData bool     `json:"insufficient_data,omitempty"`
}

// TimeframeVerdict classifies one timeframe's bias.
type TimeframeVerdict string

const (
	VerdictBullish     TimeframeVerdict = "BULLISH"
	VerdictWeakBullish TimeframeVerdict = "WEAK_BULLISH"
	VerdictNeutral     TimeframeVerdict = "NEUTRAL"
	VerdictBearish     TimeframeVerdict = "BEARISH"
)

// TimeframeAnalysis is the weighted per-timeframe breakdown feeding the
// confluence score.
type TimeframeAnalysis struct {
	Timeframe   Timeframe        `json:"timeframe"`
	Weight      float64          `json:"weight"`
	RawScore    float64          `json:"raw_score"`
	Weighted    float64          `json:"weighted"`
	Verdict     TimeframeVerdict `json:"verdict"`
	PriceAction float64          `json:"price_action"`
	Volume      float64          `json:"volume"`
	Indicators  float64          `json:"indicators"`
}

// ConfluenceScore is the multi-timeframe agreement sub-score (0-25).
type ConfluenceScore struct {
	Symbol       string              `json:"symbol"`
	Score        float64             `json:"score"`
	BullishCount int                 `json:"bullish_count"`
	Consistency  float64             `json:"consistency"`
	Timeframes   []TimeframeAnalysis `json:"timeframes,omitempty"`
}

// SignalTier bands the unified score.
type SignalTier string

const (
	TierStrong    SignalTier = "STRONG"
	TierHigh      SignalTier = "HIGH"
	TierMedium    SignalTier = "MEDIUM"
	TierWeak      SignalTier = "WEAK"
	TierDiscarded SignalTier = "DISCARDED"
)

// SignalStrength grades internal sub-score quality.
type SignalStrength string

const (
	StrengthVeryStrong SignalStrength = "VERY_STRONG"
	StrengthStrong     SignalStrength = "STRONG"
	StrengthModerate   SignalStrength = "MODERATE"
	StrengthWeak       SignalStrength = "WEAK"
	StrengthVeryWeak   SignalStrength = "VERY_WEAK"
)

// Recommendation is the suggested action for a unified signal.
type Recommendation string

const (
	RecStrongBuy Recommendation = "STRONG_BUY"
	RecBuy       Recommendation = "BUY"
	RecWeakBuy   Recommendation = "WEAK_BUY"
	RecWatch     Recommendation = "WATCH"
	RecHold      Recommendation = "HOLD"
)

// UnifiedSignal is the combined 0-100 assessment of one symbol.
type UnifiedSignal struct {
	Symbol            string          `json:"symbol"`
	Total             float64         `json:"total"`
	Historical        HistoricalScore `json:"historical"`
	Technical         TechnicalScore  `json:"technical"`
	Confluence        ConfluenceScore `json:"confluence"`
	Tier              SignalTier      `json:"tier"`
	Strength          SignalStrength  `json:"strength"`
	Recommendation    Recommendation  `json:"recommendation"`
	TargetProbability float64         `json:"target_probability"`
	RiskFactors       []string        `json:"risk_factors,omitempty"`
	Confirmations     []string        `json:"confirmations,omitempty"`
	Price             float64         `json:"price"`
	AnalyzedAt        time.Time       `json:"analyzed_at"`
}

// NormalizedSubScores returns the three sub-scores on a common 0-1 scale.
func (u *UnifiedSignal) NormalizedSubScores() [3]float64 {
	return [3]float64{
		u.Historical.Score / MaxHistoricalScore,
		u.Technical.Score / MaxTechnicalScore,
		u.Confluence.Score / MaxConfluenceScore,
	}
}
