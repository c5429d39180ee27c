package analysis

import (
	"time"

	"MomentumPulse/internal/domain/models"
)

// Tier bands over the unified total.
const (
	tierStrongMin = 85.0
	tierHighMin   = 70.0
	tierMediumMin = 50.0
	tierWeakMin   = 30.0
)

// Unifier combines the three sub-scores into one 0-100 signal with a
// tier, strength grade, recommendation and target probability.
type Unifier struct {
	imbalancePenalty float64 // applied when normalized sub-score spread > 0.5
}

func NewUnifier(imbalancePenalty float64) *Unifier {
	if imbalancePenalty <= 0 {
		imbalancePenalty = 0.10
	}
	return &Unifier{imbalancePenalty: imbalancePenalty}
}

// Unify is a pure combination of the three sub-scores.
func (u *Unifier) Unify(symbol string, hist models.HistoricalScore, tech models.TechnicalScore, conf models.ConfluenceScore, price float64, now time.Time) *models.UnifiedSignal {
	sig := &models.UnifiedSignal{
		Symbol:     symbol,
		Historical: hist,
		Technical:  tech,
		Confluence: conf,
		Price:      price,
		AnalyzedAt: now,
	}

	sig.Total = clamp(hist.Score+tech.Score+conf.Score, 0, 100)
	sig.Tier = tierFor(sig.Total)
	sig.Strength = strengthFor(sig.Total, hist.Score, tech.Score, conf.Score)
	sig.Recommendation = recommendationFor(sig.Tier, sig.Strength, sig.Total)
	sig.TargetProbability = u.probability(sig)

	sig.RiskFactors = riskFactors(sig)
	sig.Confirmations = confirmations(sig)
	return sig
}

func tierFor(total float64) models.SignalTier {
	switch {
	case total >= tierStrongMin:
		return models.TierStrong
	case total >= tierHighMin:
		return models.TierHigh
	case total >= tierMediumMin:
		return models.TierMedium
	case total >= tierWeakMin:
		return models.TierWeak
	default:
		return models.TierDiscarded
	}
}

// strengthFor grades sub-score balance: a high total with a lagging
// sub-score is downgraded one notch.
func strengthFor(total, hist, tech, conf float64) models.SignalStrength {
	switch {
	case total >= tierStrongMin:
		if hist >= 15 && tech >= 35 && conf >= 18 {
			return models.StrengthVeryStrong
		}
		return models.StrengthStrong
	case total >= tierHighMin:
		if tech >= 25 && conf >= 15 {
			return models.StrengthStrong
		}
		return models.StrengthModerate
	case total >= tierMediumMin:
		return models.StrengthModerate
	case total >= tierWeakMin:
		return models.StrengthWeak
	default:
		return models.StrengthVeryWeak
	}
}

// recommendationFor combines tier, strength and the raw total. A MEDIUM
// signal under 60 never advances past WATCH, and BUY needs at least the
// HIGH tier.
func recommendationFor(tier models.SignalTier, strength models.SignalStrength, total float64) models.Recommendation {
	switch {
	case tier == models.TierStrong &&
		(strength == models.StrengthVeryStrong || strength == models.StrengthStrong):
		return models.RecStrongBuy
	case (tier == models.TierStrong || tier == models.TierHigh) &&
		(strength == models.StrengthStrong || strength == models.StrengthModerate):
		return models.RecBuy
	case (tier == models.TierHigh || tier == models.TierMedium) && total >= 60:
		return models.RecWeakBuy
	case tier == models.TierMedium && total >= 50:
		return models.RecWatch
	default:
		return models.RecHold
	}
}

// probability starts at total/100, adds bonuses for strong sub-scores and
// subtracts the imbalance penalty when one dimension carries the signal.
func (u *Unifier) probability(sig *models.UnifiedSignal) float64 {
	p := sig.Total / 100

	switch {
	case sig.Confluence.Score >= 20:
		p += 0.10
	case sig.Confluence.Score >= 15:
		p += 0.05
	}
	switch {
	case sig.Technical.Score >= 40:
		p += 0.08
	case sig.Technical.Score >= 30:
		p += 0.04
	}
	if sig.Historical.Score >= 20 {
		p += 0.05
	}

	if normalizedSpread(sig) > 0.5 {
		p -= u.imbalancePenalty
	}
	return clamp(p, 0, 0.95)
}

func normalizedSpread(sig *models.UnifiedSignal) float64 {
	n := sig.NormalizedSubScores()
	lo, hi := n[0], n[0]
	for _, v := range n[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return hi - lo
}

func riskFactors(sig *models.UnifiedSignal) []string {
	var out []string
	if sig.Technical.RSI >= 75 {
		out = append(out, "overbought_rsi")
	}
	if sig.Confluence.Score < 10 {
		out = append(out, "weak_timeframe_confirmation")
	}
	if sig.Historical.InsufficientData || sig.Technical.InsufficientData {
		out = append(out, "insufficient_history")
	}
	if normalizedSpread(sig) > 0.5 {
		out = append(out, "unbalanced_subscores")
	}
	return out
}

func confirmations(sig *models.UnifiedSignal) []string {
	var out []string
	out = append(out, sig.Technical.Signals...)
	out = append(out, sig.Historical.Patterns...)
	if sig.Confluence.BullishCount >= 3 {
		out = append(out, "timeframe_alignment")
	}
	return out
}
