package usecase

import (
	"sync"
	"time"

	"MomentumPulse/internal/domain/models"
	"MomentumPulse/internal/indicators"
)

// trendWindow is the number of recent unified results smoothed per symbol.
const trendWindow = 10

// Direction thresholds on the newer-half minus older-half score delta.
const (
	directionThreshold = 5.0
	strongThreshold    = 15.0
)

type trendEntry struct {
	mu     sync.Mutex
	window []*models.UnifiedSignal // ring, oldest first
}

// TrendAverager keeps a bounded window of past unified signals per
// symbol and derives a smoothed score with a direction verdict. Locking
// is per symbol entry so analysis cycles do not serialize on a global
// lock; the outer lock only guards the entry map.
type TrendAverager struct {
	mu      sync.RWMutex
	entries map[string]*trendEntry
}

func NewTrendAverager() *TrendAverager {
	return &TrendAverager{entries: make(map[string]*trendEntry)}
}

func (t *TrendAverager) entry(symbol string) *trendEntry {
	t.mu.RLock()
	e, ok := t.entries[symbol]
	t.mu.RUnlock()
	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[symbol]; ok {
		return e
	}
	e = &trendEntry{}
	t.entries[symbol] = e
	return e
}

// Append records one cycle's result for the symbol, evicting the oldest
// beyond the window capacity.
func (t *TrendAverager) Append(sig *models.UnifiedSignal) {
	e := t.entry(sig.Symbol)
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.window) == trendWindow {
		copy(e.window, e.window[1:])
		e.window[trendWindow-1] = sig
		return
	}
	e.window = append(e.window, sig)
}

// Snapshot derives the smoothed view for one symbol. The same window
// always yields the same snapshot.
func (t *TrendAverager) Snapshot(symbol string) (models.TrendSnapshot, bool) {
	t.mu.RLock()
	e, ok := t.entries[symbol]
	t.mu.RUnlock()
	if !ok {
		return models.TrendSnapshot{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.window) == 0 {
		return models.TrendSnapshot{}, false
	}

	n := len(e.window)
	totals := make([]float64, n)
	snap := models.TrendSnapshot{Symbol: symbol, SampleCount: n, UpdatedAt: time.Now()}

	tierCounts := map[models.SignalTier]int{}
	recCounts := map[models.Recommendation]int{}
	for i, sig := range e.window {
		totals[i] = sig.Total
		snap.AvgTotal += sig.Total
		snap.AvgHistorical += sig.Historical.Score
		snap.AvgTechnical += sig.Technical.Score
		snap.AvgConfluence += sig.Confluence.Score
		snap.AvgProbability += sig.TargetProbability
		tierCounts[sig.Tier]++
		recCounts[sig.Recommendation]++
	}
	fn := float64(n)
	snap.AvgTotal /= fn
	snap.AvgHistorical /= fn
	snap.AvgTechnical /= fn
	snap.AvgConfluence /= fn
	snap.AvgProbability /= fn

	snap.Tier = modeTier(tierCounts, e.window)
	snap.Recommendation = modeRec(recCounts, e.window)

	snap.Delta = halfDelta(totals)
	switch {
	case snap.Delta > directionThreshold:
		snap.Direction = models.TrendStrengthening
	case snap.Delta < -directionThreshold:
		snap.Direction = models.TrendWeakening
	default:
		snap.Direction = models.TrendStable
	}
	if snap.Delta > strongThreshold || snap.Delta < -strongThreshold {
		snap.Magnitude = models.MagnitudeStrong
	} else {
		snap.Magnitude = models.MagnitudeModerate
	}
	return snap, true
}

// Symbols lists every symbol with at least one recorded result.
func (t *TrendAverager) Symbols() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.entries))
	for s := range t.entries {
		out = append(out, s)
	}
	return out
}

// halfDelta compares the mean of the newer half of the series to the
// mean of the older half.
func halfDelta(totals []float64) float64 {
	if len(totals) < 2 {
		return 0
	}
	mid := len(totals) / 2
	older := indicators.Mean(totals[:mid])
	newer := indicators.Mean(totals[mid:])
	return newer - older
}

// modeTier picks the most frequent tier, breaking ties toward the most
// recent occurrence.
func modeTier(counts map[models.SignalTier]int, window []*models.UnifiedSignal) models.SignalTier {
	best, bestCount := window[len(window)-1].Tier, 0
	for i := len(window) - 1; i >= 0; i-- {
		tier := window[i].Tier
		if counts[tier] > bestCount {
			best, bestCount = tier, counts[tier]
		}
	}
	return best
}

func modeRec(counts map[models.Recommendation]int, window []*models.UnifiedSignal) models.Recommendation {
	best, bestCount := window[len(window)-1].Recommendation, 0
	for i := len(window) - 1; i >= 0; i-- {
		rec := window[i].Recommendation
		if counts[rec] > bestCount {
			best, bestCount = rec, counts[rec]
		}
	}
	return best
}
