package usecase

import (
	"context"
	"testing"
	"time"

	"MomentumPulse/internal/domain/models"
	"MomentumPulse/pkg/logger"
)

type fakeStore struct {
	saved []*models.FinalSignal
}

func (f *fakeStore) Init(context.Context) error { return nil }
func (f *fakeStore) Save(_ context.Context, s *models.FinalSignal) (models.SaveOutcome, error) {
	f.saved = append(f.saved, s)
	return models.SaveStored, nil
}
func (f *fakeStore) Recent(context.Context, int) ([]*models.FinalSignal, error) { return nil, nil }
func (f *fakeStore) Health(context.Context) error                               { return nil }
func (f *fakeStore) Close() error                                               { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordStreamMessage(string, string)  {}
func (nopMetrics) RecordCandleAppended(string)         {}
func (nopMetrics) RecordShardState(string, bool)       {}
func (nopMetrics) RecordAnalysis(string, float64)      {}
func (nopMetrics) RecordCycle(int, float64)            {}
func (nopMetrics) RecordSignal(string, string)         {}
func (nopMetrics) RecordNotifyFailure()                {}
func (nopMetrics) RecordError(string)                  {}

func strongCandidate(symbol string, total float64) *models.UnifiedSignal {
	return &models.UnifiedSignal{
		Symbol:            symbol,
		Total:             total,
		Historical:        models.HistoricalScore{Score: 20},
		Technical:         models.TechnicalScore{Score: 45},
		Confluence:        models.ConfluenceScore{Score: 22},
		Tier:              models.TierStrong,
		Recommendation:    models.RecStrongBuy,
		TargetProbability: 0.8,
		Price:             100,
	}
}

func newTestGenerator(store *fakeStore, quota, overflow int) *Generator {
	return NewGenerator(store, nil, nil, nopMetrics{}, logger.Nop(), GeneratorConfig{
		DedupWindow:    2 * time.Hour,
		Validity:       4 * time.Hour,
		DailyQuota:     quota,
		StrongOverflow: overflow,
	})
}

func TestEligibilityGateRejectsWeakLowProbability(t *testing.T) {
	sig := &models.UnifiedSignal{
		Symbol:            "DOGEUSDT",
		Total:             40,
		Tier:              models.TierWeak,
		Recommendation:    models.RecWeakBuy,
		TargetProbability: 0.3,
		Historical:        models.HistoricalScore{Score: 13},
		Technical:         models.TechnicalScore{Score: 26},
		Confluence:        models.ConfluenceScore{Score: 1},
	}
	if Eligible(sig) {
		t.Fatalf("score 40 WEAK with probability 0.3 must be rejected")
	}
}

func TestEligibilityNeedsTwoSubScoresAboveHalf(t *testing.T) {
	sig := strongCandidate("BTCUSDT", 60)
	sig.Historical.Score = 5
	sig.Technical.Score = 10
	sig.Confluence.Score = 20
	if Eligible(sig) {
		t.Fatalf("only one sub-score above half its max must be rejected")
	}
	sig.Technical.Score = 30
	if !Eligible(sig) {
		t.Fatalf("two sub-scores above half must pass")
	}
}

func TestDedupSuppressesRepeatWithinWindow(t *testing.T) {
	store := &fakeStore{}
	g := newTestGenerator(store, 10, 0)

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return base }

	first := g.Process(context.Background(), []*models.UnifiedSignal{strongCandidate("BTCUSDT", 90)})
	if len(first) != 1 {
		t.Fatalf("first pass emitted %d, want 1", len(first))
	}

	g.now = func() time.Time { return base.Add(30 * time.Minute) }
	second := g.Process(context.Background(), []*models.UnifiedSignal{strongCandidate("BTCUSDT", 92)})
	if len(second) != 0 {
		t.Fatalf("repeat within dedup window emitted %d, want 0", len(second))
	}

	g.now = func() time.Time { return base.Add(3 * time.Hour) }
	third := g.Process(context.Background(), []*models.UnifiedSignal{strongCandidate("BTCUSDT", 92)})
	if len(third) != 1 {
		t.Fatalf("signal after dedup window emitted %d, want 1", len(third))
	}
}

func TestDailyQuotaWithStrongOverflow(t *testing.T) {
	store := &fakeStore{}
	g := newTestGenerator(store, 3, 2)

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	pass := 0
	g.now = func() time.Time { return base.Add(time.Duration(pass) * 3 * time.Hour) }

	symbols := []string{"AUSDT", "BUSDT", "CUSDT", "DUSDT", "EUSDT", "FUSDT", "GUSDT"}
	var total int
	for ; pass < 3; pass++ {
		var batch []*models.UnifiedSignal
		for _, s := range symbols {
			batch = append(batch, strongCandidate(s+string(rune('0'+pass)), 90))
		}
		total += len(g.Process(context.Background(), batch))
	}

	// Quota 3 plus at most 2 extra STRONG for the whole day.
	if total > 5 {
		t.Fatalf("emitted %d signals, want at most 5", total)
	}
	if g.EmittedToday() != total {
		t.Fatalf("EmittedToday = %d, want %d", g.EmittedToday(), total)
	}
}

func TestQuotaOverflowOnlyForStrong(t *testing.T) {
	store := &fakeStore{}
	g := newTestGenerator(store, 1, 2)

	base := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return base }

	high := strongCandidate("HIGHUSDT", 75)
	high.Tier = models.TierHigh
	high.Recommendation = models.RecBuy

	batch := []*models.UnifiedSignal{
		strongCandidate("S1USDT", 90),
		strongCandidate("S2USDT", 89),
		high,
	}
	emitted := g.Process(context.Background(), batch)

	// Slot 1 by quota, slot 2 by STRONG overflow; the HIGH signal is out.
	if len(emitted) != 2 {
		t.Fatalf("emitted %d, want 2", len(emitted))
	}
	for _, fs := range emitted {
		if fs.Tier != models.TierStrong {
			t.Fatalf("non-STRONG signal %s admitted past quota", fs.Symbol)
		}
	}
}

func TestOneSlotPerSymbolPerPass(t *testing.T) {
	store := &fakeStore{}
	g := newTestGenerator(store, 10, 0)
	g.now = func() time.Time { return time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC) }

	batch := []*models.UnifiedSignal{
		strongCandidate("BTCUSDT", 90),
		strongCandidate("BTCUSDT", 88),
	}
	emitted := g.Process(context.Background(), batch)
	if len(emitted) != 1 {
		t.Fatalf("emitted %d for one symbol, want 1", len(emitted))
	}
}

func TestFinalSignalValidity(t *testing.T) {
	store := &fakeStore{}
	g := newTestGenerator(store, 3, 0)
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	emitted := g.Process(context.Background(), []*models.UnifiedSignal{strongCandidate("BTCUSDT", 90)})
	if len(emitted) != 1 {
		t.Fatalf("emitted %d, want 1", len(emitted))
	}
	fs := emitted[0]
	if !fs.ValidUntil.Equal(now.Add(4 * time.Hour)) {
		t.Fatalf("ValidUntil = %v, want now+4h", fs.ValidUntil)
	}
	if fs.Expired(now.Add(3 * time.Hour)) {
		t.Fatalf("signal expired early")
	}
	if !fs.Expired(now.Add(5 * time.Hour)) {
		t.Fatalf("signal not expired after validity window")
	}
}

func TestPriorityFavorsBalancedHigherScores(t *testing.T) {
	strong := strongCandidate("AUSDT", 90)
	weakish := strongCandidate("BUSDT", 60)
	weakish.Tier = models.TierMedium
	weakish.Recommendation = models.RecWeakBuy
	weakish.TargetProbability = 0.4

	if Priority(strong) <= Priority(weakish) {
		t.Fatalf("priority ordering wrong: %v <= %v", Priority(strong), Priority(weakish))
	}
}
