package usecase

import (
	"sync"
	"testing"

	"MomentumPulse/internal/domain/models"
)

func unified(symbol string, total float64) *models.UnifiedSignal {
	return &models.UnifiedSignal{
		Symbol:            symbol,
		Total:             total,
		Historical:        models.HistoricalScore{Score: total / 4},
		Technical:         models.TechnicalScore{Score: total / 2},
		Confluence:        models.ConfluenceScore{Score: total / 4},
		Tier:              models.TierMedium,
		Recommendation:    models.RecWeakBuy,
		TargetProbability: total / 100,
	}
}

func TestTrendConvergesToStableOnConstantInput(t *testing.T) {
	ta := NewTrendAverager()
	for i := 0; i < 15; i++ {
		ta.Append(unified("BTCUSDT", 60))
	}

	snap, ok := ta.Snapshot("BTCUSDT")
	if !ok {
		t.Fatalf("no snapshot")
	}
	if snap.Direction != models.TrendStable {
		t.Fatalf("direction = %s, want STABLE", snap.Direction)
	}
	if snap.AvgTotal != 60 {
		t.Fatalf("avg = %v, want 60", snap.AvgTotal)
	}
	if snap.SampleCount != trendWindow {
		t.Fatalf("sample count = %d, want %d", snap.SampleCount, trendWindow)
	}
}

func TestTrendSnapshotIsIdempotent(t *testing.T) {
	ta := NewTrendAverager()
	for i := 0; i < trendWindow; i++ {
		ta.Append(unified("ETHUSDT", float64(50+i)))
	}

	a, _ := ta.Snapshot("ETHUSDT")
	b, _ := ta.Snapshot("ETHUSDT")
	a.UpdatedAt = b.UpdatedAt
	if a != b {
		t.Fatalf("snapshots differ on unchanged window:\n%+v\n%+v", a, b)
	}
}

func TestTrendStrengthening(t *testing.T) {
	ta := NewTrendAverager()
	// Older half ~50, newer half ~70.
	for i := 0; i < 5; i++ {
		ta.Append(unified("SOLUSDT", 50))
	}
	for i := 0; i < 5; i++ {
		ta.Append(unified("SOLUSDT", 70))
	}

	snap, _ := ta.Snapshot("SOLUSDT")
	if snap.Direction != models.TrendStrengthening {
		t.Fatalf("direction = %s, want STRENGTHENING", snap.Direction)
	}
	if snap.Magnitude != models.MagnitudeStrong {
		t.Fatalf("magnitude = %s, want STRONG (delta %v)", snap.Magnitude, snap.Delta)
	}
}

func TestTrendWeakeningModerate(t *testing.T) {
	ta := NewTrendAverager()
	for i := 0; i < 5; i++ {
		ta.Append(unified("ADAUSDT", 60))
	}
	for i := 0; i < 5; i++ {
		ta.Append(unified("ADAUSDT", 52))
	}

	snap, _ := ta.Snapshot("ADAUSDT")
	if snap.Direction != models.TrendWeakening {
		t.Fatalf("direction = %s, want WEAKENING (delta %v)", snap.Direction, snap.Delta)
	}
	if snap.Magnitude != models.MagnitudeModerate {
		t.Fatalf("magnitude = %s, want MODERATE", snap.Magnitude)
	}
}

func TestTrendWindowEvictsOldest(t *testing.T) {
	ta := NewTrendAverager()
	for i := 0; i < trendWindow+5; i++ {
		ta.Append(unified("XRPUSDT", float64(i)))
	}

	snap, _ := ta.Snapshot("XRPUSDT")
	// Window should hold values 5..14, mean 9.5.
	if snap.AvgTotal != 9.5 {
		t.Fatalf("avg = %v, want 9.5", snap.AvgTotal)
	}
}

func TestTrendModeTier(t *testing.T) {
	ta := NewTrendAverager()
	for i := 0; i < 6; i++ {
		s := unified("LTCUSDT", 72)
		s.Tier = models.TierHigh
		ta.Append(s)
	}
	for i := 0; i < 4; i++ {
		s := unified("LTCUSDT", 55)
		s.Tier = models.TierMedium
		ta.Append(s)
	}

	snap, _ := ta.Snapshot("LTCUSDT")
	if snap.Tier != models.TierHigh {
		t.Fatalf("mode tier = %s, want HIGH", snap.Tier)
	}
}

func TestTrendConcurrentSymbolsDoNotInterfere(t *testing.T) {
	ta := NewTrendAverager()
	symbols := []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "XRPUSDT"}

	var wg sync.WaitGroup
	for _, sym := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				ta.Append(unified(sym, float64(40+i%20)))
				ta.Snapshot(sym)
			}
		}(sym)
	}
	wg.Wait()

	for _, sym := range symbols {
		snap, ok := ta.Snapshot(sym)
		if !ok {
			t.Fatalf("no snapshot for %s", sym)
		}
		if snap.SampleCount != trendWindow {
			t.Fatalf("%s sample count = %d, want %d", sym, snap.SampleCount, trendWindow)
		}
	}
}
