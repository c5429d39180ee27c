package alert

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"MomentumPulse/internal/domain/models"
	"MomentumPulse/pkg/logger"
)

type recordingNotifier struct {
	notified []string
	fail     bool
}

func (r *recordingNotifier) Notify(_ context.Context, sig *models.FinalSignal) error {
	if r.fail {
		return errors.New("transport down")
	}
	r.notified = append(r.notified, sig.Symbol)
	return nil
}

type countingMetrics struct {
	notifyFailures int
}

func (m *countingMetrics) RecordStreamMessage(string, string) {}
func (m *countingMetrics) RecordCandleAppended(string)        {}
func (m *countingMetrics) RecordShardState(string, bool)      {}
func (m *countingMetrics) RecordAnalysis(string, float64)     {}
func (m *countingMetrics) RecordCycle(int, float64)           {}
func (m *countingMetrics) RecordSignal(string, string)        {}
func (m *countingMetrics) RecordNotifyFailure()               { m.notifyFailures++ }
func (m *countingMetrics) RecordError(string)                 {}

func signalJSON(t *testing.T, tier models.SignalTier, score float64) []byte {
	t.Helper()
	b, err := json.Marshal(&models.FinalSignal{Symbol: "BTCUSDT", Tier: tier, Score: score})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestDispatcherThreshold(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(n, &countingMetrics{}, logger.Nop(), DispatcherConfig{Topic: "momentum.signals", MinScore: 70})

	cases := []struct {
		tier  models.SignalTier
		score float64
		want  bool
	}{
		{models.TierStrong, 90, true},
		{models.TierHigh, 72, true},
		{models.TierHigh, 69, false},
		{models.TierMedium, 95, false},
		{models.TierStrong, 60, false},
	}
	for _, tc := range cases {
		if got := d.ShouldAlert(&models.FinalSignal{Tier: tc.tier, Score: tc.score}); got != tc.want {
			t.Fatalf("ShouldAlert(%s, %v) = %v, want %v", tc.tier, tc.score, got, tc.want)
		}
	}
}

func TestDispatcherSwallowsDeliveryFailure(t *testing.T) {
	n := &recordingNotifier{fail: true}
	m := &countingMetrics{}
	d := NewDispatcher(n, m, logger.Nop(), DispatcherConfig{Topic: "momentum.signals", MinScore: 70})

	if err := d.Handle(context.Background(), signalJSON(t, models.TierStrong, 90)); err != nil {
		t.Fatalf("delivery failure must not propagate, got %v", err)
	}
	if m.notifyFailures != 1 {
		t.Fatalf("notify failures = %d, want 1", m.notifyFailures)
	}
}

func TestDispatcherRejectsGarbage(t *testing.T) {
	d := NewDispatcher(&recordingNotifier{}, &countingMetrics{}, logger.Nop(), DispatcherConfig{Topic: "momentum.signals", MinScore: 70})
	if err := d.Handle(context.Background(), []byte("not json")); err == nil {
		t.Fatalf("garbage payload must error for DLQ routing")
	}
}

func TestMarkdownEscaping(t *testing.T) {
	got := escapeMarkdown("SOL-PERP (v1.2)")
	for _, frag := range []string{"\\-", "\\(", "\\)", "\\."} {
		if !strings.Contains(got, frag) {
			t.Fatalf("escaped text %q missing %q", got, frag)
		}
	}
}

func TestFormatAlertMentionsCoreFields(t *testing.T) {
	msg := formatAlert(&models.FinalSignal{
		Symbol:            "BTCUSDT",
		Score:             88.4,
		Tier:              models.TierStrong,
		Recommendation:    models.RecStrongBuy,
		TargetProbability: 0.81,
		Price:             50000,
	})
	for _, frag := range []string{"BTCUSDT", "STRONG", "81"} {
		if !strings.Contains(msg, frag) {
			t.Fatalf("alert %q missing %q", msg, frag)
		}
	}
}
