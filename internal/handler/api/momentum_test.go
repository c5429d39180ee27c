package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"MomentumPulse/internal/domain/models"
	"MomentumPulse/internal/usecase"
	xlogger "MomentumPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type stubStore struct {
	signals []*models.FinalSignal
	err     error
}

func (s *stubStore) Init(ctx context.Context) error { return nil }
func (s *stubStore) Save(ctx context.Context, sig *models.FinalSignal) (models.SaveOutcome, error) {
	return models.SaveStored, nil
}
func (s *stubStore) Recent(ctx context.Context, limit int) ([]*models.FinalSignal, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit > 0 && limit < len(s.signals) {
		return s.signals[:limit], nil
	}
	return s.signals, nil
}
func (s *stubStore) Health(ctx context.Context) error { return nil }
func (s *stubStore) Close() error                     { return nil }

func newTestHandler(store *stubStore) (*MomentumHandler, *echo.Echo) {
	trends := usecase.NewTrendAverager()
	h := NewMomentumHandler(xlogger.Nop(), nil, trends, store)
	e := echo.New()
	return h, e
}

// envelopeStatus invokes the handler and returns the status code from the
// response body envelope; the transport code is always 200.
func envelopeStatus(t *testing.T, e *echo.Echo, h echo.HandlerFunc, target string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var envelope struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return envelope.Status, rec.Body.Bytes()
}

func TestSignalsReturnsStoredRows(t *testing.T) {
	store := &stubStore{signals: []*models.FinalSignal{
		{Symbol: "BTCUSDT", Score: 88, GeneratedAt: time.Now().UTC()},
		{Symbol: "ETHUSDT", Score: 72, GeneratedAt: time.Now().UTC()},
	}}
	h, e := newTestHandler(store)

	status, raw := envelopeStatus(t, e, h.Signals, "/api/v1/signals?limit=1")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}

	var body struct {
		Data []*models.FinalSignal `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Data) != 1 {
		t.Fatalf("len(data) = %d, want 1", len(body.Data))
	}
	if body.Data[0].Symbol != "BTCUSDT" {
		t.Fatalf("symbol = %q, want BTCUSDT", body.Data[0].Symbol)
	}
}

func TestSignalsSinceFiltersOldRows(t *testing.T) {
	now := time.Now().UTC()
	store := &stubStore{signals: []*models.FinalSignal{
		{Symbol: "BTCUSDT", Score: 88, GeneratedAt: now},
		{Symbol: "ETHUSDT", Score: 72, GeneratedAt: now.Add(-6 * time.Hour)},
	}}
	h, e := newTestHandler(store)

	since := now.Add(-time.Hour).Format(time.RFC3339)
	status, raw := envelopeStatus(t, e, h.Signals, "/api/v1/signals?since="+since)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}

	var body struct {
		Data []*models.FinalSignal `json:"data"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Symbol != "BTCUSDT" {
		t.Fatalf("got %d rows, want just BTCUSDT", len(body.Data))
	}
}

func TestSignalsRejectsOversizedLimit(t *testing.T) {
	h, e := newTestHandler(&stubStore{})

	status, _ := envelopeStatus(t, e, h.Signals, "/api/v1/signals?limit=9999")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", status, http.StatusBadRequest)
	}
}

func TestSignalsEmptyStoreYieldsEmptyList(t *testing.T) {
	h, e := newTestHandler(&stubStore{})

	status, raw := envelopeStatus(t, e, h.Signals, "/api/v1/signals")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if !strings.Contains(string(raw), `"data":[]`) {
		t.Fatalf("body = %s, want empty data list", raw)
	}
}

func TestTrendUnknownSymbolIsNotFound(t *testing.T) {
	h, e := newTestHandler(&stubStore{})

	status, _ := envelopeStatus(t, e, h.Trend, "/api/v1/trend?symbol=NOPEUSDT")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", status, http.StatusNotFound)
	}
}

func TestTrendRequiresSymbol(t *testing.T) {
	h, e := newTestHandler(&stubStore{})

	status, _ := envelopeStatus(t, e, h.Trend, "/api/v1/trend")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", status, http.StatusBadRequest)
	}
}
