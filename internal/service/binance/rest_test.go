package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"MomentumPulse/internal/domain/models"
)

func TestKlinesDecodesRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/klines" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("symbol") != "BTCUSDT" || q.Get("interval") != "1d" || q.Get("limit") != "200" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			[1767225600000,"50000","51000","49500","50500","120.5",1767311999999,"6050000",1000,"60","3000000","0"],
			[1767312000000,"50500","52000","50400","51800","98.2",1767398399999,"5080000",900,"49","2540000","0"]
		]`))
	}))
	defer srv.Close()

	src := NewRestClient(srv.URL, 5*time.Second)
	got, err := src.Klines(context.Background(), "BTCUSDT", models.TF1d, 200)
	if err != nil {
		t.Fatalf("klines: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d candles, want 2", len(got))
	}
	first := got[0]
	if first.Symbol != "BTCUSDT" || first.Timeframe != models.TF1d {
		t.Fatalf("bad identity: %+v", first)
	}
	if first.Open != 50000 || first.Close != 50500 || first.Volume != 120.5 {
		t.Fatalf("bad OHLCV: %+v", first)
	}
	if !first.OpenTime.Equal(time.UnixMilli(1767225600000).UTC()) {
		t.Fatalf("open time = %v", first.OpenTime)
	}
	if got[1].Close != 51800 {
		t.Fatalf("second close = %v", got[1].Close)
	}
}

func TestKlinesSkipsMalformedRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			[1767225600000,"50000","51000","49500","50500","120.5",1767311999999,"6050000"],
			["not-a-time","1","1","1","1","1",2,"1"]
		]`))
	}))
	defer srv.Close()

	src := NewRestClient(srv.URL, 5*time.Second)
	got, err := src.Klines(context.Background(), "BTCUSDT", models.TF12h, 0)
	if err != nil {
		t.Fatalf("klines: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candles, want malformed row dropped", len(got))
	}
}
