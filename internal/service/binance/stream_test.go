package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// wsDropServer accepts the connection, swallows the subscribe frame and
// hangs up, forcing the shard's read loop to exit.
func wsDropServer(t *testing.T) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_, _, _ = conn.ReadMessage()
		_ = conn.Close()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReadCyclesDoNotLeakPingLoops(t *testing.T) {
	srv := wsDropServer(t)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	s := NewShard("shard-0", wsURL, []string{"BTCUSDT"}, time.Millisecond)
	ctx := context.Background()

	before := runtime.NumGoroutine()
	for i := 0; i < 3; i++ {
		if err := s.Connect(ctx); err != nil {
			t.Fatalf("connect %d: %v", i, err)
		}
		events, errs := s.Read(ctx)
		for events != nil || errs != nil {
			select {
			case _, ok := <-events:
				if !ok {
					events = nil
				}
			case _, ok := <-errs:
				if !ok {
					errs = nil
				}
			case <-time.After(2 * time.Second):
				t.Fatalf("read loop %d never exited", i)
			}
		}
		_ = s.Close()
	}

	deadline := time.After(2 * time.Second)
	for runtime.NumGoroutine() > before+1 {
		select {
		case <-deadline:
			t.Fatalf("goroutines grew from %d to %d across reconnects",
				before, runtime.NumGoroutine())
		case <-time.After(10 * time.Millisecond):
		}
	}
}
