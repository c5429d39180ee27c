package binance

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"MomentumPulse/internal/domain/models"
	drepo "MomentumPulse/internal/domain/repository"

	"github.com/gorilla/websocket"
)

const pingInterval = 3 * time.Minute

// Shard is one WebSocket connection carrying the ticker and kline
// subscriptions for a bounded batch of symbols.
type Shard struct {
	name           string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	subID     int
}

// NewShard creates a MarketStream for one symbol batch.
func NewShard(name, websocketURL string, symbols []string, reconnectDelay time.Duration) drepo.MarketStream {
	return &Shard{
		name:           name,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
	}
}

// Symbols returns the batch this shard owns.
func (s *Shard) Symbols() []string { return s.symbols }

// Connect dials the combined stream endpoint and subscribes the batch.
func (s *Shard) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL+"/stream", nil)
	if err != nil {
		return fmt.Errorf("shard %s connect: %w", s.name, err)
	}

	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()

	if err := s.subscribe(); err != nil {
		_ = s.Close()
		return err
	}
	return nil
}

// subscribe sends one SUBSCRIBE frame covering every channel of every
// symbol in the batch.
func (s *Shard) subscribe() error {
	params := make([]string, 0, len(s.symbols)*4)
	for _, sym := range s.symbols {
		lower := strings.ToLower(sym)
		params = append(params,
			lower+"@ticker",
			lower+"@kline_1m",
			lower+"@kline_5m",
			lower+"@kline_15m",
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || !s.connected {
		return fmt.Errorf("shard %s not connected", s.name)
	}
	s.subID++
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     s.subID,
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("shard %s subscribe: %w", s.name, err)
	}
	return nil
}

// Read streams decoded events and errors. The channels close when the
// read loop exits; a read error is terminal for this connection.
func (s *Shard) Read(ctx context.Context) (<-chan models.StreamEvent, <-chan error) {
	events := make(chan models.StreamEvent, 1024)
	errs := make(chan error, 1)
	done := make(chan struct{})

	// The ping loop lives exactly as long as this Read's reader, so a
	// reconnect never stacks up extra tickers.
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
				s.mu.Unlock()
			}
		}
	}()

	go func() {
		defer close(done)
		defer close(events)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			s.mu.Lock()
			conn := s.conn
			s.mu.Unlock()
			if conn == nil {
				errs <- fmt.Errorf("shard %s: no connection", s.name)
				return
			}

			_, b, err := conn.ReadMessage()
			if err != nil {
				errs <- fmt.Errorf("shard %s read: %w", s.name, err)
				return
			}

			event, ok := parseStreamMessage(b)
			if !ok {
				continue
			}
			select {
			case events <- event:
			default:
				// drop on backpressure
			}
		}
	}()

	return events, errs
}

// Reconnect tears the connection down, waits the fixed backoff and dials
// again with the same batch.
func (s *Shard) Reconnect(ctx context.Context) error {
	_ = s.Close()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	return s.Connect(ctx)
}

// Close closes the WS connection.
func (s *Shard) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (s *Shard) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
