package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	drepo "SkyIndex/internal/domain/repository"
	applogger "SkyIndex/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream is a QuoteStream backed by the market data provider's WebSocket
// feed. It exists to keep the freshest prices ahead of the candle API, which
// lags by up to a trading day for the slower exchanges.
type Stream struct {
	apiKey         string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	l              *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

func NewStream(apiKey, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) drepo.QuoteStream {
	return &Stream{
		apiKey:         apiKey,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		l:              l,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?token=%s", s.websocketURL, s.apiKey)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("quote stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	if s.l != nil {
		s.l.Info("quote stream connected")
	}
	return nil
}

// Subscribe subscribes to the configured symbols.
func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	conn, connected := s.conn, s.connected
	s.mu.Unlock()
	if conn == nil || !connected {
		return fmt.Errorf("quote stream not connected")
	}
	for _, sym := range s.symbols {
		msg := map[string]string{"type": "subscribe", "symbol": sym}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", sym, err)
		}
	}
	if s.l != nil {
		s.l.Info("quote stream subscribed", applogger.Int("symbols", len(s.symbols)))
	}
	return nil
}

type wsTick struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string   `json:"type"`
	Data []wsTick `json:"data"`
}

// Read streams quotes and errors until the connection breaks or ctx ends.
// Both channels are closed when the read loop exits; the ping goroutine is
// bound to the same connection and stops with it, so a later Read on a
// fresh connection never has two writers on one conn.
func (s *Stream) Read(ctx context.Context) (<-chan *drepo.Quote, <-chan error) {
	quotes := make(chan *drepo.Quote, 1024)
	errs := make(chan error, 1)

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	done := make(chan struct{})

	// ping loop, one per connection
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if conn != nil {
					_ = conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(quotes)
		defer close(errs)
		defer close(done)
		if conn == nil {
			errs <- fmt.Errorf("quote stream conn nil")
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			default:
				_, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("quote stream read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-tick frames
					continue
				}
				if m.Type != "trade" {
					continue
				}
				for _, d := range m.Data {
					q := &drepo.Quote{
						Symbol:    d.S,
						Price:     d.P,
						Volume:    d.V,
						Timestamp: time.UnixMilli(d.T),
					}
					select {
					case quotes <- q:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return quotes, errs
}

// Reconnect closes and reconnects after the configured delay.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.connected = false
	s.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// IsConnected reports the connection state.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
