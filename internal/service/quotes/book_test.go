package quotes

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	drepo "SkyIndex/internal/domain/repository"
)

type noopMetrics struct{}

func (noopMetrics) RecordIndexValue(float64)                   {}
func (noopMetrics) RecordComponentScore(string, float64, bool) {}
func (noopMetrics) RecordCalcDuration(float64)                 {}
func (noopMetrics) RecordError(string)                         {}
func (noopMetrics) RecordSnapshotPublished(string)             {}

// flappingStream drops its first read loop with an error and then rejects
// the first failReconnects reconnect attempts before coming back.
type flappingStream struct {
	failReconnects int

	mu         sync.Mutex
	reads      int
	reconnects int
	connected  bool
}

func (s *flappingStream) Connect(ctx context.Context) error {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *flappingStream) Subscribe(ctx context.Context) error { return nil }

func (s *flappingStream) Read(ctx context.Context) (<-chan *drepo.Quote, <-chan error) {
	s.mu.Lock()
	s.reads++
	first := s.reads == 1
	s.mu.Unlock()

	quotes := make(chan *drepo.Quote, 4)
	errs := make(chan error, 1)
	if first {
		errs <- errors.New("feed dropped")
		close(quotes)
		close(errs)
		return quotes, errs
	}
	quotes <- &drepo.Quote{Symbol: "SPY", Price: 501.25, Timestamp: time.Now()}
	return quotes, errs
}

func (s *flappingStream) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	if s.reconnects <= s.failReconnects {
		return errors.New("dial: connection refused")
	}
	s.connected = true
	return nil
}

func (s *flappingStream) Close() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}

func (s *flappingStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *flappingStream) reconnectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects
}

func TestLiveBookRetriesFailedReconnect(t *testing.T) {
	stream := &flappingStream{failReconnects: 2}
	b := NewLiveBook(stream, noopMetrics{}, time.Minute, nil)
	b.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := b.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if q, ok := b.Fresh("SPY"); ok {
			if q.Price != 501.25 {
				t.Fatalf("unexpected price %v", q.Price)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("live price never recovered, reconnect attempts: %d", stream.reconnectCount())
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := stream.reconnectCount(); got != 3 {
		t.Fatalf("expected 3 reconnect attempts, got %d", got)
	}
}

func TestLiveBookReconnectStopsOnShutdown(t *testing.T) {
	stream := &flappingStream{failReconnects: 1 << 30}
	b := NewLiveBook(stream, noopMetrics{}, time.Minute, nil)
	b.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	if err := b.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for stream.reconnectCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("reconnect loop never started")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	time.Sleep(20 * time.Millisecond)
	before := stream.reconnectCount()
	time.Sleep(20 * time.Millisecond)
	if after := stream.reconnectCount(); after != before {
		t.Fatalf("reconnect loop kept running after shutdown: %d -> %d", before, after)
	}
}
