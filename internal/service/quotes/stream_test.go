package quotes

import (
	"context"
	"testing"
	"time"
)

func TestStreamReadWithoutConnClosesChannels(t *testing.T) {
	s := NewStream("key", "wss://example.test/ws", nil, time.Millisecond, time.Hour, nil).(*Stream)

	qCh, errCh := s.Read(context.Background())

	select {
	case err := <-errCh:
		if err == nil {
			t.Fatalf("expected error for missing connection")
		}
	case <-time.After(time.Second):
		t.Fatalf("read loop never reported the missing connection")
	}

	// both channels must end closed so the consumer can tell the loop died
	select {
	case _, ok := <-qCh:
		if ok {
			t.Fatalf("expected closed quote channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("quote channel never closed")
	}
	select {
	case _, ok := <-errCh:
		if ok {
			t.Fatalf("expected closed error channel")
		}
	case <-time.After(time.Second):
		t.Fatalf("error channel never closed")
	}
}

func TestStreamReconnectHonorsCancel(t *testing.T) {
	s := NewStream("key", "wss://example.test/ws", nil, time.Hour, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Reconnect(ctx); err == nil {
		t.Fatalf("expected reconnect to give up on cancelled context")
	}
}

func TestStreamSubscribeRequiresConnection(t *testing.T) {
	s := NewStream("key", "wss://example.test/ws", []string{"SPY"}, time.Millisecond, time.Hour, nil)
	if err := s.Subscribe(context.Background()); err == nil {
		t.Fatalf("expected error before connect")
	}
}
