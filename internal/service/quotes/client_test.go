package quotes

import (
	"context"
	"testing"
	"time"

	drepo "SkyIndex/internal/domain/repository"
)

func series(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestBuildSampleFullIndicators(t *testing.T) {
	closes := series(60, 100, 0.5)
	volumes := series(60, 1_000_000, 0)

	s := buildSample("SPY", closes, volumes)
	if s.Price == nil || *s.Price != closes[59] {
		t.Fatalf("unexpected price %v", s.Price)
	}
	if s.MA30 == nil || s.MA5 == nil || s.RSI == nil {
		t.Fatalf("expected all indicators present")
	}
	// rising series: short MA above long MA
	if *s.MA5 <= *s.MA30 {
		t.Fatalf("expected MA5 %v > MA30 %v on rising series", *s.MA5, *s.MA30)
	}
	if s.AvgVolume == nil || *s.AvgVolume != 1_000_000 {
		t.Fatalf("unexpected avg volume %v", s.AvgVolume)
	}
}

func TestBuildSampleShortSeries(t *testing.T) {
	s := buildSample("^HSI", series(10, 100, 1), series(10, 500, 0))
	if s.Price == nil {
		t.Fatalf("expected price")
	}
	if s.MA30 != nil {
		t.Fatalf("MA30 must be nil below 30 points")
	}
	if s.MA5 == nil {
		t.Fatalf("expected MA5 with 10 points")
	}
	if s.AvgVolume != nil {
		t.Fatalf("avg volume must be nil below 30 points")
	}
}

func TestBuildSampleEmpty(t *testing.T) {
	s := buildSample("GLD", nil, nil)
	if s.Price != nil || s.MA30 != nil {
		t.Fatalf("expected empty sample")
	}
}

type stubStream struct{ connected bool }

func (s *stubStream) Connect(_ context.Context) error   { s.connected = true; return nil }
func (s *stubStream) Subscribe(_ context.Context) error { return nil }
func (s *stubStream) Read(_ context.Context) (<-chan *drepo.Quote, <-chan error) {
	return nil, nil
}
func (s *stubStream) Reconnect(_ context.Context) error { return nil }
func (s *stubStream) Close() error                      { s.connected = false; return nil }
func (s *stubStream) IsConnected() bool                 { return s.connected }

func TestLiveBookFreshness(t *testing.T) {
	b := NewLiveBook(&stubStream{}, nil, 10*time.Minute, nil)
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	b.latest["SPY"] = &drepo.Quote{Symbol: "SPY", Price: 501, Timestamp: now.Add(-time.Minute)}
	b.latest["QQQ"] = &drepo.Quote{Symbol: "QQQ", Price: 400, Timestamp: now.Add(-time.Hour)}

	if q, ok := b.Fresh("SPY"); !ok || q.Price != 501 {
		t.Fatalf("expected fresh SPY quote")
	}
	if _, ok := b.Fresh("QQQ"); ok {
		t.Fatalf("stale quote must be rejected")
	}
	if _, ok := b.Fresh("GLD"); ok {
		t.Fatalf("unknown symbol must be rejected")
	}
}
