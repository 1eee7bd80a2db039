package repository

import (
	"sync"
	"testing"
	"time"

	"SkyIndex/internal/domain/models"
)

func snap(at time.Time, value float64) *models.IndexSnapshot {
	return &models.IndexSnapshot{Timestamp: at, IndexValue: value}
}

func TestMemoryHistorySameMinuteReplaces(t *testing.T) {
	h := NewMemoryHistory(10)
	base := time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)

	if err := h.Append(snap(base.Add(5*time.Second), 60)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := h.Append(snap(base.Add(40*time.Second), 65)); err != nil {
		t.Fatalf("append: %v", err)
	}

	if h.Len() != 1 {
		t.Fatalf("expected 1 point, got %d", h.Len())
	}
	pts := h.Query(10)
	if pts[0].Value != 65 {
		t.Fatalf("expected later value 65, got %v", pts[0].Value)
	}
	if !pts[0].Timestamp.Equal(base) {
		t.Fatalf("expected minute-truncated timestamp, got %v", pts[0].Timestamp)
	}
}

func TestMemoryHistoryOutOfOrderInsert(t *testing.T) {
	h := NewMemoryHistory(10)
	base := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

	h.Append(snap(base.Add(2*time.Minute), 52))
	h.Append(snap(base, 50))
	h.Append(snap(base.Add(time.Minute), 51))

	pts := h.Query(10)
	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}
	// most recent first
	want := []float64{52, 51, 50}
	for i, w := range want {
		if pts[i].Value != w {
			t.Fatalf("point %d: expected %v, got %v", i, w, pts[i].Value)
		}
	}
}

func TestMemoryHistoryBackfillKeepsLatest(t *testing.T) {
	h := NewMemoryHistory(10)
	base := time.Date(2026, 8, 30, 16, 0, 0, 0, time.UTC)

	h.Append(snap(base.Add(3*time.Minute), 58))
	h.Append(snap(base, 47))

	got := h.Latest()
	if got == nil || got.IndexValue != 58 {
		t.Fatalf("latest must stay at the newest minute, got %+v", got)
	}

	// a second value for the newest minute still replaces it
	h.Append(snap(base.Add(3*time.Minute+20*time.Second), 59))
	if got := h.Latest(); got == nil || got.IndexValue != 59 {
		t.Fatalf("same-minute append must update latest, got %+v", got)
	}
}

func TestMemoryHistoryEvictsPastCapacity(t *testing.T) {
	h := NewMemoryHistory(3)
	base := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h.Append(snap(base.Add(time.Duration(i)*time.Minute), float64(i)))
	}
	if h.Len() != 3 {
		t.Fatalf("expected capacity 3, got %d", h.Len())
	}
	pts := h.Query(3)
	if pts[len(pts)-1].Value != 2 {
		t.Fatalf("expected oldest surviving value 2, got %v", pts[len(pts)-1].Value)
	}
}

func TestMemoryHistoryQueryLimit(t *testing.T) {
	h := NewMemoryHistory(100)
	base := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		h.Append(snap(base.Add(time.Duration(i)*time.Minute), float64(i)))
	}
	pts := h.Query(4)
	if len(pts) != 4 {
		t.Fatalf("expected 4 points, got %d", len(pts))
	}
	if pts[0].Value != 9 {
		t.Fatalf("expected most recent first, got %v", pts[0].Value)
	}
}

func TestMemoryHistoryLatest(t *testing.T) {
	h := NewMemoryHistory(10)
	if h.Latest() != nil {
		t.Fatalf("expected nil latest on empty store")
	}
	s := snap(time.Now(), 42)
	h.Append(s)
	if h.Latest() != s {
		t.Fatalf("expected latest snapshot")
	}
}

func TestMemoryHistoryPreload(t *testing.T) {
	h := NewMemoryHistory(10)
	base := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	h.Preload([]models.HistoryPoint{
		{Timestamp: base.Add(2 * time.Minute), Value: 52},
		{Timestamp: base.Add(time.Minute), Value: 51},
		{Timestamp: base, Value: 50},
	})
	if h.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", h.Len())
	}
	pts := h.Query(1)
	if pts[0].Value != 52 {
		t.Fatalf("expected most recent 52, got %v", pts[0].Value)
	}
}

func TestMemoryHistoryConcurrentReads(t *testing.T) {
	h := NewMemoryHistory(100)
	base := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			h.Append(snap(base.Add(time.Duration(i)*time.Minute), float64(i)))
		}
	}()
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				h.Query(10)
				h.Latest()
				h.Len()
			}
		}()
	}
	wg.Wait()

	if h.Len() != 50 {
		t.Fatalf("expected 50 points, got %d", h.Len())
	}
}
