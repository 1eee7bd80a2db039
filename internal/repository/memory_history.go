package repository

import (
	"sort"
	"sync"
	"time"

	"SkyIndex/internal/domain/models"
	drepo "SkyIndex/internal/domain/repository"
	xutil "SkyIndex/pkg/util"
)

const DefaultHistoryCapacity = 500

// MemoryHistory keeps the index series in memory, ordered by timestamp with
// at most one point per calendar minute. The calculation loop is the only
// writer; HTTP handlers read concurrently.
type MemoryHistory struct {
	mu       sync.RWMutex
	points   []historyEntry
	latest   *models.IndexSnapshot
	capacity int
}

type historyEntry struct {
	minute time.Time
	value  float64
}

func NewMemoryHistory(capacity int) *MemoryHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &MemoryHistory{capacity: capacity}
}

// Append inserts the snapshot value keyed by its minute. A second value in
// the same minute replaces the first; out-of-order timestamps are inserted
// at their sorted position. Oldest points are evicted past capacity.
func (h *MemoryHistory) Append(snapshot *models.IndexSnapshot) error {
	minute := xutil.MinuteOf(snapshot.Timestamp)

	h.mu.Lock()
	defer h.mu.Unlock()

	// A backfilled older point must not regress Latest.
	if h.latest == nil || !minute.Before(xutil.MinuteOf(h.latest.Timestamp)) {
		h.latest = snapshot
	}

	idx := sort.Search(len(h.points), func(i int) bool {
		return !h.points[i].minute.Before(minute)
	})
	if idx < len(h.points) && h.points[idx].minute.Equal(minute) {
		h.points[idx].value = snapshot.IndexValue
		return nil
	}

	h.points = append(h.points, historyEntry{})
	copy(h.points[idx+1:], h.points[idx:])
	h.points[idx] = historyEntry{minute: minute, value: snapshot.IndexValue}

	if len(h.points) > h.capacity {
		h.points = h.points[len(h.points)-h.capacity:]
	}
	return nil
}

// Query returns up to limit points, most recent first.
func (h *MemoryHistory) Query(limit int) []models.HistoryPoint {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.points) {
		limit = len(h.points)
	}
	out := make([]models.HistoryPoint, 0, limit)
	for i := len(h.points) - 1; i >= len(h.points)-limit; i-- {
		out = append(out, models.HistoryPoint{
			Timestamp: h.points[i].minute,
			Value:     h.points[i].value,
		})
	}
	return out
}

// Latest returns the most recently appended snapshot.
func (h *MemoryHistory) Latest() *models.IndexSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest
}

// Capacity reports the maximum number of points the series retains.
func (h *MemoryHistory) Capacity() int { return h.capacity }

func (h *MemoryHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.points)
}

// Preload seeds the series from the durable archive at startup. Points are
// passed most recent first, matching Query order.
func (h *MemoryHistory) Preload(points []models.HistoryPoint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.points = h.points[:0]
	for i := len(points) - 1; i >= 0; i-- {
		h.points = append(h.points, historyEntry{
			minute: xutil.MinuteOf(points[i].Timestamp),
			value:  points[i].Value,
		})
	}
	if len(h.points) > h.capacity {
		h.points = h.points[len(h.points)-h.capacity:]
	}
}

var _ drepo.HistoryStore = (*MemoryHistory)(nil)
