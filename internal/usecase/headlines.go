package usecase

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"SkyIndex/internal/domain/models"
	drepo "SkyIndex/internal/domain/repository"
	dservice "SkyIndex/internal/domain/service"
	pkgkafka "SkyIndex/pkg/kafka"
)

const (
	DefaultHeadlineWindow = 30 * time.Minute
	DefaultMaxHeadlines   = 60
)

// HeadlineIngestor consumes headlines from the news collector topic and
// keeps a rolling window of them for the next sentiment analysis. It is both
// a Kafka message handler and the analyzer's headline source.
type HeadlineIngestor struct {
	topic   string
	window  time.Duration
	maxSize int
	metrics drepo.Metrics

	mu        sync.Mutex
	headlines []receivedHeadline

	now func() time.Time
}

type receivedHeadline struct {
	headline   models.Headline
	receivedAt time.Time
}

func NewHeadlineIngestor(topic string, window time.Duration, maxSize int, metrics drepo.Metrics) *HeadlineIngestor {
	if window <= 0 {
		window = DefaultHeadlineWindow
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxHeadlines
	}
	return &HeadlineIngestor{
		topic:   topic,
		window:  window,
		maxSize: maxSize,
		metrics: metrics,
		now:     time.Now,
	}
}

func (h *HeadlineIngestor) Topic() string { return h.topic }

// incoming message schema: {source, title, summary, published_at}
func (h *HeadlineIngestor) Handle(_ context.Context, b []byte) error {
	var m models.Headline
	if err := json.Unmarshal(b, &m); err != nil {
		if h.metrics != nil {
			h.metrics.RecordError("headline_unmarshal")
		}
		return err
	}
	if m.Title == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.headlines = append(h.headlines, receivedHeadline{headline: m, receivedAt: h.now()})
	h.evictLocked()
	return nil
}

// Headlines returns the current window, oldest first. An empty slice marks
// the sentiment component unavailable for this cycle.
func (h *HeadlineIngestor) Headlines(_ context.Context) []models.Headline {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.evictLocked()
	out := make([]models.Headline, len(h.headlines))
	for i, rh := range h.headlines {
		out[i] = rh.headline
	}
	return out
}

func (h *HeadlineIngestor) evictLocked() {
	cutoff := h.now().Add(-h.window)
	i := 0
	for ; i < len(h.headlines); i++ {
		if h.headlines[i].receivedAt.After(cutoff) {
			break
		}
	}
	h.headlines = h.headlines[i:]
	if len(h.headlines) > h.maxSize {
		h.headlines = h.headlines[len(h.headlines)-h.maxSize:]
	}
}

var _ pkgkafka.MessageHandler = (*HeadlineIngestor)(nil)
var _ dservice.HeadlineSource = (*HeadlineIngestor)(nil)
