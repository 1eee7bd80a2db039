package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SkyIndex/internal/domain/models"
)

type stubSamples struct {
	samples []models.InstrumentSample
	err     error

	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *stubSamples) FetchSamples(_ context.Context) ([]models.InstrumentSample, error) {
	if s.entered != nil {
		s.once.Do(func() { close(s.entered) })
	}
	if s.release != nil {
		<-s.release
	}
	return s.samples, s.err
}

type stubHeadlines struct{ batch []models.Headline }

func (s *stubHeadlines) Headlines(_ context.Context) []models.Headline { return s.batch }

type stubAnalyzer struct{ result models.SentimentResult }

func (s *stubAnalyzer) Analyze(_ context.Context, headlines []models.Headline) models.SentimentResult {
	out := s.result
	out.HeadlinesAnalyzed = len(headlines)
	return out
}

type nopMetrics struct{}

func (nopMetrics) RecordIndexValue(float64)                   {}
func (nopMetrics) RecordComponentScore(string, float64, bool) {}
func (nopMetrics) RecordCalcDuration(float64)                 {}
func (nopMetrics) RecordError(string)                         {}
func (nopMetrics) RecordSnapshotPublished(string)             {}

type recordingPublisher struct {
	mu    sync.Mutex
	count int
}

func (p *recordingPublisher) Publish(_ context.Context, _ *models.IndexSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func calcSpecs() []ComponentSpec {
	return []ComponentSpec{
		{Symbol: "SPY", Name: "S&P 500", Weight: 0.6},
		{Symbol: "^VIX", Name: "Volatility", Weight: 0.2, Inverse: true},
		{Symbol: models.SentimentComponentID, Name: "News Sentiment", Weight: 0.2},
	}
}

func sampleBatch() []models.InstrumentSample {
	return []models.InstrumentSample{
		{Symbol: "SPY", Price: models.Float(110), MA30: models.Float(100)},
		{Symbol: "^VIX", Price: models.Float(90), MA30: models.Float(100)},
	}
}

func newTestHistory() *historyStub { return &historyStub{} }

type historyStub struct {
	mu     sync.Mutex
	snaps  []*models.IndexSnapshot
	failOn bool
}

func (h *historyStub) Append(s *models.IndexSnapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failOn {
		return errors.New("append refused")
	}
	h.snaps = append(h.snaps, s)
	return nil
}

func (h *historyStub) Query(int) []models.HistoryPoint { return nil }

func (h *historyStub) Latest() *models.IndexSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.snaps) == 0 {
		return nil
	}
	return h.snaps[len(h.snaps)-1]
}

func (h *historyStub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.snaps)
}

func TestCalculateFullCycle(t *testing.T) {
	history := newTestHistory()
	pub := &recordingPublisher{}
	c := NewCalculator(
		&stubSamples{samples: sampleBatch()},
		&stubHeadlines{batch: []models.Headline{{Source: "reuters", Title: "markets open flat today"}}},
		&stubAnalyzer{result: models.SentimentResult{Score: 60}},
		NewAggregationEngine(calcSpecs()),
		history,
		nopMetrics{},
		WithPublisher(pub),
	)

	snap, err := c.Calculate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// SPY 75*0.6 + VIX (inverse) 75*0.2 + sentiment 60*0.2 = 72
	if snap.IndexValue != 72 {
		t.Fatalf("expected 72, got %v", snap.IndexValue)
	}
	if snap.Status != models.StatusOK {
		t.Fatalf("expected ok, got %v", snap.Status)
	}
	if history.Len() != 1 {
		t.Fatalf("expected snapshot appended")
	}
	if pub.count != 1 {
		t.Fatalf("expected snapshot published")
	}
	sc := snap.SentimentComponent()
	if sc == nil || !sc.Available {
		t.Fatalf("expected available sentiment component")
	}
}

func TestCalculateDegradedWithoutSentiment(t *testing.T) {
	history := newTestHistory()
	c := NewCalculator(
		&stubSamples{samples: sampleBatch()},
		&stubHeadlines{},
		&stubAnalyzer{result: models.SentimentResult{Score: 50}},
		NewAggregationEngine(calcSpecs()),
		history,
		nopMetrics{},
	)

	snap, err := c.Calculate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Status != models.StatusDegraded {
		t.Fatalf("expected degraded, got %v", snap.Status)
	}
	// weights renormalize to SPY 0.75, VIX 0.25: 75*0.75 + 75*0.25 = 75
	if snap.IndexValue != 75 {
		t.Fatalf("expected 75, got %v", snap.IndexValue)
	}
}

func TestCalculateNoDataKeepsHistory(t *testing.T) {
	history := newTestHistory()
	c := NewCalculator(
		&stubSamples{err: errors.New("upstream down")},
		&stubHeadlines{},
		&stubAnalyzer{},
		NewAggregationEngine(calcSpecs()),
		history,
		nopMetrics{},
	)

	// seed one good snapshot
	history.Append(&models.IndexSnapshot{IndexValue: 55})

	_, err := c.Calculate(context.Background())
	if !errors.Is(err, ErrNoDataAvailable) {
		t.Fatalf("expected ErrNoDataAvailable, got %v", err)
	}
	if history.Len() != 1 {
		t.Fatalf("failed cycle must not touch history")
	}
	if history.Latest().IndexValue != 55 {
		t.Fatalf("prior snapshot must survive")
	}
}

func TestCalculateSingleFlight(t *testing.T) {
	samples := &stubSamples{
		samples: sampleBatch(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewCalculator(
		samples,
		&stubHeadlines{},
		&stubAnalyzer{},
		NewAggregationEngine(calcSpecs()),
		newTestHistory(),
		nopMetrics{},
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := c.Calculate(context.Background()); err != nil {
			t.Errorf("first calculation failed: %v", err)
		}
	}()

	select {
	case <-samples.entered:
	case <-time.After(2 * time.Second):
		t.Fatalf("first calculation never started")
	}

	if _, err := c.Calculate(context.Background()); !errors.Is(err, ErrCalculationInProgress) {
		t.Fatalf("expected ErrCalculationInProgress, got %v", err)
	}

	close(samples.release)
	<-done
}
