package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SkyIndex/internal/domain/models"
	drepo "SkyIndex/internal/domain/repository"
	dservice "SkyIndex/internal/domain/service"
	pkgcache "SkyIndex/pkg/cache"
	applogger "SkyIndex/pkg/logger"
)

// ErrCalculationInProgress is returned when a calculation request arrives
// while another one holds the gate. Callers keep serving the last snapshot.
var ErrCalculationInProgress = errors.New("index calculation already in progress")

const (
	calcLockKey = "index:calc"
	calcLockTTL = 2 * time.Minute
)

// Calculator runs one full index cycle: fetch samples, score components,
// blend news sentiment, aggregate, then fan the snapshot out to history,
// the durable archive and the downstream topic.
//
// Only one calculation runs at a time. The local mutex gates this process;
// the cache lock gates sibling instances sharing the same Redis.
type Calculator struct {
	samples   dservice.SampleSource
	headlines dservice.HeadlineSource
	analyzer  dservice.SentimentAnalyzer
	scorer    *ScoreCalculator
	engine    *AggregationEngine
	history   drepo.HistoryStore
	archive   drepo.SnapshotArchive
	publisher drepo.SnapshotPublisher
	metrics   drepo.Metrics
	locks     pkgcache.Service
	l         *applogger.Logger

	mu  sync.Mutex
	now func() time.Time

	sentiMu       sync.RWMutex
	lastSentiment *models.SentimentResult
}

type CalculatorOption func(*Calculator)

func WithArchive(a drepo.SnapshotArchive) CalculatorOption {
	return func(c *Calculator) { c.archive = a }
}

func WithPublisher(p drepo.SnapshotPublisher) CalculatorOption {
	return func(c *Calculator) { c.publisher = p }
}

func WithLockService(s pkgcache.Service) CalculatorOption {
	return func(c *Calculator) { c.locks = s }
}

func WithLogger(l *applogger.Logger) CalculatorOption {
	return func(c *Calculator) { c.l = l }
}

func NewCalculator(
	samples dservice.SampleSource,
	headlines dservice.HeadlineSource,
	analyzer dservice.SentimentAnalyzer,
	engine *AggregationEngine,
	history drepo.HistoryStore,
	metrics drepo.Metrics,
	opts ...CalculatorOption,
) *Calculator {
	c := &Calculator{
		samples:   samples,
		headlines: headlines,
		analyzer:  analyzer,
		scorer:    NewScoreCalculator(),
		engine:    engine,
		history:   history,
		metrics:   metrics,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate runs one cycle and returns the resulting snapshot. On
// ErrNoDataAvailable the previous snapshot stays in place and the error is
// returned for the caller to report.
func (c *Calculator) Calculate(ctx context.Context) (*models.IndexSnapshot, error) {
	if !c.mu.TryLock() {
		return nil, ErrCalculationInProgress
	}
	defer c.mu.Unlock()

	if c.locks != nil {
		ok, err := c.locks.TryLock(ctx, calcLockKey, calcLockTTL)
		if err == nil && !ok {
			return nil, ErrCalculationInProgress
		}
		if err == nil {
			defer func() { _ = c.locks.Unlock(context.WithoutCancel(ctx), calcLockKey) }()
		}
		// a broken lock backend does not stop the cycle; the local mutex
		// still serializes this instance
	}

	start := c.now()
	scores := make(map[string]models.ComponentScore, len(c.engine.Specs()))

	samples, err := c.samples.FetchSamples(ctx)
	if err != nil {
		c.metrics.RecordError("fetch_samples")
		if c.l != nil {
			c.l.Warn("sample fetch failed, scoring with what arrived", applogger.Error(err))
		}
	}
	for _, sample := range samples {
		if spec, ok := c.engine.SpecFor(sample.Symbol); ok {
			sample.IsInverse = spec.Inverse
		}
		score := c.scorer.Score(sample)
		score.Detail = sampleDetail(sample)
		scores[sample.Symbol] = score
		c.metrics.RecordComponentScore(sample.Symbol, score.FinalScore, score.Available)
	}

	if sentiScore, ok := c.sentimentScore(ctx); ok {
		scores[models.SentimentComponentID] = sentiScore
		c.metrics.RecordComponentScore(models.SentimentComponentID, sentiScore.FinalScore, sentiScore.Available)
	}

	snap, err := c.engine.Aggregate(scores, start)
	if err != nil {
		c.metrics.RecordError("aggregate")
		if c.l != nil {
			c.l.Error("index aggregation failed", applogger.Error(err))
		}
		return nil, fmt.Errorf("calculate index: %w", err)
	}
	snap.CalcTime = c.now().Sub(start).Seconds()

	if err := c.history.Append(snap); err != nil {
		c.metrics.RecordError("history_append")
		return nil, fmt.Errorf("append history: %w", err)
	}

	c.metrics.RecordIndexValue(snap.IndexValue)
	c.metrics.RecordCalcDuration(snap.CalcTime)

	if c.archive != nil {
		if err := c.archive.Store(ctx, snap); err != nil {
			c.metrics.RecordError("archive_store")
			if c.l != nil {
				c.l.Warn("snapshot archive write failed", applogger.Error(err))
			}
		}
	}
	if c.publisher != nil {
		if err := c.publisher.Publish(ctx, snap); err != nil {
			c.metrics.RecordError("snapshot_publish")
			if c.l != nil {
				c.l.Warn("snapshot publish failed", applogger.Error(err))
			}
		} else {
			c.metrics.RecordSnapshotPublished("kafka")
		}
	}

	if c.l != nil {
		c.l.Info("index calculated",
			applogger.Any("value", snap.IndexValue),
			applogger.String("sentiment", string(snap.Sentiment)),
			applogger.String("status", string(snap.Status)),
			applogger.Int("active", snap.ActiveComponents),
			applogger.Int("total", snap.TotalComponents),
		)
	}
	return snap, nil
}

// sentimentScore builds the news sentiment component for this cycle. The
// second return is false when sentiment is not a configured constituent.
func (c *Calculator) sentimentScore(ctx context.Context) (models.ComponentScore, bool) {
	if _, ok := c.engine.SpecFor(models.SentimentComponentID); !ok {
		return models.ComponentScore{}, false
	}

	batch := c.headlines.Headlines(ctx)
	result := c.analyzer.Analyze(ctx, batch)

	c.sentiMu.Lock()
	c.lastSentiment = &result
	c.sentiMu.Unlock()

	score := models.ComponentScore{
		Symbol:     models.SentimentComponentID,
		BaseScore:  result.Score,
		FinalScore: result.Score,
		Available:  result.HeadlinesAnalyzed > 0,
		Detail: map[string]any{
			"headlines_analyzed": result.HeadlinesAnalyzed,
			"strength":           result.Strength,
			"model_blended":      result.ModelBlended,
		},
	}
	return score, true
}

// LastSentiment returns the sentiment result of the most recent cycle, or
// nil before the first one.
func (c *Calculator) LastSentiment() *models.SentimentResult {
	c.sentiMu.RLock()
	defer c.sentiMu.RUnlock()
	return c.lastSentiment
}

func sampleDetail(s models.InstrumentSample) map[string]any {
	d := make(map[string]any, 4)
	if s.Price != nil {
		d["price"] = *s.Price
	}
	if s.MA30 != nil {
		d["ma_30"] = *s.MA30
	}
	if s.RSI != nil {
		d["rsi"] = *s.RSI
	}
	if s.Volume != nil && s.AvgVolume != nil && *s.AvgVolume > 0 {
		d["volume_ratio"] = *s.Volume / *s.AvgVolume
	}
	if len(d) == 0 {
		return nil
	}
	return d
}
