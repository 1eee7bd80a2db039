package usecase

import (
	"errors"
	"math"
	"testing"
	"time"

	"SkyIndex/internal/domain/models"
)

func testSpecs() []ComponentSpec {
	return []ComponentSpec{
		{Symbol: "SPY", Name: "S&P 500", Weight: 0.5},
		{Symbol: "QQQ", Name: "Nasdaq 100", Weight: 0.3},
		{Symbol: "^VIX", Name: "Volatility", Weight: 0.2, Inverse: true},
	}
}

func available(score float64) models.ComponentScore {
	return models.ComponentScore{FinalScore: score, Available: true}
}

func TestAggregateAllAvailable(t *testing.T) {
	e := NewAggregationEngine(testSpecs())
	snap, err := e.Aggregate(map[string]models.ComponentScore{
		"SPY":  available(80),
		"QQQ":  available(60),
		"^VIX": available(70),
	}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.IndexValue != 72 {
		t.Fatalf("expected 72, got %v", snap.IndexValue)
	}
	if snap.Status != models.StatusOK {
		t.Fatalf("expected ok status, got %v", snap.Status)
	}
	if snap.Sentiment != models.Shiny {
		t.Fatalf("expected Shiny, got %v", snap.Sentiment)
	}
	if snap.ActiveComponents != 3 || snap.TotalComponents != 3 {
		t.Fatalf("unexpected component counts %d/%d", snap.ActiveComponents, snap.TotalComponents)
	}
}

func TestAggregateRenormalizesWeights(t *testing.T) {
	e := NewAggregationEngine(testSpecs())
	snap, err := e.Aggregate(map[string]models.ComponentScore{
		"SPY":  available(80),
		"^VIX": available(60),
	}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sum float64
	for _, c := range snap.Components {
		sum += c.Weight
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("effective weights must sum to 1, got %v", sum)
	}
	// 80*(0.5/0.7) + 60*(0.2/0.7) = 74.2857...
	if snap.IndexValue != 74.29 {
		t.Fatalf("expected 74.29, got %v", snap.IndexValue)
	}
	if snap.Status != models.StatusDegraded {
		t.Fatalf("expected degraded status, got %v", snap.Status)
	}
	if snap.ActiveComponents != 2 {
		t.Fatalf("expected 2 active, got %d", snap.ActiveComponents)
	}
}

func TestAggregateKeepsUnavailableComponents(t *testing.T) {
	e := NewAggregationEngine(testSpecs())
	snap, err := e.Aggregate(map[string]models.ComponentScore{
		"SPY": available(50),
	}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Components) != 3 {
		t.Fatalf("expected full component list, got %d", len(snap.Components))
	}
	for _, c := range snap.Components {
		if !c.Available && c.Weight != 0 {
			t.Fatalf("unavailable component %s must carry zero weight", c.Symbol)
		}
		if c.Name == "" {
			t.Fatalf("component %s missing name", c.Symbol)
		}
	}
}

func TestAggregateNoData(t *testing.T) {
	e := NewAggregationEngine(testSpecs())
	_, err := e.Aggregate(map[string]models.ComponentScore{}, time.Now())
	if !errors.Is(err, ErrNoDataAvailable) {
		t.Fatalf("expected ErrNoDataAvailable, got %v", err)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	e := NewAggregationEngine(testSpecs())
	scores := map[string]models.ComponentScore{
		"SPY":  available(63.37),
		"QQQ":  available(41.02),
		"^VIX": available(88.8),
	}
	at := time.Now()
	a, err := e.Aggregate(scores, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := e.Aggregate(scores, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.IndexValue != b.IndexValue || a.Sentiment != b.Sentiment {
		t.Fatalf("aggregation must be deterministic: %v vs %v", a.IndexValue, b.IndexValue)
	}
}

func TestClassifySentimentBands(t *testing.T) {
	cases := []struct {
		value float64
		want  models.SentimentLabel
	}{
		{100, models.ExtremeShiny},
		{75, models.ExtremeShiny},
		{74.99, models.Shiny},
		{51, models.Shiny},
		{50.5, models.Neutral},
		{50, models.Neutral},
		{49.99, models.Cloudy},
		{25, models.Cloudy},
		{24.99, models.ExtremeCloudy},
		{0, models.ExtremeCloudy},
	}
	for _, c := range cases {
		if got := models.ClassifySentiment(c.value); got != c.want {
			t.Fatalf("value %v: expected %v, got %v", c.value, c.want, got)
		}
	}
}
