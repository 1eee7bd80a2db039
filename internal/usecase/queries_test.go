package usecase

import (
	"context"
	"testing"
	"time"

	"SkyIndex/internal/domain/models"
)

type seriesStub struct {
	points []models.HistoryPoint
	latest *models.IndexSnapshot
}

func (s *seriesStub) Append(*models.IndexSnapshot) error { return nil }

func (s *seriesStub) Query(limit int) []models.HistoryPoint {
	if limit <= 0 || limit > len(s.points) {
		return s.points
	}
	return s.points[:limit]
}

func (s *seriesStub) Latest() *models.IndexSnapshot { return s.latest }
func (s *seriesStub) Len() int                      { return len(s.points) }

type forecasterStub struct {
	gotValues []float64
	gotSteps  int
}

func (f *forecasterStub) Predict(values []float64, steps int) models.Forecast {
	f.gotValues = append([]float64(nil), values...)
	f.gotSteps = steps
	return models.Forecast{Model: "ar", Prediction: 55}
}

func minuteSeries(base time.Time, values ...float64) []models.HistoryPoint {
	// most recent first, one point per minute, matching store order
	out := make([]models.HistoryPoint, len(values))
	for i, v := range values {
		out[i] = models.HistoryPoint{Timestamp: base.Add(-time.Duration(i) * time.Minute), Value: v}
	}
	return out
}

func TestHistorySinceFilter(t *testing.T) {
	base := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	q := NewIndexQueries(&seriesStub{points: minuteSeries(base, 60, 59, 58, 57)}, &forecasterStub{})

	got := q.History(0, base.Add(-90*time.Second))
	if got.Count != 2 {
		t.Fatalf("expected 2 points since cutoff, got %d", got.Count)
	}
	if got.Series[0].Value != 60 || got.Series[1].Value != 59 {
		t.Fatalf("unexpected series %+v", got.Series)
	}
}

func TestHistoryZeroSinceReturnsAll(t *testing.T) {
	base := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	q := NewIndexQueries(&seriesStub{points: minuteSeries(base, 60, 59, 58)}, &forecasterStub{})

	if got := q.History(0, time.Time{}); got.Count != 3 {
		t.Fatalf("expected all points, got %d", got.Count)
	}
}

func TestPredictReversesToOldestFirst(t *testing.T) {
	base := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	fc := &forecasterStub{}
	q := NewIndexQueries(&seriesStub{points: minuteSeries(base, 64, 63, 62, 61, 60)}, fc)

	out := q.Predict(3)
	if out.Model != "ar" {
		t.Fatalf("unexpected model %q", out.Model)
	}
	if fc.gotSteps != 3 {
		t.Fatalf("steps not forwarded, got %d", fc.gotSteps)
	}
	want := []float64{60, 61, 62, 63, 64}
	for i, v := range want {
		if fc.gotValues[i] != v {
			t.Fatalf("values not oldest first: %v", fc.gotValues)
		}
	}
}

func TestPredictInsufficientData(t *testing.T) {
	base := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	q := NewIndexQueries(&seriesStub{points: minuteSeries(base, 52, 51)}, &forecasterStub{})

	out := q.Predict(1)
	if out.Model != "insufficient-data" {
		t.Fatalf("unexpected model %q", out.Model)
	}
	if out.Prediction != 52 {
		t.Fatalf("expected last value as naive prediction, got %v", out.Prediction)
	}
}

func TestComponentsOnlyActive(t *testing.T) {
	snap := &models.IndexSnapshot{
		Components: []models.ComponentScore{
			{Symbol: "SPY", Available: true},
			{Symbol: "^HSI", Available: false},
		},
	}
	q := NewIndexQueries(&seriesStub{latest: snap}, &forecasterStub{})

	all := q.Components(false)
	if len(all) != 2 {
		t.Fatalf("expected 2 components, got %d", len(all))
	}
	active := q.Components(true)
	if len(active) != 1 || active[0].Symbol != "SPY" {
		t.Fatalf("unexpected active set %+v", active)
	}
}

func TestHealthBeforeFirstCalculation(t *testing.T) {
	q := NewIndexQueries(&seriesStub{}, &forecasterStub{})

	report := q.Health(context.Background())
	if report.Status != models.StatusError {
		t.Fatalf("expected error status, got %q", report.Status)
	}
	if report.LastCalculation != nil {
		t.Fatal("expected no last calculation")
	}
}
