package forecast

import (
	"math"
	"strings"
	"testing"
)

func TestPredictNaiveFallback(t *testing.T) {
	f := NewARForecaster()
	got := f.Predict([]float64{50, 51, 52}, 1)
	if got.Model != "fallback-naive" {
		t.Fatalf("expected naive fallback, got %s", got.Model)
	}
	if got.Prediction != 52 {
		t.Fatalf("expected last value 52, got %v", got.Prediction)
	}
	if got.Lower != nil || got.RMSE != nil {
		t.Fatalf("naive fallback must not report intervals")
	}
}

func TestPredictConstantSeries(t *testing.T) {
	series := make([]float64, 30)
	for i := range series {
		series[i] = 60
	}
	f := NewRidgeForecaster(1e-6)
	got := f.Predict(series, 1)
	if !strings.HasPrefix(got.Model, "AR(") {
		t.Fatalf("expected AR model, got %s", got.Model)
	}
	if math.Abs(got.Prediction-60) > 0.5 {
		t.Fatalf("expected ~60, got %v", got.Prediction)
	}
}

func TestPredictFollowsTrend(t *testing.T) {
	series := make([]float64, 40)
	for i := range series {
		series[i] = 40 + 0.5*float64(i)
	}
	f := NewARForecaster()
	got := f.Predict(series, 1)
	last := series[len(series)-1]
	if got.Prediction <= last-0.5 {
		t.Fatalf("expected forecast above declining bound, last=%v got=%v", last, got.Prediction)
	}
	if got.Prediction < 0 || got.Prediction > 100 {
		t.Fatalf("forecast must stay in [0,100], got %v", got.Prediction)
	}
	if got.Lower == nil || got.Upper == nil {
		t.Fatalf("expected confidence interval")
	}
	if *got.Lower > got.Prediction || *got.Upper < got.Prediction {
		t.Fatalf("interval [%v,%v] must bracket prediction %v", *got.Lower, *got.Upper, got.Prediction)
	}
}

func TestPredictClampsToDomain(t *testing.T) {
	series := make([]float64, 40)
	for i := range series {
		series[i] = math.Min(100, 70+3*float64(i))
	}
	f := NewARForecaster()
	got := f.Predict(series, 5)
	if got.Prediction > 100 {
		t.Fatalf("forecast must clamp at 100, got %v", got.Prediction)
	}
	if got.Upper != nil && *got.Upper > 100 {
		t.Fatalf("upper bound must clamp at 100, got %v", *got.Upper)
	}
}

func TestFitARSelectsOrderInRange(t *testing.T) {
	series := make([]float64, 60)
	for i := range series {
		series[i] = 50 + 10*math.Sin(float64(i)/5)
	}
	m := fitAR(series, 10, 0)
	if m == nil {
		t.Fatalf("expected a fit")
	}
	if m.order < 2 || m.order > 10 {
		t.Fatalf("order out of range: %d", m.order)
	}
}

func TestSolveSingularMatrix(t *testing.T) {
	_, ok := solve([][]float64{{1, 2}, {2, 4}}, []float64{1, 2})
	if ok {
		t.Fatalf("expected singular system to fail")
	}
}
