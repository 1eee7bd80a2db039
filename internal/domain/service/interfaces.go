package service

import (
	"context"

	"SkyIndex/internal/domain/models"
)

// SampleSource delivers a fully materialized batch of instrument samples, one
// per configured symbol. Missing indicator data is expressed through nil
// fields, never through sentinel values.
type SampleSource interface {
	FetchSamples(ctx context.Context) ([]models.InstrumentSample, error)
}

// HeadlineSource returns the current batch of headlines collected by the
// news consumer. An empty batch means the sentiment component is unavailable
// this cycle.
type HeadlineSource interface {
	Headlines(ctx context.Context) []models.Headline
}

// TransformerScorer produces a model-based sentiment score in [0,100] for a
// single headline. ok=false means the model service is unavailable and
// scoring falls back to keywords only.
type TransformerScorer interface {
	Score(ctx context.Context, text string) (score float64, ok bool)
}

// SentimentAnalyzer blends a headline window into one sentiment result.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, headlines []models.Headline) models.SentimentResult
}

// Forecaster predicts future index values from the history series.
type Forecaster interface {
	Predict(history []float64, steps int) models.Forecast
}
