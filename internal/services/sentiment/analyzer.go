package sentiment

import (
	"context"
	"math"

	"SkyIndex/internal/domain/models"
	dservice "SkyIndex/internal/domain/service"
	applogger "SkyIndex/pkg/logger"
)

const (
	minHeadlineLen = 10
	// Per-source averages this far apart mean the sources disagree; the
	// window score gets pulled toward neutral.
	disagreementStd = 15
)

// Analyzer turns a window of headlines into one blended sentiment score.
// Each headline is scored by keywords, optionally blended 50/50 with the
// transformer model score, averaged per source, then averaged across sources.
type Analyzer struct {
	model dservice.TransformerScorer
	l     *applogger.Logger
}

func NewAnalyzer(model dservice.TransformerScorer, l *applogger.Logger) *Analyzer {
	return &Analyzer{model: model, l: l}
}

// Analyze scores the headline window. HeadlinesAnalyzed counts only headlines
// long enough to score; a result with zero analyzed headlines means the
// sentiment component is unavailable.
func (a *Analyzer) Analyze(ctx context.Context, headlines []models.Headline) models.SentimentResult {
	perSource := make(map[string][]float64)
	order := make([]string, 0, 4)
	var analyzed int
	var blended bool

	for _, h := range headlines {
		text := h.Text()
		if len(text) < minHeadlineLen {
			continue
		}
		analyzed++

		score := KeywordScore(text)
		if a.model != nil {
			if modelScore, ok := a.model.Score(ctx, text); ok {
				score = 0.5*score + 0.5*modelScore
				blended = true
			}
		}

		if _, seen := perSource[h.Source]; !seen {
			order = append(order, h.Source)
		}
		perSource[h.Source] = append(perSource[h.Source], score)
	}

	result := models.SentimentResult{
		HeadlinesAnalyzed: analyzed,
		ModelBlended:      blended,
	}
	if analyzed == 0 {
		result.Score = neutralScore
		return result
	}

	sourceAvgs := make([]float64, 0, len(order))
	for _, src := range order {
		sourceAvgs = append(sourceAvgs, mean(perSource[src]))
	}

	overall := mean(sourceAvgs)
	if len(sourceAvgs) >= 2 && stddev(sourceAvgs) > disagreementStd {
		overall = overall*0.9 + 5
	}

	result.Score = math.Round(overall*100) / 100
	result.Strength = math.Round(math.Min(1, math.Abs(overall-50)/40)*1000) / 1000

	if a.l != nil {
		a.l.Debug("news sentiment analyzed",
			applogger.Any("score", result.Score),
			applogger.Int("headlines", analyzed),
			applogger.Int("sources", len(sourceAvgs)),
			applogger.Bool("model_blended", blended),
		)
	}
	return result
}

func mean(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func stddev(v []float64) float64 {
	m := mean(v)
	var sum float64
	for _, x := range v {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(v)))
}
