package models

import "time"

// Headline is one news item received from the collector topic.
type Headline struct {
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Text returns the lowercased analysis text for the headline.
func (h Headline) Text() string {
	if h.Summary == "" {
		return h.Title
	}
	return h.Title + " " + h.Summary
}

// SentimentResult is the aggregate news sentiment over one analysis window.
type SentimentResult struct {
	Score             float64 `json:"score"`
	Strength          float64 `json:"strength"`
	HeadlinesAnalyzed int     `json:"headlines_analyzed"`
	ModelBlended      bool    `json:"model_blended"`
}
