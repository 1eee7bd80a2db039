package models

import "time"

// SentimentLabel is the qualitative classification of an index value.
type SentimentLabel string

const (
	ExtremeShiny  SentimentLabel = "Extreme Shiny"
	Shiny         SentimentLabel = "Shiny"
	Neutral       SentimentLabel = "Neutral"
	Cloudy        SentimentLabel = "Cloudy"
	ExtremeCloudy SentimentLabel = "Extreme Cloudy"
)

// ClassifySentiment maps an index value in [0,100] to its label. Bands are
// inclusive on the lower edge; Neutral occupies [50,51).
func ClassifySentiment(value float64) SentimentLabel {
	switch {
	case value >= 75:
		return ExtremeShiny
	case value >= 51:
		return Shiny
	case value >= 50:
		return Neutral
	case value >= 25:
		return Cloudy
	default:
		return ExtremeCloudy
	}
}

// SnapshotStatus reflects how much of the component set contributed to a
// snapshot.
type SnapshotStatus string

const (
	StatusOK       SnapshotStatus = "ok"
	StatusDegraded SnapshotStatus = "degraded"
	StatusError    SnapshotStatus = "error"
)

// IndexSnapshot is one immutable calculation result. Owned by the history
// store once appended.
type IndexSnapshot struct {
	Timestamp        time.Time        `json:"timestamp"`
	IndexValue       float64          `json:"index_value"`
	Sentiment        SentimentLabel   `json:"sentiment"`
	Status           SnapshotStatus   `json:"status"`
	Components       []ComponentScore `json:"components"`
	ActiveComponents int              `json:"active_components"`
	TotalComponents  int              `json:"total_components"`
	CalcTime         float64          `json:"calculation_time"`
}

// SentimentComponent returns the news sentiment component of the snapshot, or
// nil when it was not part of the calculation.
func (s *IndexSnapshot) SentimentComponent() *ComponentScore {
	for i := range s.Components {
		if s.Components[i].Symbol == SentimentComponentID {
			return &s.Components[i]
		}
	}
	return nil
}

// HistoryPoint is one (timestamp, value) pair of the index series.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"index_value"`
}

// Forecast is a model prediction of the next index values.
type Forecast struct {
	Model      string   `json:"model"`
	Prediction float64  `json:"prediction"`
	Lower      *float64 `json:"lower,omitempty"`
	Upper      *float64 `json:"upper,omitempty"`
	RMSE       *float64 `json:"rmse,omitempty"`
	R2         *float64 `json:"r2,omitempty"`
	Order      int      `json:"order,omitempty"`
}
