package usecase

import (
	"errors"
	"math"
	"time"

	"SkyIndex/internal/domain/models"
)

// ErrNoDataAvailable is returned when every component of the index is
// unavailable and no value can be produced. Callers keep serving the last
// good snapshot.
var ErrNoDataAvailable = errors.New("no component data available")

// ComponentSpec describes one index constituent: symbol, display name, its
// static weight in the composite and whether it trades inversely to risk
// appetite.
type ComponentSpec struct {
	Symbol  string
	Name    string
	Weight  float64
	Inverse bool
}

// AggregationEngine blends available component scores into the composite
// index value using renormalized weights.
type AggregationEngine struct {
	specs []ComponentSpec
}

func NewAggregationEngine(specs []ComponentSpec) *AggregationEngine {
	return &AggregationEngine{specs: specs}
}

// Specs returns the configured constituents in their configured order.
func (e *AggregationEngine) Specs() []ComponentSpec { return e.specs }

// SpecFor looks up a constituent by symbol.
func (e *AggregationEngine) SpecFor(symbol string) (ComponentSpec, bool) {
	for _, s := range e.specs {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return ComponentSpec{}, false
}

// Aggregate renormalizes the static weights over the available components and
// returns the weighted snapshot. Unavailable components are kept in the
// component list with weight zero so consumers see the full constituent set.
//
// With n of N components available the effective weight of component i is
// w_i / sum(w_available), so the index value stays a convex combination of
// scores in [0, 100] regardless of which components are missing.
func (e *AggregationEngine) Aggregate(scores map[string]models.ComponentScore, at time.Time) (*models.IndexSnapshot, error) {
	var availableWeight float64
	for _, spec := range e.specs {
		if s, ok := scores[spec.Symbol]; ok && s.Available {
			availableWeight += spec.Weight
		}
	}

	if availableWeight <= 0 {
		return nil, ErrNoDataAvailable
	}

	snap := &models.IndexSnapshot{
		Timestamp:       at,
		TotalComponents: len(e.specs),
		Components:      make([]models.ComponentScore, 0, len(e.specs)),
	}

	var value float64
	for _, spec := range e.specs {
		s := scores[spec.Symbol]
		s.Symbol = spec.Symbol
		s.Name = spec.Name
		if s.Available {
			s.Weight = spec.Weight / availableWeight
			value += s.Weight * s.FinalScore
			snap.ActiveComponents++
		} else {
			s.Weight = 0
		}
		snap.Components = append(snap.Components, s)
	}

	snap.IndexValue = roundTo(value, 2)
	snap.Sentiment = models.ClassifySentiment(snap.IndexValue)
	if snap.ActiveComponents == len(e.specs) {
		snap.Status = models.StatusOK
	} else {
		snap.Status = models.StatusDegraded
	}
	return snap, nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
