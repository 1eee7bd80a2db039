package usecase

import (
	"SkyIndex/internal/domain/models"
)

// MaxDeviation is the price distance from the 30-period moving average that
// saturates a component score at 0 or 100 (±20%).
const MaxDeviation = 0.20

// ScoreCalculator converts one instrument sample into a bounded component
// score. Score is a pure function of its input and never fails: when the
// moving average is absent or zero the component is marked unavailable.
type ScoreCalculator struct{}

func NewScoreCalculator() *ScoreCalculator { return &ScoreCalculator{} }

// Score computes the distance-based base score against MA30, applies the
// RSI/volume/momentum adjustments, and clamps once at the end. The clamp is
// applied after all adjustments so stacking can only saturate the score, not
// push it out of range.
func (sc *ScoreCalculator) Score(sample models.InstrumentSample) models.ComponentScore {
	out := models.ComponentScore{Symbol: sample.Symbol}

	if sample.Price == nil || sample.MA30 == nil || *sample.MA30 <= 0 {
		return out
	}

	price := *sample.Price
	ma30 := *sample.MA30

	normDiff := (price - ma30) / ma30 / MaxDeviation
	normDiff = clamp(normDiff, -1, 1)

	base := 50 + 50*normDiff
	if sample.IsInverse {
		base = 50 - 50*normDiff
	}
	out.BaseScore = base

	if sample.RSI != nil {
		out.Adjustments.RSI = rsiAdjustment(*sample.RSI)
	}
	if sample.Volume != nil && sample.AvgVolume != nil && *sample.AvgVolume > 0 {
		out.Adjustments.Volume = volumeAdjustment(*sample.Volume / *sample.AvgVolume)
	}
	// Momentum vs the short MA is skipped for contrarian instruments: a price
	// above its short MA is not a risk-on signal there.
	if !sample.IsInverse && sample.MA5 != nil {
		out.Adjustments.Momentum = momentumAdjustment(price, *sample.MA5)
	}

	out.FinalScore = clamp(base+out.Adjustments.RSI+out.Adjustments.Volume+out.Adjustments.Momentum, 0, 100)
	out.Available = true
	return out
}

func rsiAdjustment(rsi float64) float64 {
	switch {
	case rsi < 30:
		return 3
	case rsi > 70:
		return -3
	case rsi >= 40 && rsi <= 60:
		return 2
	default:
		return 0
	}
}

func volumeAdjustment(ratio float64) float64 {
	switch {
	case ratio > 1.5:
		return 2
	case ratio < 0.5:
		return -1
	default:
		return 0
	}
}

func momentumAdjustment(price, ma5 float64) float64 {
	switch {
	case price > ma5:
		return 2
	case price < ma5:
		return -2
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
