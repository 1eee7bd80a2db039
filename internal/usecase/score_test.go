package usecase

import (
	"math"
	"testing"

	"SkyIndex/internal/domain/models"
)

func TestScoreNeutralAtMA(t *testing.T) {
	sc := NewScoreCalculator()
	s := sc.Score(models.InstrumentSample{
		Symbol: "SPY",
		Price:  models.Float(100),
		MA30:   models.Float(100),
	})
	if !s.Available {
		t.Fatalf("expected available")
	}
	if s.FinalScore != 50 {
		t.Fatalf("expected 50, got %v", s.FinalScore)
	}
}

func TestScoreStandardComponent(t *testing.T) {
	// +10% above MA30 gives base 75, RSI 25 adds +3, volume ratio 2.0 adds +2,
	// price above MA5 adds +2.
	sc := NewScoreCalculator()
	s := sc.Score(models.InstrumentSample{
		Symbol:    "SPY",
		Price:     models.Float(110),
		MA30:      models.Float(100),
		MA5:       models.Float(105),
		RSI:       models.Float(25),
		Volume:    models.Float(2_000_000),
		AvgVolume: models.Float(1_000_000),
	})
	if s.BaseScore != 75 {
		t.Fatalf("expected base 75, got %v", s.BaseScore)
	}
	if s.FinalScore != 82 {
		t.Fatalf("expected 82, got %v", s.FinalScore)
	}
}

func TestScoreInverseComponent(t *testing.T) {
	// -10% below MA30 on an inverse instrument reads as risk-on: base 75.
	sc := NewScoreCalculator()
	s := sc.Score(models.InstrumentSample{
		Symbol:    "^VIX",
		Price:     models.Float(90),
		MA30:      models.Float(100),
		MA5:       models.Float(95),
		IsInverse: true,
	})
	if s.BaseScore != 75 {
		t.Fatalf("expected base 75, got %v", s.BaseScore)
	}
	if s.Adjustments.Momentum != 0 {
		t.Fatalf("momentum adjustment must be skipped for inverse, got %v", s.Adjustments.Momentum)
	}
	if s.FinalScore != 75 {
		t.Fatalf("expected 75, got %v", s.FinalScore)
	}
}

func TestScoreInverseSymmetry(t *testing.T) {
	sc := NewScoreCalculator()
	std := sc.Score(models.InstrumentSample{
		Symbol: "SPY",
		Price:  models.Float(108),
		MA30:   models.Float(100),
	})
	inv := sc.Score(models.InstrumentSample{
		Symbol:    "TLT",
		Price:     models.Float(108),
		MA30:      models.Float(100),
		IsInverse: true,
	})
	if math.Abs((std.FinalScore+inv.FinalScore)-100) > 1e-9 {
		t.Fatalf("expected symmetric scores, got %v and %v", std.FinalScore, inv.FinalScore)
	}
}

func TestScoreClampsAtSaturation(t *testing.T) {
	sc := NewScoreCalculator()
	s := sc.Score(models.InstrumentSample{
		Symbol:    "QQQ",
		Price:     models.Float(150), // +50%, far past the ±20% band
		MA30:      models.Float(100),
		MA5:       models.Float(120),
		RSI:       models.Float(50),
		Volume:    models.Float(3_000_000),
		AvgVolume: models.Float(1_000_000),
	})
	if s.FinalScore != 100 {
		t.Fatalf("expected clamp to 100, got %v", s.FinalScore)
	}

	s = sc.Score(models.InstrumentSample{
		Symbol: "SPY",
		Price:  models.Float(50),
		MA30:   models.Float(100),
		MA5:    models.Float(80),
	})
	if s.FinalScore != 0 {
		t.Fatalf("expected clamp to 0, got %v", s.FinalScore)
	}
}

func TestScoreUnavailableWithoutMA(t *testing.T) {
	sc := NewScoreCalculator()
	s := sc.Score(models.InstrumentSample{Symbol: "SPY", Price: models.Float(100)})
	if s.Available {
		t.Fatalf("expected unavailable without MA30")
	}
	s = sc.Score(models.InstrumentSample{Symbol: "SPY", Price: models.Float(100), MA30: models.Float(0)})
	if s.Available {
		t.Fatalf("expected unavailable with zero MA30")
	}
}

func TestScorePartialIndicators(t *testing.T) {
	// Missing RSI/volume/MA5 means the corresponding adjustment is zero, not
	// an unavailable component.
	sc := NewScoreCalculator()
	s := sc.Score(models.InstrumentSample{
		Symbol: "^GDAXI",
		Price:  models.Float(104),
		MA30:   models.Float(100),
	})
	if !s.Available {
		t.Fatalf("expected available")
	}
	if s.FinalScore != 60 {
		t.Fatalf("expected 60, got %v", s.FinalScore)
	}
}
