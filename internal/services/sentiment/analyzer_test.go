package sentiment

import (
	"context"
	"testing"

	"SkyIndex/internal/domain/models"
)

func TestKeywordScoreNeutral(t *testing.T) {
	if got := KeywordScore("markets open flat ahead of fed minutes"); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
}

func TestKeywordScorePositive(t *testing.T) {
	// surge(4) + rally(3) = +7 -> 50 + 7*5 = 85
	if got := KeywordScore("stocks surge as tech leads broad rally"); got != 85 {
		t.Fatalf("expected 85, got %v", got)
	}
}

func TestKeywordScoreNegativeFloor(t *testing.T) {
	// crash(5) + plunge(4) + fear(3) = -12, capped at -8 -> 10
	if got := KeywordScore("markets crash as shares plunge on recession fear"); got != 10 {
		t.Fatalf("expected 10, got %v", got)
	}
}

func TestKeywordScoreCapsNet(t *testing.T) {
	// surge(4) + soar(4) + boom(4) = +12, capped at +8 -> 90
	if got := KeywordScore("shares surge and soar in ai boom"); got != 90 {
		t.Fatalf("expected 90, got %v", got)
	}
}

func TestKeywordScoreSubstringMatch(t *testing.T) {
	// "upbeat" contains "up" (+1) and "beat" (+2) -> 65
	if got := KeywordScore("traders stay upbeat about earnings season"); got != 65 {
		t.Fatalf("expected 65, got %v", got)
	}
}

type fixedModel struct {
	score float64
	ok    bool
}

func (m fixedModel) Score(_ context.Context, _ string) (float64, bool) { return m.score, m.ok }

func headline(src, title string) models.Headline {
	return models.Headline{Source: src, Title: title}
}

func TestAnalyzeKeywordOnly(t *testing.T) {
	a := NewAnalyzer(nil, nil)
	res := a.Analyze(context.Background(), []models.Headline{
		headline("reuters", "stocks surge as tech leads broad rally"), // 85
		headline("reuters", "markets open flat ahead of fed minutes"), // 50
	})
	if res.HeadlinesAnalyzed != 2 {
		t.Fatalf("expected 2 analyzed, got %d", res.HeadlinesAnalyzed)
	}
	if res.Score != 67.5 {
		t.Fatalf("expected 67.5, got %v", res.Score)
	}
	if res.ModelBlended {
		t.Fatalf("expected keyword-only result")
	}
}

func TestAnalyzeBlendsModelScore(t *testing.T) {
	a := NewAnalyzer(fixedModel{score: 90, ok: true}, nil)
	res := a.Analyze(context.Background(), []models.Headline{
		headline("reuters", "markets open flat ahead of fed minutes"), // keyword 50, blended 70
	})
	if !res.ModelBlended {
		t.Fatalf("expected model blend")
	}
	if res.Score != 70 {
		t.Fatalf("expected 70, got %v", res.Score)
	}
}

func TestAnalyzeModelUnavailableFallsBack(t *testing.T) {
	a := NewAnalyzer(fixedModel{ok: false}, nil)
	res := a.Analyze(context.Background(), []models.Headline{
		headline("reuters", "stocks surge as tech leads broad rally"),
	})
	if res.ModelBlended {
		t.Fatalf("expected keyword fallback")
	}
	if res.Score != 85 {
		t.Fatalf("expected 85, got %v", res.Score)
	}
}

func TestAnalyzeSkipsShortHeadlines(t *testing.T) {
	a := NewAnalyzer(nil, nil)
	res := a.Analyze(context.Background(), []models.Headline{
		headline("reuters", "surge"),
	})
	if res.HeadlinesAnalyzed != 0 {
		t.Fatalf("expected nothing analyzed, got %d", res.HeadlinesAnalyzed)
	}
	if res.Score != 50 {
		t.Fatalf("expected neutral default, got %v", res.Score)
	}
}

func TestAnalyzeDampensDisagreeingSources(t *testing.T) {
	a := NewAnalyzer(nil, nil)
	res := a.Analyze(context.Background(), []models.Headline{
		headline("a", "shares surge and soar in ai boom"),                 // 90
		headline("b", "markets crash as shares plunge on recession fear"), // 10
	})
	// mean 50, std 40 > 15 -> 50*0.9 + 5 = 50
	if res.Score != 50 {
		t.Fatalf("expected 50, got %v", res.Score)
	}
	res = a.Analyze(context.Background(), []models.Headline{
		headline("a", "shares surge and soar in ai boom"), // 90
		headline("b", "shares surge and soar in ai boom"), // 90
	})
	// agreement: no damping
	if res.Score != 90 {
		t.Fatalf("expected 90, got %v", res.Score)
	}
	if res.Strength != 1 {
		t.Fatalf("expected full strength, got %v", res.Strength)
	}
}
