package sentiment

import "strings"

// Weighted keyword dictionaries for headline scoring. Matching is substring
// based on lowercased text, so "upbeat" matches "up" and "high-flying"
// matches "high". That bias is intentional and tuned into the weights.
var positiveKeywords = map[string]float64{
	"strong": 3, "surge": 4, "soar": 4, "rally": 3, "boom": 4, "breakout": 3,
	"gain": 2, "rise": 2, "up": 1, "bull": 3, "positive": 2, "growth": 2,
	"advance": 2, "jump": 3, "climb": 2, "recovery": 3, "optimism": 3,
	"outperform": 3, "beat": 2, "exceed": 2, "record": 2, "high": 1,
}

var negativeKeywords = map[string]float64{
	"crash": 5, "plunge": 4, "collapse": 5, "slump": 4, "tumble": 4,
	"fall": 2, "drop": 2, "down": 1, "bear": 3, "negative": 2, "decline": 2,
	"weak": 2, "struggle": 3, "concern": 2, "fear": 3, "uncertainty": 3,
	"risk": 2, "loss": 2, "miss": 2, "disappoint": 3, "warning": 3,
	"crisis": 4, "recession": 4, "inflation": 2, "sell-off": 4, "correction": 3,
	"volatility": 2, "pressure": 2, "downturn": 3, "retreat": 2, "pullback": 2,
	"slide": 2,
}

const (
	neutralScore = 50
	maxNetWeight = 8
	pointsPerNet = 5
	floorScore   = 10
	ceilScore    = 90
)

// KeywordScore maps one headline to a sentiment score in [10,90], or exactly
// 50 when no keyword from either dictionary appears. The net keyword weight
// is capped at ±8 before scaling so a single keyword-stuffed headline cannot
// dominate the window average.
func KeywordScore(text string) float64 {
	text = strings.ToLower(text)

	var pos, neg float64
	for word, weight := range positiveKeywords {
		if strings.Contains(text, word) {
			pos += weight
		}
	}
	for word, weight := range negativeKeywords {
		if strings.Contains(text, word) {
			neg += weight
		}
	}

	if pos == 0 && neg == 0 {
		return neutralScore
	}

	net := pos - neg
	if net > maxNetWeight {
		net = maxNetWeight
	}
	if net < -maxNetWeight {
		net = -maxNetWeight
	}

	score := neutralScore + net*pointsPerNet
	if score < floorScore {
		return floorScore
	}
	if score > ceilScore {
		return ceilScore
	}
	return score
}
