package models

// InstrumentSample is one instrument's state at calculation time, as delivered
// by the market data collaborator. Indicator fields are pointers: a nil field
// means the upstream could not produce the value, which is different from a
// zero value.
type InstrumentSample struct {
	Symbol    string
	Price     *float64
	MA30      *float64
	MA5       *float64
	RSI       *float64
	Volume    *float64
	AvgVolume *float64
	IsInverse bool
}

// Adjustments are the named additive deltas applied on top of the base
// distance score.
type Adjustments struct {
	RSI      float64 `json:"rsi"`
	Volume   float64 `json:"volume"`
	Momentum float64 `json:"momentum"`
}

// ComponentScore is the scoring result for one component. Computed fresh every
// cycle; only persisted as part of a full IndexSnapshot.
type ComponentScore struct {
	Symbol      string      `json:"symbol"`
	Name        string      `json:"name,omitempty"`
	BaseScore   float64     `json:"base_score"`
	Adjustments Adjustments `json:"adjustments"`
	FinalScore  float64     `json:"score"`
	Weight      float64     `json:"weight"`
	Available   bool        `json:"available"`
	// Detail carries component-specific diagnostics, e.g. headline counts
	// for the news sentiment component.
	Detail map[string]any `json:"detail,omitempty"`
}

// SentimentComponentID is the reserved component identifier for the blended
// news sentiment signal.
const SentimentComponentID = "NEWS_SENTIMENT"

// Float is a convenience for building optional sample fields.
func Float(v float64) *float64 { return &v }
