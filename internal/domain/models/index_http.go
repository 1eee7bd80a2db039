package models

// Requests for index HTTP endpoints. Defined in domain for consistency and reuse.

type HistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=5000"`
}

type PredictRequest struct {
	LookAheadMinutes int `query:"next_minutes" json:"next_minutes" default:"60" validate:"gte=1,lte=1440"`
	Steps            int `query:"steps" json:"steps" default:"1" validate:"gte=1,lte=50"`
}

type ComponentsRequest struct {
	OnlyActive bool `query:"active" json:"active"`
}
