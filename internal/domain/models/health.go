package models

import "time"

// HealthReport summarizes the engine's dependencies for the health endpoint.
type HealthReport struct {
	Status          SnapshotStatus `json:"status"`
	LastCalculation *time.Time     `json:"last_calculation,omitempty"`
	NextCalculation *time.Time     `json:"next_calculation,omitempty"`
	HistoryPoints   int            `json:"history_points"`
	StreamConnected bool           `json:"stream_connected"`
	ArchiveOK       bool           `json:"archive_ok"`
}

// HistorySeries is the history endpoint payload.
type HistorySeries struct {
	Series []HistoryPoint `json:"series"`
	Count  int            `json:"count"`
}
