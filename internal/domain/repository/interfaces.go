package repository

import (
	"context"
	"time"

	"SkyIndex/internal/domain/models"
)

// HistoryStore keeps the index time series: ordered by timestamp, at most one
// point per calendar minute (a later append into the same minute replaces the
// earlier one). Append must be called by a single writer; reads may run
// concurrently.
type HistoryStore interface {
	Append(snapshot *models.IndexSnapshot) error
	Query(limit int) []models.HistoryPoint
	Latest() *models.IndexSnapshot
	Len() int
}

// SnapshotArchive is the durable mirror of the history series.
type SnapshotArchive interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, snapshot *models.IndexSnapshot) error
	Load(ctx context.Context, limit int) ([]models.HistoryPoint, error)
	Health(ctx context.Context) error
	Close() error
}

// SnapshotPublisher pushes completed snapshots to downstream consumers.
type SnapshotPublisher interface {
	Publish(ctx context.Context, snapshot *models.IndexSnapshot) error
	Close() error
}

// QuoteStream is a live price feed for the configured symbols.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Quote is a single live price observation from the stream.
type Quote struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}

// Metrics abstracts the observability sink for the calculation pipeline.
type Metrics interface {
	RecordIndexValue(value float64)
	RecordComponentScore(symbol string, score float64, available bool)
	RecordCalcDuration(seconds float64)
	RecordError(kind string)
	RecordSnapshotPublished(backend string)
}
