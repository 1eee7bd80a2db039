package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"SkyIndex/internal/domain/models"
	drepo "SkyIndex/internal/domain/repository"
	pkgch "SkyIndex/pkg/clickhouse"
	applogger "SkyIndex/pkg/logger"
	xutil "SkyIndex/pkg/util"
)

// CHSnapshotArchive mirrors the in-memory index series into ClickHouse. The
// table is a ReplacingMergeTree keyed by minute, so a recalculation inside
// the same minute converges to one row, same as the in-memory store.
type CHSnapshotArchive struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHSnapshotArchive(ch *pkgch.Client) *CHSnapshotArchive {
	return &CHSnapshotArchive{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHSnapshotArchive) SetLogger(l *applogger.Logger) { s.l = l }

var snapshotSchema = []string{
	`CREATE TABLE IF NOT EXISTS index_snapshots (
        minute            DateTime,
        index_value       Float64,
        sentiment         LowCardinality(String),
        status            LowCardinality(String),
        active_components UInt8,
        total_components  UInt8,
        components        String,
        inserted_at       DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(inserted_at)
    ORDER BY minute`,
}

func (s *CHSnapshotArchive) Init(ctx context.Context) error {
	if err := s.ch.InitSchema(ctx, snapshotSchema); err != nil {
		return fmt.Errorf("init snapshot schema: %w", err)
	}
	return nil
}

func (s *CHSnapshotArchive) Store(ctx context.Context, snapshot *models.IndexSnapshot) error {
	start := time.Now()

	components, err := json.Marshal(snapshot.Components)
	if err != nil {
		return fmt.Errorf("marshal components: %w", err)
	}

	const q = `
        INSERT INTO index_snapshots
            (minute, index_value, sentiment, status, active_components, total_components, components)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err = s.db.ExecContext(ctx, q,
		xutil.MinuteOf(snapshot.Timestamp),
		snapshot.IndexValue,
		string(snapshot.Sentiment),
		string(snapshot.Status),
		uint8(snapshot.ActiveComponents),
		uint8(snapshot.TotalComponents),
		string(components),
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse snapshot insert error", applogger.Error(err))
		}
		return fmt.Errorf("store snapshot: %w", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse snapshot stored",
			applogger.Any("index_value", snapshot.IndexValue),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Load returns up to limit points most recent first, collapsing replaced
// rows with FINAL.
func (s *CHSnapshotArchive) Load(ctx context.Context, limit int) ([]models.HistoryPoint, error) {
	start := time.Now()
	const q = `
        SELECT minute, index_value
        FROM index_snapshots FINAL
        ORDER BY minute DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse snapshot load error", applogger.Error(err))
		}
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]models.HistoryPoint, 0, limit)
	for rows.Next() {
		var p models.HistoryPoint
		if err := rows.Scan(&p.Timestamp, &p.Value); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse history loaded",
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

func (s *CHSnapshotArchive) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHSnapshotArchive) Close() error {
	return s.ch.Close()
}

var _ drepo.SnapshotArchive = (*CHSnapshotArchive)(nil)
