package usecase

import (
	"context"
	"time"

	"SkyIndex/internal/domain/models"
	drepo "SkyIndex/internal/domain/repository"
	dservice "SkyIndex/internal/domain/service"
)

const minForecastPoints = 5

// StreamStatus reports liveness of the quote stream for health checks.
type StreamStatus interface {
	IsConnected() bool
}

// NextRunner reports the next scheduled calculation time.
type NextRunner interface {
	NextRun() time.Time
}

// IndexQueries serves the read side of the API: current snapshot, history,
// components, forecast and health. All reads come from the in-memory store;
// the archive is only consulted for health.
type IndexQueries struct {
	history    drepo.HistoryStore
	forecaster dservice.Forecaster
	archive    drepo.SnapshotArchive
	stream     StreamStatus
	schedule   NextRunner
}

func NewIndexQueries(history drepo.HistoryStore, forecaster dservice.Forecaster) *IndexQueries {
	return &IndexQueries{history: history, forecaster: forecaster}
}

// SetArchive wires the optional durable archive for health checks.
func (q *IndexQueries) SetArchive(a drepo.SnapshotArchive) { q.archive = a }

// SetStream wires the optional quote stream for health checks.
func (q *IndexQueries) SetStream(s StreamStatus) { q.stream = s }

// SetSchedule wires the scheduler for the next-run health field.
func (q *IndexQueries) SetSchedule(n NextRunner) { q.schedule = n }

// Current returns the latest snapshot, or nil before the first calculation.
func (q *IndexQueries) Current() *models.IndexSnapshot {
	return q.history.Latest()
}

// History returns up to limit points, most recent first. A non-zero since
// cuts off points older than the given time.
func (q *IndexQueries) History(limit int, since time.Time) models.HistorySeries {
	series := q.history.Query(limit)
	if !since.IsZero() {
		cut := len(series)
		for i, p := range series {
			if p.Timestamp.Before(since) {
				cut = i
				break
			}
		}
		series = series[:cut]
	}
	return models.HistorySeries{Series: series, Count: len(series)}
}

// Components returns the latest component scores, optionally filtered to the
// ones that contributed.
func (q *IndexQueries) Components(onlyActive bool) []models.ComponentScore {
	snap := q.history.Latest()
	if snap == nil {
		return nil
	}
	if !onlyActive {
		return snap.Components
	}
	out := make([]models.ComponentScore, 0, len(snap.Components))
	for _, c := range snap.Components {
		if c.Available {
			out = append(out, c)
		}
	}
	return out
}

// Predict forecasts the next index value from the history series. Fewer than
// 5 points yields an insufficient-data naive answer.
func (q *IndexQueries) Predict(steps int) models.Forecast {
	points := q.history.Query(0)
	// oldest first for the model
	values := make([]float64, len(points))
	for i, p := range points {
		values[len(points)-1-i] = p.Value
	}

	if len(values) < minForecastPoints {
		out := models.Forecast{Model: "insufficient-data"}
		if len(values) > 0 {
			out.Prediction = values[len(values)-1]
		}
		return out
	}
	return q.forecaster.Predict(values, steps)
}

// Health reports the engine state. Status mirrors the last snapshot; a
// missing snapshot reads as error until the first calculation lands.
func (q *IndexQueries) Health(ctx context.Context) models.HealthReport {
	report := models.HealthReport{
		Status:        models.StatusError,
		HistoryPoints: q.history.Len(),
	}
	if snap := q.history.Latest(); snap != nil {
		report.Status = snap.Status
		ts := snap.Timestamp
		report.LastCalculation = &ts
	}
	if q.schedule != nil {
		next := q.schedule.NextRun()
		if !next.IsZero() {
			report.NextCalculation = &next
		}
	}
	if q.stream != nil {
		report.StreamConnected = q.stream.IsConnected()
	}
	if q.archive != nil {
		report.ArchiveOK = q.archive.Health(ctx) == nil
	}
	return report
}
