package usecase

import (
	"context"
	"errors"

	applogger "SkyIndex/pkg/logger"
	"SkyIndex/pkg/queue"
)

const RecalculateMessageType = "index.recalculate"

// RecalculatePayload is the queue message requesting an off-schedule
// calculation, typically enqueued by the news collector after a headline
// burst.
type RecalculatePayload struct {
	Reason string `json:"reason"`
}

// RecalculateJob drains queued recalculation requests. The queue runs a
// single worker, so queued requests serialize naturally; one arriving while
// the gate is held is simply dropped since a fresh snapshot just landed.
type RecalculateJob struct {
	calc *Calculator
	l    *applogger.Logger
}

func NewRecalculateJob(calc *Calculator, l *applogger.Logger) *RecalculateJob {
	return &RecalculateJob{calc: calc, l: l}
}

func (j *RecalculateJob) Name() string { return "index_recalculate" }

func (j *RecalculateJob) Type() string { return RecalculateMessageType }

func (j *RecalculateJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RecalculatePayload](payload)
	if err != nil {
		return err
	}

	snap, err := j.calc.Calculate(ctx)
	switch {
	case errors.Is(err, ErrCalculationInProgress):
		if j.l != nil {
			j.l.Debug("queued recalculation skipped, gate held",
				applogger.String("reason", p.Reason),
			)
		}
		return nil
	case errors.Is(err, ErrNoDataAvailable):
		// nothing to retry against; the next scheduled cycle will try again
		if j.l != nil {
			j.l.Warn("queued recalculation found no data",
				applogger.String("reason", p.Reason),
			)
		}
		return nil
	case err != nil:
		return err
	}

	if j.l != nil {
		j.l.Info("queued recalculation done",
			applogger.String("reason", p.Reason),
			applogger.Any("value", snap.IndexValue),
		)
	}
	return nil
}

var _ queue.Job = (*RecalculateJob)(nil)
