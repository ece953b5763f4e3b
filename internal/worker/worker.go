// Package worker implements the claim → execute → settle loop: the
// engine's main consumer of Store, RateGate, and the outbound HTTP
// capability.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/hlane/httpqueue/internal/domain"
	"github.com/hlane/httpqueue/internal/metrics"
	"github.com/hlane/httpqueue/internal/rategate"
	"github.com/hlane/httpqueue/internal/scheduler"
	"github.com/hlane/httpqueue/internal/store"
)

// idlePollInterval is the base sleep between claim attempts when the
// queue is empty; scheduler.PickupJitter is added to detune workers.
const idlePollInterval = 5000 * time.Millisecond

// Worker repeatedly claims the next eligible job and drives it through
// validation, rate admission, execution, and settlement.
type Worker struct {
	store  store.Store
	gate   *rategate.Gate
	doer   HTTPDoer
	sink   metrics.Sink
	logger *slog.Logger
	now    func() time.Time
}

func New(s store.Store, gate *rategate.Gate, doer HTTPDoer, sink metrics.Sink, logger *slog.Logger) *Worker {
	if sink == nil {
		sink = metrics.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:  s,
		gate:   gate,
		doer:   doer,
		sink:   sink,
		logger: logger.With("component", "worker"),
		now:    time.Now,
	}
}

// Start runs the claim loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		claimed, err := w.RunOnce(ctx)
		if err != nil {
			w.logger.Error("claim", "error", err)
		}
		if !claimed {
			sleep := idlePollInterval + scheduler.PickupJitter()
			select {
			case <-ctx.Done():
				return
			case <-time.After(sleep):
			}
		}
	}
}

// RunOnce performs a single claim-execute-settle iteration. It returns
// (true, nil) if a job was claimed (regardless of outcome), (false, nil)
// if the queue was empty, or (false, err) on a store error.
func (w *Worker) RunOnce(ctx context.Context) (bool, error) {
	start := w.now()

	job, err := w.store.ClaimNext(ctx, start)
	if errors.Is(err, domain.ErrJobNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("claim next: %w", err)
	}

	lag := start.Sub(job.NextRunAt).Seconds()
	if lag < 0 {
		lag = 0
	}
	w.sink.ObserveQueueLagSeconds(lag)

	w.process(ctx, job)

	w.sink.ObserveExecutionDurationSeconds(w.now().Sub(start).Seconds())
	return true, nil
}

func (w *Worker) process(ctx context.Context, job *domain.Job) {
	now := w.now()

	if _, err := http.NewRequest(job.Method, job.URL, nil); err != nil {
		w.failValidation(ctx, job, now)
		return
	}

	host := hostOf(job.URL)
	if host == "" {
		w.failValidation(ctx, job, now)
		return
	}

	decision := w.gate.Check(host, now)
	if !decision.Admit {
		w.deferForRateLimit(ctx, job, decision.At, now)
		return
	}

	result := execute(ctx, w.doer, job.Method, job.URL, job.StringHeaders(), job.Body)
	w.settle(ctx, job, result, now)
}

// failValidation marks a job with an unparseable method/URL or empty host
// as terminally Failed. This does not consume the settle machinery's
// retry accounting because the job never ran.
func (w *Worker) failValidation(ctx context.Context, job *domain.Job, now time.Time) {
	job.Status = domain.StatusFailure
	job.UpdatedAt = now
	if err := w.store.Update(ctx, job); err != nil {
		w.logger.Error("update after validation failure", "job_id", job.ID, "error", err)
	}
}

// deferForRateLimit puts the job back to Pending at the limiter's release
// instant and rolls back the attempt counter claim had incremented, so a
// deferral never consumes retry budget.
func (w *Worker) deferForRateLimit(ctx context.Context, job *domain.Job, at, now time.Time) {
	job.Status = domain.StatusPending
	job.NextRunAt = at
	job.Attempts = max(0, job.Attempts-1)
	job.Retries = max(0, job.Attempts-1)
	job.UpdatedAt = now
	if err := w.store.Update(ctx, job); err != nil {
		w.logger.Error("update after rate limit deferral", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) settle(ctx context.Context, job *domain.Job, result executionResult, now time.Time) {
	job.Retries = max(0, job.Attempts-1)
	job.UpdatedAt = now

	if result.statusCode >= 200 && result.statusCode < 300 {
		w.settleSuccess(job, result, now)
	} else {
		w.settleFailure(job, now)
	}

	if err := w.store.Update(ctx, job); err != nil {
		w.logger.Error("settle update", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) settleSuccess(job *domain.Job, result executionResult, now time.Time) {
	if job.IsRecurring() {
		next, ok := scheduler.NextCron(*job.Cron, now)
		if ok {
			job.Status = domain.StatusPending
			job.NextRunAt = next
			job.Attempts = 0
			job.Retries = 0
		} else {
			job.Status = domain.StatusFailure
		}
	} else {
		job.Status = domain.StatusSuccess
	}

	job.Body = decodeJSONOrNull(result.body)
	w.sink.IncExecutionResult("success")
}

func (w *Worker) settleFailure(job *domain.Job, now time.Time) {
	if job.Attempts >= domain.MaxAttempts {
		job.Status = domain.StatusFailure
	} else {
		job.Status = domain.StatusPending
		job.NextRunAt = now.Add(scheduler.Backoff(job.Attempts))
	}
	w.sink.IncExecutionResult("failure")
}

// decodeJSONOrNull parses s as JSON if possible; otherwise it returns nil
// (stored as JSON null), matching the source's lossy-on-non-JSON behavior.
func decodeJSONOrNull(s string) any {
	if s == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return v
}

