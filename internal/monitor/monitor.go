// Package monitor implements the lease/liveness sweeper that reclaims
// Running jobs whose worker died mid-execution.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hlane/httpqueue/internal/domain"
	"github.com/hlane/httpqueue/internal/metrics"
	"github.com/hlane/httpqueue/internal/store"
)

// LeaseTimeout is how long a Running job may go without a check_in update
// before it's considered abandoned.
const LeaseTimeout = 30 * time.Second

// idleSleep is how long the monitor waits between sweeps when no stale
// row was found.
const idleSleep = 5 * time.Second

// Monitor periodically reclaims stale Running jobs and samples queue depth.
type Monitor struct {
	store  store.Store
	sink   metrics.Sink
	logger *slog.Logger
	now    func() time.Time
}

func New(s store.Store, sink metrics.Sink, logger *slog.Logger) *Monitor {
	if sink == nil {
		sink = metrics.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{store: s, sink: sink, logger: logger.With("component", "monitor"), now: time.Now}
}

// Start runs the sweep loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		rescued, err := m.RunOnce(ctx)
		if err != nil {
			m.logger.Error("sweep", "error", err)
		}
		if !rescued {
			select {
			case <-ctx.Done():
				return
			case <-time.After(idleSleep):
			}
		}
	}
}

// RunOnce performs one sweep: it reclaims at most one stale Running job
// and samples the eligible queue depth. It returns whether a job was
// rescued this iteration.
func (m *Monitor) RunOnce(ctx context.Context) (bool, error) {
	now := m.now()
	cutoff := now.Add(-LeaseTimeout)

	rescued, err := m.reclaimOne(ctx, cutoff, now)
	if err != nil {
		return false, err
	}

	if depth, depthErr := m.store.CountEligible(ctx, now); depthErr != nil {
		m.logger.Error("count eligible", "error", depthErr)
	} else {
		m.sink.SetQueueDepth(float64(depth))
	}

	return rescued, nil
}

func (m *Monitor) reclaimOne(ctx context.Context, cutoff, now time.Time) (bool, error) {
	job, err := m.store.FindStaleRunning(ctx, cutoff)
	if errors.Is(err, domain.ErrJobNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find stale running: %w", err)
	}

	job.Status = domain.StatusPending
	job.CheckIn = &now
	job.UpdatedAt = now

	if err := m.store.Update(ctx, job); err != nil {
		return false, fmt.Errorf("requeue stale job %s: %w", job.ID, err)
	}
	m.logger.Info("requeued stale job", "job_id", job.ID)
	return true, nil
}
