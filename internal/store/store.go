// Package store defines the strongly-consistent Job repository contract.
// The only production implementation lives in internal/infrastructure/postgres;
// internal/store/memstore provides an in-process fake used to exercise the
// worker, admission, and monitor loops without a live database.
package store

import (
	"context"
	"time"

	"github.com/hlane/httpqueue/internal/domain"
)

// Store is the strongly-consistent Job repository. claim_next's "skip
// locked" semantics are mandatory: concurrent callers must each receive a
// distinct job (or none), never the same row twice.
type Store interface {
	// Insert persists a new Pending job. Returns domain.ErrDuplicateFingerprint
	// on a unique_id conflict.
	Insert(ctx context.Context, job *domain.Job) error

	// FindByFingerprint returns the job with the given unique_id, or
	// domain.ErrJobNotFound.
	FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Job, error)

	// FindByID returns the job with the given id, or domain.ErrJobNotFound.
	FindByID(ctx context.Context, id string) (*domain.Job, error)

	// ClaimNext atomically transitions the earliest-created eligible Pending
	// job to Running (status, attempts+1, updated_at, check_in := now) and
	// returns it. Returns domain.ErrJobNotFound if none qualify.
	ClaimNext(ctx context.Context, now time.Time) (*domain.Job, error)

	// Update persists a conditional update of job by id.
	Update(ctx context.Context, job *domain.Job) error

	// FindStaleRunning returns one Running job whose lease has expired
	// (check_in <= cutoff, or check_in IS NULL and updated_at <= cutoff),
	// ordered by updated_at ascending. Returns domain.ErrJobNotFound if none.
	FindStaleRunning(ctx context.Context, cutoff time.Time) (*domain.Job, error)

	// CountEligible counts Pending rows whose next_run_at is null or past.
	CountEligible(ctx context.Context, now time.Time) (uint64, error)
}
