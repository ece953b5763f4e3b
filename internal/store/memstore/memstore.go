// Package memstore is an in-process fake of store.Store, used to exercise
// the admission, worker, and monitor loops in tests without a live
// Postgres instance. It models claim_next's "skip locked" row-lock
// exclusivity with a single mutex held only for the duration of the
// select-then-update, so concurrent callers still race the same way a
// real "FOR UPDATE SKIP LOCKED" claim would: each row goes to exactly one
// caller.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hlane/httpqueue/internal/domain"
)

type Store struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
}

func New() *Store {
	return &Store{jobs: make(map[string]*domain.Job)}
}

func clone(j *domain.Job) *domain.Job {
	cp := *j
	if j.Cron != nil {
		c := *j.Cron
		cp.Cron = &c
	}
	if j.CheckIn != nil {
		c := *j.CheckIn
		cp.CheckIn = &c
	}
	cp.Headers = make(map[string]any, len(j.Headers))
	for k, v := range j.Headers {
		cp.Headers[k] = v
	}
	return &cp
}

func (s *Store) Insert(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.jobs {
		if existing.UniqueID == job.UniqueID {
			return domain.ErrDuplicateFingerprint
		}
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	s.jobs[job.ID] = clone(job)
	return nil
}

func (s *Store) FindByFingerprint(_ context.Context, fingerprint string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if j.UniqueID == fingerprint {
			return clone(j), nil
		}
	}
	return nil, domain.ErrJobNotFound
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return clone(j), nil
}

func (s *Store) ClaimNext(_ context.Context, now time.Time) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var candidates []*domain.Job
	for _, j := range s.jobs {
		if j.Status != domain.StatusPending {
			continue
		}
		if !j.NextRunAt.IsZero() && j.NextRunAt.After(now) {
			continue
		}
		candidates = append(candidates, j)
	}
	if len(candidates) == 0 {
		return nil, domain.ErrJobNotFound
	}

	sort.Slice(candidates, func(i, k int) bool {
		return candidates[i].CreatedAt.Before(candidates[k].CreatedAt)
	})

	picked := candidates[0]
	picked.Status = domain.StatusRunning
	picked.Attempts++
	picked.UpdatedAt = now
	checkIn := now
	picked.CheckIn = &checkIn

	return clone(picked), nil
}

func (s *Store) Update(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return domain.ErrJobNotFound
	}
	s.jobs[job.ID] = clone(job)
	return nil
}

func (s *Store) FindStaleRunning(_ context.Context, cutoff time.Time) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *domain.Job
	for _, j := range s.jobs {
		if j.Status != domain.StatusRunning {
			continue
		}
		stale := (j.CheckIn != nil && !j.CheckIn.After(cutoff)) ||
			(j.CheckIn == nil && !j.UpdatedAt.After(cutoff))
		if !stale {
			continue
		}
		if best == nil || j.UpdatedAt.Before(best.UpdatedAt) {
			best = j
		}
	}
	if best == nil {
		return nil, domain.ErrJobNotFound
	}
	return clone(best), nil
}

func (s *Store) CountEligible(_ context.Context, now time.Time) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n uint64
	for _, j := range s.jobs {
		if j.Status != domain.StatusPending {
			continue
		}
		if j.NextRunAt.IsZero() || j.NextRunAt.Before(now) {
			n++
		}
	}
	return n, nil
}
