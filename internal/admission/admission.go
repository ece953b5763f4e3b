// Package admission implements the insert-or-return-existing entry point
// for new jobs: it is the only way a Job row comes into existence.
package admission

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hlane/httpqueue/internal/domain"
	"github.com/hlane/httpqueue/internal/fingerprint"
	"github.com/hlane/httpqueue/internal/store"
)

// Request is the client-submitted specification of an outbound HTTP call.
type Request struct {
	URL     string
	Method  string
	Headers map[string]any
	Body    any
	RunAt   *time.Time
	Cron    *string
}

// Service admits submissions into the Store, deduplicating by fingerprint.
type Service struct {
	store store.Store
	now   func() time.Time
}

func New(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// Admit defaults run_at to now if absent, computes the fingerprint,
// inserts a new Pending job, and returns its id. On a fingerprint
// collision it returns the existing job's id instead — admission is
// idempotent per identical (method, url, headers, body, run_at).
func (s *Service) Admit(ctx context.Context, req Request) (string, error) {
	now := s.now().UTC()

	runAt := req.RunAt
	if runAt == nil {
		r := now
		runAt = &r
	}

	fp, err := fingerprint.Compute(fingerprint.Input{
		Method:  req.Method,
		URL:     req.URL,
		Headers: req.Headers,
		Body:    req.Body,
		RunAt:   runAt,
	})
	if err != nil {
		return "", fmt.Errorf("compute fingerprint: %w", err)
	}

	job := &domain.Job{
		ID:        uuid.NewString(),
		UniqueID:  fp,
		URL:       req.URL,
		Method:    req.Method,
		Headers:   req.Headers,
		Body:      req.Body,
		Status:    domain.StatusPending,
		NextRunAt: *runAt,
		Cron:      req.Cron,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if job.Headers == nil {
		job.Headers = map[string]any{}
	}

	err = s.store.Insert(ctx, job)
	if err == nil {
		return job.ID, nil
	}

	if errors.Is(err, domain.ErrDuplicateFingerprint) {
		existing, findErr := s.store.FindByFingerprint(ctx, fp)
		if findErr != nil {
			return "", fmt.Errorf("lookup existing job after duplicate fingerprint: %w", findErr)
		}
		return existing.ID, nil
	}

	return "", fmt.Errorf("insert job: %w", err)
}
