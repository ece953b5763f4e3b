// Package domain holds the core Job entity shared by every layer of the
// queue: storage, admission, worker execution, and HTTP transport.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrJobNotFound is returned when a lookup by id or fingerprint finds no row.
	ErrJobNotFound = errors.New("job not found")
	// ErrDuplicateFingerprint is returned by Store.Insert on a unique_id conflict.
	// Admission swallows this and returns the existing job's id instead.
	ErrDuplicateFingerprint = errors.New("job with this fingerprint already exists")
)

// Status is the enumerated lifecycle state of a Job. It mirrors the
// Postgres job_status enum column exactly — {Pending, Running, Success,
// Failure} — no additional states.
type Status string

const (
	StatusPending Status = "Pending"
	StatusRunning Status = "Running"
	StatusSuccess Status = "Success"
	StatusFailure Status = "Failure"
)

// MaxAttempts bounds the retry loop between worker failure and monitor
// rescue. A job that accumulates this many attempts without a success is
// terminally failed.
const MaxAttempts = 10

// Job is the single persistent entity of the queue: a scheduled outbound
// HTTP call plus its execution bookkeeping.
type Job struct {
	ID       string `json:"id"`
	UniqueID string `json:"unique_id"`

	URL     string         `json:"url"`
	Method  string         `json:"method"`
	Headers map[string]any `json:"headers"`
	Body    any            `json:"body"`

	Retries  int    `json:"retries"`
	Attempts int    `json:"attempts"`
	Status   Status `json:"status"`

	NextRunAt time.Time  `json:"next_run_at"`
	Cron      *string    `json:"cron,omitempty"`
	CheckIn   *time.Time `json:"check_in,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsRecurring reports whether the job rearms itself via a cron expression
// instead of terminating on success.
func (j *Job) IsRecurring() bool {
	return j.Cron != nil && *j.Cron != ""
}

// StringHeaders returns only the string-valued entries of Headers, in the
// form the outbound HTTP call is allowed to forward. Non-string JSON
// values (numbers, bools, objects, arrays, null) are silently dropped —
// a deliberate, language-neutral contract, not a bug.
func (j *Job) StringHeaders() map[string]string {
	out := make(map[string]string, len(j.Headers))
	for k, v := range j.Headers {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
