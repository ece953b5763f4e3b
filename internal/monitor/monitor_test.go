package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/hlane/httpqueue/internal/domain"
	"github.com/hlane/httpqueue/internal/store/memstore"
)

func TestRunOnce_ReclaimsStaleRunningJob(t *testing.T) {
	s := memstore.New()
	now := time.Now()

	checkIn := now.Add(-31 * time.Second)
	job := &domain.Job{
		ID:        "job-1",
		UniqueID:  "fp-1",
		Status:    domain.StatusRunning,
		CheckIn:   &checkIn,
		CreatedAt: now.Add(-time.Minute),
		UpdatedAt: now.Add(-31 * time.Second),
	}
	if err := s.Insert(context.Background(), job); err != nil {
		t.Fatalf("insert: %v", err)
	}

	m := New(s, nil, nil)
	rescued, err := m.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !rescued {
		t.Fatal("expected stale job to be rescued")
	}

	got, _ := s.FindByID(context.Background(), job.ID)
	if got.Status != domain.StatusPending {
		t.Fatalf("expected Pending, got %s", got.Status)
	}
	if got.CheckIn == nil || got.CheckIn.Before(now) {
		t.Fatal("expected check_in refreshed to prevent hot-looping on the same row")
	}
}

func TestRunOnce_FreshRunningJobUntouched(t *testing.T) {
	s := memstore.New()
	now := time.Now()

	checkIn := now.Add(-5 * time.Second)
	job := &domain.Job{
		ID:        "job-1",
		UniqueID:  "fp-1",
		Status:    domain.StatusRunning,
		CheckIn:   &checkIn,
		CreatedAt: now,
		UpdatedAt: now.Add(-5 * time.Second),
	}
	if err := s.Insert(context.Background(), job); err != nil {
		t.Fatalf("insert: %v", err)
	}

	m := New(s, nil, nil)
	rescued, err := m.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if rescued {
		t.Fatal("expected fresh Running job not to be reclaimed")
	}
}
