package admission

import (
	"context"
	"testing"
	"time"

	"github.com/hlane/httpqueue/internal/store/memstore"
)

func TestAdmit_DuplicateSubmissionReturnsSameID(t *testing.T) {
	s := New(memstore.New())
	runAt := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	req := Request{
		Method: "GET",
		URL:    "http://h/ok",
		RunAt:  &runAt,
	}

	id1, err := s.Admit(context.Background(), req)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	id2, err := s.Admit(context.Background(), req)
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if id1 != id2 {
		t.Fatalf("expected identical submissions to collapse to one job, got %s vs %s", id1, id2)
	}
}

func TestAdmit_DistinctRunAtProducesDistinctJobs(t *testing.T) {
	s := New(memstore.New())
	t1 := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	id1, err := s.Admit(context.Background(), Request{Method: "GET", URL: "http://h/ok", RunAt: &t1})
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	id2, err := s.Admit(context.Background(), Request{Method: "GET", URL: "http://h/ok", RunAt: &t2})
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	if id1 == id2 {
		t.Fatal("expected distinct run_at to produce distinct jobs")
	}
}

func TestAdmit_DefaultsRunAtToNow(t *testing.T) {
	s := New(memstore.New())
	id, err := s.Admit(context.Background(), Request{Method: "GET", URL: "http://h/ok"})
	if err != nil {
		t.Fatalf("admit: %v", err)
	}
	job, err := s.store.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if job.NextRunAt.IsZero() {
		t.Fatal("expected next_run_at to default to now, not zero")
	}
}
