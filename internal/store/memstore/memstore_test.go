package memstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hlane/httpqueue/internal/domain"
)

func seedJob(t *testing.T, s *Store, createdAt time.Time) *domain.Job {
	t.Helper()
	j := &domain.Job{
		UniqueID:  createdAt.String(),
		URL:       "http://example.com",
		Method:    "GET",
		Status:    domain.StatusPending,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := s.Insert(context.Background(), j); err != nil {
		t.Fatalf("insert: %v", err)
	}
	return j
}

func TestClaimNext_EachRowClaimedOnce(t *testing.T) {
	s := New()
	now := time.Now()
	const n = 50
	for i := 0; i < n; i++ {
		seedJob(t, s, now.Add(time.Duration(i)*time.Millisecond))
	}

	var mu sync.Mutex
	claimed := make(map[string]int)

	var wg sync.WaitGroup
	for w := 0; w < 10; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				j, err := s.ClaimNext(context.Background(), now.Add(time.Hour))
				if err == domain.ErrJobNotFound {
					return
				}
				if err != nil {
					t.Errorf("claim: %v", err)
					return
				}
				mu.Lock()
				claimed[j.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(claimed) != n {
		t.Fatalf("expected %d distinct claims, got %d", n, len(claimed))
	}
	for id, count := range claimed {
		if count != 1 {
			t.Fatalf("job %s claimed %d times, want 1", id, count)
		}
	}
}

func TestFindStaleRunning_NullAndPastCheckIn(t *testing.T) {
	s := New()
	now := time.Now()

	stale := seedJob(t, s, now.Add(-time.Hour))
	stale.Status = domain.StatusRunning
	stale.UpdatedAt = now.Add(-time.Minute)
	checkIn := now.Add(-time.Minute)
	stale.CheckIn = &checkIn
	if err := s.Update(context.Background(), stale); err != nil {
		t.Fatalf("update: %v", err)
	}

	nullCheckIn := seedJob(t, s, now.Add(-2*time.Hour))
	nullCheckIn.Status = domain.StatusRunning
	nullCheckIn.UpdatedAt = now.Add(-2 * time.Minute)
	nullCheckIn.CheckIn = nil
	if err := s.Update(context.Background(), nullCheckIn); err != nil {
		t.Fatalf("update: %v", err)
	}

	cutoff := now.Add(-30 * time.Second)

	found, err := s.FindStaleRunning(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("find stale: %v", err)
	}
	if found.ID != nullCheckIn.ID {
		t.Fatalf("expected oldest stale row (null check_in) first, got %s", found.ID)
	}
}
