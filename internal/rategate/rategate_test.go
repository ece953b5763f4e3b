package rategate

import (
	"testing"
	"time"
)

func TestCheck_AdmitsUpToBurstThenDefers(t *testing.T) {
	g := New(1)
	now := time.Now()

	first := g.Check("example.com", now)
	if !first.Admit {
		t.Fatal("expected first request to be admitted")
	}

	second := g.Check("example.com", now)
	if second.Admit {
		t.Fatal("expected second immediate request to be deferred")
	}
	if !second.At.After(now) {
		t.Fatalf("expected defer time in the future, got %v (now=%v)", second.At, now)
	}
}

func TestCheck_DistinctHostsIndependent(t *testing.T) {
	g := New(1)
	now := time.Now()

	a := g.Check("a.example.com", now)
	b := g.Check("b.example.com", now)
	if !a.Admit || !b.Admit {
		t.Fatal("expected independent buckets per host")
	}
}

func TestCheck_ReplenishesOverTime(t *testing.T) {
	g := New(1)
	now := time.Now()

	first := g.Check("example.com", now)
	if !first.Admit {
		t.Fatal("expected first request admitted")
	}

	later := now.Add(2 * time.Second)
	second := g.Check("example.com", later)
	if !second.Admit {
		t.Fatal("expected token to have replenished after 2s at 1 req/s")
	}
}
