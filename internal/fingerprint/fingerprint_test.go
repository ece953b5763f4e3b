package fingerprint

import (
	"testing"
	"time"
)

func TestCompute_Deterministic(t *testing.T) {
	in := Input{
		Method:  "POST",
		URL:     "https://example.com/hook",
		Headers: map[string]any{"X-Api-Key": "abc", "Content-Type": "application/json"},
		Body:    map[string]any{"x": float64(1)},
	}

	a, err := Compute(in)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	b, err := Compute(in)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if a != b {
		t.Fatalf("expected identical fingerprints, got %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64-char hex digest, got %d chars", len(a))
	}
}

func TestCompute_HeaderOrderAndCaseInsensitive(t *testing.T) {
	base := Input{
		Method: "GET",
		URL:    "https://example.com",
		Headers: map[string]any{
			"Authorization": "Bearer t",
			"X-Trace":       "1",
		},
	}
	reordered := Input{
		Method: "GET",
		URL:    "https://example.com",
		Headers: map[string]any{
			"x-trace":       "1",
			"AUTHORIZATION": "Bearer t",
		},
	}

	a, err := Compute(base)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	b, err := Compute(reordered)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if a != b {
		t.Fatalf("expected header order/casing to be irrelevant, got %s vs %s", a, b)
	}
}

func TestCompute_DiffersByRunAt(t *testing.T) {
	t1 := time.Unix(1000, 0)
	t2 := time.Unix(2000, 0)

	a, _ := Compute(Input{Method: "GET", URL: "https://example.com", RunAt: &t1})
	b, _ := Compute(Input{Method: "GET", URL: "https://example.com", RunAt: &t2})
	c, _ := Compute(Input{Method: "GET", URL: "https://example.com"})

	if a == b {
		t.Fatal("expected distinct run_at to produce distinct fingerprints")
	}
	if a == c || b == c {
		t.Fatal("expected absent run_at to differ from any concrete run_at")
	}
}

func TestCompute_DiffersByOneByte(t *testing.T) {
	a, _ := Compute(Input{Method: "GET", URL: "https://example.com/a"})
	b, _ := Compute(Input{Method: "GET", URL: "https://example.com/b"})
	if a == b {
		t.Fatal("expected single-byte URL difference to change the fingerprint")
	}
}

func TestCompute_NonStringHeaderValueRendersAsJSON(t *testing.T) {
	a, err := Compute(Input{
		Method:  "GET",
		URL:     "https://example.com",
		Headers: map[string]any{"X-Count": float64(3)},
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	b, err := Compute(Input{
		Method:  "GET",
		URL:     "https://example.com",
		Headers: map[string]any{"X-Count": "3"},
	})
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if a == b {
		t.Fatal("expected numeric vs string header value to change the fingerprint (different JSON text)")
	}
}
