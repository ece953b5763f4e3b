// seed admits a handful of representative jobs into the local dev
// database via the same admission path the HTTP server uses.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hlane/httpqueue/internal/admission"
	"github.com/hlane/httpqueue/internal/infrastructure/postgres"
)

type jobSpec struct {
	label  string
	url    string
	method string
	cron   *string
}

func strPtr(s string) *string { return &s }

var jobs = []jobSpec{
	// Happy path — 2xx from httpbin, completes on first attempt.
	{"happy-post", "https://httpbin.org/post", "POST", nil},
	{"happy-get", "https://httpbin.org/get", "GET", nil},

	// Failing path — 500 from httpbin, retried with backoff until
	// attempts exhausts MaxAttempts.
	{"failing-500", "https://httpbin.org/status/500", "POST", nil},

	// Rate-limited path — several jobs against the same host so the
	// default 5 req/s/host gate defers some of them.
	{"rate-limited-1", "https://httpbin.org/delay/1?n=1", "GET", nil},
	{"rate-limited-2", "https://httpbin.org/delay/1?n=2", "GET", nil},
	{"rate-limited-3", "https://httpbin.org/delay/1?n=3", "GET", nil},
	{"rate-limited-4", "https://httpbin.org/delay/1?n=4", "GET", nil},
	{"rate-limited-5", "https://httpbin.org/delay/1?n=5", "GET", nil},
	{"rate-limited-6", "https://httpbin.org/delay/1?n=6", "GET", nil},

	// Recurring path — rearms every 5 minutes on success.
	{"recurring-cron", "https://httpbin.org/get?recurring=1", "GET", strPtr("0 */5 * * * *")},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	admissionSvc := admission.New(postgres.NewJobStore(pool))

	fmt.Println("Seed complete")
	fmt.Println()

	for _, spec := range jobs {
		id, err := admissionSvc.Admit(ctx, admission.Request{
			URL:    spec.url,
			Method: spec.method,
			Cron:   spec.cron,
		})
		if err != nil {
			log.Fatalf("admit %s: %v", spec.label, err)
		}
		fmt.Printf("  %-16s %s\n", spec.label, id)
	}

	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Query a job:")
	fmt.Println()
	fmt.Println("    curl -s http://localhost:3000/jobs/JOB_ID")
	fmt.Println()
	fmt.Println("  What to expect:")
	fmt.Println("    happy-*          → Success within a few seconds")
	fmt.Println("    failing-500      → Failure after 10 attempts with backoff")
	fmt.Println("    rate-limited-*   → some deferred, all eventually Success")
	fmt.Println("    recurring-cron   → Success, then Pending again ~5 minutes later")
	fmt.Println()
}
