// Package postgres is the only production implementation of store.Store,
// backed by pgx and the job table's "FOR UPDATE SKIP LOCKED" claim.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hlane/httpqueue/internal/domain"
)

// JobStore is the Postgres-backed store.Store implementation.
type JobStore struct {
	pool *pgxpool.Pool
}

func NewJobStore(pool *pgxpool.Pool) *JobStore {
	return &JobStore{pool: pool}
}

const jobColumns = `id, unique_id, url, method, headers, body, retries, attempts,
	status, next_run_at, cron, check_in, created_at, updated_at`

// rowScanner is implemented by both pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var j domain.Job
	var headersRaw, bodyRaw []byte

	err := row.Scan(
		&j.ID, &j.UniqueID, &j.URL, &j.Method, &headersRaw, &bodyRaw,
		&j.Retries, &j.Attempts, &j.Status, &j.NextRunAt, &j.Cron, &j.CheckIn,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if len(headersRaw) > 0 {
		if err := json.Unmarshal(headersRaw, &j.Headers); err != nil {
			return nil, fmt.Errorf("unmarshal headers: %w", err)
		}
	}
	if j.Headers == nil {
		j.Headers = map[string]any{}
	}
	if len(bodyRaw) > 0 {
		if err := json.Unmarshal(bodyRaw, &j.Body); err != nil {
			return nil, fmt.Errorf("unmarshal body: %w", err)
		}
	}

	return &j, nil
}

func (s *JobStore) Insert(ctx context.Context, job *domain.Job) error {
	headersJSON, err := json.Marshal(job.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}
	bodyJSON, err := json.Marshal(job.Body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO job (id, unique_id, url, method, headers, body, retries,
			attempts, status, next_run_at, cron, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 0, $7, $8, $9, $10, $10)
		RETURNING `+jobColumns,
		job.ID, job.UniqueID, job.URL, job.Method, headersJSON, bodyJSON,
		job.Status, job.NextRunAt, job.Cron, job.CreatedAt,
	)

	created, err := scanJob(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateFingerprint
		}
		return err
	}
	*job = *created
	return nil
}

func (s *JobStore) FindByFingerprint(ctx context.Context, fingerprint string) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM job WHERE unique_id = $1`, fingerprint)
	return scanJob(row)
}

func (s *JobStore) FindByID(ctx context.Context, id string) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM job WHERE id = $1`, id)
	return scanJob(row)
}

// ClaimNext atomically claims the earliest-created eligible Pending job
// with a single UPDATE ... WHERE id = (SELECT ... FOR UPDATE SKIP LOCKED)
// statement — one round trip, "skip locked" guarantees distinct
// concurrent claimants never receive the same row.
func (s *JobStore) ClaimNext(ctx context.Context, now time.Time) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE job SET
			status = 'Running',
			attempts = attempts + 1,
			check_in = $1,
			updated_at = $1
		WHERE id = (
			SELECT id FROM job
			WHERE status = 'Pending' AND (next_run_at IS NULL OR next_run_at <= $1)
			ORDER BY created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns, now)

	return scanJob(row)
}

func (s *JobStore) Update(ctx context.Context, job *domain.Job) error {
	headersJSON, err := json.Marshal(job.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}
	bodyJSON, err := json.Marshal(job.Body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE job SET
			url = $2, method = $3, headers = $4, body = $5,
			retries = $6, attempts = $7, status = $8, next_run_at = $9,
			cron = $10, check_in = $11, updated_at = $12
		WHERE id = $1`,
		job.ID, job.URL, job.Method, headersJSON, bodyJSON,
		job.Retries, job.Attempts, job.Status, job.NextRunAt,
		job.Cron, job.CheckIn, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// FindStaleRunning returns one Running job whose lease has expired,
// oldest-updated first.
func (s *JobStore) FindStaleRunning(ctx context.Context, cutoff time.Time) (*domain.Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM job
		WHERE status = 'Running'
		  AND (check_in <= $1 OR (check_in IS NULL AND updated_at <= $1))
		ORDER BY updated_at ASC
		LIMIT 1`, cutoff)
	return scanJob(row)
}

func (s *JobStore) CountEligible(ctx context.Context, now time.Time) (uint64, error) {
	var n uint64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM job
		WHERE status = 'Pending' AND (next_run_at IS NULL OR next_run_at < $1)`, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count eligible: %w", err)
	}
	return n, nil
}
