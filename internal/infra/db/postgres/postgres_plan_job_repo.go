package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/repository"
)

var _ repository.PlanJobRepository = (*planJobRepo)(nil)

type planJobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewPlanJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *planJobRepo {
	return &planJobRepo{
		pool: pool,
		tm:   tm,
	}
}

func (r *planJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.PlanJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.UpdatedAt = time.Now()

	const q = `
INSERT INTO plan_jobs (id, user_id, payment_id, status, retries, last_error, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  retries = EXCLUDED.retries,
  last_error = EXCLUDED.last_error,
  updated_at = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.UserID, job.PaymentID, string(job.Status), job.Retries, job.LastError, job.CreatedAt, job.UpdatedAt)
	return normalizeExecErr(err)
}

func (r *planJobRepo) FetchAndMarkProcessing(ctx context.Context) (*model.PlanJob, error) {
	var job *model.PlanJob

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const fetchQuery = `
SELECT id, user_id, payment_id, status, retries, last_error, created_at, updated_at
FROM plan_jobs
WHERE status = 'pending'
ORDER BY created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, fetchQuery)
		if err != nil {
			return err
		}

		var fetched model.PlanJob
		var statusStr string
		if err := row.Scan(
			&fetched.ID, &fetched.UserID, &fetched.PaymentID, &statusStr,
			&fetched.Retries, &fetched.LastError, &fetched.CreatedAt, &fetched.UpdatedAt,
		); err != nil {
			return normalizeScanErr(err)
		}

		// claim it so no other worker picks it up
		fetched.Status = model.PlanJobStatusProcessing
		if err := r.Save(ctx, tx, &fetched); err != nil {
			return err
		}

		job = &fetched
		return nil
	})

	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	return job, err
}

func (r *planJobRepo) ExistsForPayment(ctx context.Context, tx repository.Tx, paymentID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM plan_jobs WHERE payment_id=$1 AND status <> 'failed');`
	row, err := pickRow(ctx, r.pool, tx, q, paymentID)
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return exists, nil
}

// ResetStale returns jobs stuck in processing since before olderThan to the queue.
func (r *planJobRepo) ResetStale(ctx context.Context, olderThan time.Time) (int64, error) {
	const q = `UPDATE plan_jobs SET status='pending', updated_at=NOW() WHERE status='processing' AND updated_at < $1;`
	tag, err := execSQL(ctx, r.pool, nil, q, olderThan)
	if err != nil {
		return 0, normalizeExecErr(err)
	}
	return tag.RowsAffected(), nil
}
