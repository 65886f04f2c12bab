package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, provider, provider_payment_id, external_reference, status, raw_status, created_at, updated_at, approved_at`

// Upsert never downgrades an approved payment and keeps the first approval time.
func (r *paymentRepo) Upsert(ctx context.Context, tx repository.Tx, p *model.Payment) (*model.Payment, error) {
	const q = `
INSERT INTO payments (` + paymentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (provider, provider_payment_id) DO UPDATE SET
  status      = CASE WHEN payments.status = 'approved' THEN payments.status ELSE EXCLUDED.status END,
  raw_status  = CASE WHEN payments.status = 'approved' THEN payments.raw_status ELSE EXCLUDED.raw_status END,
  updated_at  = EXCLUDED.updated_at,
  approved_at = COALESCE(payments.approved_at, EXCLUDED.approved_at)
RETURNING ` + paymentColumns + `;`

	row, err := pickRow(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.Provider, p.ProviderPaymentID, p.ExternalReference,
		string(p.Status), p.RawStatus, p.CreatedAt, p.UpdatedAt, p.ApprovedAt)
	if err != nil {
		return nil, err
	}
	out, err := scanPayment(row)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

func (r *paymentRepo) FindByProviderID(ctx context.Context, tx repository.Tx, provider, providerPaymentID string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE provider=$1 AND provider_payment_id=$2`
	if isLockingTx(tx) {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, provider, providerPaymentID)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if err != nil {
		return nil, normalizeScanErr(err)
	}
	return p, nil
}

func (r *paymentRepo) ListApprovedWithoutPlan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT ` + paymentColumns + `
  FROM payments p
 WHERE p.status = 'approved'
   AND p.approved_at < $1
   AND NOT EXISTS (SELECT 1 FROM nutritional_plans n WHERE n.user_id = p.user_id)
   AND NOT EXISTS (SELECT 1 FROM plan_jobs j WHERE j.payment_id = p.id AND j.status IN ('pending','processing'))
 ORDER BY p.approved_at ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		return nil, normalizeExecErr(err)
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	p := &model.Payment{}
	var status string
	if err := row.Scan(&p.ID, &p.UserID, &p.Provider, &p.ProviderPaymentID, &p.ExternalReference,
		&status, &p.RawStatus, &p.CreatedAt, &p.UpdatedAt, &p.ApprovedAt); err != nil {
		return nil, err
	}
	p.Status = model.PaymentStatus(status)
	return p, nil
}
