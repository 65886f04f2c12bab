package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/repository"
)

var _ repository.ProfileRepository = (*profileRepo)(nil)

type profileRepo struct{ pool *pgxpool.Pool }

func NewProfileRepo(pool *pgxpool.Pool) *profileRepo {
	return &profileRepo{pool: pool}
}

func (r *profileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	const q = `
INSERT INTO profiles (id, email, has_paid_plan, paid_at, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET
  email=$2, has_paid_plan=$3, paid_at=$4, updated_at=$6;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Email, p.HasPaidPlan, p.PaidAt, p.CreatedAt, p.UpdatedAt)
	return normalizeExecErr(err)
}

func (r *profileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Profile, error) {
	q := `SELECT id, email, has_paid_plan, paid_at, created_at, updated_at FROM profiles WHERE id=$1`
	if isLockingTx(tx) {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var p model.Profile
	if err := row.Scan(&p.ID, &p.Email, &p.HasPaidPlan, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, normalizeScanErr(err)
	}
	return &p, nil
}

// HasPaidPlan is false for unknown users.
func (r *profileRepo) HasPaidPlan(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM profiles WHERE id=$1 AND has_paid_plan);`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return false, err
	}
	var paid bool
	if err := row.Scan(&paid); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return paid, nil
}

// MarkPaid creates the profile row when the hosted auth user has none yet.
func (r *profileRepo) MarkPaid(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	const q = `
INSERT INTO profiles (id, email, has_paid_plan, paid_at, created_at, updated_at)
VALUES ($1, '', TRUE, $2, $2, $2)
ON CONFLICT (id) DO UPDATE SET
  has_paid_plan = TRUE,
  paid_at = COALESCE(profiles.paid_at, EXCLUDED.paid_at),
  updated_at = EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q, id, at)
	return normalizeExecErr(err)
}
