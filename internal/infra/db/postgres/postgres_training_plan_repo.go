package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/repository"
)

var _ repository.TrainingPlanRepository = (*trainingPlanRepo)(nil)

type trainingPlanRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewTrainingPlanRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *trainingPlanRepo {
	return &trainingPlanRepo{pool: pool, tm: tm}
}

// Save writes the plan and its days atomically. Without a caller tx it opens its own.
func (r *trainingPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.TrainingPlan) error {
	if tx == nil {
		return r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			return r.Save(ctx, tx, p)
		})
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	intensity, err := json.Marshal(p.Intensity)
	if err != nil {
		return domain.ErrInvalidArgument
	}

	const planQ = `
INSERT INTO training_plans (id, user_id, activity_level, training_preference, frequency_per_week, intensity, source, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	if _, err := execSQL(ctx, r.pool, tx, planQ, p.ID, p.UserID, string(p.ActivityLevel), string(p.Preference),
		p.FrequencyWeek, intensity, p.Source, p.CreatedAt); err != nil {
		return normalizeExecErr(err)
	}

	const dayQ = `
INSERT INTO workout_days (id, training_plan_id, position, day, warmup, exercises, cooldown)
VALUES ($1,$2,$3,$4,$5,$6,$7);`
	for i, d := range p.Days {
		warmup, _ := json.Marshal(d.Warmup)
		exercises, _ := json.Marshal(d.Exercises)
		cooldown, _ := json.Marshal(d.Cooldown)
		if _, err := execSQL(ctx, r.pool, tx, dayQ, uuid.NewString(), p.ID, i, d.Day, warmup, exercises, cooldown); err != nil {
			return normalizeExecErr(err)
		}
	}
	return nil
}

func (r *trainingPlanRepo) Latest(ctx context.Context, tx repository.Tx, userID string) (*model.TrainingPlan, error) {
	const planQ = `
SELECT id, user_id, activity_level, training_preference, frequency_per_week, intensity, source, created_at
  FROM training_plans
 WHERE user_id=$1
 ORDER BY created_at DESC
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, planQ, userID)
	if err != nil {
		return nil, err
	}
	var (
		p                    model.TrainingPlan
		activity, preference string
		intensity            []byte
	)
	if err := row.Scan(&p.ID, &p.UserID, &activity, &preference, &p.FrequencyWeek, &intensity, &p.Source, &p.CreatedAt); err != nil {
		return nil, normalizeScanErr(err)
	}
	p.ActivityLevel = model.ActivityLevel(activity)
	p.Preference = model.TrainingPreference(preference)
	if err := json.Unmarshal(intensity, &p.Intensity); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}

	const dayQ = `SELECT day, warmup, exercises, cooldown FROM workout_days WHERE training_plan_id=$1 ORDER BY position;`
	rows, err := queryRows(ctx, r.pool, tx, dayQ, p.ID)
	if err != nil {
		return nil, normalizeExecErr(err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			d                           model.WorkoutDay
			warmup, exercises, cooldown []byte
		)
		if err := rows.Scan(&d.Day, &warmup, &exercises, &cooldown); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if json.Unmarshal(warmup, &d.Warmup) != nil || json.Unmarshal(exercises, &d.Exercises) != nil || json.Unmarshal(cooldown, &d.Cooldown) != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		p.Days = append(p.Days, d)
	}
	if rows.Err() != nil {
		return nil, domain.ErrOperationFailed
	}
	return &p, nil
}
