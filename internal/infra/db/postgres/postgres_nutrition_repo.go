package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/repository"
)

var (
	_ repository.NutritionalPlanRepository  = (*nutritionalPlanRepo)(nil)
	_ repository.NutritionProfileRepository = (*nutritionProfileRepo)(nil)
)

type nutritionalPlanRepo struct{ pool *pgxpool.Pool }

func NewNutritionalPlanRepo(pool *pgxpool.Pool) *nutritionalPlanRepo {
	return &nutritionalPlanRepo{pool: pool}
}

func (r *nutritionalPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.NutritionalPlan) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	const q = `
INSERT INTO nutritional_plans (id, user_id, payment_id, caloric_target, content, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.PaymentID, p.CaloricTarget, p.Content, p.CreatedAt)
	return normalizeExecErr(err)
}

func (r *nutritionalPlanRepo) Latest(ctx context.Context, tx repository.Tx, userID string) (*model.NutritionalPlan, error) {
	const q = `
SELECT id, user_id, payment_id, caloric_target, content, created_at
  FROM nutritional_plans
 WHERE user_id=$1
 ORDER BY created_at DESC
 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	var p model.NutritionalPlan
	if err := row.Scan(&p.ID, &p.UserID, &p.PaymentID, &p.CaloricTarget, &p.Content, &p.CreatedAt); err != nil {
		return nil, normalizeScanErr(err)
	}
	return &p, nil
}

type nutritionProfileRepo struct{ pool *pgxpool.Pool }

func NewNutritionProfileRepo(pool *pgxpool.Pool) *nutritionProfileRepo {
	return &nutritionProfileRepo{pool: pool}
}

func (r *nutritionProfileRepo) Upsert(ctx context.Context, tx repository.Tx, n *model.NutritionProfile) error {
	const q = `
INSERT INTO user_nutrition (user_id, weight, height, age, gender, activity_level, goal, training_preference, caloric_target, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (user_id) DO UPDATE SET
  weight=EXCLUDED.weight, height=EXCLUDED.height, age=EXCLUDED.age, gender=EXCLUDED.gender,
  activity_level=EXCLUDED.activity_level, goal=EXCLUDED.goal, training_preference=EXCLUDED.training_preference,
  caloric_target=EXCLUDED.caloric_target, updated_at=EXCLUDED.updated_at;`
	m := n.Metrics
	pref := n.Preference
	if pref == "" {
		pref = model.TrainingGym
	}
	_, err := execSQL(ctx, r.pool, tx, q, n.UserID, m.WeightKg, m.HeightCm, m.Age,
		string(m.Gender), string(m.Activity), string(m.Goal), string(pref), n.CaloricTarget, n.UpdatedAt)
	return normalizeExecErr(err)
}

func (r *nutritionProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.NutritionProfile, error) {
	const q = `
SELECT user_id, weight, height, age, gender, activity_level, goal, training_preference, caloric_target, updated_at
  FROM user_nutrition WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	var (
		n                            model.NutritionProfile
		gender, activity, goal, pref string
	)
	if err := row.Scan(&n.UserID, &n.Metrics.WeightKg, &n.Metrics.HeightCm, &n.Metrics.Age,
		&gender, &activity, &goal, &pref, &n.CaloricTarget, &n.UpdatedAt); err != nil {
		return nil, normalizeScanErr(err)
	}
	n.Metrics.Gender = model.Gender(gender)
	n.Metrics.Activity = model.ActivityLevel(activity)
	n.Metrics.Goal = model.Goal(goal)
	n.Preference = model.TrainingPreference(pref)
	if n.UserID == "" {
		return nil, domain.ErrReadDatabaseRow
	}
	return &n, nil
}
