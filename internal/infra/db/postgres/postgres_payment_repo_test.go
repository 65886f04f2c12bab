//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/repository"
)

func newTestPayment(t *testing.T, userID, providerID, status string) *model.Payment {
	t.Helper()
	p, err := model.NewPayment(uuid.NewString(), userID, "mercadopago", model.RedirectParams{
		Status:            model.ParsePaymentStatus(status),
		RawStatus:         status,
		PaymentID:         providerID,
		ExternalReference: "ref-" + providerID,
	})
	if err != nil {
		t.Fatalf("new payment: %v", err)
	}
	return p
}

func TestPaymentRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	ctx := context.Background()
	repo := NewPaymentRepo(testPool)
	tm := NewTxManager(testPool)
	userID := uuid.NewString()

	t.Run("should insert and find a payment by provider id", func(t *testing.T) {
		cleanup(t)
		p := newTestPayment(t, userID, "1001", "pending")

		stored, err := repo.Upsert(ctx, nil, p)
		if err != nil {
			t.Fatalf("upsert: %v", err)
		}
		if stored.ID != p.ID || stored.Status != model.PaymentStatusPending {
			t.Fatalf("unexpected stored payment %+v", stored)
		}

		found, err := repo.FindByProviderID(ctx, nil, "mercadopago", "1001")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if found.ExternalReference != "ref-1001" || found.UserID != userID {
			t.Errorf("unexpected payment %+v", found)
		}
	})

	t.Run("should be idempotent on replays and keep the first approval", func(t *testing.T) {
		cleanup(t)
		first := newTestPayment(t, userID, "2002", "approved")
		stored, err := repo.Upsert(ctx, nil, first)
		if err != nil {
			t.Fatalf("first upsert: %v", err)
		}
		approvedAt := *stored.ApprovedAt

		time.Sleep(10 * time.Millisecond)
		replay := newTestPayment(t, userID, "2002", "pending")
		again, err := repo.Upsert(ctx, nil, replay)
		if err != nil {
			t.Fatalf("replay upsert: %v", err)
		}
		if again.ID != first.ID {
			t.Errorf("replay created a new row: %s vs %s", again.ID, first.ID)
		}
		if again.Status != model.PaymentStatusApproved {
			t.Errorf("approved payment was downgraded to %s", again.Status)
		}
		if again.ApprovedAt == nil || !again.ApprovedAt.Equal(approvedAt) {
			t.Errorf("approval time changed: %v -> %v", approvedAt, again.ApprovedAt)
		}
	})

	t.Run("should return ErrNotFound for unknown payments", func(t *testing.T) {
		cleanup(t)
		_, err := repo.FindByProviderID(ctx, nil, "mercadopago", "nope")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should lock the row inside a transaction", func(t *testing.T) {
		cleanup(t)
		_, _ = repo.Upsert(ctx, nil, newTestPayment(t, userID, "3003", "pending"))
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			_, err := repo.FindByProviderID(ctx, tx, "mercadopago", "3003")
			return err
		})
		if err != nil {
			t.Fatalf("tx find: %v", err)
		}
	})

	t.Run("should list approved payments that still have no plan", func(t *testing.T) {
		cleanup(t)
		jobs := NewPlanJobRepo(testPool, tm)
		plans := NewNutritionalPlanRepo(testPool)

		orphan, _ := repo.Upsert(ctx, nil, newTestPayment(t, "user-a", "4001", "approved"))
		withPlan, _ := repo.Upsert(ctx, nil, newTestPayment(t, "user-b", "4002", "approved"))
		withJob, _ := repo.Upsert(ctx, nil, newTestPayment(t, "user-c", "4003", "approved"))
		_, _ = repo.Upsert(ctx, nil, newTestPayment(t, "user-d", "4004", "pending"))

		if err := plans.Save(ctx, nil, &model.NutritionalPlan{UserID: withPlan.UserID, CaloricTarget: 2000, Content: []byte(`{}`), CreatedAt: time.Now()}); err != nil {
			t.Fatalf("save plan: %v", err)
		}
		if err := jobs.Save(ctx, nil, &model.PlanJob{UserID: withJob.UserID, PaymentID: withJob.ID, Status: model.PlanJobStatusPending}); err != nil {
			t.Fatalf("save job: %v", err)
		}

		got, err := repo.ListApprovedWithoutPlan(ctx, nil, time.Now().Add(time.Minute), 10)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].ID != orphan.ID {
			t.Fatalf("expected only the orphan payment, got %+v", got)
		}
	})
}
