package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/adapter"
	"fitplan/internal/domain/ports/repository"
	"fitplan/internal/infra/logging"
	"fitplan/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// Confirm records the payment the provider redirected back with. Replays are idempotent:
	// the first approval marks the account paid and queues plan generation, later ones do nothing.
	// Every failure wraps domain.ErrConfirmationFailed.
	Confirm(ctx context.Context, userID, externalReference, paymentID, status string) (*model.Payment, error)
}

type paymentUC struct {
	payments repository.PaymentRepository
	profiles repository.ProfileRepository
	jobs     repository.PlanJobRepository
	gateway  adapter.PaymentGateway
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	profiles repository.ProfileRepository,
	jobs repository.PlanJobRepository,
	gateway adapter.PaymentGateway,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *paymentUC {
	return &paymentUC{payments: payments, profiles: profiles, jobs: jobs, gateway: gateway, tm: tm, log: logger}
}

func (u *paymentUC) Confirm(ctx context.Context, userID, externalReference, paymentID, status string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "PaymentUC.Confirm")()
	p, err := u.confirm(ctx, userID, externalReference, paymentID, status)
	if err != nil {
		metrics.IncPayment(u.gateway.Name(), "failed")
		return nil, fmt.Errorf("%w: %w", domain.ErrConfirmationFailed, err)
	}
	metrics.IncPayment(u.gateway.Name(), string(p.Status))
	return p, nil
}

func (u *paymentUC) confirm(ctx context.Context, userID, externalReference, paymentID, status string) (*model.Payment, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	params := model.RedirectParams{
		Status:            model.ParsePaymentStatus(status),
		RawStatus:         strings.TrimSpace(status),
		PaymentID:         strings.TrimSpace(paymentID),
		ExternalReference: strings.TrimSpace(externalReference),
	}
	if params.RawStatus == "" || params.PaymentID == "" || params.ExternalReference == "" {
		return nil, domain.ErrInvalidArgument
	}

	if err := u.crossCheck(ctx, params); err != nil {
		return nil, err
	}

	pay, err := model.NewPayment(uuid.NewString(), userID, u.gateway.Name(), params)
	if err != nil {
		return nil, err
	}

	var stored *model.Payment
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		s, err := u.payments.Upsert(ctx, tx, pay)
		if err != nil {
			return err
		}
		if s.UserID != userID {
			// the provider id belongs to another account
			return domain.ErrInvalidArgument
		}
		stored = s
		if s.Status != model.PaymentStatusApproved {
			return nil
		}
		queued, err := u.jobs.ExistsForPayment(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		if queued {
			return nil
		}
		approvedAt := time.Now()
		if s.ApprovedAt != nil {
			approvedAt = *s.ApprovedAt
		}
		if err := u.profiles.MarkPaid(ctx, tx, userID, approvedAt); err != nil {
			return err
		}
		now := time.Now()
		job := &model.PlanJob{
			ID:        uuid.NewString(),
			UserID:    userID,
			PaymentID: s.ID,
			Status:    model.PlanJobStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := u.jobs.Save(ctx, tx, job); err != nil {
			return err
		}
		u.log.Info().Str("user_id", userID).Str("payment_id", s.ProviderPaymentID).Str("job_id", job.ID).Msg("payment approved; plan generation queued")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// crossCheck compares the redirect against the provider's record when the gateway can verify.
func (u *paymentUC) crossCheck(ctx context.Context, params model.RedirectParams) error {
	remote, ok, err := u.gateway.Lookup(ctx, params.PaymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("payment %s unknown to %s: %w", params.PaymentID, u.gateway.Name(), err)
		}
		return fmt.Errorf("lookup payment: %w", err)
	}
	if !ok {
		return nil
	}
	if model.ParsePaymentStatus(remote.Status) != params.Status {
		u.log.Warn().Str("payment_id", params.PaymentID).Str("redirect_status", params.RawStatus).Str("provider_status", remote.Status).Msg("redirect status mismatch")
		return domain.ErrStatusMismatch
	}
	if remote.ExternalReference != "" && remote.ExternalReference != params.ExternalReference {
		return domain.ErrStatusMismatch
	}
	return nil
}
