package sched

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/repository"
	"fitplan/internal/infra/metrics"
)

// PlanReconciler periodically repairs plan generation: jobs stuck in processing after a crash
// go back to pending, and approved payments that still have no plan get a fresh job.
type PlanReconciler struct {
	payments   repository.PaymentRepository
	jobs       repository.PlanJobRepository
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how long a payment or claim may sit before it is retried
	log        *zerolog.Logger
}

func NewPlanReconciler(payments repository.PaymentRepository, jobs repository.PlanJobRepository, interval, staleAfter time.Duration, logger *zerolog.Logger) *PlanReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	l := logger.With().Str("component", "PlanReconciler").Logger()
	return &PlanReconciler{payments: payments, jobs: jobs, interval: interval, staleAfter: staleAfter, log: &l}
}

func (w *PlanReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.Tick(ctx)
		}
	}
}

// Tick runs one reconciliation pass and returns how many jobs were re-queued.
func (w *PlanReconciler) Tick(ctx context.Context) int {
	cutoff := time.Now().Add(-w.staleAfter)
	requeued := 0

	n, err := w.jobs.ResetStale(ctx, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("reset stale plan jobs")
	} else if n > 0 {
		w.log.Warn().Int64("count", n).Msg("stale plan jobs re-queued")
		for i := int64(0); i < n; i++ {
			metrics.IncPlanJobRequeued()
		}
		requeued += int(n)
	}

	missing, err := w.payments.ListApprovedWithoutPlan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list approved payments without plan")
		return requeued
	}
	for _, p := range missing {
		now := time.Now()
		job := &model.PlanJob{
			ID:        uuid.NewString(),
			UserID:    p.UserID,
			PaymentID: p.ID,
			Status:    model.PlanJobStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := w.jobs.Save(ctx, repository.NoTX, job); err != nil {
			w.log.Error().Err(err).Str("payment_id", p.ProviderPaymentID).Msg("re-queue plan job")
			continue
		}
		metrics.IncPlanJobRequeued()
		requeued++
		w.log.Info().Str("payment_id", p.ProviderPaymentID).Str("user_id", p.UserID).Msg("plan job re-queued for approved payment")
	}
	return requeued
}
