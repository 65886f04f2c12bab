package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/repository"
	"fitplan/internal/domain/ports/usecase"
	"fitplan/internal/infra/metrics"
)

// PlanJobProcessor claims queued plan jobs and runs plan generation on the pool.
type PlanJobProcessor struct {
	jobs       repository.PlanJobRepository
	generator  usecase.PlanGenerator
	interval   time.Duration
	maxRetries int
	log        *zerolog.Logger
}

func NewPlanJobProcessor(jobs repository.PlanJobRepository, generator usecase.PlanGenerator, interval time.Duration, maxRetries int, logger *zerolog.Logger) *PlanJobProcessor {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	l := logger.With().Str("component", "PlanJobProcessor").Logger()
	return &PlanJobProcessor{jobs: jobs, generator: generator, interval: interval, maxRetries: maxRetries, log: &l}
}

// Start polls for jobs until ctx is done. Run it in its own goroutine.
func (p *PlanJobProcessor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Msg("plan job processor started")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("plan job processor stopping")
			return
		case <-ticker.C:
			if err := pool.Submit(func(ctx context.Context) error {
				p.ProcessOne(ctx)
				return nil
			}); err != nil && !errors.Is(err, ErrQueueFull) {
				p.log.Warn().Err(err).Msg("submit plan job")
			}
		}
	}
}

// ProcessOne handles at most one pending job and reports whether one was found.
func (p *PlanJobProcessor) ProcessOne(ctx context.Context) bool {
	job, err := p.jobs.FetchAndMarkProcessing(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Error().Err(err).Msg("fetch plan job")
		}
		return false
	}

	log := p.log.With().Str("job_id", job.ID).Str("user_id", job.UserID).Logger()
	start := time.Now()
	err = p.generator.GenerateForUser(ctx, job.UserID, job.PaymentID)

	job.UpdatedAt = time.Now()
	switch {
	case err == nil:
		job.Status = model.PlanJobStatusCompleted
		job.LastError = ""
	case job.Retries+1 >= p.maxRetries:
		job.Retries++
		job.Status = model.PlanJobStatusFailed
		job.LastError = err.Error()
		log.Error().Err(err).Int("retries", job.Retries).Msg("plan job failed permanently")
	default:
		job.Retries++
		job.Status = model.PlanJobStatusPending
		job.LastError = err.Error()
		log.Warn().Err(err).Int("retries", job.Retries).Msg("plan job failed; will retry")
	}
	metrics.IncPlanJob(string(job.Status))

	// the claim must be settled even if ctx was cancelled mid-generation
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := p.jobs.Save(saveCtx, repository.NoTX, job); serr != nil {
		log.Error().Err(serr).Msg("save plan job status")
	}
	log.Info().Str("status", string(job.Status)).Dur("duration", time.Since(start)).Msg("plan job finished")
	return true
}
