package repository

import (
	"context"
	"time"

	"fitplan/internal/domain/model"
)

type PlanJobRepository interface {
	Save(ctx context.Context, tx Tx, job *model.PlanJob) error
	// FetchAndMarkProcessing atomically claims a pending job so no other worker picks it up.
	FetchAndMarkProcessing(ctx context.Context) (*model.PlanJob, error)
	// ExistsForPayment reports whether a job was already queued for the payment.
	ExistsForPayment(ctx context.Context, tx Tx, paymentID string) (bool, error)
	// ResetStale re-queues jobs left in processing since before olderThan.
	ResetStale(ctx context.Context, olderThan time.Time) (int64, error)
}
