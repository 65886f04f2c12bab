package repository

import (
	"context"

	"fitplan/internal/domain/model"
)

// PollSessionStore keeps the latest snapshot of each payment result screen so any
// instance can answer status reads.
type PollSessionStore interface {
	Put(ctx context.Context, s *model.PollSession) error
	Get(ctx context.Context, id string) (*model.PollSession, error)
	Delete(ctx context.Context, id string) error
}
