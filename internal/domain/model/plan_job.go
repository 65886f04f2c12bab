package model

import "time"

type PlanJobStatus string

const (
	PlanJobStatusPending    PlanJobStatus = "pending"
	PlanJobStatusProcessing PlanJobStatus = "processing"
	PlanJobStatusCompleted  PlanJobStatus = "completed"
	PlanJobStatusFailed     PlanJobStatus = "failed"
)

// PlanJob asks the background processor to generate the purchased plans for a user.
type PlanJob struct {
	ID        string
	UserID    string
	PaymentID string
	Status    PlanJobStatus
	Retries   int
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}
