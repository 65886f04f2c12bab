package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid database execution context")
	ErrRateLimited        = errors.New("too many requests")

	// Payment confirmation flow
	ErrMissingPaymentInfo   = errors.New("missing payment information")
	ErrConfirmationFailed   = errors.New("payment confirmation failed")
	ErrReadinessCheckFailed = errors.New("plan readiness check failed")
	ErrPollTimedOut         = errors.New("plan generation timed out")
	ErrUnauthenticated      = errors.New("user not authenticated")
	ErrAlreadyStarted       = errors.New("poller already started")
	ErrPaymentLocked        = errors.New("payment is already being confirmed")
	ErrStatusMismatch       = errors.New("payment status does not match provider")

	// Plan generation
	ErrAIUnavailable  = errors.New("plan generator unavailable")
	ErrPromptTooLarge = errors.New("prompt exceeds token budget")
	ErrInvalidAIReply = errors.New("plan generator returned an invalid document")
)
