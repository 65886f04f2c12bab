package ai

import (
	"context"

	"fitplan/internal/domain"
	"fitplan/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter is wired when no provider key is configured. Every generation
// fails with domain.ErrAIUnavailable so callers serve the template plans.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter { return &NoopAIAdapter{} }

func (a *NoopAIAdapter) Name() string         { return "noop" }
func (a *NoopAIAdapter) DefaultModel() string { return "noop" }

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return CountMessageTokens("gpt-4o-mini", messages), nil
}

func (a *NoopAIAdapter) GenerateJSON(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	return "", adapter.Usage{}, domain.ErrAIUnavailable
}
