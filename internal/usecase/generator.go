package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"fitplan/internal/domain"
	"fitplan/internal/domain/ports/adapter"
	"fitplan/internal/infra/metrics"
)

// GeneratorConfig bounds the AI calls made while generating plans.
type GeneratorConfig struct {
	Model           string // empty uses the adapter default
	MaxPromptTokens int
}

// jsonGenerator asks the AI adapter for a JSON document and decodes it into out.
// Any failure is reported so the caller can fall back to the deterministic template.
type jsonGenerator struct {
	ai  adapter.AIServiceAdapter
	cfg GeneratorConfig
	log *zerolog.Logger
}

func (g *jsonGenerator) generate(ctx context.Context, system string, input any, out any) error {
	if g.ai == nil {
		return domain.ErrAIUnavailable
	}
	model := g.cfg.Model
	if model == "" {
		model = g.ai.DefaultModel()
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return err
	}
	msgs := []adapter.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: string(payload)},
	}

	if g.cfg.MaxPromptTokens > 0 {
		tokens, err := g.ai.CountTokens(ctx, model, msgs)
		if err != nil {
			g.log.Warn().Err(err).Str("model", model).Msg("token count failed; sending anyway")
		} else if tokens > g.cfg.MaxPromptTokens {
			metrics.PrecheckBlocked(g.ai.Name(), model)
			return fmt.Errorf("%w: %d > %d", domain.ErrPromptTooLarge, tokens, g.cfg.MaxPromptTokens)
		}
	}

	start := time.Now()
	reply, usage, err := g.ai.GenerateJSON(ctx, model, msgs)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		metrics.ObserveAICall(g.ai.Name(), model, 0, 0, latency, false)
		return err
	}
	metrics.ObserveAICall(g.ai.Name(), model, usage.PromptTokens, usage.CompletionTokens, latency, true)

	if err := json.Unmarshal([]byte(stripFence(reply)), out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidAIReply, err)
	}
	return nil
}

// stripFence removes a ```json fence some models wrap around JSON output.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// fallbackReason labels why the template was used for metrics.
func fallbackReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrAIUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrPromptTooLarge):
		return "prompt_too_large"
	case errors.Is(err, domain.ErrInvalidAIReply):
		return "invalid_reply"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "provider_error"
	}
}
