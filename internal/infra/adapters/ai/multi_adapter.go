package ai

import (
	"context"
	"strings"

	"fitplan/internal/domain"
	"fitplan/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*MultiAIAdapter)(nil)

// MultiAIAdapter routes a model name to its provider and, when generation fails,
// retries once on the other configured providers with their default model.
type MultiAIAdapter struct {
	defaultProvider string // e.g., "openai" or "gemini"
	byProvider      map[string]adapter.AIServiceAdapter
	order           []string
}

func NewMultiAIAdapter(defaultProvider string, byProvider map[string]adapter.AIServiceAdapter) *MultiAIAdapter {
	m := &MultiAIAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      map[string]adapter.AIServiceAdapter{},
	}
	for name, a := range byProvider {
		if a != nil {
			m.byProvider[strings.ToLower(name)] = a
		}
	}
	if _, ok := m.byProvider[m.defaultProvider]; ok {
		m.order = append(m.order, m.defaultProvider)
	}
	for _, name := range []string{"openai", "gemini"} {
		if _, ok := m.byProvider[name]; ok && name != m.defaultProvider {
			m.order = append(m.order, name)
		}
	}
	return m
}

func (m *MultiAIAdapter) resolveProvider(model string) string {
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return "gemini"
	case strings.HasPrefix(l, "gpt"), strings.HasPrefix(l, "o1"), strings.HasPrefix(l, "o3"), strings.HasPrefix(l, "o4"):
		return "openai"
	default:
		return m.defaultProvider
	}
}

func (m *MultiAIAdapter) pick(model string) (string, adapter.AIServiceAdapter) {
	prov := m.resolveProvider(model)
	if a := m.byProvider[prov]; a != nil {
		return prov, a
	}
	if len(m.order) > 0 {
		return m.order[0], m.byProvider[m.order[0]]
	}
	return "", nil
}

func (m *MultiAIAdapter) Name() string {
	if _, a := m.pick(""); a != nil {
		return a.Name()
	}
	return "none"
}

func (m *MultiAIAdapter) DefaultModel() string {
	if _, a := m.pick(""); a != nil {
		return a.DefaultModel()
	}
	return ""
}

func (m *MultiAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	_, a := m.pick(model)
	if a == nil {
		return 0, domain.ErrAIUnavailable
	}
	return a.CountTokens(ctx, model, messages)
}

func (m *MultiAIAdapter) GenerateJSON(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	first, a := m.pick(model)
	if a == nil {
		return "", adapter.Usage{}, domain.ErrAIUnavailable
	}
	out, u, err := a.GenerateJSON(ctx, model, messages)
	if err == nil || ctx.Err() != nil {
		return out, u, err
	}
	for _, name := range m.order {
		if name == first {
			continue
		}
		alt := m.byProvider[name]
		if o, au, aerr := alt.GenerateJSON(ctx, alt.DefaultModel(), messages); aerr == nil {
			return o, au, nil
		}
	}
	return "", u, err
}
