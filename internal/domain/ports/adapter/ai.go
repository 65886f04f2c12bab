package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Usage for a single generation call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIServiceAdapter is the port for LLM-backed plan generation. Implementations
// must ask the provider for a JSON object response.
type AIServiceAdapter interface {
	Name() string
	DefaultModel() string

	// CountTokens returns prompt tokens for the provided messages
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	// GenerateJSON returns the assistant's JSON document and provider-reported usage.
	GenerateJSON(ctx context.Context, model string, messages []Message) (string, Usage, error)
}
