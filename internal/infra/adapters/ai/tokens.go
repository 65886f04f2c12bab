package ai

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"fitplan/internal/domain/ports/adapter"
)

// per-message framing overhead used by chat models
const tokensPerMessage = 4

var (
	encMu     sync.Mutex
	encByName = map[string]*tiktoken.Tiktoken{}
)

// encodingFor resolves the BPE encoding for model, falling back to cl100k_base.
// A nil result means no encoding could be loaded.
func encodingFor(model string) *tiktoken.Tiktoken {
	encMu.Lock()
	defer encMu.Unlock()
	if enc, ok := encByName[model]; ok {
		return enc
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			enc = nil
		}
	}
	encByName[model] = enc
	return enc
}

// CountMessageTokens counts prompt tokens the way OpenAI chat models bill them.
func CountMessageTokens(model string, messages []adapter.Message) int {
	enc := encodingFor(model)
	total := 3 // reply priming
	for _, m := range messages {
		total += tokensPerMessage
		if enc != nil {
			total += len(enc.Encode(m.Role, nil, nil)) + len(enc.Encode(m.Content, nil, nil))
		} else {
			total += estimateTokens(m.Role) + estimateTokens(m.Content)
		}
	}
	return total
}

// estimateTokens is max(runes/4, words) for when no encoding is available.
func estimateTokens(text string) int {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0
	}
	estimate := len([]rune(trimmed)) / 4
	if words := len(strings.Fields(trimmed)); estimate < words {
		estimate = words
	}
	if estimate == 0 {
		estimate = 1
	}
	return estimate
}
