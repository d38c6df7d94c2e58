// Package brain turns a decided action plus the current perception into
// spoken text via an LLM backend.
package brain

import (
	"context"
	"fmt"

	"github.com/stellarlinkco/onair/internal/config"
)

// Message is one chat-completion message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options carries per-request generation parameters.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Backend is a chat-completion provider. ChatStream delivers content
// chunks on the first channel and at most one error on the second; both
// are closed when the stream ends.
type Backend interface {
	Chat(ctx context.Context, messages []Message, opts Options) (string, error)
	ChatStream(ctx context.Context, messages []Message, opts Options) (<-chan string, <-chan error)
}

// NewBackend builds a backend from provider config. Unknown types are an
// error rather than a silent default.
func NewBackend(cfg config.ProviderConfig) (Backend, error) {
	switch cfg.Type {
	case "", "ollama":
		return newOllamaBackend(cfg), nil
	case "openai":
		return newOpenAIBackend(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}
