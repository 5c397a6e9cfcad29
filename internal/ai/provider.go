package ai

import "context"

// Turn is one conversation entry sent to a provider
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Provider is a single LLM backend. Credentials and model are bound at
// construction time; one provider instance serves one tenant configuration.
type Provider interface {
	// Name returns the provider identifier ("gemini", "openai", ...)
	Name() string

	// Complete sends the system prompt plus the conversation and returns
	// the raw completion text.
	Complete(ctx context.Context, systemPrompt string, turns []Turn) (string, error)
}
