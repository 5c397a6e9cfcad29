package ai

import (
	"fmt"
	"sync"
)

// Factory builds a provider bound to one tenant's credential and model
type Factory func(apiKey, model string) Provider

// Registry maps provider identifiers to factories
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a registry with the built-in providers registered
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("gemini", func(apiKey, model string) Provider {
		return NewGeminiProvider(apiKey, model)
	})
	r.Register("openai", func(apiKey, model string) Provider {
		return NewOpenAIProvider(apiKey, model)
	})
	return r
}

// Register adds or replaces a provider factory
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// New builds a provider for the given identifier
func (r *Registry) New(name, apiKey, model string) (Provider, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown AI provider: %s", name)
	}
	return factory(apiKey, model), nil
}
