package perception

import (
	"fmt"
	"os"
	"sync"

	"tablenerd/internal/logging"
)

// DetectProvider resolves a provider and API key from environment
// variables. Priority: ANTHROPIC > OPENAI > GEMINI.
func DetectProvider() (ClientConfig, error) {
	providers := []struct {
		envVar   string
		provider Provider
	}{
		{"ANTHROPIC_API_KEY", ProviderAnthropic},
		{"OPENAI_API_KEY", ProviderOpenAI},
		{"GEMINI_API_KEY", ProviderGemini},
	}
	for _, p := range providers {
		if key := os.Getenv(p.envVar); key != "" {
			return ClientConfig{Provider: p.provider, APIKey: key}, nil
		}
	}
	return ClientConfig{}, fmt.Errorf("no API key found; set one of: ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY")
}

// NewClientFromConfig creates an LLM client for the configured provider.
func NewClientFromConfig(config ClientConfig) (LLMClient, error) {
	switch config.Provider {
	case ProviderAnthropic:
		return NewAnthropicClientWithConfig(config), nil
	case ProviderOpenAI:
		return NewOpenAIClientWithConfig(config), nil
	case ProviderGemini:
		return NewGeminiClientWithConfig(config), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", config.Provider)
	}
}

// clientKey identifies a cached client by its configuration tuple.
type clientKey struct {
	provider    Provider
	model       string
	temperature float64
	maxTokens   int
}

// Factory creates LLM clients and memoizes them by configuration tuple
// (provider, model, temperature, max tokens) so repeated construction of
// the same configuration reuses one client. The cache holds no
// conversation or table state.
type Factory struct {
	mu      sync.Mutex
	clients map[clientKey]LLMClient
}

// NewFactory creates an empty client factory.
func NewFactory() *Factory {
	return &Factory{clients: make(map[clientKey]LLMClient)}
}

// Client returns a client for the given configuration, building it on
// first use.
func (f *Factory) Client(config ClientConfig) (LLMClient, error) {
	key := clientKey{
		provider:    config.Provider,
		model:       config.Model,
		temperature: config.Temperature,
		maxTokens:   config.MaxTokens,
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[key]; ok {
		logging.PerceptionDebug("[Factory] reusing cached client provider=%s model=%s", config.Provider, config.Model)
		return client, nil
	}

	client, err := NewClientFromConfig(config)
	if err != nil {
		return nil, err
	}
	f.clients[key] = client
	logging.Perception("[Factory] created client provider=%s model=%s", config.Provider, config.Model)
	return client, nil
}

// Clear drops all cached clients.
func (f *Factory) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients = make(map[clientKey]LLMClient)
}

// Size returns the number of cached clients.
func (f *Factory) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}
