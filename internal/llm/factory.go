package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/policygate/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(c model.LLMConfig) Config {
	return Config{
		Provider:   c.Provider,
		Model:      c.Model,
		APIKey:     c.APIKey,
		BaseURL:    c.BaseURL,
		Timeout:    c.Timeout,
		MaxTokens:  c.MaxTokens,
		HTTPProxy:  c.HTTPProxy,
		HTTPSProxy: c.HTTPSProxy,
		NoProxy:    c.NoProxy,
	}
}

// Endpoint returns the base URL calls for config are sent to, used as the rate limit key
func Endpoint(config Config) string {
	if config.BaseURL != "" {
		return config.BaseURL
	}
	switch strings.ToLower(config.Provider) {
	case "anthropic", "claude":
		return "https://api.anthropic.com"
	case "ollama":
		return DefaultOllamaURL
	default:
		return "https://api.openai.com/v1"
	}
}

// IsLocal reports whether the provider runs on this machine and needs no rate limit
func IsLocal(config Config) bool {
	return strings.EqualFold(config.Provider, "ollama")
}
