package llm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samsaffron/ghostwrite/internal/config"
)

// ProviderNames lists the provider identifiers accepted in config and flags.
func ProviderNames() []string {
	return []string{"anthropic", "openai", "gemini", "ollama", "debug"}
}

// ParseProviderModel splits a "provider:model" flag value. The model part is
// optional.
func ParseProviderModel(s string) (string, string, error) {
	provider, model, _ := strings.Cut(s, ":")
	provider = strings.TrimSpace(provider)
	if provider == "" {
		return "", "", fmt.Errorf("invalid provider format: %q", s)
	}
	if !slices.Contains(ProviderNames(), provider) {
		return "", "", fmt.Errorf("unknown provider: %s", provider)
	}
	return provider, strings.TrimSpace(model), nil
}

// NewProvider creates the completion provider selected by cfg.Provider.
// Providers are not wrapped with retry: rate limits are surfaced to the
// user and transient failures are simply retried by the next edit.
func NewProvider(cfg *config.Config) (CompletionProvider, error) {
	opts := DefaultOptions()
	if cfg.Completion.MaxTokens > 0 {
		opts.MaxTokens = cfg.Completion.MaxTokens
	}

	switch cfg.Provider {
	case "anthropic":
		p, err := NewAnthropicProvider(cfg.Anthropic.APIKey, cfg.Anthropic.Model, opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "openai":
		p, err := NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "gemini":
		p, err := NewGeminiProvider(cfg.Gemini.APIKey, cfg.Gemini.Model, opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "ollama":
		if cfg.Ollama.BaseURL == "" {
			return nil, fmt.Errorf("provider %q requires base_url", cfg.Provider)
		}
		return NewOpenAICompatProvider(cfg.Ollama.BaseURL, cfg.Ollama.APIKey, cfg.Ollama.Model, "Ollama", opts), nil
	case "debug":
		return NewDebugProvider(cfg.Debug.Variant), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
