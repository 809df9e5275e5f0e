// LLM Provider Factory - creates providers by name.

package llm

import (
	"fmt"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini ProviderType = iota
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderGemini:
		return "gemini"
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderDeepSeek:
		return "deepseek"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderGemini:
		return ModelGeminiFlashLite
	case ProviderOpenAI:
		return ModelOpenAIGPT4o
	case ProviderAnthropic:
		return ModelAnthropicSonnet
	case ProviderDeepSeek:
		return ModelDeepSeekChat
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "gemini", "google":
		return ProviderGemini, nil
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// NewProvider creates a provider of the given type.
func NewProvider(typ ProviderType, apiKey, model string, maxTokens uint32, temperature float32) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s: API key is required", typ)
	}
	if model == "" {
		model = typ.DefaultModel()
	}

	switch typ {
	case ProviderGemini:
		return NewGeminiProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(apiKey, model, maxTokens, temperature), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(apiKey, model, maxTokens, temperature), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %d", typ)
	}
}
