// Package config provides application settings loaded from environment variables.
//
// Settings are created via New() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific API key lookup

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/richinex/studybot/llm"
)

// Settings holds all application configuration, read once at startup.
type Settings struct {
	Telegram TelegramConfig
	LLM      LLMConfig
	History  HistoryConfig
	Panel    PanelConfig
	LogsDir  string
}

// TelegramConfig holds bot transport configuration.
type TelegramConfig struct {
	Token       string
	PollTimeout time.Duration
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    llm.ProviderType
	APIKey      string
	Model       string
	MaxTokens   uint32
	Temperature float64
	Timeout     time.Duration
}

// HistoryConfig bounds the per-chat conversation buffer.
type HistoryConfig struct {
	Capacity   int
	EvictBatch int
}

// PanelConfig holds the ops web panel configuration.
// The panel is disabled when Password is empty.
type PanelConfig struct {
	Addr         string
	Password     string
	Root         string
	TranscriptDB string
}

// Per-provider model override environment variables.
var modelEnvVars = map[llm.ProviderType]string{
	llm.ProviderGemini:    "GEMINI_MODEL",
	llm.ProviderOpenAI:    "OPENAI_MODEL",
	llm.ProviderAnthropic: "ANTHROPIC_MODEL",
	llm.ProviderDeepSeek:  "DEEPSEEK_MODEL",
}

// New loads settings from environment variables.
// A missing bot token or provider API key is an error: the process must
// not serve any traffic without them.
func New() (Settings, error) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return Settings{}, fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	providerName := os.Getenv("LLM_PROVIDER")
	if providerName == "" {
		providerName = "gemini"
	}
	provider, err := llm.ParseProviderType(providerName)
	if err != nil {
		return Settings{}, err
	}

	apiKey := os.Getenv(provider.EnvVar())
	if apiKey == "" {
		return Settings{}, fmt.Errorf("%s environment variable not set", provider.EnvVar())
	}

	model := os.Getenv(modelEnvVars[provider])
	if model == "" {
		model = provider.DefaultModel()
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 4096)
	if err != nil {
		return Settings{}, err
	}
	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.7)
	if err != nil {
		return Settings{}, err
	}
	timeoutSeconds, err := getEnvInt("LLM_TIMEOUT_SECONDS", 60)
	if err != nil {
		return Settings{}, err
	}

	capacity, err := getEnvInt("HISTORY_CAPACITY", 20)
	if err != nil {
		return Settings{}, err
	}
	if capacity <= 0 {
		return Settings{}, fmt.Errorf("HISTORY_CAPACITY must be positive, got %d", capacity)
	}
	evictBatch, err := getEnvInt("HISTORY_EVICT_BATCH", 2)
	if err != nil {
		return Settings{}, err
	}
	if evictBatch <= 0 {
		return Settings{}, fmt.Errorf("HISTORY_EVICT_BATCH must be positive, got %d", evictBatch)
	}

	pollTimeout, err := getEnvInt("POLL_TIMEOUT_SECONDS", 50)
	if err != nil {
		return Settings{}, err
	}

	logsDir := os.Getenv("LOGS_DIR")
	if logsDir == "" {
		logsDir = "logs"
	}

	panelAddr := os.Getenv("PANEL_ADDR")
	if panelAddr == "" {
		panelAddr = ":8080"
	}
	panelRoot := os.Getenv("PANEL_ROOT")
	if panelRoot == "" {
		panelRoot = "."
	}

	return Settings{
		Telegram: TelegramConfig{
			Token:       token,
			PollTimeout: time.Duration(pollTimeout) * time.Second,
		},
		LLM: LLMConfig{
			Provider:    provider,
			APIKey:      apiKey,
			Model:       model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			Timeout:     time.Duration(timeoutSeconds) * time.Second,
		},
		History: HistoryConfig{
			Capacity:   capacity,
			EvictBatch: evictBatch,
		},
		Panel: PanelConfig{
			Addr:         panelAddr,
			Password:     os.Getenv("PANEL_PASSWORD"),
			Root:         panelRoot,
			TranscriptDB: os.Getenv("TRANSCRIPT_DB"),
		},
		LogsDir: logsDir,
	}, nil
}

// Environment variable helpers with proper error handling

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
