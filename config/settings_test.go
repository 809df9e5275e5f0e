package config

import (
	"os"
	"testing"
	"time"

	"github.com/richinex/studybot/llm"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:test-token")
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("LLM_MAX_TOKENS", "")
	t.Setenv("HISTORY_CAPACITY", "")
	t.Setenv("HISTORY_EVICT_BATCH", "")
}

func TestNewDefaults(t *testing.T) {
	setRequiredEnv(t)

	settings, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != llm.ProviderGemini {
		t.Errorf("expected default provider gemini, got %v", settings.LLM.Provider)
	}
	if settings.LLM.Model != llm.ModelGeminiFlashLite {
		t.Errorf("expected default model, got %q", settings.LLM.Model)
	}
	if settings.History.Capacity != 20 {
		t.Errorf("expected capacity 20, got %d", settings.History.Capacity)
	}
	if settings.History.EvictBatch != 2 {
		t.Errorf("expected evict batch 2, got %d", settings.History.EvictBatch)
	}
	if settings.LLM.Timeout != 60*time.Second {
		t.Errorf("expected 60s generation timeout, got %v", settings.LLM.Timeout)
	}
	if settings.Telegram.PollTimeout != 50*time.Second {
		t.Errorf("expected 50s poll timeout, got %v", settings.Telegram.PollTimeout)
	}
}

func TestNewMissingToken(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	if _, err := New(); err == nil {
		t.Error("expected error for missing bot token")
	}
}

func TestNewMissingAPIKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := New(); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestNewProviderAlias(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_PROVIDER", "google")

	settings, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != llm.ProviderGemini {
		t.Errorf("expected alias 'google' to normalize to gemini, got %v", settings.LLM.Provider)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_PROVIDER", "unknown_provider")

	if _, err := New(); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewModelOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")
	defer os.Unsetenv("GEMINI_MODEL")

	settings, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Model != "gemini-2.5-pro" {
		t.Errorf("expected model override, got %q", settings.LLM.Model)
	}
}

func TestNewInvalidEnvVar(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")

	if _, err := New(); err == nil {
		t.Error("expected error for invalid LLM_MAX_TOKENS")
	}
}

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HISTORY_CAPACITY", "0")

	if _, err := New(); err == nil {
		t.Error("expected error for zero history capacity")
	}
}
