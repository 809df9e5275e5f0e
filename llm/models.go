// Package llm provides shared data models for LLM providers.
package llm

// ChatMessage represents a chat message with role and content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "system",
		Content: content,
	}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "user",
		Content: content,
	}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{
		Role:    "assistant",
		Content: content,
	}
}

// Response represents a response from an LLM provider.
type Response struct {
	Content string
	Usage   *TokenUsage
}

// TokenUsage contains token usage statistics.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// Default models per provider.
const (
	ModelGeminiFlashLite = "gemini-2.5-flash-lite"
	ModelOpenAIGPT4o     = "gpt-4o"
	ModelAnthropicSonnet = "claude-sonnet-4-20250514"
	ModelDeepSeekChat    = "deepseek-chat"
)
