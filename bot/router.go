// Package bot wires the Telegram update stream to the conversation
// store: routing decisions, the command table, and the dispatcher.
package bot

import (
	"fmt"
	"strings"
)

// Decision is the outcome of routing one incoming text message.
type Decision struct {
	Reply  bool
	Prompt string
}

// DecideReply applies the reply-routing rules, in order:
//
//  1. Direct chats always get a reply with the full message text.
//  2. Groups with the mention-only flag off get a reply with the full
//     message text.
//  3. Groups with the flag on get a reply only when the message replies
//     to the bot or mentions its handle; the first handle occurrence is
//     removed from the prompt and the result trimmed.
//
// When rule 3 fails both conditions no reply is produced and the caller
// must not touch the chat's history.
func DecideReply(isGroup bool, text string, isReplyToBot bool, botHandle string, mentionOnly bool) Decision {
	if !isGroup {
		return Decision{Reply: true, Prompt: text}
	}
	if !mentionOnly {
		return Decision{Reply: true, Prompt: text}
	}
	mentioned := botHandle != "" && strings.Contains(text, botHandle)
	if !isReplyToBot && !mentioned {
		return Decision{}
	}
	prompt := strings.TrimSpace(strings.Replace(text, botHandle, "", 1))
	return Decision{Reply: true, Prompt: prompt}
}

// ParseModeToken parses a reply-mode argument. Accepted tokens are
// case-insensitive: true/on/yes enable mention-only mode, false/off/no
// disable it. Anything else is rejected.
func ParseModeToken(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "on", "yes":
		return true, nil
	case "false", "off", "no":
		return false, nil
	default:
		return false, fmt.Errorf("invalid mode token: %q", s)
	}
}
