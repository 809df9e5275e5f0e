package bot

import (
	"strings"
)

// SystemInstruction steers every generation call.
const SystemInstruction = `You are a telegram bot offering study group help.
- Always format messages using Telegram MarkdownV2.
- Keep replies short, structured, and engaging.
- Use bullet points, examples, and emojis.
- One or two lines unless a longer answer is explicitly needed.
- Do not use LaTeX or unsupported markup, only MarkdownV2.`

// Commands backed by a fixed prompt string.
var commandPrompts = map[string]string{
	"tip":     "Give a short, practical study tip.",
	"example": "Provide a short example question with its answer.",
	"quiz":    "Give a short quiz question with a hidden answer.",
	"funfact": "Share a quick, fun fact about learning.",
	"rules":   "Write 4 concise, polite group study rules with emojis.",
}

// Static replies.
const (
	startReply = "🤖 Hello! I'm your study group bot. Ask me anything!"
	aboutReply = "I am a study group assistant bot powered by a hosted LLM."
	helpReply  = `Here's what I can do:

💬 Just chat with me directly with any question!

Or use these commands:
/start - Greeting message
/ask <question> - Ask a specific question
/tip - Get a study tip
/example - See an example question
/quiz - Get a mini quiz question
/rules - Show group study rules
/funfact - Get a fun fact

🛠️ Group Commands:
/replymode <true/false> - Set when I reply in groups`

	askUsageReply       = "Please provide a question after /ask."
	groupOnlyReply      = "This command is only for group chats."
	invalidModeReply    = "Invalid option. Please use true or false."
	mentionOnlyOnReply  = "✅ Bot will now only reply when mentioned or replied to."
	mentionOnlyOffReply = "📢 Bot will now reply to all messages in the group."
)

// ParseCommand splits a "/name args" message. The bot-handle suffix
// ("/help@study_bot") is stripped when it matches the given username.
// ok is false for non-command text.
func ParseCommand(text, botUsername string) (name, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 || fields[0] == "" {
		return "", "", false
	}
	name = fields[0]
	if at := strings.Index(name, "@"); at >= 0 {
		if botUsername != "" && !strings.EqualFold(name[at+1:], botUsername) {
			// Addressed to another bot.
			return "", "", false
		}
		name = name[:at]
	}
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.Join(fields[1:], " "), true
}
