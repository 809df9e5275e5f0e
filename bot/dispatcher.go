package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/richinex/studybot/logging"
	"github.com/richinex/studybot/storage"
	"github.com/richinex/studybot/telegram"
)

// Messenger is the Telegram surface the dispatcher needs.
type Messenger interface {
	GetUpdates(offset int64, timeout int) ([]telegram.Update, error)
	SendMessage(chatID int64, text string) error
	SendChatAction(chatID int64, action string) error
}

// Options configures a Dispatcher.
type Options struct {
	Client        Messenger
	Me            *telegram.User
	Conversations *storage.Conversations
	ReplyModes    *storage.ReplyModes
	ChatLogs      *logging.ChatLogs
	Logger        *zap.Logger
	PollTimeout   time.Duration
}

// Dispatcher consumes the update stream in order and handles each
// update on its own goroutine, so a slow generation call in one chat
// never blocks the others.
type Dispatcher struct {
	client      Messenger
	me          *telegram.User
	store       *storage.Conversations
	modes       *storage.ReplyModes
	chatLogs    *logging.ChatLogs
	logger      *zap.Logger
	pollTimeout int

	wg sync.WaitGroup
}

// New creates a Dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("messenger client is required")
	}
	if opts.Me == nil {
		return nil, fmt.Errorf("bot identity is required")
	}
	if opts.Conversations == nil {
		return nil, fmt.Errorf("conversation store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	modes := opts.ReplyModes
	if modes == nil {
		modes = storage.NewReplyModes()
	}
	return &Dispatcher{
		client:      opts.Client,
		me:          opts.Me,
		store:       opts.Conversations,
		modes:       modes,
		chatLogs:    opts.ChatLogs,
		logger:      logger,
		pollTimeout: int(opts.PollTimeout / time.Second),
	}, nil
}

// Run polls for updates until ctx is cancelled, then waits for all
// in-flight handlers to finish.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.wg.Wait()

	var offset int64
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		updates, err := d.client.GetUpdates(offset, d.pollTimeout)
		if err != nil {
			d.logger.Error("getUpdates failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(3 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			msg := update.Message
			if msg == nil || strings.TrimSpace(msg.Text) == "" {
				continue
			}
			d.wg.Add(1)
			go func(msg *telegram.Message) {
				defer d.wg.Done()
				d.dispatch(ctx, msg)
			}(msg)
		}
	}
}

// dispatch runs the logging interceptor, then routes the message to a
// command handler or the reply router.
func (d *Dispatcher) dispatch(ctx context.Context, msg *telegram.Message) {
	d.logUserMessage(msg)

	if name, args, ok := ParseCommand(msg.Text, d.me.Username); ok {
		d.handleCommand(ctx, msg, name, args)
		return
	}
	d.handleMessage(ctx, msg)
}

// logUserMessage is the cross-cutting interceptor invoked before every
// handler: it writes the inbound message to the chat's log file.
func (d *Dispatcher) logUserMessage(msg *telegram.Message) {
	if d.chatLogs == nil {
		return
	}
	username := ""
	if msg.From != nil && msg.From.Username != "" {
		username = fmt.Sprintf("(@%s) ", msg.From.Username)
	}
	logger := d.chatLogs.For(msg.Chat.ID, msg.From.FullName())
	logger.Info(fmt.Sprintf("USER %s: %s", strings.TrimSpace(username), msg.Text))
}

func (d *Dispatcher) handleMessage(ctx context.Context, msg *telegram.Message) {
	isGroup := msg.Chat.IsGroup()
	isReplyToBot := msg.ReplyToMessage != nil &&
		msg.ReplyToMessage.From != nil &&
		msg.ReplyToMessage.From.ID == d.me.ID
	handle := "@" + d.me.Username

	decision := DecideReply(isGroup, msg.Text, isReplyToBot, handle, d.modes.Get(msg.Chat.ID))
	if !decision.Reply {
		return
	}
	d.generateAndReply(ctx, msg, decision.Prompt)
}

func (d *Dispatcher) handleCommand(ctx context.Context, msg *telegram.Message, name, args string) {
	switch name {
	case "start":
		d.send(msg.Chat.ID, startReply)
	case "help":
		d.send(msg.Chat.ID, helpReply)
	case "about":
		d.send(msg.Chat.ID, aboutReply)
	case "ask":
		if strings.TrimSpace(args) == "" {
			d.send(msg.Chat.ID, askUsageReply)
			return
		}
		d.generateAndReply(ctx, msg, args)
	case "replymode":
		d.handleReplyMode(msg, args)
	default:
		if prompt, ok := commandPrompts[name]; ok {
			d.generateAndReply(ctx, msg, prompt)
		}
		// Unknown commands are ignored, matching the update filters.
	}
}

func (d *Dispatcher) handleReplyMode(msg *telegram.Message, args string) {
	if !msg.Chat.IsGroup() {
		d.send(msg.Chat.ID, groupOnlyReply)
		return
	}

	if strings.TrimSpace(args) == "" {
		current := "all messages"
		if d.modes.Get(msg.Chat.ID) {
			current = "mention/reply"
		}
		d.send(msg.Chat.ID, fmt.Sprintf(
			"Current reply mode: %s.\n\nUsage: /replymode true (only reply on mention) or /replymode false (reply to all messages).",
			current))
		return
	}

	mentionOnly, err := ParseModeToken(args)
	if err != nil {
		d.send(msg.Chat.ID, invalidModeReply)
		return
	}
	d.modes.Set(msg.Chat.ID, mentionOnly)
	if mentionOnly {
		d.send(msg.Chat.ID, mentionOnlyOnReply)
	} else {
		d.send(msg.Chat.ID, mentionOnlyOffReply)
	}
}

// generateAndReply sends the typing indicator, runs the generation
// call, replies, and logs the bot side of the exchange.
func (d *Dispatcher) generateAndReply(ctx context.Context, msg *telegram.Message, prompt string) {
	if err := d.client.SendChatAction(msg.Chat.ID, "typing"); err != nil {
		d.logger.Warn("sendChatAction failed",
			zap.Int64("chat_id", msg.Chat.ID),
			zap.Error(err))
	}

	answer := d.store.Generate(ctx, msg.Chat.ID, prompt)
	d.send(msg.Chat.ID, answer)

	if d.chatLogs != nil {
		logger := d.chatLogs.For(msg.Chat.ID, msg.From.FullName())
		logger.Info("BOT: " + strings.Join(strings.Split(answer, "\n"), " "))
	}
}

func (d *Dispatcher) send(chatID int64, text string) {
	if err := d.client.SendMessage(chatID, text); err != nil {
		d.logger.Error("sendMessage failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}
