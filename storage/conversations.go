// Conversations is the process-wide conversation store: it owns every
// chat's bounded history and runs the generation calls against it.
//
// Failure contract: a failed generation call never leaves an orphaned
// user turn behind and never propagates an error to the dispatcher.
// The user sees a fixed apology string; the incident is logged.

package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/richinex/studybot/llm"
)

// Fixed user-facing replies for the two failure classes.
const (
	APIErrorReply        = "API Error: Could not get a response."
	UnexpectedErrorReply = "An unexpected error occurred."
)

// TranscriptRecorder receives every committed turn for archiving.
// Recording failures must not affect the conversation state.
type TranscriptRecorder interface {
	Record(ctx context.Context, chatID int64, role, text string) error
}

// Options configures a Conversations store.
type Options struct {
	Provider          llm.Provider
	SystemInstruction string
	Capacity          int
	EvictBatch        int
	Timeout           time.Duration
	Recorder          TranscriptRecorder
	Logger            *zap.Logger
}

// Conversations holds bounded per-chat histories, created lazily on
// first message and kept for the process lifetime.
type Conversations struct {
	mu    sync.Mutex
	chats map[int64]*conversation

	provider   llm.Provider
	system     string
	capacity   int
	evictBatch int
	timeout    time.Duration
	recorder   TranscriptRecorder
	logger     *zap.Logger
}

// NewConversations creates the store. Capacity and EvictBatch fall back
// to 20 and 2 when unset.
func NewConversations(opts Options) *Conversations {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = 20
	}
	evictBatch := opts.EvictBatch
	if evictBatch <= 0 {
		evictBatch = 2
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Conversations{
		chats:      make(map[int64]*conversation),
		provider:   opts.Provider,
		system:     opts.SystemInstruction,
		capacity:   capacity,
		evictBatch: evictBatch,
		timeout:    opts.Timeout,
		recorder:   opts.Recorder,
		logger:     logger,
	}
}

// Generate appends the prompt as a user turn, sends the full ordered
// history to the provider, and commits the model turn on success. On
// any provider failure the user turn is rolled back and a fixed
// human-readable reply is returned instead; errors never escape.
//
// Calls for the same chat are serialized by the conversation lock;
// different chats proceed concurrently.
func (s *Conversations) Generate(ctx context.Context, chatID int64, prompt string) string {
	conv := s.get(chatID)

	conv.mu.Lock()
	defer conv.mu.Unlock()

	conv.appendTurn(RoleUser, prompt)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	resp, err := s.provider.Chat(ctx, s.messages(conv))
	if err != nil {
		conv.removeLast()
		if llm.IsAPIError(err) {
			s.logger.Error("generation API call failed",
				zap.Int64("chat_id", chatID),
				zap.Error(err))
			return APIErrorReply
		}
		s.logger.Error("unexpected generation error",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
		return UnexpectedErrorReply
	}

	if strings.TrimSpace(resp.Content) != "" {
		conv.appendTurn(RoleModel, resp.Content)
	}
	conv.trim(s.capacity, s.evictBatch)

	s.record(ctx, chatID, RoleUser, prompt)
	s.record(ctx, chatID, RoleModel, resp.Content)

	return resp.Content
}

// History returns a copy of the chat's current turn sequence.
func (s *Conversations) History(chatID int64) []Turn {
	conv := s.get(chatID)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return conv.snapshot()
}

// Len returns the chat's current history length.
func (s *Conversations) Len(chatID int64) int {
	conv := s.get(chatID)
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return len(conv.turns)
}

// get returns the chat's conversation, creating it lazily.
func (s *Conversations) get(chatID int64) *conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.chats[chatID]
	if !ok {
		conv = &conversation{}
		s.chats[chatID] = conv
	}
	return conv
}

// messages maps the turn sequence into provider messages, with the
// system instruction first. The sequence already ends with the newly
// appended user prompt.
func (s *Conversations) messages(conv *conversation) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(conv.turns)+1)
	if s.system != "" {
		messages = append(messages, llm.SystemMessage(s.system))
	}
	for _, turn := range conv.turns {
		switch turn.Role {
		case RoleModel:
			messages = append(messages, llm.AssistantMessage(turn.Text))
		default:
			messages = append(messages, llm.UserMessage(turn.Text))
		}
	}
	return messages
}

func (s *Conversations) record(ctx context.Context, chatID int64, role, text string) {
	if s.recorder == nil || text == "" {
		return
	}
	if err := s.recorder.Record(ctx, chatID, role, text); err != nil {
		s.logger.Warn("transcript record failed",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}
