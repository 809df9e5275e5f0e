package storage

import (
	"sync"
)

// ReplyModes maps group chat ids to their reply-mode flag.
//
// false (default): reply to all messages.
// true: reply only on mention or reply to the bot's own message.
//
// Entries are created only by the explicit mode-setting command, never
// expire, and are not persisted across restarts.
type ReplyModes struct {
	mu    sync.RWMutex
	modes map[int64]bool
}

// NewReplyModes creates an empty registry.
func NewReplyModes() *ReplyModes {
	return &ReplyModes{
		modes: make(map[int64]bool),
	}
}

// Get returns the chat's flag, defaulting to false when absent.
func (r *ReplyModes) Get(chatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.modes[chatID]
}

// Set stores the chat's flag.
func (r *ReplyModes) Set(chatID int64, mentionOnly bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modes[chatID] = mentionOnly
}
