// Package storage provides per-chat conversation state.
//
// Information Hiding:
// - Turn buffer bounds and eviction policy hidden behind methods
// - Thread-safe access via per-conversation mutex
// - Suitable for process-lifetime, in-memory sessions

package storage

import (
	"sync"
)

// Turn roles. The store speaks the wire vocabulary of the generation
// API: the counterpart to a user turn is a model turn.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one exchange unit in a conversation history.
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// conversation is a bounded, ordered turn buffer for one chat.
// All access goes through the owning Conversations store, which holds
// the conversation lock across a full generate call so that concurrent
// messages in the same chat cannot interleave history mutations.
type conversation struct {
	mu    sync.Mutex
	turns []Turn
}

// appendTurn appends without bounds checking. Callers trim afterwards.
func (c *conversation) appendTurn(role, text string) {
	c.turns = append(c.turns, Turn{Role: role, Text: text})
}

// removeLast drops the most recently appended turn. Used to roll back
// the user turn when a generation call fails.
func (c *conversation) removeLast() {
	if len(c.turns) > 0 {
		c.turns = c.turns[:len(c.turns)-1]
	}
}

// trim evicts turns from the front, evictBatch at a time, until the
// buffer is within capacity.
func (c *conversation) trim(capacity, evictBatch int) {
	for len(c.turns) > capacity {
		n := evictBatch
		if n > len(c.turns) {
			n = len(c.turns)
		}
		c.turns = c.turns[n:]
	}
}

// snapshot returns a copy of the turns to avoid external mutations.
func (c *conversation) snapshot() []Turn {
	copied := make([]Turn, len(c.turns))
	copy(copied, c.turns)
	return copied
}
