package storage

import (
	"testing"
)

func TestReplyModesDefaultFalse(t *testing.T) {
	modes := NewReplyModes()
	if modes.Get(42) {
		t.Error("expected default flag to be false")
	}
}

func TestReplyModesSetAndGet(t *testing.T) {
	modes := NewReplyModes()

	modes.Set(42, true)
	if !modes.Get(42) {
		t.Error("expected flag true after Set(true)")
	}

	modes.Set(42, false)
	if modes.Get(42) {
		t.Error("expected flag false after Set(false)")
	}
}

func TestReplyModesSetIdempotent(t *testing.T) {
	modes := NewReplyModes()

	modes.Set(42, true)
	modes.Set(42, true)
	if !modes.Get(42) {
		t.Error("expected flag unchanged after setting the same value twice")
	}
}

func TestReplyModesIsolatedPerChat(t *testing.T) {
	modes := NewReplyModes()

	modes.Set(1, true)
	if modes.Get(2) {
		t.Error("expected other chats to keep the default flag")
	}
}
