package storage

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/richinex/studybot/llm"
)

// fakeProvider returns scripted responses or errors.
type fakeProvider struct {
	reply    string
	err      error
	calls    int
	lastSent []llm.ChatMessage
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

func (f *fakeProvider) Chat(_ context.Context, messages []llm.ChatMessage) (llm.Response, error) {
	f.calls++
	f.lastSent = messages
	if f.err != nil {
		return llm.Response{}, f.err
	}
	return llm.Response{Content: f.reply}, nil
}

func newStore(p llm.Provider, capacity, evictBatch int) *Conversations {
	return NewConversations(Options{
		Provider:          p,
		SystemInstruction: "be brief",
		Capacity:          capacity,
		EvictBatch:        evictBatch,
	})
}

func TestGenerateAppendsBothTurns(t *testing.T) {
	p := &fakeProvider{reply: "4"}
	store := newStore(p, 20, 2)

	got := store.Generate(context.Background(), 1, "what is 2+2")
	if got != "4" {
		t.Errorf("expected reply '4', got %q", got)
	}

	want := []Turn{
		{Role: RoleUser, Text: "what is 2+2"},
		{Role: RoleModel, Text: "4"},
	}
	if !reflect.DeepEqual(store.History(1), want) {
		t.Errorf("unexpected history: %#v", store.History(1))
	}
}

func TestGenerateLengthInvariant(t *testing.T) {
	// After each successful call, length is min(previous+2, capacity).
	p := &fakeProvider{reply: "ok"}
	store := newStore(p, 20, 2)

	prev := 0
	for i := 0; i < 30; i++ {
		store.Generate(context.Background(), 1, fmt.Sprintf("q%d", i))
		want := prev + 2
		if want > 20 {
			want = 20
		}
		if got := store.Len(1); got != want {
			t.Fatalf("call %d: expected length %d, got %d", i, want, got)
		}
		prev = store.Len(1)
	}
}

func TestGenerateEvictsFromFront(t *testing.T) {
	p := &fakeProvider{reply: "a"}
	store := newStore(p, 4, 2)

	store.Generate(context.Background(), 1, "q0")
	store.Generate(context.Background(), 1, "q1")
	store.Generate(context.Background(), 1, "q2")

	history := store.History(1)
	if len(history) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(history))
	}
	// q0 and its reply were evicted; the front is now q1.
	if history[0].Text != "q1" || history[0].Role != RoleUser {
		t.Errorf("expected oldest surviving turn to be user q1, got %#v", history[0])
	}
	if history[3].Text != "a" || history[3].Role != RoleModel {
		t.Errorf("expected newest turn to be the model reply, got %#v", history[3])
	}
}

func TestGenerateRollsBackOnAPIError(t *testing.T) {
	p := &fakeProvider{reply: "hi"}
	store := newStore(p, 20, 2)

	store.Generate(context.Background(), 1, "hello")
	before := store.History(1)

	p.err = &llm.APIError{Provider: "fake", Err: errors.New("503")}
	got := store.Generate(context.Background(), 1, "are you there")

	if got != APIErrorReply {
		t.Errorf("expected fixed API error reply, got %q", got)
	}
	if !reflect.DeepEqual(store.History(1), before) {
		t.Errorf("expected history unchanged after failure:\nbefore=%#v\nafter=%#v",
			before, store.History(1))
	}
}

func TestGenerateRollsBackOnUnexpectedError(t *testing.T) {
	p := &fakeProvider{err: errors.New("boom")}
	store := newStore(p, 20, 2)

	got := store.Generate(context.Background(), 1, "hello")
	if got != UnexpectedErrorReply {
		t.Errorf("expected fixed unexpected error reply, got %q", got)
	}
	if store.Len(1) != 0 {
		t.Errorf("expected empty history after rollback, got %d turns", store.Len(1))
	}
}

func TestGenerateSkipsBlankModelTurn(t *testing.T) {
	p := &fakeProvider{reply: "   \n"}
	store := newStore(p, 20, 2)

	store.Generate(context.Background(), 1, "hello")
	history := store.History(1)
	if len(history) != 1 || history[0].Role != RoleUser {
		t.Errorf("expected only the user turn when the reply is blank, got %#v", history)
	}
}

func TestGenerateSendsSystemAndHistory(t *testing.T) {
	p := &fakeProvider{reply: "second"}
	store := newStore(p, 20, 2)

	store.Generate(context.Background(), 1, "first question")
	store.Generate(context.Background(), 1, "second question")

	sent := p.lastSent
	if len(sent) != 4 {
		t.Fatalf("expected system + 3 turns, got %d messages", len(sent))
	}
	if sent[0].Role != "system" || sent[0].Content != "be brief" {
		t.Errorf("expected system instruction first, got %#v", sent[0])
	}
	if sent[1].Role != "user" || sent[2].Role != "assistant" {
		t.Errorf("expected user/assistant role mapping, got %q/%q", sent[1].Role, sent[2].Role)
	}
	if sent[3].Content != "second question" {
		t.Errorf("expected the new prompt last, got %q", sent[3].Content)
	}
}

func TestGenerateIsolatesChats(t *testing.T) {
	p := &fakeProvider{reply: "ok"}
	store := newStore(p, 20, 2)

	store.Generate(context.Background(), 1, "chat one")
	store.Generate(context.Background(), 2, "chat two")

	if store.Len(1) != 2 || store.Len(2) != 2 {
		t.Fatalf("expected independent histories, got %d and %d", store.Len(1), store.Len(2))
	}
	if store.History(1)[0].Text == store.History(2)[0].Text {
		t.Error("expected no cross-chat context bleed")
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	p := &fakeProvider{reply: "ok"}
	store := newStore(p, 20, 2)

	store.Generate(context.Background(), 1, "hello")
	history := store.History(1)
	history[0].Text = "mutated"

	if store.History(1)[0].Text != "hello" {
		t.Error("expected History to return a copy")
	}
}

type recordedTurn struct {
	chatID int64
	role   string
	text   string
}

type fakeRecorder struct {
	turns []recordedTurn
	err   error
}

func (f *fakeRecorder) Record(_ context.Context, chatID int64, role, text string) error {
	if f.err != nil {
		return f.err
	}
	f.turns = append(f.turns, recordedTurn{chatID, role, text})
	return nil
}

func TestGenerateRecordsTranscript(t *testing.T) {
	rec := &fakeRecorder{}
	store := NewConversations(Options{
		Provider: &fakeProvider{reply: "pong"},
		Recorder: rec,
	})

	store.Generate(context.Background(), 7, "ping")

	if len(rec.turns) != 2 {
		t.Fatalf("expected 2 recorded turns, got %d", len(rec.turns))
	}
	if rec.turns[0] != (recordedTurn{7, RoleUser, "ping"}) {
		t.Errorf("unexpected user record: %#v", rec.turns[0])
	}
	if rec.turns[1] != (recordedTurn{7, RoleModel, "pong"}) {
		t.Errorf("unexpected model record: %#v", rec.turns[1])
	}
}

func TestGenerateToleratesRecorderFailure(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("disk full")}
	store := NewConversations(Options{
		Provider: &fakeProvider{reply: "pong"},
		Recorder: rec,
	})

	if got := store.Generate(context.Background(), 7, "ping"); got != "pong" {
		t.Errorf("expected reply despite recorder failure, got %q", got)
	}
	if store.Len(7) != 2 {
		t.Errorf("expected committed history despite recorder failure, got %d", store.Len(7))
	}
}
