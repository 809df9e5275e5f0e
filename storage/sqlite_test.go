package storage

import (
	"context"
	"path/filepath"
	"testing"
)

func TestTranscriptArchiveRecordAndList(t *testing.T) {
	archive, err := NewTranscriptArchiveInMemory()
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer archive.Close()

	ctx := context.Background()
	if err := archive.Record(ctx, 1, RoleUser, "hello"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := archive.Record(ctx, 1, RoleModel, "hi there"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := archive.List(ctx, 1, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Role != RoleUser || entries[0].Text != "hello" {
		t.Errorf("unexpected first entry: %#v", entries[0])
	}
	if entries[1].Role != RoleModel || entries[1].Text != "hi there" {
		t.Errorf("unexpected second entry: %#v", entries[1])
	}
}

func TestTranscriptArchiveListEmptyChat(t *testing.T) {
	archive, err := NewTranscriptArchiveInMemory()
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer archive.Close()

	entries, err := archive.List(context.Background(), 99, 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestTranscriptArchiveChats(t *testing.T) {
	archive, err := NewTranscriptArchiveInMemory()
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer archive.Close()

	ctx := context.Background()
	for _, chatID := range []int64{3, 1, 3, 2} {
		if err := archive.Record(ctx, chatID, RoleUser, "x"); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	chats, err := archive.Chats(ctx)
	if err != nil {
		t.Fatalf("Chats failed: %v", err)
	}
	want := []int64{1, 2, 3}
	if len(chats) != len(want) {
		t.Fatalf("expected %d chats, got %d", len(want), len(chats))
	}
	for i := range want {
		if chats[i] != want[i] {
			t.Errorf("expected chat %d at position %d, got %d", want[i], i, chats[i])
		}
	}
}

func TestTranscriptArchiveOpenCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "transcripts.db")

	archive, err := OpenTranscriptArchive(path)
	if err != nil {
		t.Fatalf("OpenTranscriptArchive failed: %v", err)
	}
	defer archive.Close()

	if err := archive.Record(context.Background(), 1, RoleUser, "persisted"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
}
