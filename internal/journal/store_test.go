package journal

import (
	"context"
	"path/filepath"
	"testing"

	"vod-archiver/internal/archive"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func chunkRecord(index int) archive.ChunkRecord {
	return archive.ChunkRecord{
		PollID:         "p-1",
		Target:         "https://www.twitch.tv/example",
		SourceURL:      "https://www.twitch.tv/videos/42",
		Title:          "Twitch_VOD_example_2026-01-02T03_04_05",
		ChunkIndex:     index,
		StartMinute:    index * 60,
		DurationMinute: 60,
		Destination:    "Twitch_VOD_example_2026-01-02T03_04_05/chunk_000",
	}
}

func TestStore_record_and_list(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, chunkRecord(0)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, chunkRecord(1)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ChunkIndex != 1 || entries[1].ChunkIndex != 0 {
		t.Errorf("expected newest first, got %d then %d", entries[0].ChunkIndex, entries[1].ChunkIndex)
	}
	if entries[0].ArchivedAt == "" {
		t.Error("archived_at should be recorded")
	}
	if entries[0].Target != "https://www.twitch.tv/example" {
		t.Errorf("target: got %q", entries[0].Target)
	}
}

func TestStore_list_respects_limit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, chunkRecord(i)); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}

	entries, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ChunkIndex != 4 {
		t.Errorf("expected newest entry first, got chunk %d", entries[0].ChunkIndex)
	}
}

func TestStore_empty_journal(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestOpen_is_reentrant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := first.Record(context.Background(), chunkRecord(0)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer second.Close()

	entries, err := second.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected entry to survive reopen, got %d", len(entries))
	}
}
