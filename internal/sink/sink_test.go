package sink

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stellarlinkco/onair/internal/perception"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "transcript.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if err := s.InsertUtterance("free_talk", "hello chat", 12); err != nil {
		t.Fatalf("InsertUtterance: %v", err)
	}
	if err := s.InsertChat(perception.ChatEntry{Username: "alice", Message: "hi", Platform: "twitch", Timestamp: time.Now()}); err != nil {
		t.Fatalf("InsertChat: %v", err)
	}
	if err := s.InsertEvent(perception.Event{Type: perception.EventDonation, Username: "bob", Amount: 5}); err != nil {
		t.Fatalf("InsertEvent: %v", err)
	}

	n, err := s.UtteranceCount()
	if err != nil {
		t.Fatalf("UtteranceCount: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestBufferedFlushesOnShutdown(t *testing.T) {
	s := openTestStore(t)
	b := NewBuffered(s)

	ctx, cancel := context.WithCancel(context.Background())
	go b.Run(ctx)

	for i := 0; i < 10; i++ {
		b.RecordUtterance("free_talk", "line", i)
	}
	b.RecordChat(perception.ChatEntry{Username: "u", Message: "m", Platform: "twitch"})
	b.RecordEvent(perception.Event{Type: perception.EventFollow, Username: "f"})

	cancel()
	b.Wait()

	n, err := s.UtteranceCount()
	if err != nil {
		t.Fatalf("UtteranceCount: %v", err)
	}
	if n != 10 {
		t.Fatalf("count = %d, want 10", n)
	}
}
