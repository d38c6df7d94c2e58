package perception

import "testing"

func TestChatQueueDropsOldestWhenFull(t *testing.T) {
	q := NewChatQueue()
	for i := 0; i < chatQueueCap+5; i++ {
		q.Add("user", "msg", "twitch")
	}
	if got := q.Len(); got != chatQueueCap {
		t.Fatalf("len = %d, want %d", got, chatQueueCap)
	}
}

func TestChatQueueRecentOldestFirst(t *testing.T) {
	q := NewChatQueue()
	q.Add("a", "first", "twitch")
	q.Add("b", "second", "twitch")
	q.Add("c", "third", "twitch")

	got := q.Recent(2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Message != "second" || got[1].Message != "third" {
		t.Fatalf("got %q, %q; want second, third", got[0].Message, got[1].Message)
	}
}

func TestEventQueueDrainEmptiesQueue(t *testing.T) {
	q := NewEventQueue()
	q.AddDonation("alice", 5.0, "keep it up")
	q.AddSubscription("bob")

	first := q.Drain()
	if len(first) != 2 {
		t.Fatalf("first drain returned %d events, want 2", len(first))
	}
	if first[0].Type != EventDonation || first[1].Type != EventSubscription {
		t.Fatalf("unexpected event order: %s, %s", first[0].Type, first[1].Type)
	}
	if second := q.Drain(); len(second) != 0 {
		t.Fatalf("second drain returned %d events, want 0", len(second))
	}
}

func TestEventQueueDropsOldestWhenFull(t *testing.T) {
	q := NewEventQueue()
	for i := 0; i < eventQueueCap+3; i++ {
		q.AddFollow("user")
	}
	if got := q.Len(); got != eventQueueCap {
		t.Fatalf("len = %d, want %d", got, eventQueueCap)
	}
}

func TestViewerTrackerClassification(t *testing.T) {
	cases := []struct {
		prev, cur int
		want      ViewerChange
	}{
		{100, 150, ViewerSurge},
		{100, 160, ViewerSurge},
		{100, 70, ViewerDrop},
		{100, 60, ViewerDrop},
		{100, 110, ViewerStable},
		{100, 80, ViewerStable},
		{0, 10, ViewerSurge},
		{0, 0, ViewerStable},
	}
	for _, c := range cases {
		if got := classify(c.prev, c.cur); got != c.want {
			t.Errorf("classify(%d, %d) = %s, want %s", c.prev, c.cur, got, c.want)
		}
	}
}

func TestSnapshotDrainsExactlyOnce(t *testing.T) {
	chat := NewChatQueue()
	events := NewEventQueue()
	viewers := NewViewerTracker()
	b := NewBuilder(chat, events, viewers)
	b.MarkStarted()

	chat.Add("alice", "hello", "twitch")
	events.SignalStreamStart()
	viewers.Update(42)

	first := b.Snapshot()
	if len(first.RecentChat) != 1 || len(first.PendingEvents) != 1 {
		t.Fatalf("first snapshot: chat=%d events=%d, want 1 and 1",
			len(first.RecentChat), len(first.PendingEvents))
	}
	if first.ViewerCount != 42 {
		t.Fatalf("viewer count = %d, want 42", first.ViewerCount)
	}
	if !first.Started {
		t.Fatal("snapshot not marked started")
	}

	second := b.Snapshot()
	if len(second.RecentChat) != 0 || len(second.PendingEvents) != 0 {
		t.Fatalf("second snapshot not empty: chat=%d events=%d",
			len(second.RecentChat), len(second.PendingEvents))
	}
}
