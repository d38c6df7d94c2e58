package perception

import (
	"sync"
	"time"
)

const snapshotChatWindow = 10

// Builder assembles the per-cycle Snapshot from the live queues and the
// viewer tracker. Each call drains the event queue and clears chat, so
// two consecutive snapshots never share a stimulus.
type Builder struct {
	Chat    *ChatQueue
	Events  *EventQueue
	Viewers *ViewerTracker

	mu      sync.Mutex
	started time.Time
}

func NewBuilder(chat *ChatQueue, events *EventQueue, viewers *ViewerTracker) *Builder {
	return &Builder{Chat: chat, Events: events, Viewers: viewers}
}

// MarkStarted records the moment the broadcast went live; Elapsed in later
// snapshots is measured from it.
func (b *Builder) MarkStarted() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = time.Now()
}

func (b *Builder) Snapshot() Snapshot {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()

	snap := Snapshot{
		ViewerCount:   b.Viewers.Count(),
		ViewerChange:  b.Viewers.Change(),
		RecentChat:    b.Chat.Recent(snapshotChatWindow),
		PendingEvents: b.Events.Drain(),
	}
	b.Chat.Clear()
	if !started.IsZero() {
		snap.Started = true
		snap.Elapsed = time.Since(started)
	}
	return snap
}
