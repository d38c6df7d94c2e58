package perception

import (
	"sync"
	"time"
)

const chatQueueCap = 100

// ChatQueue buffers incoming chat until the broadcast loop reads it.
// When full the oldest entry is dropped so the queue tracks the live
// conversation instead of its backlog.
type ChatQueue struct {
	mu      sync.Mutex
	entries []ChatEntry
}

func NewChatQueue() *ChatQueue {
	return &ChatQueue{}
}

func (q *ChatQueue) Add(username, message, platform string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) >= chatQueueCap {
		q.entries = q.entries[1:]
	}
	q.entries = append(q.entries, ChatEntry{
		Username:  username,
		Message:   message,
		Timestamp: time.Now(),
		Platform:  platform,
	})
}

// Recent returns up to n of the newest entries, oldest first.
func (q *ChatQueue) Recent(n int) []ChatEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	if n <= 0 || len(q.entries) == 0 {
		return nil
	}
	if n > len(q.entries) {
		n = len(q.entries)
	}
	out := make([]ChatEntry, n)
	copy(out, q.entries[len(q.entries)-n:])
	return out
}

func (q *ChatQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *ChatQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = nil
}
