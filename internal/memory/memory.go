// Package memory keeps the broadcaster's rolling conversation history and
// a separate log of important stream events.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/stellarlinkco/onair/internal/perception"
)

const DefaultWindowSize = 50

// Entry is one remembered exchange. Role follows chat-completion
// conventions: "user" for chat, "assistant" for the broadcaster's own
// utterances, "context" for situational summaries.
type Entry struct {
	Role      string
	Content   string
	Timestamp time.Time
}

// EventRecord is an important stream event kept outside the rolling
// window, so donations and subscriptions survive window eviction.
type EventRecord struct {
	Type      string
	Username  string
	Amount    float64
	Timestamp time.Time
}

// ConversationMemory is a fixed-size FIFO window of conversation entries
// plus an unbounded event log. Safe for concurrent use; the broadcast
// loop and the ending manager both write to it.
type ConversationMemory struct {
	mu      sync.Mutex
	window  int
	entries []Entry
	events  []EventRecord
}

func New(windowSize int) *ConversationMemory {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	return &ConversationMemory{window: windowSize}
}

// RecordUtterance remembers what the broadcaster said together with a
// short summary of the situation it said it in.
func (m *ConversationMemory) RecordUtterance(text string, viewerCount, chatCount int) {
	if text == "" {
		return
	}
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.append(Entry{
		Role:      "context",
		Content:   fmt.Sprintf("viewers: %d, recent chat messages: %d", viewerCount, chatCount),
		Timestamp: now,
	})
	m.append(Entry{Role: "assistant", Content: text, Timestamp: now})
}

// RecordChat remembers a viewer's message verbatim.
func (m *ConversationMemory) RecordChat(entry perception.ChatEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.append(Entry{
		Role:      "user",
		Content:   fmt.Sprintf("%s: %s", entry.Username, entry.Message),
		Timestamp: entry.Timestamp,
	})
}

// RecordEvent appends to the important-event log. The log is not subject
// to window eviction.
func (m *ConversationMemory) RecordEvent(ev perception.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, EventRecord{
		Type:      ev.Type,
		Username:  ev.Username,
		Amount:    ev.Amount,
		Timestamp: time.Now(),
	})
}

// append assumes m.mu is held.
func (m *ConversationMemory) append(e Entry) {
	if len(m.entries) >= m.window {
		m.entries = m.entries[1:]
	}
	m.entries = append(m.entries, e)
}

// Recent returns up to n of the newest entries, oldest first.
func (m *ConversationMemory) Recent(n int) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || len(m.entries) == 0 {
		return nil
	}
	if n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]Entry, n)
	copy(out, m.entries[len(m.entries)-n:])
	return out
}

// Events returns a copy of the important-event log.
func (m *ConversationMemory) Events() []EventRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EventRecord, len(m.events))
	copy(out, m.events)
	return out
}

// ToPromptMessages renders the window as role/content pairs suitable for
// a chat-completion request. Context entries are situational notes, not
// dialogue, and are filtered out.
func (m *ConversationMemory) ToPromptMessages() []PromptMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]PromptMessage, 0, len(m.entries))
	for _, e := range m.entries {
		if e.Role != "user" && e.Role != "assistant" {
			continue
		}
		out = append(out, PromptMessage{Role: e.Role, Content: e.Content})
	}
	return out
}

// PromptMessage is a role/content pair for an LLM request.
type PromptMessage struct {
	Role    string
	Content string
}

func (m *ConversationMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Clear drops the conversation window and the event log.
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.events = nil
}
