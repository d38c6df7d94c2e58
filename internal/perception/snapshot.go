package perception

import "time"

// ViewerChange classifies how the viewer count moved since the last poll.
type ViewerChange string

const (
	ViewerSurge  ViewerChange = "surge"
	ViewerDrop   ViewerChange = "drop"
	ViewerStable ViewerChange = "stable"
)

// ChatEntry is one chat line as observed from a platform. Arrival order is
// preserved everywhere it travels; the last entry is the freshest.
type ChatEntry struct {
	Username  string
	Message   string
	Timestamp time.Time
	Platform  string
}

// Event is a platform stimulus (donation, subscription, follow, stream start,
// game event). Amount is zero unless the event carries money.
type Event struct {
	Type     string
	Username string
	Amount   float64
	Message  string
	Metadata map[string]any
}

const (
	EventDonation     = "donation"
	EventSubscription = "subscription"
	EventFollow       = "follow"
	EventStreamStart  = "stream_start"
)

// GameState is a lightweight observation of the running game.
type GameState struct {
	Timestamp time.Time
	Status    string
}

// Snapshot is the immutable per-cycle bundle of everything the broadcaster
// currently perceives. PendingEvents and RecentChat are drained from their
// queues exactly once; the same entry never appears in two snapshots.
type Snapshot struct {
	ViewerCount   int
	ViewerChange  ViewerChange
	RecentChat    []ChatEntry
	PendingEvents []Event
	Elapsed       time.Duration
	Started       bool
	Mode          string // "talk" or "game"
	GameName      string
	EndingPhase   string // "", "wind_down", "ending_announce", "final_goodbye"

	// Game-mode extras, zero-valued otherwise.
	GameState  *GameState
	GameEvents []Event
	MinPause   time.Duration
	MaxPause   time.Duration
}
