package action

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stellarlinkco/onair/internal/perception"
)

func newTestDecider() *Decider {
	return NewDecider(rand.New(rand.NewSource(1)), []string{"wow", "gg"})
}

func TestDecideDonationBeatsChat(t *testing.T) {
	d := newTestDecider()
	snap := perception.Snapshot{
		ViewerCount: 10,
		PendingEvents: []perception.Event{
			{Type: perception.EventDonation, Username: "alice", Amount: 5000, Message: "great stream"},
		},
		RecentChat: []perception.ChatEntry{{Username: "bob", Message: "hello"}},
	}
	a := d.Decide(snap)
	if a.Kind != DonationReact {
		t.Fatalf("kind = %s, want %s", a.Kind, DonationReact)
	}
	if a.Priority != 10 {
		t.Fatalf("priority = %d, want 10", a.Priority)
	}
	if a.TargetUser != "alice" {
		t.Fatalf("target = %q, want alice", a.TargetUser)
	}
	if got, ok := a.Metadata["amount"].(float64); !ok || got != 5000 {
		t.Fatalf("metadata amount = %v, want 5000", a.Metadata["amount"])
	}
}

func TestDecideSubscriptionTargetsEventUser(t *testing.T) {
	d := newTestDecider()
	snap := perception.Snapshot{
		PendingEvents: []perception.Event{{Type: perception.EventSubscription, Username: "carol"}},
	}
	a := d.Decide(snap)
	if a.Kind != SubscribeReact || a.Priority != 9 {
		t.Fatalf("got %s/%d, want %s/9", a.Kind, a.Priority, SubscribeReact)
	}
	if a.TargetUser != "carol" {
		t.Fatalf("target = %q, want carol", a.TargetUser)
	}
}

func TestDecideFollowMapsToSubscribeReact(t *testing.T) {
	d := newTestDecider()
	snap := perception.Snapshot{
		PendingEvents: []perception.Event{{Type: perception.EventFollow, Username: "dave"}},
	}
	if a := d.Decide(snap); a.Kind != SubscribeReact || a.TargetUser != "dave" {
		t.Fatalf("got %s/%q, want %s/dave", a.Kind, a.TargetUser, SubscribeReact)
	}
}

func TestDecideStreamStartGreets(t *testing.T) {
	d := newTestDecider()
	snap := perception.Snapshot{
		PendingEvents: []perception.Event{{Type: perception.EventStreamStart}},
	}
	if a := d.Decide(snap); a.Kind != Greeting || a.Priority != 10 {
		t.Fatalf("got %s/%d, want %s/10", a.Kind, a.Priority, Greeting)
	}
}

func TestDecideSkipsUnrecognizedEvents(t *testing.T) {
	d := newTestDecider()
	snap := perception.Snapshot{
		PendingEvents: []perception.Event{
			{Type: "raid", Username: "x"},
			{Type: perception.EventDonation, Username: "alice", Amount: 1},
		},
	}
	if a := d.Decide(snap); a.Kind != DonationReact {
		t.Fatalf("kind = %s, want %s", a.Kind, DonationReact)
	}
}

func TestDecideChatReplyUsesLatestEntry(t *testing.T) {
	d := newTestDecider()
	snap := perception.Snapshot{
		RecentChat: []perception.ChatEntry{
			{Username: "a", Message: "first"},
			{Username: "b", Message: "second"},
		},
	}
	a := d.Decide(snap)
	if a.Kind != ChatReply || a.Priority != 5 {
		t.Fatalf("got %s/%d, want %s/5", a.Kind, a.Priority, ChatReply)
	}
	if a.TargetUser != "b" || a.Trigger != "second" {
		t.Fatalf("target/trigger = %q/%q, want b/second", a.TargetUser, a.Trigger)
	}
}

func TestDecideGameChatReplyOnKeyword(t *testing.T) {
	d := newTestDecider()
	snap := perception.Snapshot{
		Mode:       "game",
		RecentChat: []perception.ChatEntry{{Username: "b", Message: "WOW that was close"}},
	}
	if a := d.Decide(snap); a.Kind != GameChatReply {
		t.Fatalf("kind = %s, want %s", a.Kind, GameChatReply)
	}
}

func TestDecideGameModeWithoutKeywordIsChatReply(t *testing.T) {
	d := newTestDecider()
	snap := perception.Snapshot{
		Mode:       "game",
		RecentChat: []perception.ChatEntry{{Username: "b", Message: "how was lunch"}},
	}
	if a := d.Decide(snap); a.Kind != ChatReply {
		t.Fatalf("kind = %s, want %s", a.Kind, ChatReply)
	}
}

func TestAmbientDistribution(t *testing.T) {
	d := NewDecider(rand.New(rand.NewSource(7)), nil)
	const draws = 1000
	counts := map[Kind]int{}
	for i := 0; i < draws; i++ {
		a := d.Decide(perception.Snapshot{ViewerCount: 5})
		if a.Priority != 1 {
			t.Fatalf("ambient priority = %d, want 1", a.Priority)
		}
		counts[a.Kind]++
	}
	for kind, want := range ambientWeights {
		got := float64(counts[kind]) / draws
		if math.Abs(got-want) > 0.05 {
			t.Errorf("%s frequency = %.3f, want %.2f ± 0.05", kind, got, want)
		}
	}
}

func TestAmbientZeroViewerOverride(t *testing.T) {
	d := NewDecider(rand.New(rand.NewSource(11)), nil)
	const draws = 1000
	counts := map[Kind]int{}
	for i := 0; i < draws; i++ {
		counts[d.Decide(perception.Snapshot{ViewerCount: 0}).Kind]++
	}
	// Overridden weights keep the untouched entries at their base values,
	// so the effective total is 1.30 and expectations scale by it.
	const total = 1.30
	want := map[Kind]float64{
		FreeTalk:     0.60 / total,
		TopicChange:  0.15 / total,
		Reaction:     0.10 / total,
		AskViewers:   0.20 / total,
		Announcement: 0.05 / total,
		Silence:      0.20 / total,
	}
	for kind, w := range want {
		got := float64(counts[kind]) / draws
		if math.Abs(got-w) > 0.05 {
			t.Errorf("%s frequency = %.3f, want %.3f ± 0.05", kind, got, w)
		}
	}
}

func TestAmbientGameModeSubstitutesGameKinds(t *testing.T) {
	d := NewDecider(rand.New(rand.NewSource(13)), nil)
	const draws = 1000
	counts := map[Kind]int{}
	for i := 0; i < draws; i++ {
		a := d.Decide(perception.Snapshot{ViewerCount: 5, Mode: "game"})
		counts[a.Kind]++
	}
	for _, kind := range []Kind{FreeTalk, TopicChange, Reaction} {
		if counts[kind] != 0 {
			t.Errorf("talk kind %s drawn %d times in game mode, want 0", kind, counts[kind])
		}
	}
	want := map[Kind]float64{
		GameCommentary: ambientWeights[FreeTalk],
		GameStrategy:   ambientWeights[TopicChange],
		GameReaction:   ambientWeights[Reaction],
	}
	for kind, w := range want {
		got := float64(counts[kind]) / draws
		if math.Abs(got-w) > 0.05 {
			t.Errorf("%s frequency = %.3f, want %.2f ± 0.05", kind, got, w)
		}
	}
}

func TestAmbientGameEventShortCircuits(t *testing.T) {
	d := newTestDecider()
	snap := perception.Snapshot{
		ViewerCount: 5,
		Mode:        "game",
		GameEvents:  []perception.Event{{Type: "game_event", Message: "boss defeated"}},
	}
	a := d.Decide(snap)
	if a.Kind != GameReaction {
		t.Fatalf("kind = %s, want %s", a.Kind, GameReaction)
	}
	if a.Priority != 1 {
		t.Fatalf("priority = %d, want 1", a.Priority)
	}
	if a.Trigger != "boss defeated" {
		t.Fatalf("trigger = %q, want boss defeated", a.Trigger)
	}
}
