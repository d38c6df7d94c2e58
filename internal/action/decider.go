package action

import (
	"math/rand"
	"strings"

	"github.com/stellarlinkco/onair/internal/perception"
)

// ambientWeights is the base distribution for cycles with no event or
// chat stimulus. The sampler normalizes over the sum, so overrides may
// push the total past 1.0 without breaking anything.
var ambientWeights = map[Kind]float64{
	FreeTalk:     0.40,
	TopicChange:  0.15,
	Reaction:     0.10,
	AskViewers:   0.20,
	Announcement: 0.05,
	Silence:      0.10,
}

// ambientOrder fixes the iteration order so a seeded Rand is reproducible.
var ambientOrder = []Kind{FreeTalk, TopicChange, Reaction, AskViewers, Announcement, Silence}

// gameAmbient substitutes gameplay-flavored kinds for the talk-flavored
// ones while keeping the same weight structure.
var gameAmbient = map[Kind]Kind{
	FreeTalk:    GameCommentary,
	TopicChange: GameStrategy,
	Reaction:    GameReaction,
}

// Decider turns a perception snapshot into the next Action. Events beat
// chat, chat beats the ambient pool. rng is injectable for deterministic
// tests.
type Decider struct {
	rng              *rand.Rand
	reactionKeywords []string
}

func NewDecider(rng *rand.Rand, reactionKeywords []string) *Decider {
	return &Decider{rng: rng, reactionKeywords: reactionKeywords}
}

func (d *Decider) Decide(snap perception.Snapshot) Action {
	if a, ok := d.decideEvent(snap); ok {
		return a
	}
	if a, ok := d.decideChat(snap); ok {
		return a
	}
	return d.decideAmbient(snap)
}

// decideEvent reacts to the first recognized pending event. Unrecognized
// event types are skipped, not errors.
func (d *Decider) decideEvent(snap perception.Snapshot) (Action, bool) {
	for i := range snap.PendingEvents {
		ev := &snap.PendingEvents[i]
		switch ev.Type {
		case perception.EventDonation:
			meta := map[string]any{"amount": ev.Amount}
			return Action{Kind: DonationReact, Priority: 10, TargetUser: ev.Username, Trigger: ev.Message, Metadata: meta, Event: ev}, true
		case perception.EventSubscription, perception.EventFollow:
			return Action{Kind: SubscribeReact, Priority: 9, TargetUser: ev.Username, Event: ev}, true
		case perception.EventStreamStart:
			return Action{Kind: Greeting, Priority: 10, Event: ev}, true
		}
	}
	return Action{}, false
}

func (d *Decider) decideChat(snap perception.Snapshot) (Action, bool) {
	if len(snap.RecentChat) == 0 {
		return Action{}, false
	}
	entry := &snap.RecentChat[len(snap.RecentChat)-1]
	kind := ChatReply
	if snap.Mode == "game" && d.matchesReactionKeyword(entry.Message) {
		kind = GameChatReply
	}
	return Action{Kind: kind, Priority: 5, TargetUser: entry.Username, Trigger: entry.Message, ChatEntry: entry}, true
}

func (d *Decider) matchesReactionKeyword(msg string) bool {
	lower := strings.ToLower(msg)
	for _, kw := range d.reactionKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// decideAmbient samples from the weighted pool. With nobody watching the
// broadcaster talks to itself more and pauses more, so FreeTalk and
// Silence get raised weights while the rest keep theirs.
func (d *Decider) decideAmbient(snap perception.Snapshot) Action {
	if snap.Mode == "game" && len(snap.GameEvents) > 0 {
		return Action{Kind: GameReaction, Priority: 1, Trigger: snap.GameEvents[0].Message}
	}
	weights := ambientWeights
	if snap.ViewerCount == 0 {
		weights = map[Kind]float64{
			FreeTalk:     0.60,
			TopicChange:  ambientWeights[TopicChange],
			Reaction:     ambientWeights[Reaction],
			AskViewers:   ambientWeights[AskViewers],
			Announcement: ambientWeights[Announcement],
			Silence:      0.20,
		}
	}
	kind := d.sample(weights)
	if snap.Mode == "game" {
		if sub, ok := gameAmbient[kind]; ok {
			kind = sub
		}
	}
	return Action{Kind: kind, Priority: 1}
}

func (d *Decider) sample(weights map[Kind]float64) Kind {
	var total float64
	for _, k := range ambientOrder {
		total += weights[k]
	}
	r := d.rng.Float64() * total
	for _, k := range ambientOrder {
		r -= weights[k]
		if r < 0 {
			return k
		}
	}
	return Silence
}
