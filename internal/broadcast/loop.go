// Package broadcast runs the perceive-decide-generate-speak-remember
// cycle that keeps the broadcaster talking.
package broadcast

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/stellarlinkco/onair/internal/action"
	"github.com/stellarlinkco/onair/internal/ending"
	"github.com/stellarlinkco/onair/internal/memory"
	"github.com/stellarlinkco/onair/internal/perception"
)

const recoveryDelay = 5 * time.Second

// Generator produces the utterance for a decided action.
type Generator interface {
	Generate(ctx context.Context, act action.Action, snap perception.Snapshot) (string, error)
}

// SpeechOutput delivers an utterance. Synthesis and queueing happen
// before it returns; playback does not.
type SpeechOutput interface {
	Speak(ctx context.Context, text string, kind action.Kind) error
}

// GameSource augments a snapshot with game-mode context: pending game
// events, game state, and game-specific pacing.
type GameSource interface {
	Augment(snap *perception.Snapshot)
}

// Recorder persists the transcript. Optional; a nil recorder disables it.
type Recorder interface {
	RecordUtterance(kind, text string, viewers int)
	RecordChat(entry perception.ChatEntry)
	RecordEvent(ev perception.Event)
}

// Observer counts what the loop does. Optional.
type Observer interface {
	CycleDone()
	GenerationFallback(kind action.Kind)
	UtteranceSpoken(kind action.Kind)
	ChatSeen(n int)
	EventSeen(n int)
}

// State is the loop's lifecycle position.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Config is the loop's pacing setup, taken from broadcast config.
type Config struct {
	Mode         string
	MinPause     time.Duration
	MaxPause     time.Duration
	GameMinPause time.Duration
	GameMaxPause time.Duration
}

// Loop drives one broadcast from start to stop. Everything it touches is
// injected, so tests run it against fakes.
type Loop struct {
	cfg     Config
	builder *perception.Builder
	decider *action.Decider
	gen     Generator
	speech  SpeechOutput
	mem     *memory.ConversationMemory
	phase   *ending.PhaseHandle
	game    GameSource
	rec     Recorder
	obs     Observer
	rng     *rand.Rand

	mu    sync.Mutex
	state State
}

func NewLoop(cfg Config, builder *perception.Builder, decider *action.Decider, gen Generator,
	speech SpeechOutput, mem *memory.ConversationMemory, phase *ending.PhaseHandle, rng *rand.Rand) *Loop {
	return &Loop{
		cfg:     cfg,
		builder: builder,
		decider: decider,
		gen:     gen,
		speech:  speech,
		mem:     mem,
		phase:   phase,
		rng:     rng,
		state:   StateIdle,
	}
}

func (l *Loop) SetGameSource(g GameSource) { l.game = g }
func (l *Loop) SetRecorder(r Recorder)     { l.rec = r }
func (l *Loop) SetObserver(o Observer)     { l.obs = o }

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}

// Run cycles until ctx is cancelled. A failed iteration is logged and
// followed by a recovery delay; the loop itself never dies mid-broadcast.
func (l *Loop) Run(ctx context.Context) {
	l.setState(StateRunning)
	defer l.setState(StateIdle)
	l.builder.MarkStarted()
	l.builder.Events.SignalStreamStart()
	log.Printf("[broadcast] loop started (mode=%s)", l.cfg.Mode)

	for {
		if ctx.Err() != nil {
			log.Printf("[broadcast] loop stopped")
			return
		}
		snap, err := l.iterate(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("[broadcast] loop stopped")
				return
			}
			log.Printf("[broadcast] cycle failed: %v", err)
			if sleepCtx(ctx, recoveryDelay) != nil {
				log.Printf("[broadcast] loop stopped")
				return
			}
			continue
		}
		if l.obs != nil {
			l.obs.CycleDone()
		}
		if sleepCtx(ctx, l.pause(snap)) != nil {
			log.Printf("[broadcast] loop stopped")
			return
		}
	}
}

// iterate runs one full cycle and returns the snapshot it acted on so
// the caller can derive the pause.
func (l *Loop) iterate(ctx context.Context) (perception.Snapshot, error) {
	snap := l.snapshot()

	act := l.decider.Decide(snap)
	text, err := l.gen.Generate(ctx, act, snap)
	if err != nil {
		// The generator already substituted a fallback line; speak it
		// and keep going so the stream never stalls on the backend.
		log.Printf("[broadcast] generation failed, using fallback: %v", err)
		if l.obs != nil {
			l.obs.GenerationFallback(act.Kind)
		}
	}

	if text != "" {
		// A missed utterance is logged, not retried; the cycle goes on.
		if err := l.speech.Speak(ctx, text, act.Kind); err != nil {
			log.Printf("[broadcast] playback failed: %v", err)
		} else if l.obs != nil {
			l.obs.UtteranceSpoken(act.Kind)
		}
	}

	l.remember(act, text, snap)
	return snap, nil
}

func (l *Loop) snapshot() perception.Snapshot {
	snap := l.builder.Snapshot()
	snap.Mode = l.cfg.Mode
	if l.cfg.Mode == "game" && l.game != nil {
		l.game.Augment(&snap)
	}
	snap.EndingPhase = l.phase.Phase().String()
	return snap
}

func (l *Loop) remember(act action.Action, text string, snap perception.Snapshot) {
	l.mem.RecordUtterance(text, snap.ViewerCount, len(snap.RecentChat))
	for _, entry := range snap.RecentChat {
		l.mem.RecordChat(entry)
	}
	for _, ev := range snap.PendingEvents {
		l.mem.RecordEvent(ev)
	}

	if l.rec != nil {
		if text != "" {
			l.rec.RecordUtterance(string(act.Kind), text, snap.ViewerCount)
		}
		for _, entry := range snap.RecentChat {
			l.rec.RecordChat(entry)
		}
		for _, ev := range snap.PendingEvents {
			l.rec.RecordEvent(ev)
		}
	}
	if l.obs != nil {
		l.obs.ChatSeen(len(snap.RecentChat))
		l.obs.EventSeen(len(snap.PendingEvents))
	}
}

// pause derives the wait before the next cycle from what this cycle saw.
// Game mode paces slower; fresh events demand the quickest turnaround;
// a busy chat keeps the pace brisk.
func (l *Loop) pause(snap perception.Snapshot) time.Duration {
	if snap.Mode == "game" {
		min, max := snap.MinPause, snap.MaxPause
		if min <= 0 {
			min = l.cfg.GameMinPause
		}
		if max <= min {
			max = l.cfg.GameMaxPause
		}
		return l.uniform(min, max)
	}
	if len(snap.PendingEvents) > 0 {
		return l.cfg.MinPause
	}
	if len(snap.RecentChat) >= 3 {
		return l.uniform(l.cfg.MinPause, 2*l.cfg.MinPause)
	}
	return l.uniform(l.cfg.MinPause, l.cfg.MaxPause)
}

func (l *Loop) uniform(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(l.rng.Int63n(int64(max-min)))
}

// SpeakPhase handles an ending-phase trigger: fresh snapshot, top
// priority action, speak, remember. The ending manager calls it at each
// transition.
func (l *Loop) SpeakPhase(ctx context.Context, kind action.Kind) error {
	snap := l.snapshot()
	act := action.Action{Kind: kind, Priority: 10}
	text, err := l.gen.Generate(ctx, act, snap)
	if err != nil {
		log.Printf("[broadcast] %s generation failed, using fallback: %v", kind, err)
		if l.obs != nil {
			l.obs.GenerationFallback(kind)
		}
	}
	// The snapshot drained the queues; remember it even when playback
	// fails or there is nothing to say.
	l.remember(act, text, snap)
	if text == "" {
		return nil
	}
	if err := l.speech.Speak(ctx, text, kind); err != nil {
		return err
	}
	if l.obs != nil {
		l.obs.UtteranceSpoken(kind)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
