package ending

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stellarlinkco/onair/internal/action"
)

type recordingSpeaker struct {
	kinds []action.Kind
	err   error
}

func (s *recordingSpeaker) SpeakPhase(_ context.Context, kind action.Kind) error {
	s.kinds = append(s.kinds, kind)
	return s.err
}

type recordingScenes struct {
	switched bool
	err      error
}

func (s *recordingScenes) SwitchToEndingScene(context.Context) error {
	s.switched = true
	return s.err
}

func TestPhaseHandleNeverMovesBackward(t *testing.T) {
	h := NewPhaseHandle()
	h.Set(PhaseEndingAnnounce)
	h.Set(PhaseWindDown)
	if got := h.Phase(); got != PhaseEndingAnnounce {
		t.Fatalf("phase = %s, want ending_announce", got)
	}
	h.Set(PhaseTerminated)
	h.Set(PhaseFinalGoodbye)
	if got := h.Phase(); got != PhaseTerminated {
		t.Fatalf("phase = %s, want terminated", got)
	}
}

func TestPhaseHandleEnding(t *testing.T) {
	h := NewPhaseHandle()
	if h.Ending() {
		t.Fatal("fresh handle should not report ending")
	}
	h.Set(PhaseWindDown)
	if !h.Ending() {
		t.Fatal("handle should report ending after wind down")
	}
}

func TestManagerTimelineOrder(t *testing.T) {
	h := NewPhaseHandle()
	sp := &recordingSpeaker{}
	sc := &recordingScenes{}
	// Compressed durations keep the test fast while exercising every wait.
	m := NewManager(h, sp, sc, 20*time.Millisecond, 10*time.Millisecond)
	m.announce = 5 * time.Millisecond

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []action.Kind{action.WindDown, action.EndingAnnounce, action.FinalGoodbye}
	if len(sp.kinds) != len(want) {
		t.Fatalf("triggers = %v, want %v", sp.kinds, want)
	}
	for i := range want {
		if sp.kinds[i] != want[i] {
			t.Fatalf("trigger %d = %s, want %s", i, sp.kinds[i], want[i])
		}
	}
	if !sc.switched {
		t.Fatal("ending scene was not switched")
	}
	if got := h.Phase(); got != PhaseTerminated {
		t.Fatalf("final phase = %s, want terminated", got)
	}
}

func TestManagerAdvancesPastTriggerErrors(t *testing.T) {
	h := NewPhaseHandle()
	sp := &recordingSpeaker{err: errors.New("backend down")}
	sc := &recordingScenes{err: errors.New("obs offline")}
	m := NewManager(h, sp, sc, 10*time.Millisecond, 5*time.Millisecond)
	m.announce = 2 * time.Millisecond

	if err := m.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := h.Phase(); got != PhaseTerminated {
		t.Fatalf("final phase = %s, want terminated", got)
	}
	if len(sp.kinds) != 3 {
		t.Fatalf("got %d triggers, want 3 despite errors", len(sp.kinds))
	}
}

func TestManagerStopsOnCancel(t *testing.T) {
	h := NewPhaseHandle()
	m := NewManager(h, &recordingSpeaker{}, nil, time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := h.Phase(); got != PhaseWindDown {
		t.Fatalf("phase = %s, want wind_down", got)
	}
}
