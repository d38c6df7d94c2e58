package ending

import (
	"context"
	"log"
	"time"

	"github.com/stellarlinkco/onair/internal/action"
)

const announceLead = 5 * time.Minute

// Speaker triggers one out-of-band utterance for a phase transition. The
// broadcast loop implements it: fresh snapshot, generate, speak, record.
type Speaker interface {
	SpeakPhase(ctx context.Context, kind action.Kind) error
}

// SceneSwitcher flips OBS to the ending scene. Failures are logged and
// swallowed; the timeline never stalls on OBS.
type SceneSwitcher interface {
	SwitchToEndingScene(ctx context.Context) error
}

// Manager walks the wind-down timeline: WindDown at T-windDown,
// EndingAnnounce five minutes before the end, FinalGoodbye at the end,
// then Terminated after the goodbye has had time to play out.
type Manager struct {
	handle   *PhaseHandle
	speaker  Speaker
	scenes   SceneSwitcher
	windDown time.Duration
	goodbye  time.Duration
	announce time.Duration
}

func NewManager(handle *PhaseHandle, speaker Speaker, scenes SceneSwitcher, windDown, goodbye time.Duration) *Manager {
	return &Manager{
		handle:   handle,
		speaker:  speaker,
		scenes:   scenes,
		windDown: windDown,
		goodbye:  goodbye,
		announce: announceLead,
	}
}

// Run executes the full timeline. It blocks until Terminated or ctx
// cancellation. Trigger errors are logged; the timeline still advances
// so the broadcast always reaches its scheduled end.
func (m *Manager) Run(ctx context.Context) error {
	m.advance(ctx, PhaseWindDown, action.WindDown)

	wait := m.windDown - m.announce
	if wait < 0 {
		wait = 0
	}
	if err := sleep(ctx, wait); err != nil {
		return err
	}

	m.advance(ctx, PhaseEndingAnnounce, action.EndingAnnounce)

	if err := sleep(ctx, m.announce); err != nil {
		return err
	}

	m.advance(ctx, PhaseFinalGoodbye, action.FinalGoodbye)
	if m.scenes != nil {
		if err := m.scenes.SwitchToEndingScene(ctx); err != nil {
			log.Printf("[ending] ending scene switch failed: %v", err)
		}
	}

	if err := sleep(ctx, m.goodbye); err != nil {
		return err
	}

	m.handle.Set(PhaseTerminated)
	log.Printf("[ending] broadcast terminated")
	return nil
}

func (m *Manager) advance(ctx context.Context, phase Phase, kind action.Kind) {
	m.handle.Set(phase)
	log.Printf("[ending] phase -> %s", phase)
	if m.speaker == nil {
		return
	}
	if err := m.speaker.SpeakPhase(ctx, kind); err != nil {
		log.Printf("[ending] %s trigger failed: %v", phase, err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
