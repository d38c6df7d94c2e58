// Package game manages the on-stream game process and the game-mode
// perception overlay.
package game

import (
	"fmt"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/stellarlinkco/onair/internal/config"
	"github.com/stellarlinkco/onair/internal/perception"
)

// Manager launches and stops the configured game and tracks which one is
// active.
type Manager struct {
	cfg config.GameConfig

	mu      sync.Mutex
	active  *config.GameEntry
	process *exec.Cmd
}

func NewManager(cfg config.GameConfig) *Manager {
	return &Manager{cfg: cfg}
}

// Launch starts the named game. The process runs detached from the
// broadcast lifecycle; Stop kills it explicitly.
func (m *Manager) Launch(name string) error {
	entry := m.find(name)
	if entry == nil {
		return fmt.Errorf("game %q not configured", name)
	}
	if entry.LaunchCommand == "" {
		return fmt.Errorf("game %q has no launch command", name)
	}

	parts := strings.Fields(entry.LaunchCommand)
	cmd := exec.Command(parts[0], parts[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch %s: %w", name, err)
	}

	m.mu.Lock()
	m.active = entry
	m.process = cmd
	m.mu.Unlock()
	log.Printf("[game] launched %s (pid %d)", name, cmd.Process.Pid)
	return nil
}

func (m *Manager) Stop() error {
	m.mu.Lock()
	cmd := m.process
	active := m.active
	m.active = nil
	m.process = nil
	m.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return fmt.Errorf("stop %s: %w", active.Name, err)
	}
	go cmd.Wait()
	log.Printf("[game] stopped %s", active.Name)
	return nil
}

// Active returns the running game's name, or empty when none is active.
func (m *Manager) Active() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return ""
	}
	return m.active.Name
}

func (m *Manager) find(name string) *config.GameEntry {
	for i := range m.cfg.Games {
		if strings.EqualFold(m.cfg.Games[i].Name, name) {
			return &m.cfg.Games[i]
		}
	}
	return nil
}

// Perception is the game-mode overlay: it watches gameplay notifications,
// keeps a pending event queue, and augments broadcast snapshots with
// game context and game pacing.
type Perception struct {
	manager  *Manager
	keywords []string
	minPause time.Duration
	maxPause time.Duration

	mu     sync.Mutex
	state  perception.GameState
	events []perception.Event
}

func NewPerception(manager *Manager, speech config.GameSpeech) *Perception {
	return &Perception{
		manager:  manager,
		keywords: speech.ReactionKeywords,
		minPause: time.Duration(speech.MinPauseSeconds * float64(time.Second)),
		maxPause: time.Duration(speech.MaxPauseSeconds * float64(time.Second)),
	}
}

// Observe records a gameplay status line. Lines containing a reaction
// keyword become pending game events for the next snapshot.
func (p *Perception) Observe(status string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = perception.GameState{Timestamp: time.Now(), Status: status}

	lower := strings.ToLower(status)
	for _, kw := range p.keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			p.events = append(p.events, perception.Event{Type: "game_event", Message: status})
			return
		}
	}
}

// Augment merges game context into a snapshot: active game name, latest
// state, drained game events, and game pacing bounds.
func (p *Perception) Augment(snap *perception.Snapshot) {
	p.mu.Lock()
	state := p.state
	events := p.events
	p.events = nil
	p.mu.Unlock()

	snap.GameName = p.manager.Active()
	if !state.Timestamp.IsZero() {
		snap.GameState = &state
	}
	snap.GameEvents = events
	snap.MinPause = p.minPause
	snap.MaxPause = p.maxPause
}
