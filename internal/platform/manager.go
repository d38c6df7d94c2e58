// Package platform connects the broadcaster to live streaming platforms
// and routes their chat and events into perception.
package platform

import (
	"context"
	"log"
	"sync"

	"github.com/stellarlinkco/onair/internal/config"
	"github.com/stellarlinkco/onair/internal/perception"
)

// Source is one platform connection running in the background.
type Source interface {
	Run(ctx context.Context) error
}

// Manager starts the configured platform sources and waits for them on
// shutdown. With no platform configured the broadcaster still runs, it
// just perceives an empty room.
type Manager struct {
	sources []Source
	viewers perception.ViewerSource
	wg      sync.WaitGroup
}

func NewManager(cfg config.PlatformConfig, chat *perception.ChatQueue, events *perception.EventQueue) *Manager {
	m := &Manager{}
	switch cfg.Active {
	case "twitch":
		m.sources = append(m.sources, NewTwitchClient(cfg.Twitch, chat, events))
	case "youtube":
		yt := NewYouTubeClient(cfg.YouTube, chat)
		m.sources = append(m.sources, yt)
		m.viewers = yt
	case "":
		log.Printf("[platform] no platform configured, running offline")
	default:
		log.Printf("[platform] unknown platform %q, running offline", cfg.Active)
	}
	return m
}

// ViewerSource returns the active platform's viewer count source, or nil
// when the platform does not report one.
func (m *Manager) ViewerSource() perception.ViewerSource {
	return m.viewers
}

// Start launches every source. Source failures end that source but not
// the broadcast.
func (m *Manager) Start(ctx context.Context) {
	for _, src := range m.sources {
		src := src
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := src.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("[platform] source stopped: %v", err)
			}
		}()
	}
}

// Wait blocks until every source has exited.
func (m *Manager) Wait() {
	m.wg.Wait()
}
