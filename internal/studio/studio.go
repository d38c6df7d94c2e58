// Package studio wires every subsystem into a runnable broadcast:
// platforms feeding perception, the decision loop, voice output, OBS,
// transcript sink, metrics and notifications.
package studio

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/stellarlinkco/onair/internal/action"
	"github.com/stellarlinkco/onair/internal/brain"
	"github.com/stellarlinkco/onair/internal/broadcast"
	"github.com/stellarlinkco/onair/internal/config"
	"github.com/stellarlinkco/onair/internal/ending"
	"github.com/stellarlinkco/onair/internal/external"
	"github.com/stellarlinkco/onair/internal/game"
	"github.com/stellarlinkco/onair/internal/memory"
	"github.com/stellarlinkco/onair/internal/metrics"
	"github.com/stellarlinkco/onair/internal/notify"
	"github.com/stellarlinkco/onair/internal/obs"
	"github.com/stellarlinkco/onair/internal/perception"
	"github.com/stellarlinkco/onair/internal/persona"
	"github.com/stellarlinkco/onair/internal/platform"
	"github.com/stellarlinkco/onair/internal/sink"
	"github.com/stellarlinkco/onair/internal/title"
	"github.com/stellarlinkco/onair/internal/voice"
)

// Studio owns one fully wired broadcaster.
type Studio struct {
	cfg *config.Config

	chat     *perception.ChatQueue
	events   *perception.EventQueue
	viewers  *perception.ViewerTracker
	builder  *perception.Builder
	mem      *memory.ConversationMemory
	backend  brain.Backend
	personas *persona.Manager
	loop     *broadcast.Loop
	phase    *ending.PhaseHandle
	plat     *platform.Manager
	audio    *voice.AudioSink
	obsMu    sync.Mutex
	obsCtl   *obs.Controller
	store    *sink.Store
	buffered *sink.Buffered
	met      *metrics.Metrics
	notifier *notify.Notifier
	games    *game.Manager
	titles   *title.Generator
}

func New(cfg *config.Config) (*Studio, error) {
	s := &Studio{cfg: cfg}

	s.chat = perception.NewChatQueue()
	s.events = perception.NewEventQueue()
	s.viewers = perception.NewViewerTracker()
	s.builder = perception.NewBuilder(s.chat, s.events, s.viewers)
	s.mem = memory.New(cfg.Broadcast.MemoryWindowSize)
	s.phase = ending.NewPhaseHandle()

	backend, err := brain.NewBackend(cfg.Provider)
	if err != nil {
		return nil, err
	}
	s.backend = backend

	pm, err := persona.Load(cfg.Persona.Path)
	if err != nil {
		log.Printf("[studio] persona load failed (%v), using built-in persona", err)
		pm = persona.Fallback()
	}
	s.personas = pm

	opts := brain.Options{
		Model:       cfg.Provider.Model,
		Temperature: cfg.Provider.Temperature,
		MaxTokens:   cfg.Provider.MaxTokens,
	}
	gen := brain.NewGenerator(backend, opts, pm, s.mem)
	if cfg.External.WeatherAPIKey != "" || cfg.External.NewsAPIKey != "" {
		gen.SetInfoProvider(external.NewCollector(cfg.External))
	}
	s.titles = title.NewGenerator(backend, opts)

	s.audio = voice.NewAudioSink(cfg.Voice.PlayerCmd)
	speaker := voice.NewSpeaker(voice.NewHTTPSynthesizer(cfg.Voice), s.audio, cfg.Voice.Enabled)

	decider := action.NewDecider(rand.New(rand.NewSource(time.Now().UnixNano())), cfg.Game.Speech.ReactionKeywords)
	s.loop = broadcast.NewLoop(broadcast.Config{
		Mode:         cfg.Broadcast.Mode,
		MinPause:     time.Duration(cfg.Broadcast.MinPauseSeconds * float64(time.Second)),
		MaxPause:     time.Duration(cfg.Broadcast.MaxPauseSeconds * float64(time.Second)),
		GameMinPause: time.Duration(cfg.Game.Speech.MinPauseSeconds * float64(time.Second)),
		GameMaxPause: time.Duration(cfg.Game.Speech.MaxPauseSeconds * float64(time.Second)),
	}, s.builder, decider, gen, speaker, s.mem, s.phase, rand.New(rand.NewSource(time.Now().UnixNano()+1)))

	if cfg.Game.Enabled {
		s.games = game.NewManager(cfg.Game)
		s.loop.SetGameSource(game.NewPerception(s.games, cfg.Game.Speech))
	}
	if cfg.Metrics.Enabled {
		s.met = metrics.New()
		s.loop.SetObserver(s.met)
	}
	if cfg.Sink.Enabled {
		store, err := sink.Open(cfg.Sink.DBPath)
		if err != nil {
			return nil, err
		}
		s.store = store
		s.buffered = sink.NewBuffered(store)
		s.loop.SetRecorder(s.buffered)
	}

	s.plat = platform.NewManager(cfg.Platform, s.chat, s.events)
	s.notifier = notify.New(cfg.Notify.Telegram)
	return s, nil
}

// Loop exposes the broadcast loop, mainly for the ending manager's
// speech triggers.
func (s *Studio) Loop() *broadcast.Loop { return s.loop }

// Phase exposes the shared ending phase handle.
func (s *Studio) Phase() *ending.PhaseHandle { return s.phase }

// EndingManager builds the wind-down timeline bound to this studio's
// loop and OBS session. The scene switcher resolves the OBS connection
// lazily since OBS comes up inside Run, after the manager is built.
func (s *Studio) EndingManager() *ending.Manager {
	return ending.NewManager(
		s.phase,
		s.loop,
		lazyScenes{s},
		time.Duration(s.cfg.Schedule.Ending.WindDownMinutes)*time.Minute,
		time.Duration(s.cfg.Schedule.Ending.FinalGoodbyeSeconds)*time.Second,
	)
}

type lazyScenes struct{ s *Studio }

func (l lazyScenes) SwitchToEndingScene(ctx context.Context) error {
	ctl := l.s.controller()
	if ctl == nil {
		return fmt.Errorf("OBS not connected")
	}
	return ctl.SwitchToEndingScene(ctx)
}

// Run goes live and blocks until ctx is cancelled: background workers
// come up, OBS starts streaming, the opening greeting fires, then the
// loop runs.
func (s *Studio) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer func() {
		stopWorkers()
		wg.Wait()
	}()

	if s.met != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.met.Serve(workerCtx, s.cfg.Metrics.Addr)
		}()
	}
	if s.buffered != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.buffered.Run(workerCtx)
		}()
		defer s.store.Close()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.audio.Run(workerCtx)
	}()

	s.plat.Start(ctx)
	defer s.plat.Wait()
	if src := s.plat.ViewerSource(); src != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.viewers.Run(workerCtx, src)
		}()
	}

	s.startOBS(ctx)
	defer s.stopOBS()

	if s.games != nil && s.activeGame() != "" {
		if err := s.games.Launch(s.activeGame()); err != nil {
			log.Printf("[studio] game launch failed: %v", err)
		} else {
			defer s.games.Stop()
		}
	}

	streamTitle := s.titles.Generate(ctx, s.personas.Persona().Name, s.cfg.Broadcast.Mode, s.activeGame())
	log.Printf("[studio] stream title: %s", streamTitle)
	s.notifier.BroadcastStarted(streamTitle)
	defer s.notifyEnd()

	s.loop.Run(ctx)
	return nil
}

func (s *Studio) activeGame() string {
	if s.cfg.Broadcast.Mode != "game" || len(s.cfg.Game.Games) == 0 {
		return ""
	}
	return s.cfg.Game.Games[0].Name
}

func (s *Studio) controller() *obs.Controller {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	return s.obsCtl
}

// startOBS connects and starts the stream output. OBS being down is not
// a reason to skip the broadcast.
func (s *Studio) startOBS(ctx context.Context) {
	ctl, err := obs.Connect(ctx, s.cfg.Streaming)
	if err != nil {
		log.Printf("[studio] OBS unavailable, continuing without it: %v", err)
		return
	}
	s.obsMu.Lock()
	s.obsCtl = ctl
	s.obsMu.Unlock()
	if err := ctl.StartStream(ctx); err != nil {
		log.Printf("[studio] OBS stream start failed: %v", err)
	}
}

func (s *Studio) stopOBS() {
	s.obsMu.Lock()
	ctl := s.obsCtl
	s.obsCtl = nil
	s.obsMu.Unlock()
	if ctl == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ctl.StopStream(ctx); err != nil {
		log.Printf("[studio] OBS stream stop failed: %v", err)
	}
	ctl.Close()
}

func (s *Studio) notifyEnd() {
	count := 0
	if s.store != nil {
		if n, err := s.store.UtteranceCount(); err == nil {
			count = n
		}
	}
	s.notifier.BroadcastEnded(count)
}
