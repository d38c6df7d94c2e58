package voice

import (
	"bytes"
	"context"
	"log"
	"os/exec"
	"strings"
)

const sinkQueueSize = 16

// AudioSink plays synthesized audio in order on its own goroutine, so
// the broadcast loop never blocks on playback. With no player command
// configured, audio is dropped silently (useful for tests and headless
// runs).
type AudioSink struct {
	playerCmd string
	queue     chan []byte
	done      chan struct{}
}

func NewAudioSink(playerCmd string) *AudioSink {
	return &AudioSink{
		playerCmd: playerCmd,
		queue:     make(chan []byte, sinkQueueSize),
		done:      make(chan struct{}),
	}
}

// Enqueue hands audio to the playback worker. If the queue is full the
// clip is dropped rather than stalling speech generation.
func (s *AudioSink) Enqueue(audio []byte) {
	select {
	case s.queue <- audio:
	default:
		log.Printf("[voice] playback queue full, dropping %d bytes", len(audio))
	}
}

// Run consumes the queue until ctx is cancelled.
func (s *AudioSink) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case audio := <-s.queue:
			s.play(ctx, audio)
		}
	}
}

// Wait blocks until the worker has exited.
func (s *AudioSink) Wait() {
	<-s.done
}

func (s *AudioSink) play(ctx context.Context, audio []byte) {
	if s.playerCmd == "" {
		return
	}
	parts := strings.Fields(s.playerCmd)
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Stdin = bytes.NewReader(audio)
	if err := cmd.Run(); err != nil && ctx.Err() == nil {
		log.Printf("[voice] player %q failed: %v", parts[0], err)
	}
}
