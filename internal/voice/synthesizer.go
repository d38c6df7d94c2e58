// Package voice turns generated text into audible speech: synthesis over
// HTTP, emotion-shaded tone, and a playback queue.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stellarlinkco/onair/internal/config"
)

// Synthesizer converts one sentence of text into raw audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, tone ToneParams) ([]byte, error)
}

// httpSynthesizer talks to a local TTS server's /synthesize endpoint.
type httpSynthesizer struct {
	serverURL  string
	language   string
	sampleRate int
	client     *http.Client
}

func NewHTTPSynthesizer(cfg config.VoiceConfig) Synthesizer {
	return &httpSynthesizer{
		serverURL:  strings.TrimRight(cfg.ServerURL, "/"),
		language:   cfg.Language,
		sampleRate: cfg.SampleRate,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type synthesizeRequest struct {
	Text       string  `json:"text"`
	Language   string  `json:"language,omitempty"`
	SampleRate int     `json:"sample_rate,omitempty"`
	Speed      float64 `json:"speed,omitempty"`
	Pitch      float64 `json:"pitch,omitempty"`
	Energy     float64 `json:"energy,omitempty"`
}

func (s *httpSynthesizer) Synthesize(ctx context.Context, text string, tone ToneParams) ([]byte, error) {
	data, err := json.Marshal(synthesizeRequest{
		Text:       text,
		Language:   s.language,
		SampleRate: s.sampleRate,
		Speed:      tone.Speed,
		Pitch:      tone.Pitch,
		Energy:     tone.Energy,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.serverURL+"/synthesize", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("TTS server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	return audio, nil
}
