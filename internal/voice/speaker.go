package voice

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/stellarlinkco/onair/internal/action"
)

var sentenceEnd = regexp.MustCompile(`[.!?。！？]+[\s"')\]]*`)

// splitSentences breaks text at sentence boundaries so each piece can be
// synthesized and queued as soon as it is ready.
func splitSentences(text string) []string {
	var out []string
	rest := text
	for {
		loc := sentenceEnd.FindStringIndex(rest)
		if loc == nil {
			break
		}
		s := strings.TrimSpace(rest[:loc[1]])
		if s != "" {
			out = append(out, s)
		}
		rest = rest[loc[1]:]
	}
	if s := strings.TrimSpace(rest); s != "" {
		out = append(out, s)
	}
	return out
}

// Speaker is the top of the voice pipeline: split, emotion-shade,
// synthesize, enqueue. Playback itself happens on the sink's worker.
type Speaker struct {
	synth   Synthesizer
	sink    *AudioSink
	enabled bool
}

func NewSpeaker(synth Synthesizer, sink *AudioSink, enabled bool) *Speaker {
	return &Speaker{synth: synth, sink: sink, enabled: enabled}
}

// Speak synthesizes and enqueues the whole utterance. With voice
// disabled the text is only logged, which keeps text-only runs working
// without a TTS server.
func (sp *Speaker) Speak(ctx context.Context, text string, kind action.Kind) error {
	if text == "" {
		return nil
	}
	log.Printf("[speak] (%s) %s", kind, text)
	if !sp.enabled {
		return nil
	}

	tone := Tone(EmotionFor(kind, text))
	for _, sentence := range splitSentences(text) {
		audio, err := sp.synth.Synthesize(ctx, sentence, tone)
		if err != nil {
			return fmt.Errorf("synthesize: %w", err)
		}
		sp.sink.Enqueue(audio)
	}
	return nil
}

// SpeakStream consumes generation chunks and speaks complete sentences
// as they form, returning the full utterance text for the record.
func (sp *Speaker) SpeakStream(ctx context.Context, chunks <-chan string, kind action.Kind) (string, error) {
	var full, pending strings.Builder
	flush := func(s string) error {
		if s == "" {
			return nil
		}
		if !sp.enabled {
			return nil
		}
		tone := Tone(EmotionFor(kind, s))
		audio, err := sp.synth.Synthesize(ctx, s, tone)
		if err != nil {
			return fmt.Errorf("synthesize: %w", err)
		}
		sp.sink.Enqueue(audio)
		return nil
	}

	for chunk := range chunks {
		full.WriteString(chunk)
		pending.WriteString(chunk)
		text := pending.String()
		if loc := sentenceEnd.FindStringIndex(text); loc != nil {
			sentence := strings.TrimSpace(text[:loc[1]])
			rest := text[loc[1]:]
			pending.Reset()
			pending.WriteString(rest)
			if err := flush(sentence); err != nil {
				return full.String(), err
			}
		}
	}
	if err := flush(strings.TrimSpace(pending.String())); err != nil {
		return full.String(), err
	}
	if text := full.String(); text != "" {
		log.Printf("[speak] (%s) %s", kind, text)
	}
	return full.String(), nil
}
