package voice

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/stellarlinkco/onair/internal/action"
)

type fakeSynth struct {
	mu    sync.Mutex
	texts []string
	tones []ToneParams
}

func (f *fakeSynth) Synthesize(_ context.Context, text string, tone ToneParams) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	f.tones = append(f.tones, tone)
	return []byte(text), nil
}

func TestSplitSentences(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"Hello everyone! How are you today? Great.", []string{"Hello everyone!", "How are you today?", "Great."}},
		{"no terminal punctuation", []string{"no terminal punctuation"}},
		{"こんにちは！元気？", []string{"こんにちは！", "元気？"}},
		{"", nil},
	}
	for _, c := range cases {
		if got := splitSentences(c.in); !reflect.DeepEqual(got, c.want) {
			t.Errorf("splitSentences(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSpeakSynthesizesEachSentence(t *testing.T) {
	synth := &fakeSynth{}
	sink := NewAudioSink("")
	sp := NewSpeaker(synth, sink, true)

	if err := sp.Speak(context.Background(), "Hi chat! Today we play roguelikes.", action.Greeting); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(synth.texts) != 2 {
		t.Fatalf("synthesized %d sentences, want 2", len(synth.texts))
	}
	if synth.tones[0] != Tone(EmotionExcited) {
		t.Fatalf("greeting tone = %+v, want excited", synth.tones[0])
	}
}

func TestSpeakDisabledSkipsSynthesis(t *testing.T) {
	synth := &fakeSynth{}
	sp := NewSpeaker(synth, NewAudioSink(""), false)
	if err := sp.Speak(context.Background(), "Hello.", action.FreeTalk); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if len(synth.texts) != 0 {
		t.Fatalf("synthesized %d sentences with voice disabled, want 0", len(synth.texts))
	}
}

func TestSpeakStreamFlushesAtSentenceBoundaries(t *testing.T) {
	synth := &fakeSynth{}
	sp := NewSpeaker(synth, NewAudioSink(""), true)

	chunks := make(chan string, 4)
	chunks <- "Hello every"
	chunks <- "one! Nice "
	chunks <- "to see you"
	close(chunks)

	full, err := sp.SpeakStream(context.Background(), chunks, action.FreeTalk)
	if err != nil {
		t.Fatalf("SpeakStream: %v", err)
	}
	if full != "Hello everyone! Nice to see you" {
		t.Fatalf("full = %q", full)
	}
	want := []string{"Hello everyone!", "Nice to see you"}
	if !reflect.DeepEqual(synth.texts, want) {
		t.Fatalf("sentences = %v, want %v", synth.texts, want)
	}
}

func TestEmotionForKindsAndCues(t *testing.T) {
	cases := []struct {
		kind action.Kind
		text string
		want Emotion
	}{
		{action.DonationReact, "thanks", EmotionExcited},
		{action.FinalGoodbye, "bye", EmotionSad},
		{action.WindDown, "wrapping up", EmotionCalm},
		{action.FreeTalk, "that was amazing", EmotionExcited},
		{action.FreeTalk, "good one!", EmotionHappy},
		{action.FreeTalk, "just thinking", EmotionNeutral},
	}
	for _, c := range cases {
		if got := EmotionFor(c.kind, c.text); got != c.want {
			t.Errorf("EmotionFor(%s, %q) = %s, want %s", c.kind, c.text, got, c.want)
		}
	}
}

func TestToneUnknownEmotionDefaultsToNeutral(t *testing.T) {
	if Tone(Emotion("bored")) != Tone(EmotionNeutral) {
		t.Fatal("unknown emotion should map to neutral tone")
	}
}

func TestAudioSinkDrainsQueue(t *testing.T) {
	sink := NewAudioSink("")
	ctx, cancel := context.WithCancel(context.Background())
	go sink.Run(ctx)

	for i := 0; i < 5; i++ {
		sink.Enqueue([]byte{byte(i)})
	}
	cancel()
	sink.Wait()
}
