package voice

import (
	"strings"

	"github.com/stellarlinkco/onair/internal/action"
)

// Emotion is a coarse delivery mood used to shade synthesis parameters.
type Emotion string

const (
	EmotionNeutral Emotion = "neutral"
	EmotionHappy   Emotion = "happy"
	EmotionExcited Emotion = "excited"
	EmotionCalm    Emotion = "calm"
	EmotionSad     Emotion = "sad"
)

// ToneParams are the synthesis knobs sent to the TTS server. 1.0 is the
// server's native value for each.
type ToneParams struct {
	Speed  float64 `json:"speed"`
	Pitch  float64 `json:"pitch"`
	Energy float64 `json:"energy"`
}

var toneTable = map[Emotion]ToneParams{
	EmotionNeutral: {Speed: 1.0, Pitch: 1.0, Energy: 1.0},
	EmotionHappy:   {Speed: 1.05, Pitch: 1.1, Energy: 1.1},
	EmotionExcited: {Speed: 1.15, Pitch: 1.2, Energy: 1.3},
	EmotionCalm:    {Speed: 0.92, Pitch: 0.95, Energy: 0.85},
	EmotionSad:     {Speed: 0.85, Pitch: 0.9, Energy: 0.7},
}

// Tone returns the synthesis parameters for an emotion, defaulting to
// neutral for anything unknown.
func Tone(e Emotion) ToneParams {
	if t, ok := toneTable[e]; ok {
		return t
	}
	return toneTable[EmotionNeutral]
}

// EmotionFor picks a delivery mood from the action the words belong to,
// refined by strong cues in the text itself.
func EmotionFor(kind action.Kind, text string) Emotion {
	switch kind {
	case action.DonationReact, action.SubscribeReact, action.Greeting:
		return EmotionExcited
	case action.Reaction, action.GameChatReply, action.GameReaction:
		return EmotionHappy
	case action.WindDown, action.EndingAnnounce:
		return EmotionCalm
	case action.FinalGoodbye:
		return EmotionSad
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "!!") || strings.Contains(lower, "wow") || strings.Contains(lower, "amazing"):
		return EmotionExcited
	case strings.HasSuffix(strings.TrimSpace(text), "!"):
		return EmotionHappy
	default:
		return EmotionNeutral
	}
}
