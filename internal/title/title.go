// Package title generates a stream title for the day's broadcast.
package title

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stellarlinkco/onair/internal/brain"
)

const defaultTitle = "Chill hangout stream, come say hi!"

// Generator asks the LLM for a short stream title. The broadcast never
// blocks on this: any failure yields a serviceable default.
type Generator struct {
	backend brain.Backend
	opts    brain.Options
}

func NewGenerator(backend brain.Backend, opts brain.Options) *Generator {
	return &Generator{backend: backend, opts: opts}
}

// Generate returns a title for the given mode ("talk" or "game") and
// optional game name.
func (g *Generator) Generate(ctx context.Context, personaName, mode, gameName string) string {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	prompt := fmt.Sprintf("Write one short, catchy live stream title (under 80 characters) for a broadcaster named %s.", personaName)
	if mode == "game" && gameName != "" {
		prompt += fmt.Sprintf(" Today's stream is a playthrough of %s.", gameName)
	} else {
		prompt += " Today's stream is a casual chat stream."
	}
	prompt += " Reply with the title only, no quotes."

	text, err := g.backend.Chat(ctx, []brain.Message{{Role: "user", Content: prompt}}, g.opts)
	if err != nil {
		log.Printf("[title] generation failed, using default: %v", err)
		return defaultTitle
	}
	title := sanitize(text)
	if title == "" {
		return defaultTitle
	}
	return title
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if r := []rune(s); len(r) > 100 {
		s = string(r[:100])
	}
	return strings.TrimSpace(s)
}
