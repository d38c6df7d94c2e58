// Package persona loads the broadcaster's character sheet and renders it
// into the system prompt.
package persona

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Persona is the broadcaster's character definition, loaded from YAML.
type Persona struct {
	Name          string   `yaml:"name"`
	Age           int      `yaml:"age"`
	Personality   string   `yaml:"personality"`
	SpeakingStyle string   `yaml:"speaking_style"`
	Interests     []string `yaml:"interests"`
	Background    string   `yaml:"background"`
	CatchPhrases  []string `yaml:"catch_phrases"`
	Rules         []string `yaml:"rules"`
}

// Manager holds the active persona and serves the system prompt. The
// persona can be swapped at runtime without restarting the loop.
type Manager struct {
	mu sync.RWMutex
	p  Persona
}

// Load reads a persona file. A missing or unreadable file is an error;
// callers that want a default should use Fallback.
func Load(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona: %w", err)
	}
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse persona: %w", err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("persona %s: name is required", path)
	}
	return &Manager{p: p}, nil
}

// Fallback returns a minimal built-in persona for running without a
// character file.
func Fallback() *Manager {
	return &Manager{p: Persona{
		Name:          "Hoshino",
		Personality:   "cheerful and curious",
		SpeakingStyle: "casual and friendly",
		Interests:     []string{"games", "music"},
	}}
}

func (m *Manager) Persona() Persona {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.p
}

func (m *Manager) Update(p Persona) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.p = p
}

// BuildSystemPrompt renders the persona as the system message every
// generation starts from.
func (m *Manager) BuildSystemPrompt() string {
	m.mu.RLock()
	p := m.p
	m.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a virtual broadcaster doing a live stream.\n", p.Name)
	if p.Age > 0 {
		fmt.Fprintf(&b, "Age: %d\n", p.Age)
	}
	if p.Personality != "" {
		fmt.Fprintf(&b, "Personality: %s\n", p.Personality)
	}
	if p.SpeakingStyle != "" {
		fmt.Fprintf(&b, "Speaking style: %s\n", p.SpeakingStyle)
	}
	if len(p.Interests) > 0 {
		fmt.Fprintf(&b, "Interests: %s\n", strings.Join(p.Interests, ", "))
	}
	if p.Background != "" {
		fmt.Fprintf(&b, "Background: %s\n", p.Background)
	}
	if len(p.CatchPhrases) > 0 {
		fmt.Fprintf(&b, "Catch phrases you sometimes use: %s\n", strings.Join(p.CatchPhrases, "; "))
	}
	b.WriteString("\nStay in character. Speak naturally as if talking out loud on stream.\n")
	b.WriteString("Keep responses short, a few sentences at most. Never mention being an AI or a language model.\n")
	for _, r := range p.Rules {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	return b.String()
}
