package persona

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadAndBuildSystemPrompt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "persona.yaml")
	data := `name: Mira
age: 19
personality: energetic and a little clumsy
speaking_style: playful
interests:
  - rhythm games
  - cooking
catch_phrases:
  - "let's gooo"
rules:
  - Never read out personal information from chat.
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	prompt := m.BuildSystemPrompt()
	for _, want := range []string{"Mira", "energetic", "rhythm games", "let's gooo", "personal information"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRequiresName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	if err := os.WriteFile(path, []byte("personality: quiet\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for persona without name")
	}
}

func TestFallbackProducesUsablePrompt(t *testing.T) {
	m := Fallback()
	if !strings.Contains(m.BuildSystemPrompt(), "Hoshino") {
		t.Fatal("fallback prompt missing persona name")
	}
}

func TestUpdateSwapsPersona(t *testing.T) {
	m := Fallback()
	m.Update(Persona{Name: "Nova"})
	if !strings.Contains(m.BuildSystemPrompt(), "Nova") {
		t.Fatal("prompt not rebuilt after update")
	}
}
