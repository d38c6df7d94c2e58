package title

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stellarlinkco/onair/internal/brain"
)

type fakeBackend struct {
	reply string
	err   error
}

func (f *fakeBackend) Chat(context.Context, []brain.Message, brain.Options) (string, error) {
	return f.reply, f.err
}

func (f *fakeBackend) ChatStream(context.Context, []brain.Message, brain.Options) (<-chan string, <-chan error) {
	chunks := make(chan string)
	errs := make(chan error, 1)
	close(chunks)
	close(errs)
	return chunks, errs
}

func TestGenerateUsesBackendReply(t *testing.T) {
	g := NewGenerator(&fakeBackend{reply: `"Cozy rainy day chat!"` + "\nsecond line"}, brain.Options{})
	got := g.Generate(context.Background(), "Mira", "talk", "")
	if got != "Cozy rainy day chat!" {
		t.Fatalf("title = %q", got)
	}
}

func TestGenerateFallsBackOnError(t *testing.T) {
	g := NewGenerator(&fakeBackend{err: errors.New("backend down")}, brain.Options{})
	if got := g.Generate(context.Background(), "Mira", "talk", ""); got != defaultTitle {
		t.Fatalf("title = %q, want default", got)
	}
}

func TestGenerateFallsBackOnEmptyReply(t *testing.T) {
	g := NewGenerator(&fakeBackend{reply: "  \n "}, brain.Options{})
	if got := g.Generate(context.Background(), "Mira", "game", "Tetris"); got != defaultTitle {
		t.Fatalf("title = %q, want default", got)
	}
}

func TestSanitizeTruncatesLongTitles(t *testing.T) {
	long := strings.Repeat("a", 150)
	if got := sanitize(long); len(got) != 100 {
		t.Fatalf("len = %d, want 100", len(got))
	}
}

func TestSanitizeTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("配", 150)
	got := sanitize(long)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated title is not valid UTF-8: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 100 {
		t.Fatalf("rune count = %d, want 100", n)
	}
}
