package obs

import (
	"context"
	"testing"

	"github.com/stellarlinkco/onair/internal/config"
)

func testStreamingConfig() config.StreamingConfig {
	return config.StreamingConfig{
		OBSWebsocketURL: "ws://127.0.0.1:4455",
		EndingScene:     "Ending",
	}
}

func TestAuthResponse(t *testing.T) {
	got := authResponse("supersecret", "salt123", "challenge456")
	if got == "" {
		t.Fatal("empty auth response")
	}
	// Deterministic: same inputs, same answer.
	if again := authResponse("supersecret", "salt123", "challenge456"); again != got {
		t.Fatalf("auth response not deterministic: %q vs %q", got, again)
	}
	// Any input change must change the answer.
	if authResponse("supersecret", "salt123", "other") == got {
		t.Fatal("challenge ignored")
	}
	if authResponse("wrong", "salt123", "challenge456") == got {
		t.Fatal("password ignored")
	}
}

func TestRequestWithoutConnectionFails(t *testing.T) {
	c := NewController(testStreamingConfig())
	if err := c.SetScene(context.Background(), "Main"); err == nil {
		t.Fatal("expected error when not connected")
	}
}

func TestCloseWithoutConnectionIsNoop(t *testing.T) {
	c := NewController(testStreamingConfig())
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
