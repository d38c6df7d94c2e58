package notify

import (
	"testing"

	"github.com/stellarlinkco/onair/internal/config"
)

func TestNewDisabledReturnsNil(t *testing.T) {
	if n := New(config.TelegramNotify{Enabled: false, Token: "x", ChatID: "1"}); n != nil {
		t.Fatal("disabled notifier should be nil")
	}
	if n := New(config.TelegramNotify{Enabled: true}); n != nil {
		t.Fatal("tokenless notifier should be nil")
	}
}

func TestNilNotifierIsSafe(t *testing.T) {
	var n *Notifier
	n.BroadcastStarted("test stream")
	n.BroadcastEnded(10)
	n.Alert("nothing happened")
}
