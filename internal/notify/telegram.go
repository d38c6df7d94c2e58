// Package notify sends the operator out-of-band alerts about the
// broadcast over Telegram.
package notify

import (
	"fmt"
	"log"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stellarlinkco/onair/internal/config"
)

// Notifier delivers operator messages. Disabled or misconfigured
// notification never blocks a broadcast, so every method degrades to a
// log line.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// New builds a notifier from config. Returns nil (a valid no-op
// receiver) when notification is disabled.
func New(cfg config.TelegramNotify) *Notifier {
	if !cfg.Enabled || cfg.Token == "" {
		return nil
	}
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		log.Printf("[notify] bad telegram chat id %q: %v", cfg.ChatID, err)
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		log.Printf("[notify] telegram init failed: %v", err)
		return nil
	}
	return &Notifier{bot: bot, chatID: chatID}
}

func (n *Notifier) send(text string) {
	if n == nil {
		return
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		log.Printf("[notify] telegram send failed: %v", err)
	}
}

func (n *Notifier) BroadcastStarted(title string) {
	n.send(fmt.Sprintf("Broadcast started: %s", title))
}

func (n *Notifier) BroadcastEnded(utterances int) {
	n.send(fmt.Sprintf("Broadcast ended. %d utterances spoken.", utterances))
}

func (n *Notifier) Alert(msg string) {
	n.send("Alert: " + msg)
}
