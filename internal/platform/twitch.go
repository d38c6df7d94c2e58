package platform

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/stellarlinkco/onair/internal/config"
	"github.com/stellarlinkco/onair/internal/perception"
)

const (
	twitchAddrPlain = "irc.chat.twitch.tv:6667"
	twitchAddrTLS   = "irc.chat.twitch.tv:6697"

	twitchDialTimeout  = 10 * time.Second
	twitchPingInterval = time.Minute
	maxReconnectDelay  = 60 * time.Second
)

var errTwitchAuth = errors.New("twitch authentication failed")

// TwitchClient reads a channel's chat over IRC and feeds the perception
// queues. It reconnects with exponential backoff until its context is
// cancelled; an authentication rejection is fatal since retrying the
// same token can never succeed.
type TwitchClient struct {
	cfg    config.TwitchConfig
	chat   *perception.ChatQueue
	events *perception.EventQueue

	// Guards writes; the keepalive goroutine and the read loop both send.
	wmu sync.Mutex
}

func NewTwitchClient(cfg config.TwitchConfig, chat *perception.ChatQueue, events *perception.EventQueue) *TwitchClient {
	return &TwitchClient{cfg: cfg, chat: chat, events: events}
}

// Run connects and keeps the chat flowing until ctx is done.
func (c *TwitchClient) Run(ctx context.Context) error {
	delay := time.Second
	for {
		err := c.session(ctx)
		if err == nil || ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, errTwitchAuth) {
			return err
		}
		log.Printf("[twitch] connection lost: %v (retrying in %s)", err, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

func (c *TwitchClient) session(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// Close the socket when ctx dies so the read loop unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	w := bufio.NewWriter(conn)
	if err := c.handshake(w); err != nil {
		return err
	}

	go c.keepalive(ctx, w, done)

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 8192), 64*1024)
	for scanner.Scan() {
		if err := c.handleLine(w, scanner.Text()); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read: %w", err)
	}
	return fmt.Errorf("server closed connection")
}

func (c *TwitchClient) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: twitchDialTimeout}
	if c.cfg.UseTLS {
		return tls.DialWithDialer(&d, "tcp", twitchAddrTLS, nil)
	}
	return d.DialContext(ctx, "tcp", twitchAddrPlain)
}

func (c *TwitchClient) handshake(w *bufio.Writer) error {
	nick := c.cfg.Nick
	if nick == "" {
		nick = "justinfan12345"
	}
	lines := []string{
		"CAP REQ :twitch.tv/tags twitch.tv/commands",
	}
	if c.cfg.Token != "" {
		token := c.cfg.Token
		if !strings.HasPrefix(token, "oauth:") {
			token = "oauth:" + token
		}
		lines = append(lines, "PASS "+token)
	}
	lines = append(lines,
		"NICK "+nick,
		"JOIN #"+strings.TrimPrefix(strings.ToLower(c.cfg.Channel), "#"),
	)
	for _, line := range lines {
		if err := c.writeLine(w, line); err != nil {
			return fmt.Errorf("handshake write: %w", err)
		}
	}
	return nil
}

func (c *TwitchClient) writeLine(w *bufio.Writer, line string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := w.WriteString(line + "\r\n"); err != nil {
		return err
	}
	return w.Flush()
}

func (c *TwitchClient) keepalive(ctx context.Context, w *bufio.Writer, done <-chan struct{}) {
	t := time.NewTicker(twitchPingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-t.C:
			c.writeLine(w, "PING :keepalive")
		}
	}
}

func (c *TwitchClient) handleLine(w *bufio.Writer, line string) error {
	switch {
	case strings.HasPrefix(line, "PING"):
		return c.writeLine(w, "PONG"+strings.TrimPrefix(line, "PING"))
	case strings.Contains(line, "Login authentication failed"),
		strings.Contains(line, "Improperly formatted auth"):
		return errTwitchAuth
	}

	tags, rest := splitTags(line)
	switch {
	case strings.Contains(rest, " PRIVMSG #"):
		if user, msg, ok := parsePrivmsg(tags, rest); ok {
			c.chat.Add(user, msg, "twitch")
		}
	case strings.Contains(rest, " USERNOTICE #"):
		c.handleUsernotice(tags)
	}
	return nil
}

func (c *TwitchClient) handleUsernotice(tags map[string]string) {
	user := tags["display-name"]
	if user == "" {
		user = tags["login"]
	}
	switch tags["msg-id"] {
	case "sub", "resub", "subgift":
		c.events.AddSubscription(user)
	}
}

// splitTags separates the leading IRCv3 tag block from the rest of the
// message and parses it into a map.
func splitTags(line string) (map[string]string, string) {
	if !strings.HasPrefix(line, "@") {
		return nil, line
	}
	idx := strings.Index(line, " ")
	if idx < 0 {
		return nil, line
	}
	tags := map[string]string{}
	for _, pair := range strings.Split(line[1:idx], ";") {
		if k, v, ok := strings.Cut(pair, "="); ok {
			tags[k] = unescapeTag(v)
		}
	}
	return tags, line[idx+1:]
}

func unescapeTag(v string) string {
	r := strings.NewReplacer(`\s`, " ", `\:`, ";", `\\`, `\`, `\r`, "\r", `\n`, "\n")
	return r.Replace(v)
}

// parsePrivmsg extracts the sender and text from a PRIVMSG with its tags
// already stripped. The display-name tag is preferred over the IRC nick.
func parsePrivmsg(tags map[string]string, rest string) (user, msg string, ok bool) {
	idx := strings.Index(rest, " PRIVMSG #")
	if idx < 0 || !strings.HasPrefix(rest, ":") {
		return "", "", false
	}
	prefix := rest[1:idx]
	if bang := strings.Index(prefix, "!"); bang >= 0 {
		user = prefix[:bang]
	} else {
		user = prefix
	}
	if dn := tags["display-name"]; dn != "" {
		user = dn
	}

	after := rest[idx:]
	colon := strings.Index(after, " :")
	if colon < 0 {
		return "", "", false
	}
	msg = strings.TrimRight(after[colon+2:], "\r\n")
	if user == "" || msg == "" {
		return "", "", false
	}
	return user, msg, true
}
