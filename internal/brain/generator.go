package brain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stellarlinkco/onair/internal/action"
	"github.com/stellarlinkco/onair/internal/memory"
	"github.com/stellarlinkco/onair/internal/perception"
)

// instructions tells the model what kind of utterance to produce for each
// action. The trigger details are appended separately.
var instructions = map[action.Kind]string{
	action.FreeTalk:       "Talk freely about whatever is on your mind right now, staying in character.",
	action.ChatReply:      "Reply to the viewer's chat message quoted above. Address them by name.",
	action.TopicChange:    "Smoothly change the subject to something new. Pick one of your interests.",
	action.Reaction:       "React out loud to what is happening on stream right now.",
	action.AskViewers:     "Ask the viewers a question to get the chat going.",
	action.Announcement:   "Make a short announcement about the stream, like upcoming plans.",
	action.Greeting:       "The stream just started. Greet everyone and say what today's stream is about.",
	action.DonationReact:  "A viewer just donated. Thank them warmly by name and react to their message.",
	action.SubscribeReact: "A viewer just subscribed or followed. Thank them by name and welcome them.",
	action.GameChatReply:  "Reply to the viewer's chat message about the game while you keep playing.",
	action.GameReaction:   "React to what just happened in the game, in the moment.",
	action.GameCommentary: "Narrate what you are doing in the game right now and what you see.",
	action.GameStrategy:   "Think out loud about your plan for the next part of the game.",
	action.WindDown:       "The stream is winding down soon. Start wrapping up the current topic naturally.",
	action.EndingAnnounce: "Announce that the stream ends in about five minutes. Thank viewers for hanging out.",
	action.FinalGoodbye:   "This is the very last thing you say today. Say goodbye warmly and mention the next stream.",
}

// fallbacks are spoken when generation fails, so the broadcaster never
// goes silent mid-reaction. Every kind has one.
var fallbacks = map[action.Kind]string{
	action.FreeTalk:       "Hmm, let me gather my thoughts for a second...",
	action.ChatReply:      "Oh, I saw that message! Give me a moment to think about it.",
	action.TopicChange:    "Anyway! Let's talk about something else.",
	action.Reaction:       "Whoa, did you all see that?",
	action.AskViewers:     "Hey everyone, what do you think? Let me know in chat!",
	action.Announcement:   "Oh right, I had something to tell you all. It'll come back to me.",
	action.Silence:        "",
	action.Greeting:       "Hello hello! Welcome to the stream, everyone!",
	action.DonationReact:  "Wow, thank you so much for the donation! You're amazing!",
	action.SubscribeReact: "Thank you for the subscription! Welcome to the family!",
	action.GameChatReply:  "Hang on, let me just get through this part... okay, what was that?",
	action.GameReaction:   "Whoa! Okay, okay, that just happened!",
	action.GameCommentary: "Alright, let's see what this game throws at me next.",
	action.GameStrategy:   "Okay, thinking... I think I'll try a different approach here.",
	action.WindDown:       "We're getting close to the end of today's stream, time really flew by.",
	action.EndingAnnounce: "Just a heads up, the stream is ending in about five minutes!",
	action.FinalGoodbye:   "That's all for today! Thank you so much for watching, see you next time!",
}

// FallbackFor returns the canned line for a kind. Unknown kinds get a
// generic thinking phrase so the broadcaster always has something to say.
func FallbackFor(kind action.Kind) string {
	if line, ok := fallbacks[kind]; ok {
		return line
	}
	return "Hmm, let me think about that for a moment..."
}

// InfoProvider supplies optional real-world context lines (weather, news)
// for the prompt. A nil provider or empty summary is skipped.
type InfoProvider interface {
	Summary(ctx context.Context) string
}

// Generator assembles the prompt for a decided action and asks the
// backend for the utterance.
type Generator struct {
	backend Backend
	opts    Options
	prompts interface{ BuildSystemPrompt() string }
	mem     *memory.ConversationMemory
	info    InfoProvider
}

func NewGenerator(backend Backend, opts Options, prompts interface{ BuildSystemPrompt() string }, mem *memory.ConversationMemory) *Generator {
	return &Generator{backend: backend, opts: opts, prompts: prompts, mem: mem}
}

// SetInfoProvider attaches an optional real-world context source.
func (g *Generator) SetInfoProvider(p InfoProvider) {
	g.info = p
}

// Generate produces the text to speak for the action. Silence produces
// an empty string without touching the backend. Backend failures fall
// back to a canned line and report the error so callers can count it.
func (g *Generator) Generate(ctx context.Context, act action.Action, snap perception.Snapshot) (string, error) {
	if act.Kind == action.Silence {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	text, err := g.backend.Chat(ctx, g.buildMessages(ctx, act, snap), g.opts)
	if err != nil {
		return FallbackFor(act.Kind), fmt.Errorf("generate %s: %w", act.Kind, err)
	}
	if text == "" {
		return FallbackFor(act.Kind), nil
	}
	return text, nil
}

// GenerateStream is the streaming variant for low-latency voice. A
// failure before or during the stream delivers the fallback line as a
// single chunk, then closes.
func (g *Generator) GenerateStream(ctx context.Context, act action.Action, snap perception.Snapshot) <-chan string {
	out := make(chan string)
	if act.Kind == action.Silence {
		close(out)
		return out
	}

	go func() {
		defer close(out)
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		chunks, errs := g.backend.ChatStream(ctx, g.buildMessages(ctx, act, snap), g.opts)
		for chunk := range chunks {
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err := <-errs; err != nil {
			select {
			case out <- FallbackFor(act.Kind):
			case <-ctx.Done():
			}
		}
	}()
	return out
}

func (g *Generator) buildMessages(ctx context.Context, act action.Action, snap perception.Snapshot) []Message {
	msgs := make([]Message, 0, len(g.mem.ToPromptMessages())+2)
	msgs = append(msgs, Message{Role: "system", Content: g.prompts.BuildSystemPrompt()})
	for _, m := range g.mem.ToPromptMessages() {
		msgs = append(msgs, Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, Message{Role: "user", Content: g.buildSituation(ctx, act, snap)})
	return msgs
}

func (g *Generator) buildSituation(ctx context.Context, act action.Action, snap perception.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Current stream situation:\n- viewers: %d (%s)\n", snap.ViewerCount, snap.ViewerChange)
	if snap.Started {
		fmt.Fprintf(&b, "- elapsed: %s\n", snap.Elapsed.Round(time.Minute))
	}
	if snap.Mode == "game" {
		fmt.Fprintf(&b, "- you are playing %s on stream\n", snap.GameName)
	}
	switch snap.EndingPhase {
	case "wind_down":
		b.WriteString("- the stream is in its final minutes, start wrapping up\n")
	case "ending_announce", "final_goodbye":
		b.WriteString("- the stream is about to end\n")
	}

	if g.info != nil {
		if summary := g.info.Summary(ctx); summary != "" {
			fmt.Fprintf(&b, "\nReal-world context:\n%s\n", summary)
		}
	}

	if len(snap.RecentChat) > 0 {
		b.WriteString("\nRecent chat:\n")
		for _, c := range snap.RecentChat {
			fmt.Fprintf(&b, "%s: %s\n", c.Username, c.Message)
		}
	}

	if len(snap.GameEvents) > 0 {
		b.WriteString("\nGame events:\n")
		for _, ev := range snap.GameEvents {
			fmt.Fprintf(&b, "- %s\n", ev.Message)
		}
	}

	if ev := act.Event; ev != nil {
		switch ev.Type {
		case perception.EventDonation:
			fmt.Fprintf(&b, "\n%s donated %.2f", ev.Username, ev.Amount)
			if ev.Message != "" {
				fmt.Fprintf(&b, " with the message: %s", ev.Message)
			}
			b.WriteString("\n")
		case perception.EventSubscription:
			fmt.Fprintf(&b, "\n%s just subscribed\n", ev.Username)
		case perception.EventFollow:
			fmt.Fprintf(&b, "\n%s just followed\n", ev.Username)
		}
	}
	if act.ChatEntry != nil {
		fmt.Fprintf(&b, "\nViewer message to reply to:\n%s: %s\n", act.ChatEntry.Username, act.ChatEntry.Message)
	}

	instruction, ok := instructions[act.Kind]
	if !ok {
		instruction = "Speak naturally about the current situation."
	}
	fmt.Fprintf(&b, "\n%s", instruction)
	return b.String()
}
