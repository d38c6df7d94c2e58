// Package action decides what the broadcaster does next: react to an
// event, reply to chat, or pick an ambient activity.
package action

import "github.com/stellarlinkco/onair/internal/perception"

// Kind names one class of broadcaster behavior.
type Kind string

const (
	FreeTalk       Kind = "free_talk"
	ChatReply      Kind = "chat_reply"
	TopicChange    Kind = "topic_change"
	Reaction       Kind = "reaction"
	AskViewers     Kind = "ask_viewers"
	Announcement   Kind = "announcement"
	Silence        Kind = "silence"
	Greeting       Kind = "greeting"
	DonationReact  Kind = "donation_react"
	SubscribeReact Kind = "subscribe_react"
	GameChatReply  Kind = "game_chat_reply"
	GameReaction   Kind = "game_reaction"
	GameCommentary Kind = "game_commentary"
	GameStrategy   Kind = "game_strategy"
	WindDown       Kind = "wind_down"
	EndingAnnounce Kind = "ending_announce"
	FinalGoodbye   Kind = "final_goodbye"
)

// Action is a single decided behavior, carrying whatever stimulus
// triggered it.
type Action struct {
	Kind       Kind
	Priority   int
	TargetUser string
	Trigger    string
	Metadata   map[string]any
	Event      *perception.Event
	ChatEntry  *perception.ChatEntry
}
