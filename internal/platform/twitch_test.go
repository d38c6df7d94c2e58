package platform

import "testing"

func TestParsePrivmsg(t *testing.T) {
	tags, rest := splitTags("@badge-info=;display-name=CoolViewer;mod=0 :coolviewer!coolviewer@coolviewer.tmi.twitch.tv PRIVMSG #somechannel :hello streamer!")
	user, msg, ok := parsePrivmsg(tags, rest)
	if !ok {
		t.Fatal("parse failed")
	}
	if user != "CoolViewer" {
		t.Errorf("user = %q, want CoolViewer", user)
	}
	if msg != "hello streamer!" {
		t.Errorf("msg = %q, want %q", msg, "hello streamer!")
	}
}

func TestParsePrivmsgWithoutTagsFallsBackToNick(t *testing.T) {
	tags, rest := splitTags(":someone!someone@someone.tmi.twitch.tv PRIVMSG #chan :hi there")
	user, msg, ok := parsePrivmsg(tags, rest)
	if !ok {
		t.Fatal("parse failed")
	}
	if user != "someone" || msg != "hi there" {
		t.Errorf("got %q/%q", user, msg)
	}
}

func TestParsePrivmsgRejectsNonPrivmsg(t *testing.T) {
	tags, rest := splitTags(":tmi.twitch.tv 001 justinfan :Welcome, GLHF!")
	if _, _, ok := parsePrivmsg(tags, rest); ok {
		t.Fatal("expected parse to fail for non-PRIVMSG line")
	}
}

func TestSplitTagsUnescapesValues(t *testing.T) {
	tags, _ := splitTags(`@system-msg=5\smonths!;msg-id=resub :tmi.twitch.tv USERNOTICE #chan`)
	if got := tags["system-msg"]; got != "5 months!" {
		t.Errorf("system-msg = %q, want %q", got, "5 months!")
	}
	if got := tags["msg-id"]; got != "resub" {
		t.Errorf("msg-id = %q", got)
	}
}
