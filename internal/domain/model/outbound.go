package model

import (
	"strconv"
	"strings"
)

// Recipient addresses either a chat by numeric id or a public channel by
// its @username.
type Recipient struct {
	ChatID   int64
	Username string
}

func ChatRecipient(chatID int64) Recipient {
	return Recipient{ChatID: chatID}
}

// ParseRecipient accepts a numeric chat id or a channel username.
func ParseRecipient(raw string) Recipient {
	value := strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return Recipient{ChatID: id}
	}
	if value != "" && !strings.HasPrefix(value, "@") {
		value = "@" + value
	}
	return Recipient{Username: value}
}

func (r Recipient) IsZero() bool {
	return r.ChatID == 0 && strings.TrimSpace(r.Username) == ""
}

func (r Recipient) String() string {
	if r.Username != "" {
		return r.Username
	}
	return strconv.FormatInt(r.ChatID, 10)
}

// Button is either a link (URL set) or a callback carrying an opaque token.
type Button struct {
	Text string
	URL  string
	Data string
}

type OutgoingMessage struct {
	To      Recipient
	Text    string
	HTML    bool
	Buttons [][]Button
}

type MessageRef struct {
	ChatID    int64
	MessageID int
}
