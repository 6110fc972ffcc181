package domain

import (
	"fmt"
	"strings"
	"time"
)

// EventKind discriminates InboundEvent variants.
type EventKind string

// Known inbound event kinds.
const (
	EventEmailReceived EventKind = "email.received"
	EventChatMessage   EventKind = "chat.message"
	EventUnknown       EventKind = "unknown"
)

// EmailReceived is an email delivered to a provider inbox.
type EmailReceived struct {
	InboxID   string   `json:"inboxId"`
	MessageID string   `json:"messageId"`
	ThreadID  string   `json:"threadId"`
	From      string   `json:"from"`
	Subject   string   `json:"subject"`
	Text      string   `json:"text"`
	To        []string `json:"to,omitempty"`
}

// ChatMessage is a message posted in a chat channel.
type ChatMessage struct {
	ChannelID string `json:"channelId"`
	User      string `json:"user"`
	Text      string `json:"text"`
	TS        string `json:"ts"`
	ThreadTS  string `json:"threadTs,omitempty"`
}

// UnknownEvent keeps the provider type of an event the router does not handle.
type UnknownEvent struct {
	Type string `json:"type"`
}

// InboundEvent is a decoded webhook delivery. Exactly one of Email, Chat or Unknown
// is set, matching Kind.
type InboundEvent struct {
	ReceivedAt time.Time      `json:"receivedAt"`
	Email      *EmailReceived `json:"email,omitempty"`
	Chat       *ChatMessage   `json:"chat,omitempty"`
	Unknown    *UnknownEvent  `json:"unknown,omitempty"`
	ID         string         `json:"id"` // Provider-assigned event id
	Kind       EventKind      `json:"kind"`
	Source     Source         `json:"source"`
}

// Validate checks that the variant payload matches Kind.
func (e *InboundEvent) Validate() error {
	ok := false
	switch e.Kind {
	case EventEmailReceived:
		ok = e.Email != nil
	case EventChatMessage:
		ok = e.Chat != nil
	case EventUnknown:
		ok = true
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEventKind, e.Kind)
	}
	if e.ID == "" {
		return fmt.Errorf("%w: event id is required", ErrValidation)
	}
	return nil
}

// Key returns the dedup key of the event.
func (e *InboundEvent) Key() string {
	return string(e.Source) + ":" + e.ID
}

// ThreadID returns the conversation the event belongs to, or "".
// A top-level chat message starts a thread keyed by its own timestamp.
func (e *InboundEvent) ThreadID() string {
	switch e.Kind {
	case EventEmailReceived:
		return e.Email.ThreadID
	case EventChatMessage:
		if e.Chat.ThreadTS != "" {
			return e.Chat.ThreadTS
		}
		return e.Chat.TS
	default:
		return ""
	}
}

// IsReply reports whether the event continues an earlier conversation.
func (e *InboundEvent) IsReply() bool {
	switch e.Kind {
	case EventEmailReceived:
		return e.Email.ThreadID != ""
	case EventChatMessage:
		return e.Chat.ThreadTS != "" && e.Chat.ThreadTS != e.Chat.TS
	default:
		return false
	}
}

// ChannelID returns the inbox or channel the event arrived on.
func (e *InboundEvent) ChannelID() string {
	switch e.Kind {
	case EventEmailReceived:
		return e.Email.InboxID
	case EventChatMessage:
		return e.Chat.ChannelID
	default:
		return ""
	}
}

// Sender returns who sent the event.
func (e *InboundEvent) Sender() string {
	switch e.Kind {
	case EventEmailReceived:
		return e.Email.From
	case EventChatMessage:
		return e.Chat.User
	default:
		return ""
	}
}

// Subject returns a short title for the event.
func (e *InboundEvent) Subject() string {
	switch e.Kind {
	case EventEmailReceived:
		return e.Email.Subject
	case EventChatMessage:
		return "Message in " + e.Chat.ChannelID
	default:
		return ""
	}
}

// Body returns the message text.
func (e *InboundEvent) Body() string {
	switch e.Kind {
	case EventEmailReceived:
		return e.Email.Text
	case EventChatMessage:
		return e.Chat.Text
	default:
		return ""
	}
}

// Describe renders the event as a task description.
func (e *InboundEvent) Describe() string {
	var b strings.Builder
	switch e.Kind {
	case EventEmailReceived:
		fmt.Fprintf(&b, "Email from %s: %s", e.Email.From, e.Email.Subject)
	case EventChatMessage:
		fmt.Fprintf(&b, "Slack message from %s in %s", e.Chat.User, e.Chat.ChannelID)
	default:
		return ""
	}
	if body := strings.TrimSpace(e.Body()); body != "" {
		b.WriteString("\n\n")
		b.WriteString(body)
	}
	return b.String()
}
