package domain

import "time"

// InboxMapping binds an external inbox or channel to an agent.
// (Provider, ExternalID) is unique.
type InboxMapping struct {
	CreatedAt  time.Time `json:"createdAt"`
	ID         string    `json:"id"`
	Provider   Source    `json:"provider"`
	ExternalID string    `json:"externalId"`
	AgentID    string    `json:"agentId"`
}

// InboxMessage is a message addressed to a lead agent by the event router.
// Fields are ordered to minimize memory padding.
type InboxMessage struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
	AgentID   string    `json:"agentId"`
	Source    Source    `json:"source"`
	EventID   string    `json:"eventId"`
	ChannelID string    `json:"channelId,omitempty"`
	ThreadID  string    `json:"threadId,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
}

// MessageFromEvent builds the inbox message for ev addressed to agentID.
func MessageFromEvent(ev *InboundEvent, id, agentID string, now time.Time) *InboxMessage {
	return &InboxMessage{
		ID:        id,
		AgentID:   agentID,
		Source:    ev.Source,
		EventID:   ev.ID,
		ChannelID: ev.ChannelID(),
		ThreadID:  ev.ThreadID(),
		Sender:    ev.Sender(),
		Subject:   ev.Subject(),
		Body:      ev.Body(),
		CreatedAt: now,
	}
}

// MessageFilter specifies criteria for listing inbox messages.
type MessageFilter struct {
	AgentID    string
	UnreadOnly bool
	Limit      int
}
