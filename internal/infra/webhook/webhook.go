// Package webhook decodes provider webhook deliveries into domain.InboundEvent
// and verifies their signatures.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/runoshun/agent-swarm/internal/domain"
)

// MaxSkew bounds how far a signed timestamp may drift from now.
const MaxSkew = 5 * time.Minute

// --- AgentMail ---

type agentMailPayload struct {
	Type      string            `json:"type"`
	EventType string            `json:"event_type"`
	EventID   string            `json:"event_id"`
	Message   *agentMailMessage `json:"message"`
}

type agentMailMessage struct {
	InboxID       string   `json:"inbox_id"`
	ThreadID      string   `json:"thread_id"`
	MessageID     string   `json:"message_id"`
	From          string   `json:"from"`
	Subject       string   `json:"subject"`
	Text          string   `json:"text"`
	ExtractedText string   `json:"extracted_text"`
	To            []string `json:"to"`
}

// DecodeAgentMail decodes an AgentMail webhook body.
func DecodeAgentMail(body []byte, now time.Time) (*domain.InboundEvent, error) {
	var p agentMailPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decode agentmail payload: %v", domain.ErrValidation, err)
	}
	ev := &domain.InboundEvent{ID: p.EventID, Source: domain.SourceAgentMail, ReceivedAt: now}

	switch {
	case p.EventType == "message.received" && p.Message != nil:
		m := p.Message
		if ev.ID == "" {
			ev.ID = m.MessageID
		}
		text := m.ExtractedText
		if text == "" {
			text = m.Text
		}
		ev.Kind = domain.EventEmailReceived
		ev.Email = &domain.EmailReceived{
			InboxID:   m.InboxID,
			MessageID: m.MessageID,
			ThreadID:  m.ThreadID,
			From:      m.From,
			Subject:   m.Subject,
			Text:      text,
			To:        m.To,
		}
	default:
		ev.Kind = domain.EventUnknown
		ev.Unknown = &domain.UnknownEvent{Type: p.EventType}
		if ev.ID == "" {
			ev.ID = bodyDigest(body)
		}
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

// VerifyAgentMail checks the svix-style signature headers sent by AgentMail.
// secret is the endpoint secret, with or without its "whsec_" prefix.
func VerifyAgentMail(h http.Header, body []byte, secret string, now time.Time) error {
	id, ts, sigs := h.Get("svix-id"), h.Get("svix-timestamp"), h.Get("svix-signature")
	if id == "" || ts == "" || sigs == "" {
		return fmt.Errorf("%w: missing signature headers", domain.ErrInvalidSignature)
	}
	if err := checkTimestamp(ts, now); err != nil {
		return err
	}
	key, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(secret, "whsec_"))
	if err != nil {
		return fmt.Errorf("%w: malformed secret", domain.ErrInvalidSignature)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(id + "." + ts + "."))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	for _, sig := range strings.Fields(sigs) {
		version, value, ok := strings.Cut(sig, ",")
		if ok && version == "v1" && hmac.Equal([]byte(value), []byte(expected)) {
			return nil
		}
	}
	return fmt.Errorf("%w: agentmail signature mismatch", domain.ErrInvalidSignature)
}

// --- Slack ---

type slackEnvelope struct {
	Token     string          `json:"token"`
	Challenge string          `json:"challenge"` // URL verification
	Type      string          `json:"type"`      // "url_verification", "event_callback"
	Event     json.RawMessage `json:"event"`
	TeamID    string          `json:"team_id"`
	EventID   string          `json:"event_id"`
}

type slackEvent struct {
	Type     string `json:"type"` // "message", "app_mention"
	Text     string `json:"text"`
	User     string `json:"user"`
	Channel  string `json:"channel"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts,omitempty"`
	BotID    string `json:"bot_id,omitempty"`
	SubType  string `json:"subtype,omitempty"`
}

// SlackDelivery is a decoded Slack Events API request. Challenge is set for
// url_verification handshakes, Event otherwise.
type SlackDelivery struct {
	Event     *domain.InboundEvent
	Challenge string
}

// DecodeSlack decodes a Slack Events API body. Bot messages and edits are
// surfaced as unknown events so the router ignores them.
func DecodeSlack(body []byte, now time.Time) (*SlackDelivery, error) {
	var env slackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode slack payload: %v", domain.ErrValidation, err)
	}
	if env.Type == "url_verification" {
		return &SlackDelivery{Challenge: env.Challenge}, nil
	}

	ev := &domain.InboundEvent{ID: env.EventID, Source: domain.SourceSlack, ReceivedAt: now}
	var se slackEvent
	if env.Type == "event_callback" && len(env.Event) > 0 {
		if err := json.Unmarshal(env.Event, &se); err != nil {
			return nil, fmt.Errorf("%w: decode slack event: %v", domain.ErrValidation, err)
		}
	}

	switch {
	case env.Type != "event_callback":
		ev.Kind = domain.EventUnknown
		ev.Unknown = &domain.UnknownEvent{Type: env.Type}
	case (se.Type == "message" || se.Type == "app_mention") && se.BotID == "" && se.SubType == "":
		ev.Kind = domain.EventChatMessage
		ev.Chat = &domain.ChatMessage{
			ChannelID: se.Channel,
			User:      se.User,
			Text:      se.Text,
			TS:        se.TS,
			ThreadTS:  se.ThreadTS,
		}
	default:
		kind := se.Type
		if se.SubType != "" {
			kind += "/" + se.SubType
		} else if se.BotID != "" {
			kind += "/bot"
		}
		ev.Kind = domain.EventUnknown
		ev.Unknown = &domain.UnknownEvent{Type: kind}
	}
	if ev.ID == "" && ev.Kind == domain.EventUnknown {
		ev.ID = bodyDigest(body)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &SlackDelivery{Event: ev}, nil
}

// VerifySlack checks the v0 request signature Slack attaches to every delivery.
func VerifySlack(h http.Header, body []byte, signingSecret string, now time.Time) error {
	ts, sig := h.Get("X-Slack-Request-Timestamp"), h.Get("X-Slack-Signature")
	if ts == "" || sig == "" {
		return fmt.Errorf("%w: missing signature headers", domain.ErrInvalidSignature)
	}
	if err := checkTimestamp(ts, now); err != nil {
		return err
	}
	if !hmac.Equal([]byte(sig), []byte(SlackSignature(signingSecret, ts, body))) {
		return fmt.Errorf("%w: slack signature mismatch", domain.ErrInvalidSignature)
	}
	return nil
}

// SlackSignature computes v0=HMAC-SHA256("v0:{timestamp}:{body}").
func SlackSignature(signingSecret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(signingSecret))
	mac.Write([]byte("v0:" + timestamp + ":"))
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func checkTimestamp(ts string, now time.Time) error {
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", domain.ErrInvalidSignature)
	}
	skew := now.Sub(time.Unix(sec, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > MaxSkew {
		return fmt.Errorf("%w: timestamp outside tolerance", domain.ErrInvalidSignature)
	}
	return nil
}

// bodyDigest identifies deliveries that carry no event id of their own.
func bodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return "sha256:" + hex.EncodeToString(sum[:8])
}
