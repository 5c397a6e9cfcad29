package gateway

import (
	"context"
	"errors"
	"strings"
)

// Message is one inbound WhatsApp event as reported by the gateway
type Message struct {
	ID          string `json:"id"`
	FromMe      bool   `json:"from_me"`
	RemoteID    string `json:"remote_id"`     // JID, possibly an opaque alias
	RemoteIDAlt string `json:"remote_id_alt"` // real JID when RemoteID is an alias
	Timestamp   int64  `json:"timestamp"`     // unix seconds as reported by WhatsApp
	Text        string `json:"text"`
	AudioRef    string `json:"audio_ref"` // message key for media download, empty if no audio
	PushName    string `json:"push_name"`
}

// SenderJID returns the real peer identifier, preferring the alternate id
// when the transport reported an opaque alias.
func (m Message) SenderJID() string {
	if strings.HasSuffix(m.RemoteID, "@lid") && m.RemoteIDAlt != "" {
		return m.RemoteIDAlt
	}
	return m.RemoteID
}

// SenderPhone returns the phone-number part of the sender JID
func (m Message) SenderPhone() string {
	jid := m.SenderJID()
	if i := strings.Index(jid, "@"); i >= 0 {
		return jid[:i]
	}
	return jid
}

// ErrPollingUnsupported is returned by gateways that only deliver via webhook
var ErrPollingUnsupported = errors.New("gateway does not support message polling")

// Gateway is the WhatsApp transport boundary. Implementations are external
// services; everything here is a network call.
type Gateway interface {
	// SendText sends a plain text message to a phone number
	SendText(ctx context.Context, instance, to, text string) error

	// SendMedia sends a media message. media is a URL or base64 payload,
	// mediaType is "image", "video", "audio" or "document".
	SendMedia(ctx context.Context, instance, to, media, fileName, caption, mediaType string) error

	// GetMessages fetches recent messages for an instance (polling path)
	GetMessages(ctx context.Context, instance string) ([]Message, error)

	// DownloadMedia fetches the raw bytes of a media message
	DownloadMedia(ctx context.Context, instance, messageID string) ([]byte, error)
}
