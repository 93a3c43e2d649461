package webhook

import (
	"time"

	pkgmodels "whatsapp-hub/pkg/models"
)

// Event is one normalized item extracted from a webhook delivery. The
// concrete types below are the only implementations; consumers dispatch
// with a type switch.
type Event interface {
	event()
}

// IncomingMessageEvent is one inbound message together with the sender
// profile WhatsApp delivered alongside it.
type IncomingMessageEvent struct {
	Metadata    pkgmodels.Metadata
	From        string // sender wa_id
	ProfileName string // sender display name, may be empty
	Timestamp   time.Time
	Message     *pkgmodels.InboundMessage
}

func (IncomingMessageEvent) event() {}

// StatusEvent is one delivery receipt for a previously sent message.
type StatusEvent struct {
	Metadata     pkgmodels.Metadata
	WaMessageID  string
	Status       string
	Timestamp    time.Time
	RecipientID  string
	Conversation *ConversationInfo
	Errors       []pkgmodels.PlatformError
}

func (StatusEvent) event() {}

// ConversationInfo is the billing window attached to a receipt, with the
// expiration timestamp already parsed.
type ConversationInfo struct {
	ID        string
	Origin    string
	ExpiresAt *time.Time
}

// ErrorEvent is an error WhatsApp reported at the change level, not tied
// to a particular message.
type ErrorEvent struct {
	Metadata pkgmodels.Metadata
	Err      pkgmodels.PlatformError
}

func (ErrorEvent) event() {}
