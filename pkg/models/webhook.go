package models

import "encoding/json"

// WebhookPayload represents the incoming JSON payload from WhatsApp
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry is one WhatsApp Business Account entry in a webhook delivery
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change is one field change inside an entry
type Change struct {
	Value ChangeValue `json:"value"`
	Field string      `json:"field"`
}

// ChangeValue carries the actual notification content of a change
type ChangeValue struct {
	MessagingProduct string               `json:"messaging_product"`
	Metadata         Metadata             `json:"metadata"`
	Contacts         []NotifiedContact    `json:"contacts,omitempty"`
	Messages         []InboundMessage     `json:"messages,omitempty"`
	Statuses         []StatusNotification `json:"statuses,omitempty"`
	Errors           []PlatformError      `json:"errors,omitempty"`
}

// Metadata identifies the business phone number the notification is for
type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// NotifiedContact is the sender profile WhatsApp attaches alongside messages
type NotifiedContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// InboundMessage represents one message record in a webhook notification.
// Exactly one of the content fields is set, matching Type.
type InboundMessage struct {
	From      string          `json:"from"`
	ID        string          `json:"id"`
	Timestamp string          `json:"timestamp"`
	Type      string          `json:"type"`
	Context   *MessageContext `json:"context,omitempty"`

	Text        *TextContent        `json:"text,omitempty"`
	Image       *MediaMessage       `json:"image,omitempty"`
	Video       *MediaMessage       `json:"video,omitempty"`
	Audio       *MediaMessage       `json:"audio,omitempty"`
	Document    *MediaMessage       `json:"document,omitempty"`
	Sticker     *MediaMessage       `json:"sticker,omitempty"`
	Location    *LocationContent    `json:"location,omitempty"`
	Contacts    json.RawMessage     `json:"contacts,omitempty"` // shared contact cards, stored as-is
	Interactive *InteractiveMessage `json:"interactive,omitempty"`
	Button      *ButtonContent      `json:"button,omitempty"`
	Reaction    *ReactionContent    `json:"reaction,omitempty"`
	System      json.RawMessage     `json:"system,omitempty"`
	Errors      []PlatformError     `json:"errors,omitempty"`

	// Raw is the record exactly as delivered, so message kinds without
	// dedicated fields survive storage without loss.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON keeps a copy of the original bytes next to the decoded fields.
func (m *InboundMessage) UnmarshalJSON(data []byte) error {
	type inboundMessage InboundMessage
	var decoded inboundMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*m = InboundMessage(decoded)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MessageContext links a message to the message it replies to
type MessageContext struct {
	From string `json:"from"`
	ID   string `json:"id"`
}

// TextContent is the body of a text message
type TextContent struct {
	Body string `json:"body"`
}

// MediaMessage represents a media attachment in a WhatsApp message
type MediaMessage struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	SHA256   string `json:"sha256,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// LocationContent is a shared location pin
type LocationContent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// InteractiveMessage represents an interactive message response (buttons, lists, flows)
type InteractiveMessage struct {
	Type        string       `json:"type"`
	ButtonReply *ButtonReply `json:"button_reply,omitempty"` // For button clicks
	ListReply   *ListReply   `json:"list_reply,omitempty"`   // For list selections
	NfmReply    *NfmReply    `json:"nfm_reply,omitempty"`    // For Flows
}

// ButtonReply represents a button click response
type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListReply represents a list selection response
type ListReply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// NfmReply represents a response from a WhatsApp Flow
type NfmReply struct {
	ResponsePayload string `json:"response_payload"` // JSON string of the form data
	Body            string `json:"body"`
	Name            string `json:"name"`
}

// ButtonContent is a quick-reply button press on a template message
type ButtonContent struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// ReactionContent is an emoji reaction to an earlier message
type ReactionContent struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// StatusNotification is a delivery receipt for an outgoing message
type StatusNotification struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	RecipientID  string            `json:"recipient_id"`
	Conversation *ConversationInfo `json:"conversation,omitempty"`
	Pricing      *PricingInfo      `json:"pricing,omitempty"`
	Errors       []PlatformError   `json:"errors,omitempty"`
}

// ConversationInfo describes the billing window a status belongs to
type ConversationInfo struct {
	ID     string `json:"id"`
	Origin struct {
		Type string `json:"type"`
	} `json:"origin"`
	ExpirationTimestamp string `json:"expiration_timestamp,omitempty"`
}

// PricingInfo describes how the conversation is billed
type PricingInfo struct {
	Billable     bool   `json:"billable"`
	PricingModel string `json:"pricing_model"`
	Category     string `json:"category"`
}

// PlatformError is an error object as WhatsApp reports it, either on a
// message, a status, or the change value itself
type PlatformError struct {
	Code      int    `json:"code"`
	Title     string `json:"title"`
	Message   string `json:"message,omitempty"`
	ErrorData *struct {
		Details string `json:"details"`
	} `json:"error_data,omitempty"`
}
