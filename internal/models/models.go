package models

import (
	"time"

	"gorm.io/datatypes"
)

// Message direction relative to the business number.
const (
	DirectionIncoming = "incoming"
	DirectionOutgoing = "outgoing"
)

// Message status values as reported by the Cloud API. Incoming messages
// start at received; outgoing messages move sent -> delivered -> read,
// or end at failed.
const (
	StatusReceived  = "received"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
)

// Interactive selection kinds.
const (
	SelectionKindButton = "button"
	SelectionKindList   = "list"
)

// Contact represents a WhatsApp contact identified by phone number
type Contact struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	WaID          string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"wa_id"` // WhatsApp ID (phone number)
	Name          string    `gorm:"type:varchar(255)" json:"name"`
	FirstSeenAt   time.Time `json:"first_seen_at"`
	LastMessageAt time.Time `gorm:"index" json:"last_message_at"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Message represents a WhatsApp message, incoming or outgoing
type Message struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	WaMessageID string `gorm:"type:varchar(128);not null;uniqueIndex" json:"wa_message_id"`
	ContactID   uint   `gorm:"not null;index" json:"contact_id"`
	Direction   string `gorm:"type:varchar(10);index" json:"direction"`
	Type        string `gorm:"type:varchar(30);index" json:"type"`
	Body        string `gorm:"type:text" json:"body"`

	// Media reference as handed out by the Cloud API. The bytes live on
	// Meta's side; only the handle is stored.
	MediaID       string `gorm:"type:varchar(255)" json:"media_id,omitempty"`
	MediaMimeType string `gorm:"type:varchar(100)" json:"media_mime_type,omitempty"`
	MediaFilename string `gorm:"type:varchar(255)" json:"media_filename,omitempty"`
	MediaCaption  string `gorm:"type:text" json:"media_caption,omitempty"`

	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
	LocationName    string   `gorm:"type:varchar(255)" json:"location_name,omitempty"`
	LocationAddress string   `gorm:"type:text" json:"location_address,omitempty"`

	// Payload holds the structured content for kinds without dedicated
	// columns (contacts, interactive, button, reaction, system) and the
	// full raw record for kinds this build does not recognize.
	Payload datatypes.JSON `json:"payload,omitempty"`

	ReplyToWaID string    `gorm:"type:varchar(128)" json:"reply_to_wa_id,omitempty"` // wa_message_id of the quoted message, if any
	Status      string    `gorm:"type:varchar(20);index" json:"status"`
	Timestamp   time.Time `gorm:"index:idx_messages_timestamp,sort:desc" json:"timestamp"` // event time reported by WhatsApp
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Contact       *Contact              `gorm:"foreignKey:ContactID" json:"contact,omitempty"`
	Selection     *InteractiveSelection `gorm:"foreignKey:MessageID" json:"selection,omitempty"`
	StatusHistory []MessageStatusEvent  `gorm:"foreignKey:WaMessageID;references:WaMessageID" json:"status_history,omitempty"`
}

func (Message) TableName() string {
	return "messages"
}

// MessageStatusEvent is one delivery receipt as reported by WhatsApp.
// Rows are append-only and keyed by the external message id rather than a
// foreign key, so receipts for messages this store never saw are kept too.
type MessageStatusEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WaMessageID string    `gorm:"type:varchar(128);not null;index" json:"wa_message_id"`
	Status      string    `gorm:"type:varchar(20)" json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	RecipientID string    `gorm:"type:varchar(50)" json:"recipient_id"`
	ErrorCode   int       `json:"error_code,omitempty"`
	ErrorTitle  string    `gorm:"type:varchar(255)" json:"error_title,omitempty"`
	ErrorDetail string    `gorm:"type:text" json:"error_detail,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (MessageStatusEvent) TableName() string {
	return "message_status_history"
}

// Conversation represents a WhatsApp billing/conversation window opened by
// a delivery receipt
type Conversation struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	WaConversationID string     `gorm:"type:varchar(128);not null;uniqueIndex" json:"wa_conversation_id"`
	ContactID        uint       `gorm:"not null;index" json:"contact_id"`
	Origin           string     `gorm:"type:varchar(50)" json:"origin"` // e.g. service, marketing, utility
	StartedAt        time.Time  `json:"started_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// InteractiveSelection records the option a contact picked from a button or
// list message, at most one per message
type InteractiveSelection struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MessageID   uint      `gorm:"not null;uniqueIndex" json:"message_id"`
	Kind        string    `gorm:"type:varchar(10)" json:"kind"` // button or list
	SelectionID string    `gorm:"type:varchar(255)" json:"selection_id"`
	Title       string    `gorm:"type:varchar(255)" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (InteractiveSelection) TableName() string {
	return "interactive_selections"
}
