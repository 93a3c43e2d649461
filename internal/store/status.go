package store

import (
	"fmt"
	"time"

	"whatsapp-hub/internal/models"

	"gorm.io/gorm/clause"
)

// StatusChange is one delivery receipt, ready to reconcile.
type StatusChange struct {
	WaMessageID string
	Status      string
	Timestamp   time.Time
	RecipientID string
	ErrorCode   int
	ErrorTitle  string
	ErrorDetail string

	// Conversation is the billing window the receipt opened, when present.
	Conversation *ConversationWindow
}

// ConversationWindow identifies a WhatsApp conversation attached to a receipt.
type ConversationWindow struct {
	WaConversationID string
	Origin           string
	ExpiresAt        *time.Time
}

// ApplyStatus reconciles one delivery receipt. The message row, when known,
// takes the reported status as-is; receipts arrive out of order and the
// history table is the place to reconstruct the sequence. The history row
// is appended unconditionally, receipts for unknown messages included, so
// nothing WhatsApp reported is dropped. matched reports whether a message
// row was found.
func (s *Store) ApplyStatus(change StatusChange) (matched bool, err error) {
	res := s.db.Model(&models.Message{}).
		Where("wa_message_id = ?", change.WaMessageID).
		Updates(map[string]interface{}{
			"status":     change.Status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("update status of %s: %w", change.WaMessageID, res.Error)
	}
	matched = res.RowsAffected > 0

	history := models.MessageStatusEvent{
		WaMessageID: change.WaMessageID,
		Status:      change.Status,
		Timestamp:   change.Timestamp,
		RecipientID: change.RecipientID,
		ErrorCode:   change.ErrorCode,
		ErrorTitle:  change.ErrorTitle,
		ErrorDetail: change.ErrorDetail,
	}
	if err := s.db.Create(&history).Error; err != nil {
		return matched, fmt.Errorf("append status history of %s: %w", change.WaMessageID, err)
	}

	// The conversation window needs an owning contact, which only a known
	// message can provide. Receipts for unknown messages keep their history
	// row but open no window.
	if change.Conversation != nil && matched {
		if err := s.recordConversation(change); err != nil {
			return matched, err
		}
	}
	return matched, nil
}

func (s *Store) recordConversation(change StatusChange) error {
	var msg models.Message
	err := s.db.Select("contact_id").
		Where("wa_message_id = ?", change.WaMessageID).
		First(&msg).Error
	if err != nil {
		return fmt.Errorf("resolve contact of %s: %w", change.WaMessageID, err)
	}

	conv := models.Conversation{
		WaConversationID: change.Conversation.WaConversationID,
		ContactID:        msg.ContactID,
		Origin:           change.Conversation.Origin,
		StartedAt:        change.Timestamp,
		ExpiresAt:        change.Conversation.ExpiresAt,
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wa_conversation_id"}},
		DoNothing: true,
	}).Create(&conv).Error
	if err != nil {
		return fmt.Errorf("record conversation %s: %w", conv.WaConversationID, err)
	}
	return nil
}
