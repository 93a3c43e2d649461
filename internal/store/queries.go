package store

import (
	"fmt"
	"time"

	"whatsapp-hub/internal/models"

	"gorm.io/gorm"
)

const defaultPageSize = 50

// Stats is the dashboard headline projection.
type Stats struct {
	TotalMessages int64            `json:"total_messages"`
	TotalContacts int64            `json:"total_contacts"`
	Conversations int64            `json:"conversations"`
	ByDirection   map[string]int64 `json:"by_direction"`
	ByType        map[string]int64 `json:"by_type"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// Stats counts messages by direction, kind and current status.
func (s *Store) Stats() (*Stats, error) {
	stats := &Stats{}

	if err := s.db.Model(&models.Message{}).Count(&stats.TotalMessages).Error; err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	if err := s.db.Model(&models.Contact{}).Count(&stats.TotalContacts).Error; err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}
	if err := s.db.Model(&models.Conversation{}).Count(&stats.Conversations).Error; err != nil {
		return nil, fmt.Errorf("count conversations: %w", err)
	}

	var err error
	if stats.ByDirection, err = s.groupMessages("direction"); err != nil {
		return nil, err
	}
	if stats.ByType, err = s.groupMessages("type"); err != nil {
		return nil, err
	}
	if stats.ByStatus, err = s.groupMessages("status"); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) groupMessages(column string) (map[string]int64, error) {
	var rows []struct {
		Key   string
		Count int64
	}
	err := s.db.Model(&models.Message{}).
		Select(column + " as key, count(*) as count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("group messages by %s: %w", column, err)
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Count
	}
	return out, nil
}

// MessageFilter narrows a message listing. Zero values mean "no filter".
type MessageFilter struct {
	ContactID uint
	Direction string
	Type      string
	Status    string
	Since     *time.Time
	Until     *time.Time
	Limit     int
	Offset    int
}

// ListMessages returns one page of messages, newest first by the event
// time WhatsApp reported, plus the total match count for paging.
func (s *Store) ListMessages(f MessageFilter) ([]models.Message, int64, error) {
	q := s.db.Model(&models.Message{})
	if f.ContactID != 0 {
		q = q.Where("contact_id = ?", f.ContactID)
	}
	if f.Direction != "" {
		q = q.Where("direction = ?", f.Direction)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Since != nil {
		q = q.Where("timestamp >= ?", *f.Since)
	}
	if f.Until != nil {
		q = q.Where("timestamp <= ?", *f.Until)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count filtered messages: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	var messages []models.Message
	err := q.Order("timestamp DESC, id DESC").
		Limit(limit).
		Offset(f.Offset).
		Find(&messages).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	return messages, total, nil
}

// GetMessage loads one message by its WhatsApp id with its selection,
// receipt history and contact attached. Returns gorm.ErrRecordNotFound
// when the id is unknown.
func (s *Store) GetMessage(waMessageID string) (*models.Message, error) {
	var msg models.Message
	err := s.db.
		Preload("Contact").
		Preload("Selection").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC, id ASC")
		}).
		Where("wa_message_id = ?", waMessageID).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetContact loads one contact by phone number. Returns
// gorm.ErrRecordNotFound when the address is unknown.
func (s *Store) GetContact(waID string) (*models.Contact, error) {
	var contact models.Contact
	if err := s.db.Where("wa_id = ?", waID).First(&contact).Error; err != nil {
		return nil, err
	}
	return &contact, nil
}

// ListContacts returns one page of contacts, most recently active first.
func (s *Store) ListContacts(limit, offset int) ([]models.Contact, int64, error) {
	var total int64
	if err := s.db.Model(&models.Contact{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count contacts: %w", err)
	}

	if limit <= 0 {
		limit = defaultPageSize
	}

	var contacts []models.Contact
	err := s.db.Order("last_message_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&contacts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, total, nil
}

// AllContacts returns every contact, most recently active first.
func (s *Store) AllContacts() ([]models.Contact, error) {
	var contacts []models.Contact
	if err := s.db.Order("last_message_at DESC").Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	return contacts, nil
}

// ContactHistory returns one page of a contact's messages, newest first.
// Returns gorm.ErrRecordNotFound when the contact is unknown.
func (s *Store) ContactHistory(waID string, limit, offset int) (*models.Contact, []models.Message, error) {
	contact, err := s.GetContact(waID)
	if err != nil {
		return nil, nil, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}

	var messages []models.Message
	err = s.db.Where("contact_id = ?", contact.ID).
		Order("timestamp DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, nil, fmt.Errorf("load history of %s: %w", waID, err)
	}
	return contact, messages, nil
}
