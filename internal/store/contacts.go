package store

import (
	"fmt"
	"time"

	"whatsapp-hub/internal/models"

	"gorm.io/gorm/clause"
)

// UpsertContact inserts the contact for waID or refreshes its activity
// timestamp. The unique index on wa_id resolves concurrent first-contact
// races; whichever insert loses the race falls through to the update. An
// empty name never overwrites a stored one.
func (s *Store) UpsertContact(waID, name string, seenAt time.Time) (*models.Contact, error) {
	contact := models.Contact{
		WaID:          waID,
		Name:          name,
		FirstSeenAt:   seenAt,
		LastMessageAt: seenAt,
	}

	assignments := map[string]interface{}{
		"last_message_at": seenAt,
		"updated_at":      time.Now().UTC(),
	}
	if name != "" {
		assignments["name"] = name
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "wa_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(&contact).Error
	if err != nil {
		return nil, fmt.Errorf("upsert contact %s: %w", waID, err)
	}

	// The conflict path does not report the surviving row, so read it back.
	var saved models.Contact
	if err := s.db.Where("wa_id = ?", waID).First(&saved).Error; err != nil {
		return nil, fmt.Errorf("load contact %s: %w", waID, err)
	}
	return &saved, nil
}
