package store

import (
	"gorm.io/gorm"
)

// Store persists normalized webhook events and serves the dashboard
// read side. All write paths are idempotent on the WhatsApp-assigned
// identifiers; replaying a webhook delivery never duplicates rows.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}
