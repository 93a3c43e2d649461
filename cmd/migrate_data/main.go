package main

import (
	"log"

	"whatsapp-hub/internal/config"
	"whatsapp-hub/internal/database"
	"whatsapp-hub/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// One-time copy of a local SQLite database into PostgreSQL. Inserts keep
// their ids and skip rows that already exist, so re-running is safe; run
// sync_sequences afterwards.
func main() {
	cfg := config.LoadConfig()

	// 1. Connect to SQLite (Source)
	sqliteDB, err := gorm.Open(sqlite.Open(cfg.DBPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to SQLite: %v", err)
	}
	log.Printf("Connected to SQLite at %s", cfg.DBPath)

	// 2. Connect to PostgreSQL (Destination)
	cfg.DBDriver = "postgres"
	pgDB, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	log.Println("Starting data migration...")

	migrateTable := func(tableName string, source interface{}) {
		log.Printf("Migrating table: %s", tableName)

		res := sqliteDB.Find(source)
		if res.Error != nil {
			log.Printf("Error reading %s from SQLite: %v", tableName, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			log.Printf("Table %s is empty, skipping", tableName)
			return
		}

		err := pgDB.Transaction(func(tx *gorm.DB) error {
			return tx.Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(source, 500).Error
		})
		if err != nil {
			log.Printf("Error writing %s to Postgres: %v", tableName, err)
		} else {
			log.Printf("Successfully migrated %s (%d rows)", tableName, res.RowsAffected)
		}
	}

	// Contacts first, everything else references them.
	var contacts []models.Contact
	migrateTable("contacts", &contacts)

	var messages []models.Message
	migrateTable("messages", &messages)

	var history []models.MessageStatusEvent
	migrateTable("message_status_history", &history)

	var conversations []models.Conversation
	migrateTable("conversations", &conversations)

	var selections []models.InteractiveSelection
	migrateTable("interactive_selections", &selections)

	log.Println("Migration completed!")
}
