package main

import (
	"log"

	"whatsapp-hub/internal/config"
	"whatsapp-hub/internal/database"
)

// Realigns PostgreSQL id sequences after a data migration that inserted
// rows with explicit ids.
func main() {
	cfg := config.LoadConfig()
	cfg.DBDriver = "postgres"

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}

	tables := []string{
		"contacts",
		"messages",
		"message_status_history",
		"conversations",
		"interactive_selections",
	}

	log.Println("Syncing PostgreSQL sequences...")

	for _, table := range tables {
		query := "SELECT setval(pg_get_serial_sequence('" + table + "', 'id'), coalesce(max(id), 0) + 1, false) FROM " + table
		if err := db.Exec(query).Error; err != nil {
			log.Printf("Error syncing sequence for %s: %v", table, err)
		} else {
			log.Printf("Successfully synced sequence for %s", table)
		}
	}

	log.Println("DONE!")
}
