package database

import (
	"fmt"

	"rentdesk/server/internal/models"
)

func (d *Database) RunMigrations() error {
	err := d.db.AutoMigrate(
		&models.User{},
		&models.Lead{},
		&models.LeadNote{},
		&models.LeadEvent{},
		&models.AnalyticsEvent{},
		&models.Setting{},
		&models.Listing{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Lead timelines are always read per lead in creation order
	err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_lead_events_timeline
		ON lead_events(lead_id, created_at);
	`).Error
	if err != nil {
		return fmt.Errorf("failed to create lead events index: %w", err)
	}

	err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_listings_coordinates
		ON listings(latitude, longitude);
	`).Error
	if err != nil {
		return fmt.Errorf("failed to create listings index: %w", err)
	}

	return nil
}
