package database

import (
	"fmt"

	"gorm.io/gorm/clause"

	"rentdesk/server/internal/models"
)

// GetSettings returns the settings table as a map
func (d *Database) GetSettings() (map[string]string, error) {
	var rows []models.Setting
	if err := d.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

// SetSetting inserts or replaces a single setting
func (d *Database) SetSetting(key, value string) error {
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.Setting{Key: key, Value: value}).Error
	if err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}
