package database

import (
	"context"
	"fmt"

	"rentdesk/server/internal/models"
)

func (d *Database) CreateAnalyticsEvent(ctx context.Context, event *models.AnalyticsEvent) error {
	if err := d.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to insert analytics event: %w", err)
	}
	return nil
}

// CountAnalyticsByType returns how many events were recorded for each type
func (d *Database) CountAnalyticsByType(ctx context.Context) ([]models.AnalyticsCount, error) {
	var counts []models.AnalyticsCount
	err := d.db.WithContext(ctx).
		Model(&models.AnalyticsEvent{}).
		Select("type, COUNT(*) AS count").
		Group("type").
		Order("type").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count analytics events: %w", err)
	}
	return counts, nil
}
