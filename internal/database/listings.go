package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rentdesk/server/internal/models"
)

// ListingFilter narrows ListListings. Zero values match everything.
type ListingFilter struct {
	Status models.ListingStatus
	Zone   string
}

func (d *Database) CreateListing(ctx context.Context, listing *models.Listing) error {
	if err := d.db.WithContext(ctx).Create(listing).Error; err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

func (d *Database) GetListing(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	var listing models.Listing
	if err := d.db.WithContext(ctx).First(&listing, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &listing, nil
}

func (d *Database) ListListings(ctx context.Context, filter ListingFilter) ([]models.Listing, error) {
	query := d.db.WithContext(ctx).Model(&models.Listing{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Zone != "" {
		query = query.Where("zone = ?", filter.Zone)
	}

	var listings []models.Listing
	if err := query.Order("created_at DESC").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	return listings, nil
}

// UpdateListing saves every editable field of the listing
func (d *Database) UpdateListing(ctx context.Context, listing *models.Listing) error {
	result := d.db.WithContext(ctx).Model(listing).
		Select("title", "address", "postal_code", "city", "zone", "rent", "size_sqm",
			"bedrooms", "furnished", "status", "description", "updated_at").
		Updates(listing)
	if result.Error != nil {
		return fmt.Errorf("failed to update listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateListingLocation stores geocoded coordinates. The zone is only written
// when zone is not empty.
func (d *Database) UpdateListingLocation(ctx context.Context, id uuid.UUID, lat, lng float64, zone string) error {
	updates := map[string]interface{}{
		"latitude":  lat,
		"longitude": lng,
	}
	if zone != "" {
		updates["zone"] = zone
	}

	result := d.db.WithContext(ctx).Model(&models.Listing{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update listing coordinates: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Database) DeleteListing(ctx context.Context, id uuid.UUID) error {
	result := d.db.WithContext(ctx).Delete(&models.Listing{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete listing: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListListingsWithoutCoordinates returns up to limit listings that have an
// address but were never geocoded, oldest first.
func (d *Database) ListListingsWithoutCoordinates(ctx context.Context, limit int) ([]models.Listing, error) {
	var listings []models.Listing
	err := d.db.WithContext(ctx).
		Where("latitude IS NULL AND address <> ''").
		Order("created_at ASC").
		Limit(limit).
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query listings without coordinates: %w", err)
	}
	return listings, nil
}
