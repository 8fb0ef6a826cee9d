package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rentdesk/server/internal/models"
)

const (
	defaultLeadPageSize = 50
	maxLeadPageSize     = 200
)

// CreateLead inserts a lead together with its "created" event in one transaction
func (d *Database) CreateLead(ctx context.Context, lead *models.Lead) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Notes", "Events", "AssignedTo").Create(lead).Error; err != nil {
			return fmt.Errorf("failed to insert lead: %w", err)
		}

		event := models.LeadEvent{
			LeadID:  lead.ID,
			Type:    models.LeadEventCreated,
			ToValue: string(lead.Status),
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to insert lead event: %w", err)
		}
		return nil
	})
}

// GetLead returns a lead with its assignee, notes and events
func (d *Database) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	var lead models.Lead
	err := d.db.WithContext(ctx).
		Preload("AssignedTo").
		Preload("Notes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Notes.Author").
		Preload("Events", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &lead, nil
}

// ListLeads returns the newest leads matching the filter and the total match count
func (d *Database) ListLeads(ctx context.Context, filter models.LeadFilter) ([]models.Lead, int64, error) {
	query := d.db.WithContext(ctx).Model(&models.Lead{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.LeadType != "" {
		query = query.Where("lead_type = ?", filter.LeadType)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count leads: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLeadPageSize
	}
	limit = min(limit, maxLeadPageSize)
	offset := max(filter.Offset, 0)

	var leads []models.Lead
	err := query.Preload("AssignedTo").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&leads).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leads: %w", err)
	}
	return leads, total, nil
}

// UpdateLead loads a lead, lets apply change it and append events, then saves
// the status and assignee together with the events in one transaction.
func (d *Database) UpdateLead(ctx context.Context, id uuid.UUID, apply func(lead *models.Lead) ([]models.LeadEvent, error)) (*models.Lead, error) {
	var lead models.Lead
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&lead, "id = ?", id).Error; err != nil {
			return notFound(err)
		}

		events, err := apply(&lead)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		err = tx.Model(&lead).
			Select("status", "assigned_to_id", "updated_at").
			Updates(&lead).Error
		if err != nil {
			return fmt.Errorf("failed to update lead: %w", err)
		}

		// One insert per event so each gets its own timestamp and the
		// timeline keeps the order apply produced them in.
		for i := range events {
			events[i].LeadID = lead.ID
			if err := tx.Create(&events[i]).Error; err != nil {
				return fmt.Errorf("failed to insert lead event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return d.GetLead(ctx, id)
}

// AddNote stores a note and its "note_added" event
func (d *Database) AddNote(ctx context.Context, note *models.LeadNote) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Lead{}).Where("id = ?", note.LeadID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up lead: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}

		if err := tx.Omit("Author").Create(note).Error; err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}

		actor := note.AuthorID
		event := models.LeadEvent{
			LeadID:  note.LeadID,
			Type:    models.LeadEventNoteAdded,
			ToValue: note.ID.String(),
			ActorID: &actor,
		}
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("failed to insert lead event: %w", err)
		}
		return nil
	})
}

// CountLeadEvents returns the number of audit events stored for a lead
func (d *Database) CountLeadEvents(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&models.LeadEvent{}).Where("lead_id = ?", id).Count(&count).Error
	return count, err
}
