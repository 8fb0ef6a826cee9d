package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LeadType string
type LeadStatus string
type LeadEventType string

const (
	LeadTypeTenant   LeadType = "TENANT"
	LeadTypeLandlord LeadType = "LANDLORD"
	LeadTypeGeneral  LeadType = "GENERAL"

	LeadStatusNew        LeadStatus = "NEW"
	LeadStatusContacted  LeadStatus = "CONTACTED"
	LeadStatusInProgress LeadStatus = "IN_PROGRESS"
	LeadStatusWon        LeadStatus = "WON"
	LeadStatusLost       LeadStatus = "LOST"

	LeadEventCreated      LeadEventType = "created"
	LeadEventStatusChange LeadEventType = "status_change"
	LeadEventAssigned     LeadEventType = "assigned"
	LeadEventNoteAdded    LeadEventType = "note_added"
)

// Form identifiers used as lead source
const (
	SourceCalculator  = "rental_calculator"
	SourceContactForm = "contact_form"
	SourceLandlord    = "landlord_page"
	SourceTenant      = "tenant_page"
)

// Valid reports whether t is one of the known lead types
func (t LeadType) Valid() bool {
	switch t {
	case LeadTypeTenant, LeadTypeLandlord, LeadTypeGeneral:
		return true
	}
	return false
}

// Valid reports whether s is one of the known statuses. Any status may follow any other.
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusInProgress, LeadStatusWon, LeadStatusLost:
		return true
	}
	return false
}

type Lead struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name       string     `json:"name" gorm:"not null"`
	Email      string     `json:"email" gorm:"not null;index"`
	Phone      string     `json:"phone,omitempty"`
	LeadType   LeadType   `json:"lead_type" gorm:"type:varchar(20);not null;index"`
	Source     string     `json:"source" gorm:"type:varchar(50);not null;index"`
	SourcePage string     `json:"source_page,omitempty"`
	Message    string     `json:"message,omitempty" gorm:"type:text"`
	Status     LeadStatus `json:"status" gorm:"type:varchar(20);not null;default:'NEW';index"`

	// Calculator fields, all optional
	Address       string `json:"address,omitempty"`
	City          string `json:"city,omitempty"`
	PropertyType  string `json:"property_type,omitempty"`
	Size          *int   `json:"size,omitempty"`
	Bedrooms      *int   `json:"bedrooms,omitempty"`
	Furnished     *bool  `json:"furnished,omitempty"`
	AvailableFrom string `json:"available_from,omitempty"`
	DesiredRent   string `json:"desired_rent,omitempty"`
	EstimatedRent string `json:"estimated_rent,omitempty"`

	AssignedToID *uuid.UUID `json:"assigned_to_id,omitempty" gorm:"type:uuid;index"`
	AssignedTo   *User      `json:"assigned_to,omitempty" gorm:"foreignKey:AssignedToID"`

	Notes  []LeadNote  `json:"notes,omitempty" gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
	Events []LeadEvent `json:"events,omitempty" gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	return nil
}

type LeadNote struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	LeadID    uuid.UUID `json:"lead_id" gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID `json:"author_id" gorm:"type:uuid;not null"`
	Author    *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (n *LeadNote) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// LeadEvent is an append-only audit entry of a lead
type LeadEvent struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	LeadID    uuid.UUID     `json:"lead_id" gorm:"type:uuid;not null;index"`
	Type      LeadEventType `json:"type" gorm:"type:varchar(30);not null"`
	FromValue string        `json:"from_value,omitempty"`
	ToValue   string        `json:"to_value,omitempty"`
	ActorID   *uuid.UUID    `json:"actor_id,omitempty" gorm:"type:uuid"`
	CreatedAt time.Time     `json:"created_at"`
}

func (e *LeadEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// LeadFilter narrows ListLeads. Zero values match everything.
type LeadFilter struct {
	Status   LeadStatus `form:"status"`
	LeadType LeadType   `form:"lead_type"`
	Source   string     `form:"source"`
	Limit    int        `form:"limit"`
	Offset   int        `form:"offset"`
}
