package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListingStatus string

const (
	ListingAvailable ListingStatus = "available"
	ListingRented    ListingStatus = "rented"
	ListingHidden    ListingStatus = "hidden"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingAvailable, ListingRented, ListingHidden:
		return true
	}
	return false
}

// Listing is a rental property managed by the agency
type Listing struct {
	ID          uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	Title       string        `json:"title" gorm:"not null"`
	Address     string        `json:"address"`
	PostalCode  string        `json:"postal_code"`
	City        string        `json:"city"`
	Zone        string        `json:"zone" gorm:"type:varchar(50);index"`
	Rent        int           `json:"rent"`
	SizeSqm     int           `json:"size_sqm"`
	Bedrooms    int           `json:"bedrooms"`
	Furnished   bool          `json:"furnished"`
	Status      ListingStatus `json:"status" gorm:"type:varchar(20);not null;default:'available';index"`
	Description string        `json:"description" gorm:"type:text"`
	Latitude    *float64      `json:"latitude"`
	Longitude   *float64      `json:"longitude"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (l *Listing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = ListingAvailable
	}
	return nil
}
