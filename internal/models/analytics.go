package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AnalyticsEventType string

const (
	AnalyticsCalculatorSubmit    AnalyticsEventType = "calculator_submit"
	AnalyticsContactFormSubmit   AnalyticsEventType = "contact_form_submit"
	AnalyticsWhatsAppClick       AnalyticsEventType = "whatsapp_click"
	AnalyticsPhoneClick          AnalyticsEventType = "phone_click"
	AnalyticsPDFDownload         AnalyticsEventType = "pdf_download"
	AnalyticsNewsletterSubscribe AnalyticsEventType = "newsletter_subscribe"
)

// Valid reports whether t is a known analytics event type
func (t AnalyticsEventType) Valid() bool {
	switch t {
	case AnalyticsCalculatorSubmit, AnalyticsContactFormSubmit, AnalyticsWhatsAppClick,
		AnalyticsPhoneClick, AnalyticsPDFDownload, AnalyticsNewsletterSubscribe:
		return true
	}
	return false
}

// AnalyticsEvent is written once and only ever counted
type AnalyticsEvent struct {
	ID        uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	Type      AnalyticsEventType `json:"type" gorm:"type:varchar(50);not null;index"`
	Page      string             `json:"page"`
	Metadata  datatypes.JSON     `json:"metadata,omitempty"`
	CreatedAt time.Time          `json:"created_at" gorm:"index"`
}

func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type AnalyticsCount struct {
	Type  AnalyticsEventType `json:"type"`
	Count int64              `json:"count"`
}
