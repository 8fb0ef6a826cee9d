package config

import "fmt"

// Keys of the settings table
const (
	SettingWhatsAppNumber    = "whatsapp_number"
	SettingContactEmail      = "contact_email"
	SettingNotificationEmail = "notification_email"
)

// SettingsReader is the part of the database the settings loader needs
type SettingsReader interface {
	GetSettings() (map[string]string, error)
}

// LoadSiteSettings overlays the stored settings on top of the environment defaults.
// Empty stored values keep the default.
func LoadSiteSettings(db SettingsReader, defaults SiteSettings) (SiteSettings, error) {
	stored, err := db.GetSettings()
	if err != nil {
		return defaults, fmt.Errorf("failed to read settings: %w", err)
	}

	settings := defaults
	if v := stored[SettingWhatsAppNumber]; v != "" {
		settings.WhatsAppNumber = v
	}
	if v := stored[SettingContactEmail]; v != "" {
		settings.ContactEmail = v
	}
	if v := stored[SettingNotificationEmail]; v != "" {
		settings.NotificationEmail = v
	}
	return settings, nil
}
