package models

// UserSettings holds per-user preferences, stored inline on the users row.
type UserSettings struct {
	Notifications bool   `gorm:"not null;default:true" json:"notifications"`
	Language      string `gorm:"not null;default:'pt-BR'" json:"language"`
	Currency      string `gorm:"not null;default:'BRL'" json:"currency"`
	TwoFactorAuth bool   `gorm:"not null;default:false" json:"two_factor_auth"`
	EmailAlerts   bool   `gorm:"not null;default:true" json:"email_alerts"`
	SMSAlerts     bool   `gorm:"column:sms_alerts;not null;default:false" json:"sms_alerts"`
	Theme         string `gorm:"not null;default:'light'" json:"theme"`
}

// DefaultUserSettings returns the settings assigned at registration.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		Notifications: true,
		Language:      "pt-BR",
		Currency:      "BRL",
		EmailAlerts:   true,
		Theme:         "light",
	}
}

// User represents a registered customer.
type User struct {
	Base
	Name     string       `gorm:"not null" json:"name"`
	Username string       `gorm:"not null" json:"username"`
	Email    string       `gorm:"uniqueIndex;not null" json:"email"`
	Password string       `gorm:"not null" json:"-"`
	Settings UserSettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings"`
}
