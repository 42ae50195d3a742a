package models

import "time"

// Card is a payment card issued against an account.
type Card struct {
	Base
	AccountID   string     `gorm:"type:uuid;not null;index" json:"account_id"`
	Type        string     `gorm:"not null" json:"type"`
	Number      string     `gorm:"not null" json:"number"`
	DueDate     time.Time  `gorm:"not null" json:"due_date"`
	Functions   string     `gorm:"not null" json:"functions"`
	CVC         string     `gorm:"column:cvc;not null" json:"-"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
	Name        string     `gorm:"not null" json:"name"`
	IsBlocked   bool       `gorm:"not null;default:false" json:"is_blocked"`
}
