package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeDebit AccountType = "debit"
)

// Account is the customer's single checking account. Its balance is not
// stored; it is the sum of the account's ledger entry amounts.
type Account struct {
	Base
	UserID        string      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	AccountNumber string      `gorm:"not null;uniqueIndex" json:"account_number"`
	Type          AccountType `gorm:"not null" json:"type"`
}
