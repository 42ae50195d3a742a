package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Well-known ledger entry types. Type is otherwise a free-form tag.
const (
	LedgerTypeTransfer = "transfer"
	LedgerTypeExchange = "exchange"
	LedgerTypeLoan     = "loan"
	LedgerTypeDeposit  = "deposit"
)

// LedgerEntry is one signed money movement on an account: negative debits,
// positive credits. Exposed as "transaction" over HTTP.
type LedgerEntry struct {
	Base
	AccountID   string          `gorm:"type:uuid;not null;index" json:"account_id"`
	Type        string          `gorm:"not null;index" json:"type"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	From        string          `gorm:"column:from_label;not null" json:"from"`
	To          string          `gorm:"column:to_label;not null" json:"to"`
	Description string          `json:"description,omitempty"`
	Attachment  string          `json:"attachment,omitempty"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
}

// TableName pins the table created by migrations/000001_init.
func (LedgerEntry) TableName() string { return "ledger_entries" }
