// Package events publishes ledger events after money movements commit.
package events

import (
	"time"

	"github.com/dvsilva/tech-challenge-2/internal/models"

	"github.com/shopspring/decimal"
)

// TypeLedgerEntryRecorded is emitted once per committed ledger entry.
const TypeLedgerEntryRecorded = "ledger.entry.recorded"

// Publisher delivers events to a topic.
type Publisher interface {
	Publish(topic string, event any) error
	Close() error
}

// Keyed events choose their partition key; everything else is unkeyed.
type Keyed interface {
	PartitionKey() string
}

// LedgerEntryRecorded describes a ledger entry that was just committed.
type LedgerEntryRecorded struct {
	EventType    string          `json:"event_type"`
	EntryID      string          `json:"entry_id"`
	AccountID    string          `json:"account_id"`
	EntryType    string          `json:"entry_type"`
	Amount       decimal.Decimal `json:"amount"`
	From         string          `json:"from"`
	To           string          `json:"to"`
	InvestmentID string          `json:"investment_id,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// NewLedgerEntryRecorded builds the event for entry. investmentID may be empty.
func NewLedgerEntryRecorded(entry *models.LedgerEntry, investmentID string) LedgerEntryRecorded {
	return LedgerEntryRecorded{
		EventType:    TypeLedgerEntryRecorded,
		EntryID:      entry.ID,
		AccountID:    entry.AccountID,
		EntryType:    entry.Type,
		Amount:       entry.Amount,
		From:         entry.From,
		To:           entry.To,
		InvestmentID: investmentID,
		OccurredAt:   entry.Date,
	}
}

// PartitionKey keeps one account's events ordered on a single partition.
func (e LedgerEntryRecorded) PartitionKey() string { return e.AccountID }
