package services

import (
	"github.com/dvsilva/tech-challenge-2/internal/events"
	"github.com/dvsilva/tech-challenge-2/internal/logger"
	"github.com/dvsilva/tech-challenge-2/internal/models"
)

// LedgerEvents announces committed ledger entries. A nil *LedgerEvents is a no-op.
type LedgerEvents struct {
	publisher events.Publisher
	topic     string
}

// NewLedgerEvents creates a LedgerEvents writing to topic.
func NewLedgerEvents(publisher events.Publisher, topic string) *LedgerEvents {
	return &LedgerEvents{publisher: publisher, topic: topic}
}

// Recorded publishes entry. Delivery failures are logged, never returned:
// the entry is already committed.
func (e *LedgerEvents) Recorded(entry *models.LedgerEntry, investmentID string) {
	if e == nil || e.publisher == nil {
		return
	}
	if err := e.publisher.Publish(e.topic, events.NewLedgerEntryRecorded(entry, investmentID)); err != nil {
		logger.Get().Warnw("failed to publish ledger event",
			"error", err,
			"topic", e.topic,
			"entry_id", entry.ID,
			"account_id", entry.AccountID,
		)
	}
}
