package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
	"github.com/dvsilva/tech-challenge-2/internal/logger"
	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/pagination"
	"github.com/dvsilva/tech-challenge-2/internal/repository"
)

// transactionService handles ledger entry business logic.
type transactionService struct {
	ledger repository.LedgerRepository
	events *LedgerEvents
	now    func() time.Time
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, ledgerEvents *LedgerEvents) TransactionServicer {
	return &transactionService{
		ledger: repository.NewLedgerRepository(db),
		events: ledgerEvents,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// normalizeAmount applies the sign convention of well-known types:
// transfers leave the account, exchanges and loans arrive.
func normalizeAmount(entryType string, amount decimal.Decimal) decimal.Decimal {
	switch entryType {
	case models.LedgerTypeTransfer:
		return amount.Abs().Neg()
	case models.LedgerTypeExchange, models.LedgerTypeLoan:
		return amount.Abs()
	default:
		return amount
	}
}

// CreateTransaction records a generic entry on the account.
func (s *transactionService) CreateTransaction(accountID string, in CreateTransactionInput) (*models.LedgerEntry, error) {
	entryType := strings.TrimSpace(in.Type)
	if entryType == "" {
		return nil, apperrors.Validation("type is required")
	}
	if in.Amount.IsZero() {
		return nil, apperrors.Validation("amount must not be zero")
	}
	if err := validateMoney("amount", in.Amount); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.From) == "" || strings.TrimSpace(in.To) == "" {
		return nil, apperrors.Validation("from and to are required")
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	date := s.now()
	if in.Date != nil {
		date = in.Date.UTC()
	}

	entry := &models.LedgerEntry{
		AccountID:   accountID,
		Type:        entryType,
		Amount:      normalizeAmount(entryType, in.Amount),
		From:        in.From,
		To:          in.To,
		Description: in.Description,
		Attachment:  in.Attachment,
		Date:        date,
	}
	if err := s.ledger.Create(entry); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	s.events.Recorded(entry, "")
	logger.Get().Infow("Transaction created",
		"entry_id", entry.ID,
		"account_id", accountID,
		"type", entry.Type,
		"amount", entry.Amount.String(),
	)
	return entry, nil
}

// GetTransactionByID returns an entry of the account.
func (s *transactionService) GetTransactionByID(accountID, transactionID string) (*models.LedgerEntry, error) {
	entry, err := s.ledger.FindByID(transactionID)
	if err != nil {
		return nil, storeError(err, apperrors.ErrTransactionNotFound)
	}
	if entry.AccountID != accountID {
		return nil, apperrors.ErrTransactionNotFound
	}
	return entry, nil
}

// UpdateTransaction applies the non-nil fields to an entry of the account.
func (s *transactionService) UpdateTransaction(accountID, transactionID string, in UpdateTransactionInput) (*models.LedgerEntry, error) {
	entry, err := s.GetTransactionByID(accountID, transactionID)
	if err != nil {
		return nil, err
	}

	if in.Type != nil {
		t := strings.TrimSpace(*in.Type)
		if t == "" {
			return nil, apperrors.Validation("type cannot be empty")
		}
		entry.Type = t
	}
	if in.Amount != nil {
		if in.Amount.IsZero() {
			return nil, apperrors.Validation("amount must not be zero")
		}
		if err := validateMoney("amount", *in.Amount); err != nil {
			return nil, err
		}
		entry.Amount = *in.Amount
	}
	if in.Type != nil && in.Amount != nil {
		entry.Amount = normalizeAmount(entry.Type, entry.Amount)
	}
	if in.From != nil {
		entry.From = *in.From
	}
	if in.To != nil {
		entry.To = *in.To
	}
	if in.Description != nil {
		if err := validateDescription(*in.Description); err != nil {
			return nil, err
		}
		entry.Description = *in.Description
	}
	if in.Attachment != nil {
		entry.Attachment = *in.Attachment
	}
	if in.Date != nil {
		entry.Date = in.Date.UTC()
	}

	if err := s.ledger.Update(entry); err != nil {
		return nil, storeError(err, apperrors.ErrTransactionNotFound)
	}
	updated, err := s.ledger.FindByID(entry.ID)
	if err != nil {
		return nil, storeError(err, apperrors.ErrTransactionNotFound)
	}
	return updated, nil
}

// DeleteTransaction removes an entry of the account.
func (s *transactionService) DeleteTransaction(accountID, transactionID string) error {
	entry, err := s.GetTransactionByID(accountID, transactionID)
	if err != nil {
		return err
	}
	if err := s.ledger.Delete(entry.ID); err != nil {
		return storeError(err, apperrors.ErrTransactionNotFound)
	}
	logger.Get().Infow("Transaction deleted", "entry_id", entry.ID, "account_id", accountID)
	return nil
}

// GetStatement returns one page of the account's entries. Callers may only
// read their own account.
func (s *transactionService) GetStatement(callerAccountID, accountID string, q StatementQuery) (*Statement, error) {
	if callerAccountID == "" || callerAccountID != accountID {
		return nil, apperrors.ErrAccessDenied
	}

	if q.Page.Page < 0 {
		return nil, apperrors.Validation("page must be greater than or equal to 1")
	}
	if q.Page.Limit < 0 || q.Page.Limit > pagination.MaxLimit {
		return nil, apperrors.Validation(fmt.Sprintf("limit must be between 1 and %d", pagination.MaxLimit))
	}
	if q.SortBy == "" {
		q.SortBy = "date"
	}
	if !repository.IsStatementSortField(q.SortBy) {
		return nil, apperrors.Validation("sort_by must be one of: date, amount, type, from, to, description")
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
	if q.SortOrder != "asc" && q.SortOrder != "desc" {
		return nil, apperrors.Validation("sort_order must be one of: asc, desc")
	}
	if q.StartDate != nil && q.EndDate != nil && q.EndDate.Before(*q.StartDate) {
		return nil, apperrors.Validation("end_date must not be before start_date")
	}
	if q.MinValue != nil && q.MaxValue != nil && q.MaxValue.LessThan(*q.MinValue) {
		return nil, apperrors.Validation("max_value must not be less than min_value")
	}
	q.Page.Defaults()

	entries, total, err := s.ledger.Query(accountID, repository.StatementFilter{
		StartDate:   q.StartDate,
		EndDate:     q.EndDate,
		Type:        q.Type,
		From:        q.From,
		To:          q.To,
		Description: q.Description,
		Attachment:  q.Attachment,
		MinValue:    q.MinValue,
		MaxValue:    q.MaxValue,
		SortBy:      q.SortBy,
		SortOrder:   q.SortOrder,
		Page:        q.Page,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	return &Statement{
		Entries:    entries,
		Pagination: pagination.NewMeta(q.Page, total),
	}, nil
}
