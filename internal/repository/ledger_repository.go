package repository

import (
	"time"

	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/pagination"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Sortable statement fields mapped to their columns. Anything else is rejected
// before it can reach ORDER BY.
var statementSortColumns = map[string]string{
	"date":        "date",
	"amount":      "amount",
	"type":        "type",
	"from":        "from_label",
	"to":          "to_label",
	"description": "description",
}

// IsStatementSortField reports whether field may be used as sort_by.
func IsStatementSortField(field string) bool {
	_, ok := statementSortColumns[field]
	return ok
}

// StatementFilter is one conjunctive statement query. String filters are
// case-insensitive literal substrings; Type matches exactly.
type StatementFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Type        string
	From        string
	To          string
	Description string
	Attachment  string
	MinValue    *decimal.Decimal
	MaxValue    *decimal.Decimal
	SortBy      string
	SortOrder   string
	Page        pagination.PageRequest
}

// LedgerRepository stores ledger entries.
type LedgerRepository interface {
	Create(entry *models.LedgerEntry) error
	FindByID(id string) (*models.LedgerEntry, error)
	Update(entry *models.LedgerEntry) error
	Delete(id string) error
	DeleteByAccountID(accountID string) error
	Query(accountID string, filter StatementFilter) ([]models.LedgerEntry, int64, error)
	Latest(accountID string, n int) ([]models.LedgerEntry, error)
	Balance(accountID string) (decimal.Decimal, error)
	WithTx(tx *gorm.DB) LedgerRepository
}

type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a GORM-backed LedgerRepository.
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) WithTx(tx *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: tx}
}

func (r *ledgerRepository) Create(entry *models.LedgerEntry) error {
	return r.db.Create(entry).Error
}

func (r *ledgerRepository) FindByID(id string) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	if err := r.db.Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

func (r *ledgerRepository) Update(entry *models.LedgerEntry) error {
	res := r.db.Model(&models.LedgerEntry{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"type":        entry.Type,
			"amount":      entry.Amount,
			"from_label":  entry.From,
			"to_label":    entry.To,
			"description": entry.Description,
			"attachment":  entry.Attachment,
			"date":        entry.Date.UTC(),
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ledgerRepository) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&models.LedgerEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ledgerRepository) DeleteByAccountID(accountID string) error {
	return r.db.Where("account_id = ?", accountID).Delete(&models.LedgerEntry{}).Error
}

// Query returns one page of matching entries and the total match count.
// The count ignores pagination.
func (r *ledgerRepository) Query(accountID string, f StatementFilter) ([]models.LedgerEntry, int64, error) {
	page := f.Page
	page.Defaults()

	base := r.db.Model(&models.LedgerEntry{}).Scopes(statementScope(accountID, f))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := statementSortColumns[f.SortBy]
	if !ok {
		column = "date"
	}
	direction := "DESC"
	if f.SortOrder == "asc" {
		direction = "ASC"
	}

	var entries []models.LedgerEntry
	err := base.Session(&gorm.Session{}).
		Order(column + " " + direction).
		Order("id " + direction).
		Scopes(pagination.Paginate(page)).
		Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}
	return entries, total, nil
}

func (r *ledgerRepository) Latest(accountID string, n int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.Where("account_id = ?", accountID).
		Order("date DESC").Order("id DESC").
		Limit(n).
		Find(&entries).Error
	return entries, err
}

// Balance is the sum of every entry amount on the account.
func (r *ledgerRepository) Balance(accountID string) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := r.db.Model(&models.LedgerEntry{}).
		Where("account_id = ?", accountID).
		Select("COALESCE(SUM(amount), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total.Round(2), nil
}

func statementScope(accountID string, f StatementFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("account_id = ?", accountID)
		if f.StartDate != nil {
			q = q.Where("date >= ?", f.StartDate.UTC())
		}
		if f.EndDate != nil {
			q = q.Where("date <= ?", f.EndDate.UTC())
		}
		if f.Type != "" {
			q = q.Where("type = ?", f.Type)
		}
		q = whereContains(q, "from_label", f.From)
		q = whereContains(q, "to_label", f.To)
		q = whereContains(q, "description", f.Description)
		q = whereContains(q, "attachment", f.Attachment)
		if f.MinValue != nil {
			q = q.Where("amount >= ?", *f.MinValue)
		}
		if f.MaxValue != nil {
			q = q.Where("amount <= ?", *f.MaxValue)
		}
		return q
	}
}
