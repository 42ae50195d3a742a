package repository

import (
	"time"

	"github.com/dvsilva/tech-challenge-2/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvestmentFilter narrows FindByAccountID and Aggregate. Zero values are ignored.
type InvestmentFilter struct {
	Type          models.InvestmentType
	Category      models.InvestmentCategory
	Subtype       string
	RiskLevel     models.RiskLevel
	PurchasedFrom *time.Time
	PurchasedTo   *time.Time
	MinValue      *decimal.Decimal
	MaxValue      *decimal.Decimal
	Matured       *bool
	Now           time.Time
}

// CategoryAggregate is the per-category slice of an InvestmentAggregate.
type CategoryAggregate struct {
	Category          models.InvestmentCategory `json:"category"`
	TotalValue        decimal.Decimal           `json:"total_value"`
	TotalInitialValue decimal.Decimal           `json:"total_initial_value"`
	Count             int64                     `json:"count"`
	AverageYield      decimal.Decimal           `json:"average_yield"`
}

// InvestmentAggregate holds totals computed in SQL over a filtered set.
type InvestmentAggregate struct {
	TotalValue        decimal.Decimal     `json:"total_value"`
	TotalInitialValue decimal.Decimal     `json:"total_initial_value"`
	Count             int64               `json:"count"`
	ByCategory        []CategoryAggregate `json:"by_category"`
}

// InvestmentRepository stores investments.
type InvestmentRepository interface {
	Save(inv *models.Investment) error
	FindByID(id string) (*models.Investment, error)
	FindByAccountID(accountID string, filter InvestmentFilter) ([]models.Investment, error)
	Update(id string, expectedVersion int, fields map[string]interface{}) (*models.Investment, error)
	UpdateValue(inv *models.Investment, newValue decimal.Decimal) error
	Delete(id string) error
	DeleteVersioned(id string, expectedVersion int) error
	DeleteByAccountID(accountID string) error
	Aggregate(accountID string, filter InvestmentFilter) (*InvestmentAggregate, error)
	WithTx(tx *gorm.DB) InvestmentRepository
}

type investmentRepository struct {
	db *gorm.DB
}

// NewInvestmentRepository creates a GORM-backed InvestmentRepository.
func NewInvestmentRepository(db *gorm.DB) InvestmentRepository {
	return &investmentRepository{db: db}
}

func (r *investmentRepository) WithTx(tx *gorm.DB) InvestmentRepository {
	return &investmentRepository{db: tx}
}

func (r *investmentRepository) Save(inv *models.Investment) error {
	if inv.Version == 0 {
		inv.Version = 1
	}
	return r.db.Create(inv).Error
}

func (r *investmentRepository) FindByID(id string) (*models.Investment, error) {
	var inv models.Investment
	if err := r.db.Where("id = ?", id).First(&inv).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (r *investmentRepository) FindByAccountID(accountID string, filter InvestmentFilter) ([]models.Investment, error) {
	var out []models.Investment
	err := r.db.Model(&models.Investment{}).
		Scopes(investmentScope(accountID, filter)).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Update writes fields and bumps the version, provided nobody else did first.
func (r *investmentRepository) Update(id string, expectedVersion int, fields map[string]interface{}) (*models.Investment, error) {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = gorm.Expr("version + 1")
	updates["updated_at"] = time.Now().UTC()

	res := r.db.Model(&models.Investment{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(id); err != nil {
			return nil, err
		}
		return nil, ErrStaleVersion
	}
	return r.FindByID(id)
}

// UpdateValue sets value with a compare-and-set on inv.Version. On success
// inv reflects the stored row.
func (r *investmentRepository) UpdateValue(inv *models.Investment, newValue decimal.Decimal) error {
	now := time.Now().UTC()
	res := r.db.Model(&models.Investment{}).
		Where("id = ? AND version = ?", inv.ID, inv.Version).
		Updates(map[string]interface{}{
			"value":      newValue,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	inv.Value = newValue
	inv.Version++
	inv.UpdatedAt = now
	return nil
}

func (r *investmentRepository) Delete(id string) error {
	res := r.db.Where("id = ?", id).Delete(&models.Investment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVersioned removes the row only if it still carries expectedVersion.
func (r *investmentRepository) DeleteVersioned(id string, expectedVersion int) error {
	res := r.db.Where("id = ? AND version = ?", id, expectedVersion).Delete(&models.Investment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.FindByID(id); err != nil {
			return err
		}
		return ErrStaleVersion
	}
	return nil
}

func (r *investmentRepository) DeleteByAccountID(accountID string) error {
	return r.db.Where("account_id = ?", accountID).Delete(&models.Investment{}).Error
}

func (r *investmentRepository) Aggregate(accountID string, filter InvestmentFilter) (*InvestmentAggregate, error) {
	var totals struct {
		TotalValue        decimal.Decimal
		TotalInitialValue decimal.Decimal
		Count             int64
	}
	err := r.db.Model(&models.Investment{}).
		Scopes(investmentScope(accountID, filter)).
		Select("COALESCE(SUM(value), 0) AS total_value, " +
			"COALESCE(SUM(initial_value), 0) AS total_initial_value, " +
			"COUNT(*) AS count").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var rows []CategoryAggregate
	err = r.db.Model(&models.Investment{}).
		Scopes(investmentScope(accountID, filter)).
		Select("category, " +
			"COALESCE(SUM(value), 0) AS total_value, " +
			"COALESCE(SUM(initial_value), 0) AS total_initial_value, " +
			"COUNT(*) AS count, " +
			"COALESCE(AVG(current_yield), 0) AS average_yield").
		Group("category").
		Order("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for i := range rows {
		rows[i].TotalValue = rows[i].TotalValue.Round(2)
		rows[i].TotalInitialValue = rows[i].TotalInitialValue.Round(2)
		rows[i].AverageYield = rows[i].AverageYield.Round(2)
	}
	if rows == nil {
		rows = []CategoryAggregate{}
	}

	return &InvestmentAggregate{
		TotalValue:        totals.TotalValue.Round(2),
		TotalInitialValue: totals.TotalInitialValue.Round(2),
		Count:             totals.Count,
		ByCategory:        rows,
	}, nil
}

func investmentScope(accountID string, f InvestmentFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("account_id = ?", accountID)
		if f.Type != "" {
			q = q.Where("type = ?", f.Type)
		}
		if f.Category != "" {
			q = q.Where("category = ?", f.Category)
		}
		if f.Subtype != "" {
			q = q.Where("subtype = ?", f.Subtype)
		}
		if f.RiskLevel != "" {
			q = q.Where("risk_level = ?", f.RiskLevel)
		}
		if f.PurchasedFrom != nil {
			q = q.Where("purchase_date >= ?", f.PurchasedFrom.UTC())
		}
		if f.PurchasedTo != nil {
			q = q.Where("purchase_date <= ?", f.PurchasedTo.UTC())
		}
		if f.MinValue != nil {
			q = q.Where("value >= ?", *f.MinValue)
		}
		if f.MaxValue != nil {
			q = q.Where("value <= ?", *f.MaxValue)
		}
		if f.Matured != nil {
			now := f.Now
			if now.IsZero() {
				now = time.Now()
			}
			now = now.UTC()
			if *f.Matured {
				q = q.Where("maturity_date IS NOT NULL AND maturity_date <= ?", now)
			} else {
				q = q.Where("(maturity_date IS NULL OR maturity_date > ?)", now)
			}
		}
		return q
	}
}
