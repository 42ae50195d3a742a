package services

import (
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
	"github.com/dvsilva/tech-challenge-2/internal/logger"
	"github.com/dvsilva/tech-challenge-2/internal/models"
)

// seedService loads and removes the demo dataset.
type seedService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSeedService creates a new SeedServicer.
func NewSeedService(db *gorm.DB) SeedServicer {
	return &seedService{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// FormatBRL renders amount as Brazilian reais, e.g. "R$1.234,56".
func FormatBRL(amount decimal.Decimal) string {
	cur := money.GetCurrency(money.BRL)
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), money.BRL).Display()
}

// Initialize seeds the demo dataset. Without force it does nothing when any
// user exists; with force it clears every table first.
func (s *seedService) Initialize(force bool) (*SeedResult, error) {
	var users int64
	if err := s.db.Model(&models.User{}).Count(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	if users > 0 && !force {
		logger.Get().Infow("Database already initialized, skipping seed", "users", users)
		return &SeedResult{Skipped: true}, nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := s.now()
	result := &SeedResult{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if force {
			if err := clearTables(tx); err != nil {
				return err
			}
		}
		for i, du := range demoUsers {
			if err := seedUser(tx, du, i, string(hashed), now, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	logger.Get().Infow("Database seeded",
		"users", result.Users,
		"accounts", result.Accounts,
		"cards", result.Cards,
		"transactions", result.Transactions,
		"investments", result.Investments,
	)
	return result, nil
}

func seedUser(tx *gorm.DB, du demoUser, index int, passwordHash string, now time.Time, result *SeedResult) error {
	user := &models.User{
		Name:     du.Name,
		Username: du.Name,
		Email:    du.Email,
		Password: passwordHash,
		Settings: models.DefaultUserSettings(),
	}
	if err := tx.Create(user).Error; err != nil {
		return err
	}
	result.Users++

	account := &models.Account{
		UserID:        user.ID,
		AccountNumber: fmt.Sprintf("AC-%06d", index+1),
		Type:          models.AccountTypeDebit,
	}
	if err := tx.Create(account).Error; err != nil {
		return err
	}
	result.Accounts++

	card := &models.Card{
		AccountID: account.ID,
		Type:      welcomeCardType,
		Number:    du.Card,
		DueDate:   welcomeCardDueDate,
		Functions: welcomeCardFunctions,
		CVC:       fmt.Sprintf("%03d", 100+index),
		Name:      du.Name,
	}
	if err := tx.Create(card).Error; err != nil {
		return err
	}
	result.Cards++

	for _, de := range du.Entries {
		entry := &models.LedgerEntry{
			AccountID:   account.ID,
			Type:        de.Type,
			Amount:      mustDecimal(de.Amount),
			From:        de.From,
			To:          de.To,
			Description: de.Description,
			Date:        now.AddDate(0, 0, -de.DaysAgo),
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		result.Transactions++
	}

	for _, di := range du.Investments {
		inv := &models.Investment{
			AccountID:    account.ID,
			Type:         models.InvestmentType(di.Type),
			Category:     models.InvestmentCategory(di.Category),
			Subtype:      di.Subtype,
			Name:         di.Name,
			Value:        mustDecimal(di.Value),
			InitialValue: mustDecimal(di.InitialValue),
			CurrentYield: mustDecimal(di.Yield),
			RiskLevel:    models.RiskLevel(di.Risk),
			PurchaseDate: now.AddDate(0, 0, -di.DaysAgo),
			Version:      1,
		}
		if di.MaturesIn > 0 {
			m := now.AddDate(0, 0, di.MaturesIn)
			inv.MaturityDate = &m
		}
		if err := tx.Create(inv).Error; err != nil {
			return err
		}
		result.Investments++
	}
	return nil
}

// clearTables deletes every row, children first.
func clearTables(tx *gorm.DB) error {
	for _, model := range []interface{}{
		&models.AuditLog{},
		&models.LedgerEntry{},
		&models.Investment{},
		&models.Card{},
		&models.Account{},
		&models.User{},
	} {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

// Stats counts rows per table and totals the money on the ledger and in investments.
func (s *seedService) Stats() (*DatabaseStats, error) {
	stats := &DatabaseStats{}
	counts := []struct {
		model interface{}
		dst   *int64
	}{
		{&models.User{}, &stats.Users},
		{&models.Account{}, &stats.Accounts},
		{&models.Card{}, &stats.Cards},
		{&models.LedgerEntry{}, &stats.Transactions},
		{&models.Investment{}, &stats.Investments},
		{&models.AuditLog{}, &stats.AuditLogs},
	}
	for _, c := range counts {
		if err := s.db.Model(c.model).Count(c.dst).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
		}
	}

	var ledger, invested struct{ Total decimal.Decimal }
	if err := s.db.Model(&models.LedgerEntry{}).Select("COALESCE(SUM(amount), 0) AS total").Scan(&ledger).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	if err := s.db.Model(&models.Investment{}).Select("COALESCE(SUM(value), 0) AS total").Scan(&invested).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	stats.LedgerTotal = ledger.Total.Round(2)
	stats.InvestedTotal = invested.Total.Round(2)

	logger.Get().Infow("Database stats",
		"users", stats.Users,
		"transactions", stats.Transactions,
		"investments", stats.Investments,
		"ledger_total", FormatBRL(stats.LedgerTotal),
		"invested_total", FormatBRL(stats.InvestedTotal),
	)
	return stats, nil
}

// Clear deletes every row from every table.
func (s *seedService) Clear() error {
	if err := s.db.Transaction(clearTables); err != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	logger.Get().Infow("Database cleared")
	return nil
}
