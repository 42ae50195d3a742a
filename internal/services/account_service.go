package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/repository"
)

// overviewTransactions is how many recent entries GetAccountOverview returns.
const overviewTransactions = 10

// accountService handles account-related business logic.
type accountService struct {
	db     *gorm.DB
	ledger repository.LedgerRepository
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db, ledger: repository.NewLedgerRepository(db)}
}

// GetAccountByID retrieves an account by ID.
func (s *accountService) GetAccountByID(accountID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return &account, nil
}

// GetAccountByUserID retrieves the account owned by a user.
func (s *accountService) GetAccountByUserID(userID string) (*models.Account, error) {
	var account models.Account
	if err := s.db.Where("user_id = ?", userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return &account, nil
}

// GetAccountOverview returns the account with its derived balance, latest
// entries and cards.
func (s *accountService) GetAccountOverview(accountID string) (*AccountOverview, error) {
	account, err := s.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.Balance(accountID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	latest, err := s.ledger.Latest(accountID, overviewTransactions)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	if latest == nil {
		latest = []models.LedgerEntry{}
	}

	cards := []models.Card{}
	if err := s.db.Where("account_id = ?", accountID).Order("created_at ASC").Find(&cards).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	return &AccountOverview{
		Account:      account,
		Balance:      balance,
		Transactions: latest,
		Cards:        cards,
	}, nil
}
