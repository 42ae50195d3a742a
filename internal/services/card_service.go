package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
	"github.com/dvsilva/tech-challenge-2/internal/models"
)

// cardService handles card-related business logic. Every operation is
// scoped to the caller's account.
type cardService struct {
	db *gorm.DB
}

// NewCardService creates a new CardServicer.
func NewCardService(db *gorm.DB) CardServicer {
	return &cardService{db: db}
}

// CreateCard issues a card on the account.
func (s *cardService) CreateCard(accountID string, in CardInput) (*models.Card, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, apperrors.Validation("name is required")
	}

	card := &models.Card{
		AccountID:   accountID,
		Type:        in.Type,
		Number:      in.Number,
		DueDate:     in.DueDate.UTC(),
		Functions:   in.Functions,
		CVC:         in.CVC,
		PaymentDate: in.PaymentDate,
		Name:        strings.TrimSpace(in.Name),
	}
	if err := s.db.Create(card).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return card, nil
}

// GetCards lists the account's cards, oldest first.
func (s *cardService) GetCards(accountID string) ([]models.Card, error) {
	cards := []models.Card{}
	if err := s.db.Where("account_id = ?", accountID).Order("created_at ASC").Find(&cards).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return cards, nil
}

// GetCardByID retrieves a card owned by the account.
func (s *cardService) GetCardByID(accountID, cardID string) (*models.Card, error) {
	var card models.Card
	if err := s.db.Where("id = ? AND account_id = ?", cardID, accountID).First(&card).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCardNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return &card, nil
}

// UpdateCard applies the non-nil fields of in.
func (s *cardService) UpdateCard(accountID, cardID string, in UpdateCardInput) (*models.Card, error) {
	card, err := s.GetCardByID(accountID, cardID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Type != nil {
		updates["type"] = *in.Type
	}
	if in.DueDate != nil {
		updates["due_date"] = in.DueDate.UTC()
	}
	if in.Functions != nil {
		updates["functions"] = *in.Functions
	}
	if in.PaymentDate != nil {
		updates["payment_date"] = in.PaymentDate.UTC()
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("name cannot be empty")
		}
		updates["name"] = name
	}
	if in.IsBlocked != nil {
		updates["is_blocked"] = *in.IsBlocked
	}
	if len(updates) == 0 {
		return card, nil
	}

	if err := s.db.Model(card).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	return s.GetCardByID(accountID, cardID)
}

// DeleteCard removes a card owned by the account.
func (s *cardService) DeleteCard(accountID, cardID string) error {
	res := s.db.Where("id = ? AND account_id = ?", cardID, accountID).Delete(&models.Card{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrCardNotFound
	}
	return nil
}

// ToggleBlock flips the card's blocked flag.
func (s *cardService) ToggleBlock(accountID, cardID string) (*models.Card, error) {
	res := s.db.Model(&models.Card{}).
		Where("id = ? AND account_id = ?", cardID, accountID).
		Update("is_blocked", gorm.Expr("NOT is_blocked"))
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.ErrCardNotFound
	}
	return s.GetCardByID(accountID, cardID)
}
