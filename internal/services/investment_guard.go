package services

import (
	"errors"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/repository"
	"github.com/dvsilva/tech-challenge-2/internal/uuid"
)

// authorizeInvestment loads an investment and checks it belongs to accountID.
// It runs before any business validation, so a foreign investment always
// yields ACCESS_DENIED no matter what else is wrong with the request.
func authorizeInvestment(repo repository.InvestmentRepository, investmentID, accountID string) (*models.Investment, error) {
	if !uuid.IsValid(investmentID) {
		return nil, apperrors.ErrInvestmentNotFound
	}
	inv, err := repo.FindByID(investmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrInvestmentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	if inv.AccountID != accountID {
		return nil, apperrors.ErrAccessDenied
	}
	return inv, nil
}
