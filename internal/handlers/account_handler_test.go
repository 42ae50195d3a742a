package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/services"
)

func TestAccountHandler_GetAccount(t *testing.T) {
	setup := func(svc *mockAccountService) *gin.Engine {
		r := gin.New()
		r.GET("/account", injectIdentity(testUserID, testAccountID), NewAccountHandler(svc).GetAccount)
		return r
	}

	t.Run("returns overview for the caller's account", func(t *testing.T) {
		var gotID string
		svc := &mockAccountService{
			getOverviewFn: func(accountID string) (*services.AccountOverview, error) {
				gotID = accountID
				return &services.AccountOverview{
					Account:      &models.Account{Base: models.Base{ID: accountID}, AccountNumber: "AC-000001"},
					Balance:      decimal.RequireFromString("1500.25"),
					Transactions: []models.LedgerEntry{},
					Cards:        []models.Card{},
				}, nil
			},
		}

		rec := doRequest(setup(svc), "GET", "/account", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotID != testAccountID {
			t.Errorf("expected %s, got %s", testAccountID, gotID)
		}
		result := parseJSON(t, rec)
		if result["balance"] != "1500.25" {
			t.Errorf("expected balance \"1500.25\", got %v", result["balance"])
		}
	})

	t.Run("returns 404 when the account is gone", func(t *testing.T) {
		svc := &mockAccountService{
			getOverviewFn: func(_ string) (*services.AccountOverview, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}

		rec := doRequest(setup(svc), "GET", "/account", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})
}
