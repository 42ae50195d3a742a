package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dvsilva/tech-challenge-2/internal/services"
)

// AccountHandler serves the caller's account overview.
type AccountHandler struct {
	accountService services.AccountServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// GetAccount returns the account with its balance, latest transactions and cards
// @Summary     Account overview
// @Tags        account
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.AccountOverview
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /account [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	overview, err := h.accountService.GetAccountOverview(accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}
