package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
	"github.com/dvsilva/tech-challenge-2/internal/middleware"
	"github.com/dvsilva/tech-challenge-2/internal/pagination"
	"github.com/dvsilva/tech-challenge-2/internal/services"
)

// TransactionHandler handles ledger entries and statements.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// StatementParams are the query parameters of a statement request.
type StatementParams struct {
	pagination.PageParams
	StartDate   string `form:"start_date"`
	EndDate     string `form:"end_date"`
	Type        string `form:"type"`
	From        string `form:"from"`
	To          string `form:"to"`
	Description string `form:"description"`
	Attachment  string `form:"attachment"`
	SortBy      string `form:"sort_by" binding:"omitempty,sort_field"`
	SortOrder   string `form:"sort_order" binding:"omitempty,sort_order"`
}

// CreateTransaction records a ledger entry
// @Summary     Create transaction
// @Description Amounts are normalized by type: transfer is always negative, exchange and loan always positive
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.CreateTransactionInput true "Transaction details"
// @Success     201 {object} models.LedgerEntry
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CreateTransactionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	entry, err := h.transactionService.CreateTransaction(accountID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "CREATE_TRANSACTION", "transaction", entry.ID, c.ClientIP(),
		map[string]interface{}{"type": entry.Type, "amount": entry.Amount.StringFixed(2)})

	c.JSON(http.StatusCreated, gin.H{"transaction": entry})
}

// GetTransaction returns one ledger entry
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.LedgerEntry
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.transactionService.GetTransactionByID(accountID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": entry})
}

// UpdateTransaction edits a ledger entry
// @Summary     Update transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                          true "Transaction ID"
// @Param       request body services.UpdateTransactionInput true "Fields to change"
// @Success     200 {object} models.LedgerEntry
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.UpdateTransactionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	entry, err := h.transactionService.UpdateTransaction(accountID, c.Param("id"), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "UPDATE_TRANSACTION", "transaction", entry.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": entry})
}

// DeleteTransaction removes a ledger entry
// @Summary     Delete transaction
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID := c.Param("id")
	if err := h.transactionService.DeleteTransaction(accountID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

// GetStatement returns a filtered, sorted page of the account's ledger
// @Summary     Account statement
// @Description Text filters match case-insensitive substrings. A date-only end_date covers the whole day.
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       accountId   path  string false "Account ID"
// @Param       start_date  query string false "Inclusive lower bound (YYYY-MM-DD or RFC 3339)"
// @Param       end_date    query string false "Inclusive upper bound (YYYY-MM-DD or RFC 3339)"
// @Param       type        query string false "Exact transaction type"
// @Param       from        query string false "Substring of the source"
// @Param       to          query string false "Substring of the destination"
// @Param       description query string false "Substring of the description"
// @Param       attachment  query string false "Substring of the attachment"
// @Param       min_value   query number false "Minimum amount"
// @Param       max_value   query number false "Maximum amount"
// @Param       page        query int    false "Page number (default 1)"
// @Param       limit       query int    false "Items per page (default 10, max 100)"
// @Param       sort_by     query string false "date, amount, type, from, to or description (default date)"
// @Param       sort_order  query string false "asc or desc (default desc)"
// @Success     200 {object} services.Statement
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Router      /accounts/{accountId}/statement [get]
func (h *TransactionHandler) GetStatement(c *gin.Context) {
	callerAccountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID := c.Param("accountId")
	if accountID != callerAccountID {
		respondWithError(c, apperrors.ErrAccessDenied)
		return
	}

	var params StatementParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	q := services.StatementQuery{
		Type:        params.Type,
		From:        params.From,
		To:          params.To,
		Description: params.Description,
		Attachment:  params.Attachment,
		SortBy:      params.SortBy,
		SortOrder:   params.SortOrder,
		Page:        params.Request(),
	}
	if q.StartDate, err = parseFlexibleTime("start_date", params.StartDate, false); err != nil {
		respondWithError(c, err)
		return
	}
	if q.EndDate, err = parseFlexibleTime("end_date", params.EndDate, true); err != nil {
		respondWithError(c, err)
		return
	}
	if q.MinValue, err = parseDecimalQuery(c, "min_value"); err != nil {
		respondWithError(c, err)
		return
	}
	if q.MaxValue, err = parseDecimalQuery(c, "max_value"); err != nil {
		respondWithError(c, err)
		return
	}

	statement, err := h.transactionService.GetStatement(callerAccountID, accountID, q)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, statement)
}
