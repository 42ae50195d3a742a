package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dvsilva/tech-challenge-2/internal/middleware"
	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/repository"
	"github.com/dvsilva/tech-challenge-2/internal/services"
)

// InvestmentHandler handles investment-related requests.
type InvestmentHandler struct {
	investmentService services.InvestmentServicer
	auditService      services.AuditServicer
}

// NewInvestmentHandler creates a new InvestmentHandler.
func NewInvestmentHandler(investmentService services.InvestmentServicer, auditService services.AuditServicer) *InvestmentHandler {
	return &InvestmentHandler{investmentService: investmentService, auditService: auditService}
}

// InvestmentListParams are the filters of GET /investments.
type InvestmentListParams struct {
	Type          string `form:"type" binding:"omitempty,investment_type"`
	Category      string `form:"category" binding:"omitempty,investment_category"`
	Subtype       string `form:"subtype"`
	RiskLevel     string `form:"risk_level" binding:"omitempty,risk_level"`
	PurchasedFrom string `form:"purchased_from"`
	PurchasedTo   string `form:"purchased_to"`
	Matured       string `form:"matured" binding:"omitempty,oneof=true false"`
}

// CreateInvestment handles opening a new investment.
// @Summary     Create investment
// @Description Opens an investment valued at its initial value. No money moves from the account.
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.CreateInvestmentInput true "Investment details"
// @Success     201 {object} services.InvestmentView "Investment created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments [post]
func (h *InvestmentHandler) CreateInvestment(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CreateInvestmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	investment, err := h.investmentService.CreateInvestment(accountID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "CREATE_INVESTMENT", "investment", investment.ID, c.ClientIP(),
		map[string]interface{}{"subtype": investment.Subtype, "initial_value": investment.InitialValue.StringFixed(2)})

	c.JSON(http.StatusCreated, gin.H{"investment": investment})
}

// GetInvestments handles listing the caller's investments.
// @Summary     List investments
// @Description Lists investments with derived metrics and a summary over the filtered set
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       type           query string false "fixed-income or variable-income"
// @Param       category       query string false "fund, private-pension or stock-market"
// @Param       subtype        query string false "Subtype"
// @Param       risk_level     query string false "low, medium or high"
// @Param       purchased_from query string false "Purchase date lower bound"
// @Param       purchased_to   query string false "Purchase date upper bound"
// @Param       min_value      query number false "Minimum current value"
// @Param       max_value      query number false "Maximum current value"
// @Param       matured        query bool   false "Only matured (true) or not yet matured (false)"
// @Success     200 {object} services.InvestmentList
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /investments [get]
func (h *InvestmentHandler) GetInvestments(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var params InvestmentListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	filter := repository.InvestmentFilter{
		Type:      models.InvestmentType(params.Type),
		Category:  models.InvestmentCategory(params.Category),
		Subtype:   params.Subtype,
		RiskLevel: models.RiskLevel(params.RiskLevel),
	}
	if filter.PurchasedFrom, err = parseFlexibleTime("purchased_from", params.PurchasedFrom, false); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.PurchasedTo, err = parseFlexibleTime("purchased_to", params.PurchasedTo, true); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.MinValue, err = parseDecimalQuery(c, "min_value"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.MaxValue, err = parseDecimalQuery(c, "max_value"); err != nil {
		respondWithError(c, err)
		return
	}
	if params.Matured != "" {
		matured, _ := strconv.ParseBool(params.Matured)
		filter.Matured = &matured
	}

	list, err := h.investmentService.GetInvestments(accountID, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// GetInvestment handles retrieving a specific investment.
// @Summary     Get investment by ID
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     200 {object} services.InvestmentView "Investment details"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Router      /investments/{id} [get]
func (h *InvestmentHandler) GetInvestment(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	investment, err := h.investmentService.GetInvestmentByID(accountID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"investment": investment})
}

// UpdateInvestment handles editing an investment.
// @Summary     Update investment
// @Description initial_value, purchase_date and account_id cannot be changed
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                         true "Investment ID"
// @Param       request body services.UpdateInvestmentInput true "Fields to change"
// @Success     200 {object} services.InvestmentView
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Router      /investments/{id} [put]
func (h *InvestmentHandler) UpdateInvestment(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.UpdateInvestmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	investment, err := h.investmentService.UpdateInvestment(accountID, c.Param("id"), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "UPDATE_INVESTMENT", "investment", investment.ID, c.ClientIP(),
		map[string]interface{}{"value": investment.Value.StringFixed(2)})

	c.JSON(http.StatusOK, gin.H{"investment": investment})
}

// DeleteInvestment handles removing an investment.
// @Summary     Delete investment
// @Description Deletes the investment. Private pensions and investments close to maturity carry a warning.
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Investment ID"
// @Success     200 {object} services.DeleteInvestmentResult
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Investment not found"
// @Router      /investments/{id} [delete]
func (h *InvestmentHandler) DeleteInvestment(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.investmentService.DeleteInvestment(accountID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "DELETE_INVESTMENT", "investment", result.ID, c.ClientIP(),
		map[string]interface{}{"name": result.Name, "value": result.Value.StringFixed(2)})

	c.JSON(http.StatusOK, gin.H{"deleted_investment": result, "message": "Investment deleted successfully"})
}

// TransferToInvestment handles moving money from the account into an investment.
// @Summary     Transfer to investment
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.TransferInput true "Investment and amount"
// @Success     200 {object} services.TransferResult
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Investment or account not found"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/transfer [post]
func (h *InvestmentHandler) TransferToInvestment(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.TransferInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.investmentService.TransferToInvestment(accountID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "TRANSFER_TO_INVESTMENT", "investment", result.Investment.ID, c.ClientIP(),
		map[string]interface{}{"amount": result.TransferAmount.StringFixed(2), "transaction_id": result.Transaction.ID})

	c.JSON(http.StatusOK, result)
}

// RedeemInvestment handles moving money from an investment back into the account.
// @Summary     Redeem investment
// @Description Partial redemptions reduce the value; total ones (or redeeming the full value) delete the investment
// @Tags        investments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.RedeemInput true "Investment, amount and redeem type"
// @Success     200 {object} services.RedeemResult
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Access denied"
// @Failure     404 {object} ErrorResponse "Investment or account not found"
// @Failure     409 {object} ErrorResponse "Concurrent modification"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /investments/redeem [post]
func (h *InvestmentHandler) RedeemInvestment(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.RedeemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	result, err := h.investmentService.RedeemInvestment(accountID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "REDEEM_INVESTMENT", "investment", req.InvestmentID, c.ClientIP(),
		map[string]interface{}{"amount": result.RedeemedAmount.StringFixed(2), "redeem_type": result.RedeemType})

	c.JSON(http.StatusOK, result)
}

// GetInvestmentTypes returns the investment taxonomy.
// @Summary     Investment taxonomy
// @Tags        investments
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} taxonomy.Catalog
// @Router      /investments/types [get]
func (h *InvestmentHandler) GetInvestmentTypes(c *gin.Context) {
	c.JSON(http.StatusOK, h.investmentService.GetInvestmentTypes())
}
