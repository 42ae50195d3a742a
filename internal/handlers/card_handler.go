package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dvsilva/tech-challenge-2/internal/middleware"
	"github.com/dvsilva/tech-challenge-2/internal/services"
)

// CardHandler handles card requests for the caller's account.
type CardHandler struct {
	cardService  services.CardServicer
	auditService services.AuditServicer
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(cardService services.CardServicer, auditService services.AuditServicer) *CardHandler {
	return &CardHandler{cardService: cardService, auditService: auditService}
}

// CreateCard issues a new card
// @Summary     Create card
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.CardInput true "Card details"
// @Success     201 {object} models.Card
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /cards [post]
func (h *CardHandler) CreateCard(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.CardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	card, err := h.cardService.CreateCard(accountID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "CREATE_CARD", "card", card.ID, c.ClientIP(),
		map[string]interface{}{"type": card.Type, "functions": card.Functions})

	c.JSON(http.StatusCreated, gin.H{"card": card})
}

// GetCards lists the account's cards
// @Summary     List cards
// @Tags        cards
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Card
// @Router      /cards [get]
func (h *CardHandler) GetCards(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cards, err := h.cardService.GetCards(accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

// GetCard returns one card
// @Summary     Get card by ID
// @Tags        cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     200 {object} models.Card
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /cards/{id} [get]
func (h *CardHandler) GetCard(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.cardService.GetCardByID(accountID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"card": card})
}

// UpdateCard edits a card
// @Summary     Update card
// @Tags        cards
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Card ID"
// @Param       request body services.UpdateCardInput true "Fields to change"
// @Success     200 {object} models.Card
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /cards/{id} [put]
func (h *CardHandler) UpdateCard(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req services.UpdateCardInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	card, err := h.cardService.UpdateCard(accountID, c.Param("id"), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "UPDATE_CARD", "card", card.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"card": card})
}

// DeleteCard removes a card
// @Summary     Delete card
// @Tags        cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /cards/{id} [delete]
func (h *CardHandler) DeleteCard(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cardID := c.Param("id")
	if err := h.cardService.DeleteCard(accountID, cardID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "DELETE_CARD", "card", cardID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Card deleted successfully"})
}

// ToggleBlock flips the card's blocked flag
// @Summary     Block or unblock card
// @Tags        cards
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Card ID"
// @Success     200 {object} models.Card
// @Failure     404 {object} ErrorResponse "Card not found"
// @Router      /cards/{id}/toggle-block [patch]
func (h *CardHandler) ToggleBlock(c *gin.Context) {
	accountID, err := getAccountID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	card, err := h.cardService.ToggleBlock(accountID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.GetString(middleware.ContextUserID), "TOGGLE_CARD_BLOCK", "card", card.ID, c.ClientIP(),
		map[string]interface{}{"is_blocked": card.IsBlocked})

	c.JSON(http.StatusOK, gin.H{"card": card})
}
