package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dvsilva/tech-challenge-2/internal/services"
)

// AdminHandler exposes database administration behind the admin API key.
type AdminHandler struct {
	seedService services.SeedServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(seedService services.SeedServicer) *AdminHandler {
	return &AdminHandler{seedService: seedService}
}

// InitializeRequest is the optional body of POST /database/initialize.
type InitializeRequest struct {
	ForceReset bool `json:"force_reset"`
}

// Initialize seeds the demo dataset
// @Summary     Seed demo data
// @Description Loads the demo users, accounts, cards, transactions and investments. Skips when users exist unless force_reset is set.
// @Tags        database
// @Accept      json
// @Produce     json
// @Security    AdminKey
// @Param       request body InitializeRequest false "Options"
// @Success     200 {object} services.SeedResult
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /database/initialize [post]
func (h *AdminHandler) Initialize(c *gin.Context) {
	var req InitializeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, bindError(err))
			return
		}
	}

	result, err := h.seedService.Initialize(req.ForceReset)
	if err != nil {
		respondWithError(c, err)
		return
	}

	message := "Database initialized successfully"
	if result.Skipped {
		message = "Database already contains data, use force_reset to reseed"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "result": result})
}

// Stats reports row counts and money totals
// @Summary     Database statistics
// @Tags        database
// @Produce     json
// @Security    AdminKey
// @Success     200 {object} services.DatabaseStats
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /database/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.seedService.Stats()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":          stats,
		"ledger_total":   services.FormatBRL(stats.LedgerTotal),
		"invested_total": services.FormatBRL(stats.InvestedTotal),
	})
}

// Clear deletes every row
// @Summary     Clear database
// @Tags        database
// @Produce     json
// @Security    AdminKey
// @Success     200 {object} MessageResponse
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /database/clear [delete]
func (h *AdminHandler) Clear(c *gin.Context) {
	if err := h.seedService.Clear(); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Database cleared successfully"})
}
