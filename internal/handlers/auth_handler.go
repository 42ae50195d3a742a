package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
	"github.com/dvsilva/tech-challenge-2/internal/middleware"
	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/services"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	userService    services.UserServicer
	accountService services.AccountServicer
	auditService   services.AuditServicer
	jwtSecret      string
	jwtExpiry      time.Duration
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(userService services.UserServicer, accountService services.AccountServicer, auditService services.AuditServicer, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{
		userService:    userService,
		accountService: accountService,
		auditService:   auditService,
		jwtSecret:      jwtSecret,
		jwtExpiry:      jwtExpiry,
	}
}

// RegisterRequest represents the registration request payload.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Username string `json:"username" binding:"max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginRequest represents the login request payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is returned after a successful sign up.
type RegisterResponse struct {
	Token   string          `json:"token"`
	User    *models.User    `json:"user"`
	Account *models.Account `json:"account"`
	Card    *models.Card    `json:"card"`
}

// LoginResponse carries the bearer token for the authenticated user.
type LoginResponse struct {
	Token     string       `json:"token"`
	AccountID string       `json:"account_id"`
	User      *models.User `json:"user"`
}

// Register handles user registration
// @Summary     Register a new user
// @Description Creates the user together with a debit account and a first card
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} RegisterResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	reg, err := h.userService.Register(req.Name, req.Username, req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateToken(reg.User, reg.Account.ID, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	h.auditService.Log(reg.User.ID, "REGISTER", "user", reg.User.ID, c.ClientIP(), map[string]interface{}{
		"account_number": reg.Account.AccountNumber,
	})

	c.JSON(http.StatusCreated, RegisterResponse{
		Token:   token,
		User:    reg.User,
		Account: reg.Account,
		Card:    reg.Card,
	})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user and get a bearer token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} LoginResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByUserID(user.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := middleware.GenerateToken(user, account.ID, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, AccountID: account.ID, User: user})
}
