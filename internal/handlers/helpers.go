package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
	"github.com/dvsilva/tech-challenge-2/internal/logger"
	"github.com/dvsilva/tech-challenge-2/internal/middleware"
)

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse is a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// getUserID extracts the authenticated user ID from the Gin context.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.ContextUserID)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// getAccountID extracts the authenticated caller's account ID.
func getAccountID(c *gin.Context) (string, error) {
	accountID := c.GetString(middleware.ContextAccountID)
	if accountID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return accountID, nil
}

// bindError turns a binding failure into a VALIDATION_ERROR.
func bindError(err error) error {
	return apperrors.Validation(err.Error())
}

// respondWithError writes a consistent JSON error response. AppErrors keep
// their status, code and message; anything else is logged and reported as
// INTERNAL_ERROR.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		appErr = apperrors.ErrInternalServer
	} else if appErr.Internal != nil {
		logger.Get().Errorw("app error",
			"code", appErr.Code,
			"internal", appErr.Internal.Error(),
			"path", c.Request.URL.Path,
		)
	}

	c.JSON(appErr.StatusCode, ErrorResponse{Error: ErrorDetail{Code: appErr.Code, Message: appErr.Message}})
}

const dateOnly = "2006-01-02"

// parseFlexibleTime accepts RFC 3339 or YYYY-MM-DD. A date-only value is the
// start of that day in UTC, or its last instant when endOfDay is set.
func parseFlexibleTime(param, raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation(dateOnly, raw, time.UTC)
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("%s must be a date (YYYY-MM-DD) or RFC 3339 timestamp", param))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

// parseDecimalQuery reads an optional decimal query parameter.
func parseDecimalQuery(c *gin.Context, param string) (*decimal.Decimal, error) {
	raw := c.Query(param)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, apperrors.Validation(param + " must be a number")
	}
	return &d, nil
}
