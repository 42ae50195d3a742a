package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
)

// Money columns are NUMERIC(18,2); yields are NUMERIC(9,4).
const (
	moneyScale = 2
	yieldScale = 4
)

var (
	maxMoney = decimal.RequireFromString("9999999999999999.99")
	minYield = decimal.NewFromInt(-100)
	maxYield = decimal.RequireFromString("99999.9999")
)

// validateMoney rejects amounts the money columns would round or overflow.
// Trailing zeros are fine: 10.000 is stored exactly as 10.00.
func validateMoney(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Truncate(moneyScale)) {
		return apperrors.Validation(fmt.Sprintf("%s must have at most %d decimal places", field, moneyScale))
	}
	if amount.Abs().GreaterThan(maxMoney) {
		return apperrors.Validation(fmt.Sprintf("%s must not exceed %s", field, maxMoney.StringFixed(moneyScale)))
	}
	return nil
}

func validateYield(yield decimal.Decimal) error {
	if yield.LessThan(minYield) {
		return apperrors.Validation("current_yield must be greater than or equal to -100")
	}
	if !yield.Equal(yield.Truncate(yieldScale)) {
		return apperrors.Validation(fmt.Sprintf("current_yield must have at most %d decimal places", yieldScale))
	}
	if yield.GreaterThan(maxYield) {
		return apperrors.Validation("current_yield must not exceed " + maxYield.String())
	}
	return nil
}
