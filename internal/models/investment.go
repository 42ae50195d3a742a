package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentType is the top level of the investment taxonomy.
type InvestmentType string

const (
	InvestmentTypeFixedIncome    InvestmentType = "fixed-income"
	InvestmentTypeVariableIncome InvestmentType = "variable-income"
)

// InvestmentCategory is the second level of the investment taxonomy.
type InvestmentCategory string

const (
	InvestmentCategoryFund           InvestmentCategory = "investment-fund"
	InvestmentCategoryPrivatePension InvestmentCategory = "private-pension"
	InvestmentCategoryStockMarket    InvestmentCategory = "stock-market"
)

// RiskLevel classifies an investment's risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Investment is a position held by an account. Value moves with transfers
// and redemptions; InitialValue and PurchaseDate never change after creation.
type Investment struct {
	Base
	AccountID    string             `gorm:"type:uuid;not null;index" json:"account_id"`
	Type         InvestmentType     `gorm:"not null" json:"type"`
	Category     InvestmentCategory `gorm:"not null" json:"category"`
	Subtype      string             `gorm:"not null" json:"subtype"`
	Name         string             `gorm:"not null" json:"name"`
	Value        decimal.Decimal    `gorm:"type:numeric(18,2);not null" json:"value"`
	InitialValue decimal.Decimal    `gorm:"type:numeric(18,2);not null" json:"initial_value"`
	CurrentYield decimal.Decimal    `gorm:"type:numeric(9,4);not null;default:0" json:"current_yield"`
	RiskLevel    RiskLevel          `gorm:"not null" json:"risk_level"`
	PurchaseDate time.Time          `gorm:"not null" json:"purchase_date"`
	MaturityDate *time.Time         `json:"maturity_date,omitempty"`
	Version      int                `gorm:"not null;default:1" json:"version"`
}

// Ledger entry types written by investment movements.
const (
	LedgerTypeInvestmentTransfer   = "investment-transfer"
	LedgerTypeInvestmentRedemption = "investment-redemption"
)
