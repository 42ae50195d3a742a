package services

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/pagination"
	"github.com/dvsilva/tech-challenge-2/internal/repository"
	"github.com/dvsilva/tech-challenge-2/internal/taxonomy"
)

// Registration is everything created when a user signs up.
type Registration struct {
	User    *models.User    `json:"user"`
	Account *models.Account `json:"account"`
	Card    *models.Card    `json:"card"`
}

// UpdateUserInput holds the editable profile fields. Nil means unchanged.
type UpdateUserInput struct {
	Name     *string `json:"name"`
	Username *string `json:"username"`
	Email    *string `json:"email" binding:"omitempty,email"`
}

// UpdateSettingsInput holds the editable settings. Nil means unchanged.
type UpdateSettingsInput struct {
	Notifications *bool   `json:"notifications"`
	Language      *string `json:"language"`
	Currency      *string `json:"currency" binding:"omitempty,iso4217"`
	TwoFactorAuth *bool   `json:"two_factor_auth"`
	EmailAlerts   *bool   `json:"email_alerts"`
	SMSAlerts     *bool   `json:"sms_alerts"`
	Theme         *string `json:"theme" binding:"omitempty,oneof=light dark"`
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	Register(name, username, email, password string) (*Registration, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	UpdateUser(userID string, in UpdateUserInput) (*models.User, error)
	ChangePassword(userID, currentPassword, newPassword string) error
	GetSettings(userID string) (*models.UserSettings, error)
	UpdateSettings(userID string, in UpdateSettingsInput) (*models.UserSettings, error)
	DeleteUser(userID string) error
}

// AccountOverview is the account home screen: balance, latest activity and cards.
type AccountOverview struct {
	Account      *models.Account      `json:"account"`
	Balance      decimal.Decimal      `json:"balance"`
	Transactions []models.LedgerEntry `json:"transactions"`
	Cards        []models.Card        `json:"cards"`
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	GetAccountByID(accountID string) (*models.Account, error)
	GetAccountByUserID(userID string) (*models.Account, error)
	GetAccountOverview(accountID string) (*AccountOverview, error)
}

// CardInput carries the fields of a new card.
type CardInput struct {
	Type        string     `json:"type" binding:"required"`
	Number      string     `json:"number" binding:"required,numeric,min=12,max=19"`
	DueDate     time.Time  `json:"due_date" binding:"required"`
	Functions   string     `json:"functions" binding:"required"`
	CVC         string     `json:"cvc" binding:"required,numeric,len=3"`
	PaymentDate *time.Time `json:"payment_date"`
	Name        string     `json:"name" binding:"required"`
}

// UpdateCardInput holds the editable card fields. Nil means unchanged.
type UpdateCardInput struct {
	Type        *string    `json:"type"`
	DueDate     *time.Time `json:"due_date"`
	Functions   *string    `json:"functions"`
	PaymentDate *time.Time `json:"payment_date"`
	Name        *string    `json:"name"`
	IsBlocked   *bool      `json:"is_blocked"`
}

// CardServicer defines the contract for card-related business logic.
type CardServicer interface {
	CreateCard(accountID string, in CardInput) (*models.Card, error)
	GetCards(accountID string) ([]models.Card, error)
	GetCardByID(accountID, cardID string) (*models.Card, error)
	UpdateCard(accountID, cardID string, in UpdateCardInput) (*models.Card, error)
	DeleteCard(accountID, cardID string) error
	ToggleBlock(accountID, cardID string) (*models.Card, error)
}

// CreateTransactionInput carries a generic ledger entry.
type CreateTransactionInput struct {
	Type        string          `json:"type" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	From        string          `json:"from" binding:"required"`
	To          string          `json:"to" binding:"required"`
	Description string          `json:"description" binding:"max=255"`
	Attachment  string          `json:"attachment"`
	Date        *time.Time      `json:"date"`
}

// UpdateTransactionInput holds the editable ledger entry fields. Nil means unchanged.
type UpdateTransactionInput struct {
	Type        *string          `json:"type"`
	Amount      *decimal.Decimal `json:"amount"`
	From        *string          `json:"from"`
	To          *string          `json:"to"`
	Description *string          `json:"description" binding:"omitempty,max=255"`
	Attachment  *string          `json:"attachment"`
	Date        *time.Time       `json:"date"`
}

// StatementQuery is a statement request. Bounds are inclusive.
type StatementQuery struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Type        string
	From        string
	To          string
	Description string
	Attachment  string
	MinValue    *decimal.Decimal
	MaxValue    *decimal.Decimal
	SortBy      string
	SortOrder   string
	Page        pagination.PageRequest
}

// Statement is one page of ledger entries.
type Statement struct {
	Entries    []models.LedgerEntry `json:"entries"`
	Pagination pagination.Meta      `json:"pagination"`
}

// TransactionServicer defines the contract for ledger entry business logic.
type TransactionServicer interface {
	CreateTransaction(accountID string, in CreateTransactionInput) (*models.LedgerEntry, error)
	GetTransactionByID(accountID, transactionID string) (*models.LedgerEntry, error)
	UpdateTransaction(accountID, transactionID string, in UpdateTransactionInput) (*models.LedgerEntry, error)
	DeleteTransaction(accountID, transactionID string) error
	GetStatement(callerAccountID, accountID string, q StatementQuery) (*Statement, error)
}

// CreateInvestmentInput carries a new investment.
type CreateInvestmentInput struct {
	Type         string           `json:"type"`
	Category     string           `json:"category"`
	Subtype      string           `json:"subtype"`
	Name         string           `json:"name"`
	InitialValue decimal.Decimal  `json:"initial_value"`
	CurrentYield *decimal.Decimal `json:"current_yield"`
	RiskLevel    string           `json:"risk_level"`
	MaturityDate *time.Time       `json:"maturity_date"`
}

// UpdateInvestmentInput holds the editable investment fields. Nil means unchanged.
// The immutable fields are kept raw so that an explicit null still counts as an attempt.
type UpdateInvestmentInput struct {
	Type         *string          `json:"type"`
	Category     *string          `json:"category"`
	Subtype      *string          `json:"subtype"`
	Name         *string          `json:"name"`
	Value        *decimal.Decimal `json:"value"`
	CurrentYield *decimal.Decimal `json:"current_yield"`
	RiskLevel    *string          `json:"risk_level"`
	MaturityDate *time.Time       `json:"maturity_date"`

	InitialValue json.RawMessage `json:"initial_value,omitempty" swaggerignore:"true"`
	PurchaseDate json.RawMessage `json:"purchase_date,omitempty" swaggerignore:"true"`
	AccountID    json.RawMessage `json:"account_id,omitempty" swaggerignore:"true"`
}

// TransferInput moves money from the account into an investment.
type TransferInput struct {
	InvestmentID string          `json:"investment_id"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
}

// RedeemInput moves money from an investment back into the account.
type RedeemInput struct {
	InvestmentID string          `json:"investment_id"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description"`
	RedeemType   string          `json:"redeem_type"`
}

// InvestmentView is an investment with its derived metrics.
type InvestmentView struct {
	models.Investment
	Profit           decimal.Decimal `json:"profit"`
	ProfitPercentage decimal.Decimal `json:"profit_percentage"`
	IsMatured        bool            `json:"is_matured"`
	DaysToMaturity   *int            `json:"days_to_maturity,omitempty"`
	InvestmentDays   *int            `json:"investment_days,omitempty"`
}

// CategorySummary is the per-category part of InvestmentSummary.
type CategorySummary struct {
	Category          models.InvestmentCategory `json:"category"`
	TotalValue        decimal.Decimal           `json:"total_value"`
	TotalInitialValue decimal.Decimal           `json:"total_initial_value"`
	Profit            decimal.Decimal           `json:"profit"`
	ProfitPercentage  decimal.Decimal           `json:"profit_percentage"`
	Count             int64                     `json:"count"`
	AverageYield      decimal.Decimal           `json:"average_yield"`
}

// InvestmentSummary totals an account's filtered investments.
type InvestmentSummary struct {
	TotalValue            decimal.Decimal   `json:"total_value"`
	TotalInitialValue     decimal.Decimal   `json:"total_initial_value"`
	TotalProfit           decimal.Decimal   `json:"total_profit"`
	TotalProfitPercentage decimal.Decimal   `json:"total_profit_percentage"`
	TotalInvestments      int64             `json:"total_investments"`
	ByCategory            []CategorySummary `json:"by_category"`
}

// InvestmentList is the result of ListInvestments.
type InvestmentList struct {
	Investments []InvestmentView  `json:"investments"`
	Summary     InvestmentSummary `json:"summary"`
	Count       int               `json:"count"`
}

// DeleteInvestmentResult identifies what was deleted, for audit display.
type DeleteInvestmentResult struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Value   decimal.Decimal `json:"value"`
	Warning string          `json:"warning,omitempty"`
}

// TransferResult is the outcome of TransferToInvestment.
type TransferResult struct {
	Investment         InvestmentView      `json:"investment"`
	Transaction        *models.LedgerEntry `json:"transaction"`
	TransferAmount     decimal.Decimal     `json:"transfer_amount"`
	NewInvestmentValue decimal.Decimal     `json:"new_investment_value"`
}

// RedeemResult is the outcome of RedeemInvestment. Investment and
// NewInvestmentValue are set for partial redemptions; the completion
// markers only for total ones.
type RedeemResult struct {
	Transaction                  *models.LedgerEntry `json:"transaction"`
	RedeemedAmount               decimal.Decimal     `json:"redeemed_amount"`
	RedeemType                   string              `json:"redeem_type"`
	Investment                   *InvestmentView     `json:"investment,omitempty"`
	NewInvestmentValue           *decimal.Decimal    `json:"new_investment_value,omitempty"`
	InvestmentCompletelyRedeemed bool                `json:"investment_completely_redeemed,omitempty"`
	OriginalInvestmentValue      *decimal.Decimal    `json:"original_investment_value,omitempty"`
}

// InvestmentServicer defines the contract for investment-related business logic.
type InvestmentServicer interface {
	CreateInvestment(accountID string, in CreateInvestmentInput) (*InvestmentView, error)
	GetInvestmentByID(accountID, investmentID string) (*InvestmentView, error)
	GetInvestments(accountID string, filter repository.InvestmentFilter) (*InvestmentList, error)
	UpdateInvestment(accountID, investmentID string, in UpdateInvestmentInput) (*InvestmentView, error)
	DeleteInvestment(accountID, investmentID string) (*DeleteInvestmentResult, error)
	TransferToInvestment(accountID string, in TransferInput) (*TransferResult, error)
	RedeemInvestment(accountID string, in RedeemInput) (*RedeemResult, error)
	GetInvestmentTypes() taxonomy.Catalog
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

// SeedResult reports what Initialize created.
type SeedResult struct {
	Skipped      bool  `json:"skipped"`
	Users        int64 `json:"users"`
	Accounts     int64 `json:"accounts"`
	Cards        int64 `json:"cards"`
	Transactions int64 `json:"transactions"`
	Investments  int64 `json:"investments"`
}

// DatabaseStats counts rows per table and totals money held.
type DatabaseStats struct {
	Users         int64           `json:"users"`
	Accounts      int64           `json:"accounts"`
	Cards         int64           `json:"cards"`
	Transactions  int64           `json:"transactions"`
	Investments   int64           `json:"investments"`
	AuditLogs     int64           `json:"audit_logs"`
	LedgerTotal   decimal.Decimal `json:"ledger_total"`
	InvestedTotal decimal.Decimal `json:"invested_total"`
}

// SeedServicer defines the contract for database administration.
type SeedServicer interface {
	Initialize(force bool) (*SeedResult, error)
	Stats() (*DatabaseStats, error)
	Clear() error
}
