package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dvsilva/tech-challenge-2/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("user%d@test.com", n))
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:     "Test User",
		Username: fmt.Sprintf("user%d", nextID()),
		Email:    email,
		Password: string(hash),
		Settings: models.DefaultUserSettings(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates the debit account of the given user.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:        userID,
		AccountNumber: fmt.Sprintf("AC-%06d", nextID()%1000000),
		Type:          models.AccountTypeDebit,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestUserWithAccount creates a user together with its account.
func CreateTestUserWithAccount(t *testing.T, db *gorm.DB) (*models.User, *models.Account) {
	t.Helper()
	user := CreateTestUser(t, db)
	return user, CreateTestAccount(t, db, user.ID)
}

// InvestmentOption customizes a fixture investment before it is saved.
type InvestmentOption func(*models.Investment)

// WithValue sets both value and initial value.
func WithValue(v string) InvestmentOption {
	return func(inv *models.Investment) {
		inv.Value = decimal.RequireFromString(v)
		inv.InitialValue = inv.Value
	}
}

// WithCurrentValue sets the value only, leaving initial value untouched.
func WithCurrentValue(v string) InvestmentOption {
	return func(inv *models.Investment) { inv.Value = decimal.RequireFromString(v) }
}

// WithClassification sets type, category and subtype.
func WithClassification(typ models.InvestmentType, category models.InvestmentCategory, subtype string) InvestmentOption {
	return func(inv *models.Investment) {
		inv.Type = typ
		inv.Category = category
		inv.Subtype = subtype
	}
}

// WithMaturity sets the maturity date.
func WithMaturity(at time.Time) InvestmentOption {
	return func(inv *models.Investment) { inv.MaturityDate = &at }
}

// WithPurchaseDate sets the purchase date.
func WithPurchaseDate(at time.Time) InvestmentOption {
	return func(inv *models.Investment) { inv.PurchaseDate = at }
}

// WithYield sets the current yield percentage.
func WithYield(y string) InvestmentOption {
	return func(inv *models.Investment) { inv.CurrentYield = decimal.RequireFromString(y) }
}

// CreateTestInvestment creates a 1000.00 fixed-income CDB unless options say otherwise.
func CreateTestInvestment(t *testing.T, db *gorm.DB, accountID string, opts ...InvestmentOption) *models.Investment {
	t.Helper()

	inv := &models.Investment{
		AccountID:    accountID,
		Type:         models.InvestmentTypeFixedIncome,
		Category:     models.InvestmentCategoryFund,
		Subtype:      "CDB",
		Name:         fmt.Sprintf("Test Investment %d", nextID()),
		Value:        decimal.NewFromInt(1000),
		InitialValue: decimal.NewFromInt(1000),
		CurrentYield: decimal.Zero,
		RiskLevel:    models.RiskLow,
		PurchaseDate: time.Now().UTC().Add(-24 * time.Hour),
		Version:      1,
	}
	for _, opt := range opts {
		opt(inv)
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("failed to create test investment: %v", err)
	}
	return inv
}

// CreateTestLedgerEntry creates a ledger entry dated at the given time.
func CreateTestLedgerEntry(t *testing.T, db *gorm.DB, accountID, entryType, amount string, date time.Time) *models.LedgerEntry {
	t.Helper()

	entry := &models.LedgerEntry{
		AccountID: accountID,
		Type:      entryType,
		Amount:    decimal.RequireFromString(amount),
		From:      "Origin",
		To:        "Destination",
		Date:      date.UTC(),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test ledger entry: %v", err)
	}
	return entry
}

// CreateTestCard creates an unblocked debit card for the account.
func CreateTestCard(t *testing.T, db *gorm.DB, accountID string) *models.Card {
	t.Helper()

	card := &models.Card{
		AccountID: accountID,
		Type:      "GOLD",
		Number:    fmt.Sprintf("4000%012d", nextID()),
		DueDate:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Functions: "Debit",
		CVC:       "123",
		Name:      "Test User",
	}
	if err := db.Create(card).Error; err != nil {
		t.Fatalf("failed to create test card: %v", err)
	}
	return card
}
