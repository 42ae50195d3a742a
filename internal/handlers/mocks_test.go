package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dvsilva/tech-challenge-2/internal/logger"
	"github.com/dvsilva/tech-challenge-2/internal/middleware"
	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/repository"
	"github.com/dvsilva/tech-challenge-2/internal/services"
	"github.com/dvsilva/tech-challenge-2/internal/taxonomy"
	"github.com/dvsilva/tech-challenge-2/internal/validator"
)

// --- mock services ---

type mockUserService struct {
	registerFn       func(name, username, email, password string) (*services.Registration, error)
	getUserByIDFn    func(id string) (*models.User, error)
	attemptLoginFn   func(email, password string) (*models.User, error)
	updateUserFn     func(userID string, in services.UpdateUserInput) (*models.User, error)
	changePasswordFn func(userID, current, next string) error
	getSettingsFn    func(userID string) (*models.UserSettings, error)
	updateSettingsFn func(userID string, in services.UpdateSettingsInput) (*models.UserSettings, error)
	deleteUserFn     func(userID string) error
}

func (m *mockUserService) Register(name, username, email, password string) (*services.Registration, error) {
	if m.registerFn != nil {
		return m.registerFn(name, username, email, password)
	}
	return &services.Registration{User: &models.User{}, Account: &models.Account{}, Card: &models.Card{}}, nil
}

func (m *mockUserService) GetUserByEmail(email string) (*models.User, error) {
	return &models.User{Email: email}, nil
}

func (m *mockUserService) GetUserByID(id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{Base: models.Base{ID: id}}, nil
}

func (m *mockUserService) VerifyPassword(_ *models.User, _ string) bool { return true }

func (m *mockUserService) AttemptLogin(email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{Email: email}, nil
}

func (m *mockUserService) UpdateUser(userID string, in services.UpdateUserInput) (*models.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(userID, in)
	}
	return &models.User{Base: models.Base{ID: userID}}, nil
}

func (m *mockUserService) ChangePassword(userID, current, next string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(userID, current, next)
	}
	return nil
}

func (m *mockUserService) GetSettings(userID string) (*models.UserSettings, error) {
	if m.getSettingsFn != nil {
		return m.getSettingsFn(userID)
	}
	s := models.DefaultUserSettings()
	return &s, nil
}

func (m *mockUserService) UpdateSettings(userID string, in services.UpdateSettingsInput) (*models.UserSettings, error) {
	if m.updateSettingsFn != nil {
		return m.updateSettingsFn(userID, in)
	}
	s := models.DefaultUserSettings()
	return &s, nil
}

func (m *mockUserService) DeleteUser(userID string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(userID)
	}
	return nil
}

type mockAccountService struct {
	getByUserIDFn func(userID string) (*models.Account, error)
	getOverviewFn func(accountID string) (*services.AccountOverview, error)
}

func (m *mockAccountService) GetAccountByID(accountID string) (*models.Account, error) {
	return &models.Account{Base: models.Base{ID: accountID}}, nil
}

func (m *mockAccountService) GetAccountByUserID(userID string) (*models.Account, error) {
	if m.getByUserIDFn != nil {
		return m.getByUserIDFn(userID)
	}
	return &models.Account{Base: models.Base{ID: "acc-1"}, UserID: userID}, nil
}

func (m *mockAccountService) GetAccountOverview(accountID string) (*services.AccountOverview, error) {
	if m.getOverviewFn != nil {
		return m.getOverviewFn(accountID)
	}
	return &services.AccountOverview{Account: &models.Account{Base: models.Base{ID: accountID}}}, nil
}

type mockCardService struct {
	createFn func(accountID string, in services.CardInput) (*models.Card, error)
	getFn    func(accountID, cardID string) (*models.Card, error)
	updateFn func(accountID, cardID string, in services.UpdateCardInput) (*models.Card, error)
	deleteFn func(accountID, cardID string) error
	toggleFn func(accountID, cardID string) (*models.Card, error)
}

func (m *mockCardService) CreateCard(accountID string, in services.CardInput) (*models.Card, error) {
	if m.createFn != nil {
		return m.createFn(accountID, in)
	}
	return &models.Card{AccountID: accountID}, nil
}

func (m *mockCardService) GetCards(accountID string) ([]models.Card, error) {
	return []models.Card{{AccountID: accountID}}, nil
}

func (m *mockCardService) GetCardByID(accountID, cardID string) (*models.Card, error) {
	if m.getFn != nil {
		return m.getFn(accountID, cardID)
	}
	return &models.Card{Base: models.Base{ID: cardID}, AccountID: accountID}, nil
}

func (m *mockCardService) UpdateCard(accountID, cardID string, in services.UpdateCardInput) (*models.Card, error) {
	if m.updateFn != nil {
		return m.updateFn(accountID, cardID, in)
	}
	return &models.Card{Base: models.Base{ID: cardID}}, nil
}

func (m *mockCardService) DeleteCard(accountID, cardID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(accountID, cardID)
	}
	return nil
}

func (m *mockCardService) ToggleBlock(accountID, cardID string) (*models.Card, error) {
	if m.toggleFn != nil {
		return m.toggleFn(accountID, cardID)
	}
	return &models.Card{Base: models.Base{ID: cardID}, IsBlocked: true}, nil
}

type mockTransactionService struct {
	createFn    func(accountID string, in services.CreateTransactionInput) (*models.LedgerEntry, error)
	getFn       func(accountID, id string) (*models.LedgerEntry, error)
	updateFn    func(accountID, id string, in services.UpdateTransactionInput) (*models.LedgerEntry, error)
	deleteFn    func(accountID, id string) error
	statementFn func(caller, accountID string, q services.StatementQuery) (*services.Statement, error)
}

func (m *mockTransactionService) CreateTransaction(accountID string, in services.CreateTransactionInput) (*models.LedgerEntry, error) {
	if m.createFn != nil {
		return m.createFn(accountID, in)
	}
	return &models.LedgerEntry{AccountID: accountID, Type: in.Type, Amount: in.Amount}, nil
}

func (m *mockTransactionService) GetTransactionByID(accountID, id string) (*models.LedgerEntry, error) {
	if m.getFn != nil {
		return m.getFn(accountID, id)
	}
	return &models.LedgerEntry{Base: models.Base{ID: id}, AccountID: accountID}, nil
}

func (m *mockTransactionService) UpdateTransaction(accountID, id string, in services.UpdateTransactionInput) (*models.LedgerEntry, error) {
	if m.updateFn != nil {
		return m.updateFn(accountID, id, in)
	}
	return &models.LedgerEntry{Base: models.Base{ID: id}, AccountID: accountID}, nil
}

func (m *mockTransactionService) DeleteTransaction(accountID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(accountID, id)
	}
	return nil
}

func (m *mockTransactionService) GetStatement(caller, accountID string, q services.StatementQuery) (*services.Statement, error) {
	if m.statementFn != nil {
		return m.statementFn(caller, accountID, q)
	}
	return &services.Statement{Entries: []models.LedgerEntry{}}, nil
}

type mockInvestmentService struct {
	createFn   func(accountID string, in services.CreateInvestmentInput) (*services.InvestmentView, error)
	getFn      func(accountID, id string) (*services.InvestmentView, error)
	listFn     func(accountID string, filter repository.InvestmentFilter) (*services.InvestmentList, error)
	updateFn   func(accountID, id string, in services.UpdateInvestmentInput) (*services.InvestmentView, error)
	deleteFn   func(accountID, id string) (*services.DeleteInvestmentResult, error)
	transferFn func(accountID string, in services.TransferInput) (*services.TransferResult, error)
	redeemFn   func(accountID string, in services.RedeemInput) (*services.RedeemResult, error)
}

func (m *mockInvestmentService) CreateInvestment(accountID string, in services.CreateInvestmentInput) (*services.InvestmentView, error) {
	if m.createFn != nil {
		return m.createFn(accountID, in)
	}
	return &services.InvestmentView{}, nil
}

func (m *mockInvestmentService) GetInvestmentByID(accountID, id string) (*services.InvestmentView, error) {
	if m.getFn != nil {
		return m.getFn(accountID, id)
	}
	return &services.InvestmentView{Investment: models.Investment{Base: models.Base{ID: id}, AccountID: accountID}}, nil
}

func (m *mockInvestmentService) GetInvestments(accountID string, filter repository.InvestmentFilter) (*services.InvestmentList, error) {
	if m.listFn != nil {
		return m.listFn(accountID, filter)
	}
	return &services.InvestmentList{Investments: []services.InvestmentView{}}, nil
}

func (m *mockInvestmentService) UpdateInvestment(accountID, id string, in services.UpdateInvestmentInput) (*services.InvestmentView, error) {
	if m.updateFn != nil {
		return m.updateFn(accountID, id, in)
	}
	return &services.InvestmentView{Investment: models.Investment{Base: models.Base{ID: id}}}, nil
}

func (m *mockInvestmentService) DeleteInvestment(accountID, id string) (*services.DeleteInvestmentResult, error) {
	if m.deleteFn != nil {
		return m.deleteFn(accountID, id)
	}
	return &services.DeleteInvestmentResult{ID: id}, nil
}

func (m *mockInvestmentService) TransferToInvestment(accountID string, in services.TransferInput) (*services.TransferResult, error) {
	if m.transferFn != nil {
		return m.transferFn(accountID, in)
	}
	return &services.TransferResult{Transaction: &models.LedgerEntry{}}, nil
}

func (m *mockInvestmentService) RedeemInvestment(accountID string, in services.RedeemInput) (*services.RedeemResult, error) {
	if m.redeemFn != nil {
		return m.redeemFn(accountID, in)
	}
	return &services.RedeemResult{Transaction: &models.LedgerEntry{}}, nil
}

func (m *mockInvestmentService) GetInvestmentTypes() taxonomy.Catalog {
	return taxonomy.GetCatalog()
}

type mockSeedService struct {
	initializeFn func(force bool) (*services.SeedResult, error)
	statsFn      func() (*services.DatabaseStats, error)
	clearFn      func() error
}

func (m *mockSeedService) Initialize(force bool) (*services.SeedResult, error) {
	if m.initializeFn != nil {
		return m.initializeFn(force)
	}
	return &services.SeedResult{}, nil
}

func (m *mockSeedService) Stats() (*services.DatabaseStats, error) {
	if m.statsFn != nil {
		return m.statsFn()
	}
	return &services.DatabaseStats{}, nil
}

func (m *mockSeedService) Clear() error {
	if m.clearFn != nil {
		return m.clearFn()
	}
	return nil
}

type auditCall struct {
	userID, action, resourceType, resourceID string
	changes                                  map[string]interface{}
}

type mockAuditService struct {
	calls []auditCall
}

func (m *mockAuditService) Log(userID, action, resourceType, resourceID, _ string, changes map[string]interface{}) {
	m.calls = append(m.calls, auditCall{userID, action, resourceType, resourceID, changes})
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

const (
	testUserID    = "user-1"
	testAccountID = "acc-1"
)

func injectIdentity(userID, accountID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
		c.Set(middleware.ContextAccountID, accountID)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
