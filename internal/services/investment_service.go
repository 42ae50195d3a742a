package services

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/dvsilva/tech-challenge-2/internal/errors"
	"github.com/dvsilva/tech-challenge-2/internal/logger"
	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/repository"
	"github.com/dvsilva/tech-challenge-2/internal/taxonomy"
)

const (
	RedeemPartial = "partial"
	RedeemTotal   = "total"

	maxDescriptionLength = 255
)

// MaxTransferAmount is the ceiling for a single transfer into an investment.
var MaxTransferAmount = decimal.NewFromInt(1_000_000)

// investmentService handles investment-related business logic.
type investmentService struct {
	db             *gorm.DB
	investments    repository.InvestmentRepository
	ledger         repository.LedgerRepository
	accountService AccountServicer
	events         *LedgerEvents
	now            func() time.Time
}

// NewInvestmentService creates a new InvestmentServicer.
func NewInvestmentService(db *gorm.DB, accountService AccountServicer, ledgerEvents *LedgerEvents) InvestmentServicer {
	return newInvestmentService(db,
		repository.NewInvestmentRepository(db),
		repository.NewLedgerRepository(db),
		accountService, ledgerEvents)
}

func newInvestmentService(
	db *gorm.DB,
	investments repository.InvestmentRepository,
	ledger repository.LedgerRepository,
	accountService AccountServicer,
	ledgerEvents *LedgerEvents,
) *investmentService {
	return &investmentService{
		db:             db,
		investments:    investments,
		ledger:         ledger,
		accountService: accountService,
		events:         ledgerEvents,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// applyLedgerMutation runs fn inside one database transaction, handing it
// repositories bound to that transaction. Any error rolls back every write.
func (s *investmentService) applyLedgerMutation(fn func(investments repository.InvestmentRepository, ledger repository.LedgerRepository) error) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return fn(s.investments.WithTx(tx), s.ledger.WithTx(tx))
	})
	return storeError(err, apperrors.ErrInvestmentNotFound)
}

// storeError maps repository errors onto AppErrors. AppErrors pass through.
func storeError(err error, notFound *apperrors.AppError) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrStaleVersion):
		return apperrors.Wrap(apperrors.ErrConcurrentModification, err)
	case errors.Is(err, repository.ErrNotFound):
		return notFound
	default:
		return apperrors.Wrap(apperrors.ErrPersistence, err)
	}
}

// CreateInvestment validates and stores a new investment. Value starts at
// InitialValue and no ledger entry is written.
func (s *investmentService) CreateInvestment(accountID string, in CreateInvestmentInput) (*InvestmentView, error) {
	now := s.now()
	if err := validateNewInvestment(in, now); err != nil {
		return nil, err
	}

	yield := decimal.Zero
	if in.CurrentYield != nil {
		yield = *in.CurrentYield
	}
	var maturity *time.Time
	if in.MaturityDate != nil {
		m := in.MaturityDate.UTC()
		maturity = &m
	}

	inv := &models.Investment{
		AccountID:    accountID,
		Type:         models.InvestmentType(in.Type),
		Category:     models.InvestmentCategory(in.Category),
		Subtype:      in.Subtype,
		Name:         strings.TrimSpace(in.Name),
		Value:        in.InitialValue,
		InitialValue: in.InitialValue,
		CurrentYield: yield,
		RiskLevel:    models.RiskLevel(in.RiskLevel),
		PurchaseDate: now,
		MaturityDate: maturity,
		Version:      1,
	}
	if err := s.investments.Save(inv); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	logger.Get().Infow("Investment created",
		"investment_id", inv.ID,
		"account_id", accountID,
		"type", inv.Type,
		"subtype", inv.Subtype,
		"initial_value", inv.InitialValue.String(),
	)

	view := newInvestmentView(inv, now, false)
	return &view, nil
}

func validateNewInvestment(in CreateInvestmentInput, now time.Time) error {
	if !taxonomy.ValidType(in.Type) {
		return apperrors.Validation("type must be one of: fixed-income, variable-income")
	}
	if !taxonomy.ValidCategory(in.Category) {
		return apperrors.Validation("category must be one of: investment-fund, private-pension, stock-market")
	}
	if strings.TrimSpace(in.Subtype) == "" {
		return apperrors.Validation("subtype is required")
	}
	if !taxonomy.ValidSubtype(models.InvestmentType(in.Type), models.InvestmentCategory(in.Category), in.Subtype) {
		return apperrors.Validation(fmt.Sprintf("subtype %q is not valid for %s/%s", in.Subtype, in.Type, in.Category))
	}
	if !in.InitialValue.IsPositive() {
		return apperrors.Validation("initial_value must be greater than zero")
	}
	if err := validateMoney("initial_value", in.InitialValue); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		return apperrors.Validation("name is required")
	}
	if !taxonomy.ValidRiskLevel(in.RiskLevel) {
		return apperrors.Validation("risk_level must be one of: low, medium, high")
	}
	if in.CurrentYield != nil {
		if err := validateYield(*in.CurrentYield); err != nil {
			return err
		}
	}
	if in.MaturityDate != nil && !in.MaturityDate.After(now) {
		if models.InvestmentType(in.Type) == models.InvestmentTypeFixedIncome {
			return apperrors.Validation("maturity_date must be in the future for fixed-income investments")
		}
		return apperrors.Validation("maturity_date must be after purchase_date")
	}
	return nil
}

// GetInvestmentByID returns an owned investment with day counts.
func (s *investmentService) GetInvestmentByID(accountID, investmentID string) (*InvestmentView, error) {
	inv, err := authorizeInvestment(s.investments, investmentID, accountID)
	if err != nil {
		return nil, err
	}
	view := newInvestmentView(inv, s.now(), true)
	return &view, nil
}

// GetInvestments lists the account's investments matching filter, with totals.
func (s *investmentService) GetInvestments(accountID string, filter repository.InvestmentFilter) (*InvestmentList, error) {
	now := s.now()
	if filter.Now.IsZero() {
		filter.Now = now
	}

	invs, err := s.investments.FindByAccountID(accountID, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}
	agg, err := s.investments.Aggregate(accountID, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrPersistence, err)
	}

	views := make([]InvestmentView, 0, len(invs))
	for i := range invs {
		views = append(views, newInvestmentView(&invs[i], now, false))
	}

	return &InvestmentList{
		Investments: views,
		Summary:     summarize(agg),
		Count:       len(views),
	}, nil
}

// UpdateInvestment merges the given fields into an owned investment.
func (s *investmentService) UpdateInvestment(accountID, investmentID string, in UpdateInvestmentInput) (*InvestmentView, error) {
	inv, err := authorizeInvestment(s.investments, investmentID, accountID)
	if err != nil {
		return nil, err
	}

	if len(in.InitialValue) > 0 {
		return nil, apperrors.Validation("initial_value cannot be changed")
	}
	if len(in.PurchaseDate) > 0 {
		return nil, apperrors.Validation("purchase_date cannot be changed")
	}
	if len(in.AccountID) > 0 {
		return nil, apperrors.Validation("account_id cannot be changed")
	}

	fields := map[string]interface{}{}
	if in.Value != nil {
		if in.Value.IsNegative() {
			return nil, apperrors.Validation("value must be greater than or equal to zero")
		}
		if err := validateMoney("value", *in.Value); err != nil {
			return nil, err
		}
		fields["value"] = *in.Value
	}
	if in.CurrentYield != nil {
		if err := validateYield(*in.CurrentYield); err != nil {
			return nil, err
		}
		fields["current_yield"] = *in.CurrentYield
	}
	if in.MaturityDate != nil {
		if !in.MaturityDate.After(inv.PurchaseDate) {
			return nil, apperrors.Validation("maturity_date must be after purchase_date")
		}
		fields["maturity_date"] = in.MaturityDate.UTC()
	}
	if in.RiskLevel != nil {
		if !taxonomy.ValidRiskLevel(*in.RiskLevel) {
			return nil, apperrors.Validation("risk_level must be one of: low, medium, high")
		}
		fields["risk_level"] = *in.RiskLevel
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperrors.Validation("name cannot be empty")
		}
		fields["name"] = name
	}
	if in.Type != nil || in.Category != nil || in.Subtype != nil {
		typ, category, subtype := string(inv.Type), string(inv.Category), inv.Subtype
		if in.Type != nil {
			typ = *in.Type
		}
		if in.Category != nil {
			category = *in.Category
		}
		if in.Subtype != nil {
			subtype = *in.Subtype
		}
		if !taxonomy.ValidType(typ) {
			return nil, apperrors.Validation("type must be one of: fixed-income, variable-income")
		}
		if !taxonomy.ValidCategory(category) {
			return nil, apperrors.Validation("category must be one of: investment-fund, private-pension, stock-market")
		}
		if !taxonomy.ValidSubtype(models.InvestmentType(typ), models.InvestmentCategory(category), subtype) {
			return nil, apperrors.Validation(fmt.Sprintf("subtype %q is not valid for %s/%s", subtype, typ, category))
		}
		fields["type"], fields["category"], fields["subtype"] = typ, category, subtype
	}

	if len(fields) == 0 {
		view := newInvestmentView(inv, s.now(), false)
		return &view, nil
	}

	updated, err := s.investments.Update(inv.ID, inv.Version, fields)
	if err != nil {
		return nil, storeError(err, apperrors.ErrInvestmentNotFound)
	}

	view := newInvestmentView(updated, s.now(), false)
	return &view, nil
}

// DeleteInvestment removes an owned investment. Pension and near-maturity
// investments are deleted with an advisory warning.
func (s *investmentService) DeleteInvestment(accountID, investmentID string) (*DeleteInvestmentResult, error) {
	inv, err := authorizeInvestment(s.investments, investmentID, accountID)
	if err != nil {
		return nil, err
	}

	warning := deletionWarning(inv, s.now())
	if err := s.investments.DeleteVersioned(inv.ID, inv.Version); err != nil {
		return nil, storeError(err, apperrors.ErrInvestmentNotFound)
	}

	logger.Get().Infow("Investment deleted",
		"investment_id", inv.ID,
		"account_id", accountID,
		"value", inv.Value.String(),
		"warning", warning,
	)

	return &DeleteInvestmentResult{
		ID:      inv.ID,
		Name:    inv.Name,
		Value:   inv.Value,
		Warning: warning,
	}, nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return apperrors.Validation(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}
	return nil
}

func investmentLabel(inv *models.Investment) string {
	return "Investment: " + inv.Name
}

// TransferToInvestment moves amount from the account into an owned investment.
// The value change and the debit entry commit together or not at all.
func (s *investmentService) TransferToInvestment(accountID string, in TransferInput) (*TransferResult, error) {
	if strings.TrimSpace(in.InvestmentID) == "" {
		return nil, apperrors.Validation("investment_id is required")
	}
	inv, err := authorizeInvestment(s.investments, in.InvestmentID, accountID)
	if err != nil {
		return nil, err
	}

	if !in.Amount.IsPositive() {
		return nil, apperrors.Validation("amount must be greater than zero")
	}
	if in.Amount.GreaterThan(MaxTransferAmount) {
		return nil, apperrors.Validation("amount exceeds the maximum transfer of " + MaxTransferAmount.StringFixed(2))
	}
	if err := validateMoney("amount", in.Amount); err != nil {
		return nil, err
	}
	if inv.Value.Add(in.Amount).GreaterThan(maxMoney) {
		return nil, apperrors.Validation("investment value would exceed " + maxMoney.StringFixed(moneyScale))
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	account, err := s.accountService.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	description := in.Description
	if description == "" {
		description = "Transfer to investment: " + inv.Name
	}

	now := s.now()
	entry := &models.LedgerEntry{
		AccountID:   accountID,
		Type:        models.LedgerTypeInvestmentTransfer,
		Amount:      in.Amount.Neg(),
		From:        account.AccountNumber,
		To:          investmentLabel(inv),
		Description: description,
		Date:        now,
	}

	err = s.applyLedgerMutation(func(investments repository.InvestmentRepository, ledger repository.LedgerRepository) error {
		if err := investments.UpdateValue(inv, inv.Value.Add(in.Amount)); err != nil {
			return err
		}
		return ledger.Create(entry)
	})
	if err != nil {
		return nil, err
	}

	s.events.Recorded(entry, inv.ID)
	logger.Get().Infow("Investment transfer completed",
		"investment_id", inv.ID,
		"account_id", accountID,
		"entry_id", entry.ID,
		"amount", in.Amount.String(),
		"new_value", inv.Value.String(),
	)

	return &TransferResult{
		Investment:         newInvestmentView(inv, now, false),
		Transaction:        entry,
		TransferAmount:     in.Amount,
		NewInvestmentValue: inv.Value,
	}, nil
}

// RedeemInvestment moves amount from an owned investment back into the account.
// A total redemption, or one for the full value, deletes the investment.
func (s *investmentService) RedeemInvestment(accountID string, in RedeemInput) (*RedeemResult, error) {
	if strings.TrimSpace(in.InvestmentID) == "" {
		return nil, apperrors.Validation("investment_id is required")
	}
	inv, err := authorizeInvestment(s.investments, in.InvestmentID, accountID)
	if err != nil {
		return nil, err
	}

	if !in.Amount.IsPositive() {
		return nil, apperrors.Validation("amount must be greater than zero")
	}
	if err := validateMoney("amount", in.Amount); err != nil {
		return nil, err
	}
	redeemType := in.RedeemType
	if redeemType == "" {
		redeemType = RedeemPartial
	}
	if redeemType != RedeemPartial && redeemType != RedeemTotal {
		return nil, apperrors.Validation("redeem_type must be one of: partial, total")
	}
	if err := validateDescription(in.Description); err != nil {
		return nil, err
	}

	account, err := s.accountService.GetAccountByID(accountID)
	if err != nil {
		return nil, err
	}

	if in.Amount.GreaterThan(inv.Value) {
		return nil, apperrors.Validation("redeem amount exceeds available value")
	}

	total := redeemType == RedeemTotal || in.Amount.Equal(inv.Value)
	if total {
		redeemType = RedeemTotal
	}

	description := in.Description
	if description == "" {
		description = fmt.Sprintf("Redemption (%s) from investment: %s", redeemType, inv.Name)
	}

	now := s.now()
	originalValue := inv.Value
	entry := &models.LedgerEntry{
		AccountID:   accountID,
		Type:        models.LedgerTypeInvestmentRedemption,
		Amount:      in.Amount,
		From:        investmentLabel(inv),
		To:          account.AccountNumber,
		Description: description,
		Date:        now,
	}

	err = s.applyLedgerMutation(func(investments repository.InvestmentRepository, ledger repository.LedgerRepository) error {
		if total {
			if err := investments.DeleteVersioned(inv.ID, inv.Version); err != nil {
				return err
			}
		} else if err := investments.UpdateValue(inv, inv.Value.Sub(in.Amount)); err != nil {
			return err
		}
		return ledger.Create(entry)
	})
	if err != nil {
		return nil, err
	}

	s.events.Recorded(entry, inv.ID)
	logger.Get().Infow("Investment redemption completed",
		"investment_id", inv.ID,
		"account_id", accountID,
		"entry_id", entry.ID,
		"amount", in.Amount.String(),
		"redeem_type", redeemType,
	)

	result := &RedeemResult{
		Transaction:    entry,
		RedeemedAmount: in.Amount,
		RedeemType:     redeemType,
	}
	if total {
		result.InvestmentCompletelyRedeemed = true
		result.OriginalInvestmentValue = &originalValue
		return result, nil
	}

	view := newInvestmentView(inv, now, false)
	newValue := inv.Value
	result.Investment = &view
	result.NewInvestmentValue = &newValue
	return result, nil
}

// GetInvestmentTypes returns the static taxonomy.
func (s *investmentService) GetInvestmentTypes() taxonomy.Catalog {
	return taxonomy.GetCatalog()
}
