package services

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dvsilva/tech-challenge-2/internal/events"
	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/repository"
	"github.com/dvsilva/tech-challenge-2/internal/testutil"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func newTestInvestmentService(db *gorm.DB) (InvestmentServicer, *events.MemoryPublisher) {
	pub := &events.MemoryPublisher{}
	return NewInvestmentService(db, NewAccountService(db), NewLedgerEvents(pub, "ledger-events")), pub
}

func validCreateInput() CreateInvestmentInput {
	return CreateInvestmentInput{
		Type:         "fixed-income",
		Category:     "investment-fund",
		Subtype:      "CDB",
		Name:         "CDB 110% CDI",
		InitialValue: dec("10000"),
		RiskLevel:    "low",
	}
}

func reloadInvestment(t *testing.T, db *gorm.DB, id string) *models.Investment {
	t.Helper()
	var inv models.Investment
	if err := db.Where("id = ?", id).First(&inv).Error; err != nil {
		t.Fatalf("reload investment %s: %v", id, err)
	}
	return &inv
}

func countEntries(t *testing.T, db *gorm.DB, accountID string) int64 {
	t.Helper()
	var n int64
	db.Model(&models.LedgerEntry{}).Where("account_id = ?", accountID).Count(&n)
	return n
}

// failingLedger fails every Create, simulating a crash between the two writes.
type failingLedger struct {
	repository.LedgerRepository
}

func (f failingLedger) Create(*models.LedgerEntry) error { return errors.New("disk full") }

func (f failingLedger) WithTx(tx *gorm.DB) repository.LedgerRepository {
	return failingLedger{f.LedgerRepository.WithTx(tx)}
}

// racingInvestments lets another writer bump the version right after each read.
type racingInvestments struct {
	repository.InvestmentRepository
	db *gorm.DB
}

func (r racingInvestments) FindByID(id string) (*models.Investment, error) {
	inv, err := r.InvestmentRepository.FindByID(id)
	if err != nil {
		return nil, err
	}
	r.db.Model(&models.Investment{}).Where("id = ?", id).Update("version", gorm.Expr("version + 1"))
	return inv, nil
}

func TestCreateInvestment(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)

		view, err := svc.CreateInvestment(account.ID, validCreateInput())
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, view.Value, "10000")
		testutil.AssertDecimal(t, view.InitialValue, "10000")
		testutil.AssertDecimal(t, view.CurrentYield, "0")
		testutil.AssertDecimal(t, view.Profit, "0")
		if view.AccountID != account.ID {
			t.Errorf("expected account %s, got %s", account.ID, view.AccountID)
		}
		if view.Version != 1 {
			t.Errorf("expected version 1, got %d", view.Version)
		}
		if view.PurchaseDate.IsZero() {
			t.Error("expected purchase date to be set")
		}
		if n := countEntries(t, db, account.ID); n != 0 {
			t.Errorf("expected no ledger entries, got %d", n)
		}
	})

	t.Run("with_maturity_and_yield", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)

		in := validCreateInput()
		maturity := time.Now().UTC().AddDate(1, 0, 0)
		yield := dec("11.25")
		in.MaturityDate = &maturity
		in.CurrentYield = &yield

		view, err := svc.CreateInvestment(account.ID, in)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, view.CurrentYield, "11.25")
		if view.MaturityDate == nil || view.IsMatured {
			t.Errorf("expected future maturity, got %v matured=%v", view.MaturityDate, view.IsMatured)
		}
	})

	past := time.Now().UTC().AddDate(0, 0, -1)
	tests := []struct {
		name    string
		mutate  func(*CreateInvestmentInput)
		message string
	}{
		{"bad_type", func(in *CreateInvestmentInput) { in.Type = "crypto" }, "type must be one of: fixed-income, variable-income"},
		{"bad_category", func(in *CreateInvestmentInput) { in.Category = "savings" }, "category must be one of: investment-fund, private-pension, stock-market"},
		{"missing_subtype", func(in *CreateInvestmentInput) { in.Subtype = "" }, "subtype is required"},
		{"subtype_outside_pair", func(in *CreateInvestmentInput) { in.Subtype = "Stocks" }, `subtype "Stocks" is not valid for fixed-income/investment-fund`},
		{"zero_initial_value", func(in *CreateInvestmentInput) { in.InitialValue = decimal.Zero }, "initial_value must be greater than zero"},
		{"negative_initial_value", func(in *CreateInvestmentInput) { in.InitialValue = dec("-5") }, "initial_value must be greater than zero"},
		{"sub_cent_initial_value", func(in *CreateInvestmentInput) { in.InitialValue = dec("100.005") }, "initial_value must have at most 2 decimal places"},
		{"initial_value_overflow", func(in *CreateInvestmentInput) { in.InitialValue = dec("10000000000000000") }, "initial_value must not exceed 9999999999999999.99"},
		{"blank_name", func(in *CreateInvestmentInput) { in.Name = "   " }, "name is required"},
		{"bad_risk", func(in *CreateInvestmentInput) { in.RiskLevel = "extreme" }, "risk_level must be one of: low, medium, high"},
		{"yield_below_floor", func(in *CreateInvestmentInput) { y := dec("-100.01"); in.CurrentYield = &y }, "current_yield must be greater than or equal to -100"},
		{"yield_too_precise", func(in *CreateInvestmentInput) { y := dec("1.23456"); in.CurrentYield = &y }, "current_yield must have at most 4 decimal places"},
		{"fixed_income_past_maturity", func(in *CreateInvestmentInput) { in.MaturityDate = &past }, "maturity_date must be in the future for fixed-income investments"},
		{"variable_income_past_maturity", func(in *CreateInvestmentInput) {
			in.Type, in.Category, in.Subtype = "variable-income", "stock-market", "Stocks"
			in.MaturityDate = &past
		}, "maturity_date must be after purchase_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			svc, _ := newTestInvestmentService(db)
			_, account := testutil.CreateTestUserWithAccount(t, db)

			in := validCreateInput()
			tt.mutate(&in)
			_, err := svc.CreateInvestment(account.ID, in)
			testutil.AssertAppErrorMessage(t, err, "VALIDATION_ERROR", tt.message)

			var n int64
			db.Model(&models.Investment{}).Count(&n)
			if n != 0 {
				t.Errorf("expected nothing stored, got %d investments", n)
			}
		})
	}

	t.Run("yield_at_floor_is_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)

		in := validCreateInput()
		y := dec("-100")
		in.CurrentYield = &y
		_, err := svc.CreateInvestment(account.ID, in)
		testutil.AssertNoError(t, err)
	})
}

func TestGetInvestmentByID(t *testing.T) {
	t.Run("owner_gets_day_counts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID,
			testutil.WithValue("1000"), testutil.WithCurrentValue("1100"),
			testutil.WithPurchaseDate(time.Now().UTC().Add(-36*time.Hour)),
			testutil.WithMaturity(time.Now().UTC().Add(10*24*time.Hour-time.Hour)))

		view, err := svc.GetInvestmentByID(account.ID, inv.ID)
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, view.Profit, "100")
		testutil.AssertDecimal(t, view.ProfitPercentage, "10")
		if view.DaysToMaturity == nil || *view.DaysToMaturity != 10 {
			t.Errorf("expected 10 days to maturity, got %v", view.DaysToMaturity)
		}
		if view.InvestmentDays == nil || *view.InvestmentDays != 2 {
			t.Errorf("expected 2 investment days, got %v", view.InvestmentDays)
		}
	})

	t.Run("no_maturity_has_no_days_to_maturity", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		view, err := svc.GetInvestmentByID(account.ID, inv.ID)
		testutil.AssertNoError(t, err)
		if view.DaysToMaturity != nil {
			t.Errorf("expected nil days to maturity, got %d", *view.DaysToMaturity)
		}
	})

	t.Run("foreign_investment", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, owner := testutil.CreateTestUserWithAccount(t, db)
		_, other := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, owner.ID)

		_, err := svc.GetInvestmentByID(other.ID, inv.ID)
		testutil.AssertAppError(t, err, "ACCESS_DENIED")
	})

	t.Run("missing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)

		_, err := svc.GetInvestmentByID(account.ID, "0190b6a4-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")
	})

	t.Run("malformed_id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)

		_, err := svc.GetInvestmentByID(account.ID, "not-an-id")
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")
	})
}

func TestGetInvestments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, _ := newTestInvestmentService(db)
	_, account := testutil.CreateTestUserWithAccount(t, db)
	_, other := testutil.CreateTestUserWithAccount(t, db)

	testutil.CreateTestInvestment(t, db, account.ID, testutil.WithValue("1000"), testutil.WithCurrentValue("1200"))
	testutil.CreateTestInvestment(t, db, account.ID,
		testutil.WithClassification(models.InvestmentTypeVariableIncome, models.InvestmentCategoryStockMarket, "Stocks"),
		testutil.WithValue("500"), testutil.WithCurrentValue("400"))
	testutil.CreateTestInvestment(t, db, account.ID,
		testutil.WithValue("300"), testutil.WithMaturity(time.Now().UTC().Add(-time.Hour)))
	testutil.CreateTestInvestment(t, db, other.ID, testutil.WithValue("99999"))

	t.Run("all", func(t *testing.T) {
		list, err := svc.GetInvestments(account.ID, repository.InvestmentFilter{})
		testutil.AssertNoError(t, err)

		if list.Count != 3 || len(list.Investments) != 3 {
			t.Fatalf("expected 3 investments, got %d", list.Count)
		}
		testutil.AssertDecimal(t, list.Summary.TotalValue, "1900")
		testutil.AssertDecimal(t, list.Summary.TotalInitialValue, "1800")
		testutil.AssertDecimal(t, list.Summary.TotalProfit, "100")
		testutil.AssertDecimal(t, list.Summary.TotalProfitPercentage, "5.56")
		if list.Summary.TotalInvestments != 3 {
			t.Errorf("expected 3 total investments, got %d", list.Summary.TotalInvestments)
		}
		if len(list.Summary.ByCategory) != 2 {
			t.Fatalf("expected 2 categories, got %d", len(list.Summary.ByCategory))
		}
		fund := list.Summary.ByCategory[0]
		if fund.Category != models.InvestmentCategoryFund || fund.Count != 2 {
			t.Errorf("unexpected first category: %+v", fund)
		}
		testutil.AssertDecimal(t, fund.Profit, "200")
	})

	t.Run("filtered_by_type", func(t *testing.T) {
		list, err := svc.GetInvestments(account.ID, repository.InvestmentFilter{Type: models.InvestmentTypeVariableIncome})
		testutil.AssertNoError(t, err)
		if list.Count != 1 {
			t.Fatalf("expected 1 investment, got %d", list.Count)
		}
		testutil.AssertDecimal(t, list.Summary.TotalProfitPercentage, "-20")
	})

	t.Run("matured_only", func(t *testing.T) {
		matured := true
		list, err := svc.GetInvestments(account.ID, repository.InvestmentFilter{Matured: &matured})
		testutil.AssertNoError(t, err)
		if list.Count != 1 || !list.Investments[0].IsMatured {
			t.Fatalf("expected one matured investment, got %+v", list.Investments)
		}
	})

	t.Run("empty_account", func(t *testing.T) {
		_, empty := testutil.CreateTestUserWithAccount(t, db)
		list, err := svc.GetInvestments(empty.ID, repository.InvestmentFilter{})
		testutil.AssertNoError(t, err)
		if list.Count != 0 || list.Investments == nil {
			t.Errorf("expected an empty, non-nil list, got %+v", list.Investments)
		}
		testutil.AssertDecimal(t, list.Summary.TotalProfitPercentage, "0")
	})
}

func TestUpdateInvestment(t *testing.T) {
	t.Run("merges_fields_and_bumps_version", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		value := dec("1234.56")
		view, err := svc.UpdateInvestment(account.ID, inv.ID, UpdateInvestmentInput{
			Name:      strPtr("Renamed"),
			Value:     &value,
			RiskLevel: strPtr("medium"),
		})
		testutil.AssertNoError(t, err)

		if view.Name != "Renamed" || view.RiskLevel != models.RiskMedium {
			t.Errorf("unexpected view: %+v", view.Investment)
		}
		testutil.AssertDecimal(t, view.Value, "1234.56")
		testutil.AssertDecimal(t, view.InitialValue, "1000")
		if view.Version != 2 {
			t.Errorf("expected version 2, got %d", view.Version)
		}
	})

	t.Run("reclassifies_within_taxonomy", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		view, err := svc.UpdateInvestment(account.ID, inv.ID, UpdateInvestmentInput{Subtype: strPtr("LCI")})
		testutil.AssertNoError(t, err)
		if view.Subtype != "LCI" {
			t.Errorf("expected subtype LCI, got %s", view.Subtype)
		}

		_, err = svc.UpdateInvestment(account.ID, inv.ID, UpdateInvestmentInput{Type: strPtr("variable-income")})
		testutil.AssertAppErrorMessage(t, err, "VALIDATION_ERROR", `subtype "LCI" is not valid for variable-income/investment-fund`)
	})

	immutables := []struct {
		name    string
		in      UpdateInvestmentInput
		message string
	}{
		{"initial_value", UpdateInvestmentInput{InitialValue: json.RawMessage(`"5"`)}, "initial_value cannot be changed"},
		{"purchase_date", UpdateInvestmentInput{PurchaseDate: json.RawMessage(`"2020-01-01T00:00:00Z"`)}, "purchase_date cannot be changed"},
		{"account_id", UpdateInvestmentInput{AccountID: json.RawMessage(`null`)}, "account_id cannot be changed"},
	}
	for _, tt := range immutables {
		t.Run("rejects_"+tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			svc, _ := newTestInvestmentService(db)
			_, account := testutil.CreateTestUserWithAccount(t, db)
			inv := testutil.CreateTestInvestment(t, db, account.ID)

			in := tt.in
			in.Name = strPtr("should not stick")
			_, err := svc.UpdateInvestment(account.ID, inv.ID, in)
			testutil.AssertAppErrorMessage(t, err, "VALIDATION_ERROR", tt.message)

			stored := reloadInvestment(t, db, inv.ID)
			if stored.Name != inv.Name || stored.Version != inv.Version {
				t.Errorf("expected investment unchanged, got name=%q version=%d", stored.Name, stored.Version)
			}
		})
	}

	t.Run("decodes_immutable_fields_from_json", func(t *testing.T) {
		var in UpdateInvestmentInput
		if err := json.Unmarshal([]byte(`{"name":"x","initial_value":null}`), &in); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(in.InitialValue) == 0 {
			t.Error("expected an explicit null initial_value to be detected")
		}
		if len(in.PurchaseDate) != 0 {
			t.Error("expected absent purchase_date to stay empty")
		}
	})

	t.Run("invalid_values", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		negative := dec("-1")
		_, err := svc.UpdateInvestment(account.ID, inv.ID, UpdateInvestmentInput{Value: &negative})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")

		before := inv.PurchaseDate.Add(-time.Hour)
		_, err = svc.UpdateInvestment(account.ID, inv.ID, UpdateInvestmentInput{MaturityDate: &before})
		testutil.AssertAppErrorMessage(t, err, "VALIDATION_ERROR", "maturity_date must be after purchase_date")

		_, err = svc.UpdateInvestment(account.ID, inv.ID, UpdateInvestmentInput{RiskLevel: strPtr("none")})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")

		subCent := dec("1.234")
		_, err = svc.UpdateInvestment(account.ID, inv.ID, UpdateInvestmentInput{Value: &subCent})
		testutil.AssertAppErrorMessage(t, err, "VALIDATION_ERROR", "value must have at most 2 decimal places")

		testutil.AssertDecimal(t, reloadInvestment(t, db, inv.ID).Value, "1000")
	})

	t.Run("empty_patch_returns_current", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		view, err := svc.UpdateInvestment(account.ID, inv.ID, UpdateInvestmentInput{})
		testutil.AssertNoError(t, err)
		if view.Version != 1 {
			t.Errorf("expected untouched version 1, got %d", view.Version)
		}
	})

	t.Run("guard_precedes_validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, owner := testutil.CreateTestUserWithAccount(t, db)
		_, other := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, owner.ID)

		_, err := svc.UpdateInvestment(other.ID, inv.ID, UpdateInvestmentInput{
			InitialValue: json.RawMessage(`1`),
			RiskLevel:    strPtr("bogus"),
		})
		testutil.AssertAppError(t, err, "ACCESS_DENIED")
	})
}

func TestDeleteInvestment(t *testing.T) {
	tests := []struct {
		name    string
		opts    []testutil.InvestmentOption
		warning string
	}{
		{"plain", nil, ""},
		{"pension", []testutil.InvestmentOption{
			testutil.WithClassification(models.InvestmentTypeFixedIncome, models.InvestmentCategoryPrivatePension, "PGBL"),
		}, warnPensionTax},
		{"near_maturity", []testutil.InvestmentOption{
			testutil.WithMaturity(time.Now().UTC().AddDate(0, 0, 15)),
		}, warnNearMaturity},
		{"far_maturity", []testutil.InvestmentOption{
			testutil.WithMaturity(time.Now().UTC().AddDate(0, 0, 90)),
		}, ""},
		{"pension_near_maturity", []testutil.InvestmentOption{
			testutil.WithClassification(models.InvestmentTypeFixedIncome, models.InvestmentCategoryPrivatePension, "VGBL"),
			testutil.WithMaturity(time.Now().UTC().AddDate(0, 0, 5)),
		}, warnPensionTax + "; " + warnNearMaturity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			svc, _ := newTestInvestmentService(db)
			_, account := testutil.CreateTestUserWithAccount(t, db)
			inv := testutil.CreateTestInvestment(t, db, account.ID, tt.opts...)

			result, err := svc.DeleteInvestment(account.ID, inv.ID)
			testutil.AssertNoError(t, err)

			if result.Warning != tt.warning {
				t.Errorf("expected warning %q, got %q", tt.warning, result.Warning)
			}
			if result.ID != inv.ID || result.Name != inv.Name {
				t.Errorf("unexpected result: %+v", result)
			}
			testutil.AssertDecimal(t, result.Value, "1000")

			var n int64
			db.Model(&models.Investment{}).Where("id = ?", inv.ID).Count(&n)
			if n != 0 {
				t.Error("expected investment to be deleted")
			}
			if c := countEntries(t, db, account.ID); c != 0 {
				t.Errorf("expected no ledger entries, got %d", c)
			}
		})
	}

	t.Run("foreign_investment", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, owner := testutil.CreateTestUserWithAccount(t, db)
		_, other := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, owner.ID)

		_, err := svc.DeleteInvestment(other.ID, inv.ID)
		testutil.AssertAppError(t, err, "ACCESS_DENIED")
		reloadInvestment(t, db, inv.ID)
	})

	t.Run("stale_version", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db,
			racingInvestments{repository.NewInvestmentRepository(db), db},
			repository.NewLedgerRepository(db),
			NewAccountService(db), nil)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		_, err := svc.DeleteInvestment(account.ID, inv.ID)
		testutil.AssertAppError(t, err, "CONCURRENT_MODIFICATION")
		reloadInvestment(t, db, inv.ID)
	})
}

func TestTransferToInvestment(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, pub := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID, testutil.WithValue("10000"))

		result, err := svc.TransferToInvestment(account.ID, TransferInput{InvestmentID: inv.ID, Amount: dec("1000")})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, result.NewInvestmentValue, "11000")
		testutil.AssertDecimal(t, result.TransferAmount, "1000")
		testutil.AssertDecimal(t, result.Investment.Value, "11000")

		entry := result.Transaction
		testutil.AssertDecimal(t, entry.Amount, "-1000")
		if entry.Type != models.LedgerTypeInvestmentTransfer {
			t.Errorf("expected type %s, got %s", models.LedgerTypeInvestmentTransfer, entry.Type)
		}
		if entry.From != account.AccountNumber {
			t.Errorf("expected from %s, got %s", account.AccountNumber, entry.From)
		}
		if entry.To != "Investment: "+inv.Name {
			t.Errorf("unexpected to: %s", entry.To)
		}
		if entry.Description != "Transfer to investment: "+inv.Name {
			t.Errorf("unexpected default description: %s", entry.Description)
		}

		stored := reloadInvestment(t, db, inv.ID)
		testutil.AssertDecimal(t, stored.Value, "11000")
		testutil.AssertDecimal(t, stored.InitialValue, "10000")
		if stored.Version != 2 {
			t.Errorf("expected version 2, got %d", stored.Version)
		}

		msgs := pub.Messages()
		if len(msgs) != 1 {
			t.Fatalf("expected 1 event, got %d", len(msgs))
		}
		evt := msgs[0].Event.(events.LedgerEntryRecorded)
		if evt.InvestmentID != inv.ID || evt.EntryID != entry.ID {
			t.Errorf("unexpected event: %+v", evt)
		}
	})

	t.Run("custom_description", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		result, err := svc.TransferToInvestment(account.ID, TransferInput{InvestmentID: inv.ID, Amount: dec("0.01"), Description: "monthly"})
		testutil.AssertNoError(t, err)
		if result.Transaction.Description != "monthly" {
			t.Errorf("expected description monthly, got %s", result.Transaction.Description)
		}
	})

	t.Run("at_maximum", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		_, err := svc.TransferToInvestment(account.ID, TransferInput{InvestmentID: inv.ID, Amount: dec("1000000")})
		testutil.AssertNoError(t, err)
	})

	invalid := []struct {
		name    string
		in      func(id string) TransferInput
		code    string
		message string
	}{
		{"missing_investment_id", func(string) TransferInput { return TransferInput{Amount: dec("10")} }, "VALIDATION_ERROR", "investment_id is required"},
		{"zero_amount", func(id string) TransferInput { return TransferInput{InvestmentID: id} }, "VALIDATION_ERROR", "amount must be greater than zero"},
		{"negative_amount", func(id string) TransferInput { return TransferInput{InvestmentID: id, Amount: dec("-5")} }, "VALIDATION_ERROR", "amount must be greater than zero"},
		{"above_maximum", func(id string) TransferInput { return TransferInput{InvestmentID: id, Amount: dec("1000000.01")} }, "VALIDATION_ERROR", "amount exceeds the maximum transfer of 1000000.00"},
		{"sub_cent_amount", func(id string) TransferInput { return TransferInput{InvestmentID: id, Amount: dec("0.004")} }, "VALIDATION_ERROR", "amount must have at most 2 decimal places"},
		{"long_description", func(id string) TransferInput {
			return TransferInput{InvestmentID: id, Amount: dec("1"), Description: strings.Repeat("x", 256)}
		}, "VALIDATION_ERROR", "description must be at most 255 characters"},
		{"unknown_investment", func(string) TransferInput {
			return TransferInput{InvestmentID: "0190b6a4-0000-7000-8000-000000000000", Amount: dec("1")}
		}, "INVESTMENT_NOT_FOUND", "Investment not found"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			svc, pub := newTestInvestmentService(db)
			_, account := testutil.CreateTestUserWithAccount(t, db)
			inv := testutil.CreateTestInvestment(t, db, account.ID)

			_, err := svc.TransferToInvestment(account.ID, tt.in(inv.ID))
			testutil.AssertAppErrorMessage(t, err, tt.code, tt.message)

			testutil.AssertDecimal(t, reloadInvestment(t, db, inv.ID).Value, "1000")
			if n := countEntries(t, db, account.ID); n != 0 {
				t.Errorf("expected no ledger entries, got %d", n)
			}
			if len(pub.Messages()) != 0 {
				t.Error("expected no events")
			}
		})
	}

	t.Run("trailing_zeros_accepted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		result, err := svc.TransferToInvestment(account.ID, TransferInput{InvestmentID: inv.ID, Amount: dec("10.500")})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, result.Transaction.Amount, "-10.5")
		testutil.AssertDecimal(t, reloadInvestment(t, db, inv.ID).Value, "1010.50")
	})

	t.Run("value_overflow", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID, testutil.WithValue("9999999999999999.00"))

		_, err := svc.TransferToInvestment(account.ID, TransferInput{InvestmentID: inv.ID, Amount: dec("1")})
		testutil.AssertAppErrorMessage(t, err, "VALIDATION_ERROR", "investment value would exceed 9999999999999999.99")
		if n := countEntries(t, db, account.ID); n != 0 {
			t.Errorf("expected no ledger entries, got %d", n)
		}
	})

	t.Run("access_denied_precedes_validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, owner := testutil.CreateTestUserWithAccount(t, db)
		_, other := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, owner.ID)

		for _, amount := range []string{"100", "0", "-1", "99999999", "0.004"} {
			_, err := svc.TransferToInvestment(other.ID, TransferInput{InvestmentID: inv.ID, Amount: dec(amount)})
			testutil.AssertAppError(t, err, "ACCESS_DENIED")
		}
		testutil.AssertDecimal(t, reloadInvestment(t, db, inv.ID).Value, "1000")
		if n := countEntries(t, db, other.ID); n != 0 {
			t.Errorf("expected no ledger entries, got %d", n)
		}
	})

	t.Run("missing_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		orphan := testutil.CreateTestInvestment(t, db, "0190b6a4-1111-7000-8000-000000000000")

		_, err := svc.TransferToInvestment(orphan.AccountID, TransferInput{InvestmentID: orphan.ID, Amount: dec("1")})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("ledger_failure_rolls_back", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pub := &events.MemoryPublisher{}
		svc := newInvestmentService(db,
			repository.NewInvestmentRepository(db),
			failingLedger{repository.NewLedgerRepository(db)},
			NewAccountService(db), NewLedgerEvents(pub, "ledger-events"))
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		_, err := svc.TransferToInvestment(account.ID, TransferInput{InvestmentID: inv.ID, Amount: dec("250")})
		testutil.AssertAppError(t, err, "PERSISTENCE_ERROR")

		stored := reloadInvestment(t, db, inv.ID)
		testutil.AssertDecimal(t, stored.Value, "1000")
		if stored.Version != 1 {
			t.Errorf("expected version 1 after rollback, got %d", stored.Version)
		}
		if n := countEntries(t, db, account.ID); n != 0 {
			t.Errorf("expected no ledger entries, got %d", n)
		}
		if len(pub.Messages()) != 0 {
			t.Error("expected no events after rollback")
		}
	})

	t.Run("stale_version", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db,
			racingInvestments{repository.NewInvestmentRepository(db), db},
			repository.NewLedgerRepository(db),
			NewAccountService(db), nil)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		_, err := svc.TransferToInvestment(account.ID, TransferInput{InvestmentID: inv.ID, Amount: dec("10")})
		testutil.AssertAppError(t, err, "CONCURRENT_MODIFICATION")

		testutil.AssertDecimal(t, reloadInvestment(t, db, inv.ID).Value, "1000")
		if n := countEntries(t, db, account.ID); n != 0 {
			t.Errorf("expected no ledger entries, got %d", n)
		}
	})

	t.Run("publish_failure_keeps_commit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		pub := &events.MemoryPublisher{Err: errors.New("broker down")}
		svc := NewInvestmentService(db, NewAccountService(db), NewLedgerEvents(pub, "ledger-events"))
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		_, err := svc.TransferToInvestment(account.ID, TransferInput{InvestmentID: inv.ID, Amount: dec("10")})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, reloadInvestment(t, db, inv.ID).Value, "1010")
	})
}

func TestRedeemInvestment(t *testing.T) {
	t.Run("partial", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID, testutil.WithValue("1000"))

		result, err := svc.RedeemInvestment(account.ID, RedeemInput{InvestmentID: inv.ID, Amount: dec("400")})
		testutil.AssertNoError(t, err)

		if result.RedeemType != RedeemPartial {
			t.Errorf("expected partial, got %s", result.RedeemType)
		}
		if result.NewInvestmentValue == nil || result.Investment == nil {
			t.Fatal("expected the remaining investment in the result")
		}
		testutil.AssertDecimal(t, *result.NewInvestmentValue, "600")
		if result.InvestmentCompletelyRedeemed || result.OriginalInvestmentValue != nil {
			t.Error("expected no completion markers on a partial redemption")
		}

		entry := result.Transaction
		testutil.AssertDecimal(t, entry.Amount, "400")
		if entry.Type != models.LedgerTypeInvestmentRedemption {
			t.Errorf("unexpected type %s", entry.Type)
		}
		if entry.From != "Investment: "+inv.Name || entry.To != account.AccountNumber {
			t.Errorf("unexpected labels from=%s to=%s", entry.From, entry.To)
		}
		if entry.Description != "Redemption (partial) from investment: "+inv.Name {
			t.Errorf("unexpected description %s", entry.Description)
		}
		testutil.AssertDecimal(t, reloadInvestment(t, db, inv.ID).Value, "600")
	})

	t.Run("full_amount_becomes_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID, testutil.WithValue("750.50"))

		result, err := svc.RedeemInvestment(account.ID, RedeemInput{InvestmentID: inv.ID, Amount: dec("750.5"), RedeemType: RedeemPartial})
		testutil.AssertNoError(t, err)

		if result.RedeemType != RedeemTotal || !result.InvestmentCompletelyRedeemed {
			t.Errorf("expected total redemption, got %+v", result)
		}
		testutil.AssertDecimal(t, *result.OriginalInvestmentValue, "750.50")

		var n int64
		db.Model(&models.Investment{}).Where("id = ?", inv.ID).Count(&n)
		if n != 0 {
			t.Error("expected investment to be deleted")
		}
	})

	t.Run("total_for_less_than_value", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID, testutil.WithValue("1000"))

		result, err := svc.RedeemInvestment(account.ID, RedeemInput{InvestmentID: inv.ID, Amount: dec("300"), RedeemType: RedeemTotal})
		testutil.AssertNoError(t, err)

		testutil.AssertDecimal(t, result.Transaction.Amount, "300")
		testutil.AssertDecimal(t, *result.OriginalInvestmentValue, "1000")
		var n int64
		db.Model(&models.Investment{}).Where("id = ?", inv.ID).Count(&n)
		if n != 0 {
			t.Error("expected investment to be deleted")
		}
	})

	invalid := []struct {
		name    string
		in      func(id string) RedeemInput
		message string
	}{
		{"missing_investment_id", func(string) RedeemInput { return RedeemInput{Amount: dec("1")} }, "investment_id is required"},
		{"zero_amount", func(id string) RedeemInput { return RedeemInput{InvestmentID: id} }, "amount must be greater than zero"},
		{"sub_cent_amount", func(id string) RedeemInput { return RedeemInput{InvestmentID: id, Amount: dec("0.001")} }, "amount must have at most 2 decimal places"},
		{"bad_type", func(id string) RedeemInput {
			return RedeemInput{InvestmentID: id, Amount: dec("1"), RedeemType: "half"}
		}, "redeem_type must be one of: partial, total"},
		{"overdraw", func(id string) RedeemInput { return RedeemInput{InvestmentID: id, Amount: dec("1000.01")} }, "redeem amount exceeds available value"},
		{"overdraw_total", func(id string) RedeemInput {
			return RedeemInput{InvestmentID: id, Amount: dec("5000"), RedeemType: RedeemTotal}
		}, "redeem amount exceeds available value"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.SetupTestDB(t)
			defer testutil.TeardownTestDB(t, db)
			svc, _ := newTestInvestmentService(db)
			_, account := testutil.CreateTestUserWithAccount(t, db)
			inv := testutil.CreateTestInvestment(t, db, account.ID, testutil.WithValue("1000"))

			_, err := svc.RedeemInvestment(account.ID, tt.in(inv.ID))
			testutil.AssertAppErrorMessage(t, err, "VALIDATION_ERROR", tt.message)

			testutil.AssertDecimal(t, reloadInvestment(t, db, inv.ID).Value, "1000")
			if n := countEntries(t, db, account.ID); n != 0 {
				t.Errorf("expected no ledger entries, got %d", n)
			}
		})
	}

	t.Run("access_denied_precedes_validation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestInvestmentService(db)
		_, owner := testutil.CreateTestUserWithAccount(t, db)
		_, other := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, owner.ID)

		_, err := svc.RedeemInvestment(other.ID, RedeemInput{InvestmentID: inv.ID, Amount: dec("999999"), RedeemType: "bogus"})
		testutil.AssertAppError(t, err, "ACCESS_DENIED")
		testutil.AssertDecimal(t, reloadInvestment(t, db, inv.ID).Value, "1000")
	})

	t.Run("ledger_failure_rolls_back_delete", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db,
			repository.NewInvestmentRepository(db),
			failingLedger{repository.NewLedgerRepository(db)},
			NewAccountService(db), nil)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		_, err := svc.RedeemInvestment(account.ID, RedeemInput{InvestmentID: inv.ID, Amount: dec("1000")})
		testutil.AssertAppError(t, err, "PERSISTENCE_ERROR")

		stored := reloadInvestment(t, db, inv.ID)
		testutil.AssertDecimal(t, stored.Value, "1000")
	})

	t.Run("stale_version_on_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newInvestmentService(db,
			racingInvestments{repository.NewInvestmentRepository(db), db},
			repository.NewLedgerRepository(db),
			NewAccountService(db), nil)
		_, account := testutil.CreateTestUserWithAccount(t, db)
		inv := testutil.CreateTestInvestment(t, db, account.ID)

		_, err := svc.RedeemInvestment(account.ID, RedeemInput{InvestmentID: inv.ID, Amount: dec("1"), RedeemType: RedeemTotal})
		testutil.AssertAppError(t, err, "CONCURRENT_MODIFICATION")
		reloadInvestment(t, db, inv.ID)
	})
}

// Money moved between account and investment is conserved across a full
// transfer and redemption cycle.
func TestInvestmentLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, pub := newTestInvestmentService(db)
	_, account := testutil.CreateTestUserWithAccount(t, db)
	ledger := repository.NewLedgerRepository(db)

	created, err := svc.CreateInvestment(account.ID, validCreateInput())
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, created.Value, "10000")

	transfer, err := svc.TransferToInvestment(account.ID, TransferInput{InvestmentID: created.ID, Amount: dec("1000")})
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, transfer.NewInvestmentValue, "11000")

	partial, err := svc.RedeemInvestment(account.ID, RedeemInput{InvestmentID: created.ID, Amount: dec("5000"), RedeemType: RedeemPartial})
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, *partial.NewInvestmentValue, "6000")

	total, err := svc.RedeemInvestment(account.ID, RedeemInput{InvestmentID: created.ID, Amount: dec("6000"), RedeemType: RedeemTotal})
	testutil.AssertNoError(t, err)
	if !total.InvestmentCompletelyRedeemed {
		t.Error("expected investment completely redeemed")
	}
	testutil.AssertDecimal(t, *total.OriginalInvestmentValue, "6000")

	_, err = svc.GetInvestmentByID(account.ID, created.ID)
	testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")

	balance, err := ledger.Balance(account.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, balance, "10000")

	if n := countEntries(t, db, account.ID); n != 3 {
		t.Errorf("expected 3 ledger entries, got %d", n)
	}
	if n := len(pub.Messages()); n != 3 {
		t.Errorf("expected 3 events, got %d", n)
	}
}

func TestGetInvestmentTypes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, _ := newTestInvestmentService(db)

	catalog := svc.GetInvestmentTypes()
	if len(catalog.Types) != 2 {
		t.Fatalf("expected 2 types, got %d", len(catalog.Types))
	}
	if len(catalog.RiskLevels) != 3 {
		t.Errorf("expected 3 risk levels, got %d", len(catalog.RiskLevels))
	}
}
