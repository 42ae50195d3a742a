package services

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvsilva/tech-challenge-2/internal/models"
	"github.com/dvsilva/tech-challenge-2/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// percentOf returns part/whole*100 rounded to 2 places, or 0 when whole is 0.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// ceilDays converts d to whole days, rounding up.
func ceilDays(d time.Duration) int {
	return int(math.Ceil(d.Hours() / 24))
}

// newInvestmentView derives profit and maturity metrics at now. Detailed
// views also carry day counts.
func newInvestmentView(inv *models.Investment, now time.Time, detailed bool) InvestmentView {
	profit := inv.Value.Sub(inv.InitialValue)
	v := InvestmentView{
		Investment:       *inv,
		Profit:           profit,
		ProfitPercentage: percentOf(profit, inv.InitialValue),
		IsMatured:        inv.MaturityDate != nil && !now.Before(*inv.MaturityDate),
	}
	if detailed {
		if inv.MaturityDate != nil {
			days := ceilDays(inv.MaturityDate.Sub(now))
			v.DaysToMaturity = &days
		}
		held := ceilDays(now.Sub(inv.PurchaseDate))
		v.InvestmentDays = &held
	}
	return v
}

const (
	warnPensionTax   = "deleting a private pension investment may have tax impacts"
	warnNearMaturity = "investment is close to maturity"
	nearMaturityDays = 30
)

// deletionWarning returns the advisory shown when deleting inv. Deletion is never blocked.
func deletionWarning(inv *models.Investment, now time.Time) string {
	var warnings []string
	if inv.Category == models.InvestmentCategoryPrivatePension {
		warnings = append(warnings, warnPensionTax)
	}
	if inv.MaturityDate != nil {
		if days := ceilDays(inv.MaturityDate.Sub(now)); days > 0 && days <= nearMaturityDays {
			warnings = append(warnings, warnNearMaturity)
		}
	}
	switch len(warnings) {
	case 0:
		return ""
	case 1:
		return warnings[0]
	default:
		return warnings[0] + "; " + warnings[1]
	}
}

// summarize adds profit figures to a repository aggregate.
func summarize(agg *repository.InvestmentAggregate) InvestmentSummary {
	out := InvestmentSummary{
		TotalValue:            agg.TotalValue,
		TotalInitialValue:     agg.TotalInitialValue,
		TotalProfit:           agg.TotalValue.Sub(agg.TotalInitialValue),
		TotalProfitPercentage: percentOf(agg.TotalValue.Sub(agg.TotalInitialValue), agg.TotalInitialValue),
		TotalInvestments:      agg.Count,
		ByCategory:            make([]CategorySummary, 0, len(agg.ByCategory)),
	}
	for _, c := range agg.ByCategory {
		profit := c.TotalValue.Sub(c.TotalInitialValue)
		out.ByCategory = append(out.ByCategory, CategorySummary{
			Category:          c.Category,
			TotalValue:        c.TotalValue,
			TotalInitialValue: c.TotalInitialValue,
			Profit:            profit,
			ProfitPercentage:  percentOf(profit, c.TotalInitialValue),
			Count:             c.Count,
			AverageYield:      c.AverageYield,
		})
	}
	return out
}
