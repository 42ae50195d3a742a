// Package taxonomy holds the static investment classification table:
// type, then category, then the allowed subtypes.
package taxonomy

import (
	"slices"

	"github.com/dvsilva/tech-challenge-2/internal/models"
)

var table = map[models.InvestmentType]map[models.InvestmentCategory][]string{
	models.InvestmentTypeFixedIncome: {
		models.InvestmentCategoryFund:           {"CDB", "LCI", "LCA", "LC", "Treasury Direct", "Debentures"},
		models.InvestmentCategoryPrivatePension: {"PGBL", "VGBL", "Corporate Pension"},
		models.InvestmentCategoryStockMarket:    {"Treasury Direct"},
	},
	models.InvestmentTypeVariableIncome: {
		models.InvestmentCategoryFund:           {"Equity Funds", "Multimarket Funds", "FX Funds", "ETFs"},
		models.InvestmentCategoryPrivatePension: {"VGBL Multimarket", "PGBL Multimarket"},
		models.InvestmentCategoryStockMarket:    {"Stocks", "FIIs", "BDRs", "Options", "Futures"},
	},
}

var (
	types      = []models.InvestmentType{models.InvestmentTypeFixedIncome, models.InvestmentTypeVariableIncome}
	categories = []models.InvestmentCategory{
		models.InvestmentCategoryFund,
		models.InvestmentCategoryPrivatePension,
		models.InvestmentCategoryStockMarket,
	}
	riskLevels = []models.RiskLevel{models.RiskLow, models.RiskMedium, models.RiskHigh}
)

// ValidType reports whether t is a known investment type.
func ValidType(t string) bool {
	return slices.Contains(types, models.InvestmentType(t))
}

// ValidCategory reports whether c is a known investment category.
func ValidCategory(c string) bool {
	return slices.Contains(categories, models.InvestmentCategory(c))
}

// ValidRiskLevel reports whether r is a known risk level.
func ValidRiskLevel(r string) bool {
	return slices.Contains(riskLevels, models.RiskLevel(r))
}

// Subtypes returns the subtypes allowed for (t, c), or nil when the pair is unknown.
func Subtypes(t models.InvestmentType, c models.InvestmentCategory) []string {
	return slices.Clone(table[t][c])
}

// ValidSubtype reports whether subtype is listed under (t, c).
func ValidSubtype(t models.InvestmentType, c models.InvestmentCategory, subtype string) bool {
	return slices.Contains(table[t][c], subtype)
}

// Category is one category of the public catalog.
type Category struct {
	Category models.InvestmentCategory `json:"category"`
	Subtypes []string                  `json:"subtypes"`
}

// Type is one top-level entry of the public catalog.
type Type struct {
	Type       models.InvestmentType `json:"type"`
	Categories []Category            `json:"categories"`
}

// Catalog is the read-only view served by GET /investments/types.
type Catalog struct {
	Types      []Type             `json:"types"`
	RiskLevels []models.RiskLevel `json:"risk_levels"`
}

// GetCatalog returns the taxonomy in a stable order.
func GetCatalog() Catalog {
	out := Catalog{RiskLevels: slices.Clone(riskLevels)}
	for _, t := range types {
		entry := Type{Type: t}
		for _, c := range categories {
			entry.Categories = append(entry.Categories, Category{Category: c, Subtypes: Subtypes(t, c)})
		}
		out.Types = append(out.Types, entry)
	}
	return out
}
