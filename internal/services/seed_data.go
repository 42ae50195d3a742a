package services

import "github.com/shopspring/decimal"

// DemoPassword is the password of every seeded user.
const DemoPassword = "bytebank123"

type demoEntry struct {
	Type        string
	Amount      string
	From        string
	To          string
	Description string
	DaysAgo     int
}

type demoInvestment struct {
	Type         string
	Category     string
	Subtype      string
	Name         string
	InitialValue string
	Value        string
	Yield        string
	Risk         string
	DaysAgo      int
	MaturesIn    int // days from now; 0 means no maturity
}

type demoUser struct {
	Name        string
	Email       string
	Card        string
	Entries     []demoEntry
	Investments []demoInvestment
}

var demoUsers = []demoUser{
	{
		Name:  "Joana da Silva",
		Email: "joana@bytebank.com",
		Card:  "5162306219378829",
		Entries: []demoEntry{
			{Type: "deposit", Amount: "5000.00", From: "Employer", To: "Joana da Silva", Description: "Salary", DaysAgo: 40},
			{Type: "transfer", Amount: "-150.00", From: "Joana da Silva", To: "Carlos Pereira", Description: "Dinner split", DaysAgo: 35},
			{Type: "exchange", Amount: "320.50", From: "FX desk", To: "Joana da Silva", Description: "USD exchange", DaysAgo: 21},
			{Type: "transfer", Amount: "-89.90", From: "Joana da Silva", To: "Energy company", Description: "Electricity bill", DaysAgo: 14},
			{Type: "loan", Amount: "1200.00", From: "Bytebank", To: "Joana da Silva", Description: "Personal loan", DaysAgo: 7},
			{Type: "deposit", Amount: "5000.00", From: "Employer", To: "Joana da Silva", Description: "Salary", DaysAgo: 10},
		},
		Investments: []demoInvestment{
			{Type: "fixed-income", Category: "investment-fund", Subtype: "CDB", Name: "CDB Bytebank 110% CDI", InitialValue: "2000.00", Value: "2130.45", Yield: "10.5", Risk: "low", DaysAgo: 180, MaturesIn: 540},
			{Type: "variable-income", Category: "stock-market", Subtype: "Stocks", Name: "Tech stocks", InitialValue: "1500.00", Value: "1380.00", Yield: "-8", Risk: "high", DaysAgo: 90},
			{Type: "fixed-income", Category: "private-pension", Subtype: "PGBL", Name: "Retirement PGBL", InitialValue: "3000.00", Value: "3240.00", Yield: "8", Risk: "low", DaysAgo: 365},
		},
	},
	{
		Name:  "Carlos Pereira",
		Email: "carlos@bytebank.com",
		Card:  "4532015112830366",
		Entries: []demoEntry{
			{Type: "deposit", Amount: "3200.00", From: "Employer", To: "Carlos Pereira", Description: "Salary", DaysAgo: 30},
			{Type: "deposit", Amount: "150.00", From: "Joana da Silva", To: "Carlos Pereira", Description: "Dinner split", DaysAgo: 35},
			{Type: "transfer", Amount: "-1200.00", From: "Carlos Pereira", To: "Landlord", Description: "Rent", DaysAgo: 25},
			{Type: "transfer", Amount: "-75.35", From: "Carlos Pereira", To: "Internet provider", Description: "Internet bill", DaysAgo: 12},
		},
		Investments: []demoInvestment{
			{Type: "fixed-income", Category: "stock-market", Subtype: "Treasury Direct", Name: "Treasury IPCA+ 2029", InitialValue: "1000.00", Value: "1062.10", Yield: "6.21", Risk: "low", DaysAgo: 200, MaturesIn: 20},
			{Type: "variable-income", Category: "investment-fund", Subtype: "ETFs", Name: "Ibovespa ETF", InitialValue: "800.00", Value: "845.60", Yield: "5.7", Risk: "medium", DaysAgo: 60},
		},
	},
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
