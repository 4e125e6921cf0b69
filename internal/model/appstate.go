// Package model defines the application state document and its records.
package model

import "time"

// Preferences holds per-user feature toggles.
type Preferences struct {
	AutoSync      bool `json:"autoSync"`
	Notifications bool `json:"notifications"`
	VoiceCommands bool `json:"voiceCommands"`
	Animations    bool `json:"animations"`
	CompactMode   bool `json:"compactMode"`
}

// FutureTransactions groups projected entries by direction.
type FutureTransactions struct {
	Income   []FutureTransaction `json:"income"`
	Expenses []FutureTransaction `json:"expenses"`
}

// Loans groups loans by direction.
type Loans struct {
	Given []Loan `json:"given"`
	Taken []Loan `json:"taken"`
}

// AppState is the single document persisted and restored as a unit.
type AppState struct {
	MonthlyBudgets     map[string]Budget  `json:"monthlyBudgets"`
	Currency           string             `json:"currency"`
	Theme              string             `json:"theme"`
	Transactions       []Transaction      `json:"transactions"`
	Categories         []Category         `json:"categories"`
	FutureTransactions FutureTransactions `json:"futureTransactions"`
	Loans              Loans              `json:"loans"`
	Preferences        Preferences        `json:"preferences"`
	LastSaved          time.Time          `json:"lastSaved"`
}

// Normalize fills nil collections with empty values so the persisted
// document never contains missing sub-objects.
func (s *AppState) Normalize() {
	if s.Transactions == nil {
		s.Transactions = []Transaction{}
	}
	if s.Categories == nil {
		s.Categories = []Category{}
	}
	if s.MonthlyBudgets == nil {
		s.MonthlyBudgets = map[string]Budget{}
	}
	if s.FutureTransactions.Income == nil {
		s.FutureTransactions.Income = []FutureTransaction{}
	}
	if s.FutureTransactions.Expenses == nil {
		s.FutureTransactions.Expenses = []FutureTransaction{}
	}
	if s.Loans.Given == nil {
		s.Loans.Given = []Loan{}
	}
	if s.Loans.Taken == nil {
		s.Loans.Taken = []Loan{}
	}
	if s.Currency == "" {
		s.Currency = DefaultCurrency
	}
	if s.Theme == "" {
		s.Theme = "light"
	}
}

// DefaultCurrency is used on first run and when no currency is set.
const DefaultCurrency = "PKR"

// DefaultState returns the canonical first-run state: empty collections
// and the seed categories.
func DefaultState(now time.Time) *AppState {
	return &AppState{
		Transactions: []Transaction{},
		Categories: []Category{
			{ID: NewID(), Name: "Salary", Type: TypeIncome, Color: "#4caf50", Icon: "briefcase", IsDefault: true, CreatedAt: now},
			{ID: NewID(), Name: "Food", Type: TypeExpense, Color: "#ff9800", Icon: "utensils", IsDefault: true, CreatedAt: now},
			{ID: NewID(), Name: "Transport", Type: TypeExpense, Color: "#2196f3", Icon: "bus", IsDefault: true, CreatedAt: now},
			{ID: NewID(), Name: "General", Type: TypeExpense, Color: "#9e9e9e", Icon: "tag", IsDefault: true, CreatedAt: now},
		},
		MonthlyBudgets: map[string]Budget{},
		FutureTransactions: FutureTransactions{
			Income:   []FutureTransaction{},
			Expenses: []FutureTransaction{},
		},
		Loans: Loans{
			Given: []Loan{},
			Taken: []Loan{},
		},
		Currency: DefaultCurrency,
		Theme:    "light",
		Preferences: Preferences{
			Notifications: true,
			Animations:    true,
		},
	}
}
