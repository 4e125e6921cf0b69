package model

import "time"

// Budget holds per-month planning values, keyed by a "YYYY-MM" MonthKey.
type Budget struct {
	MonthKey        string  `json:"monthKey"`
	StartingBalance float64 `json:"startingBalance"`
	PlannedIncome   float64 `json:"plannedIncome,omitempty"`
	PlannedExpenses float64 `json:"plannedExpenses,omitempty"`
}

// FutureTransaction is a projected income or expense used for cash-flow
// projection. Recurring entries repeat monthly from StartDate.
type FutureTransaction struct {
	CreatedAt   time.Time       `json:"createdAt"`
	ID          string          `json:"id"`
	Description string          `json:"desc"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	StartDate   string          `json:"startDate"`
	Amount      float64         `json:"amount"`
	Recurring   bool            `json:"recurring"`
}

// CurrentMonthKey returns the "YYYY-MM" key for the given time.
func CurrentMonthKey(now time.Time) string {
	return now.Format("2006-01")
}
