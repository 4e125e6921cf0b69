package model

import "time"

// TransactionType indicates whether a transaction is money in or money out.
type TransactionType string

const (
	// TypeIncome represents money coming in.
	TypeIncome TransactionType = "income"
	// TypeExpense represents money going out.
	TypeExpense TransactionType = "expense"
)

// Transaction represents a single recorded income or expense entry.
// Amount is always positive; the sign is implied by Type.
type Transaction struct {
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	ID          string          `json:"id"`
	Date        string          `json:"date"` // ISO date, YYYY-MM-DD
	Description string          `json:"desc"`
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Amount      float64         `json:"amount"`
}

// MonthKey returns the "YYYY-MM" key of the transaction's date.
func (t *Transaction) MonthKey() string {
	if len(t.Date) < 7 {
		return ""
	}
	return t.Date[:7]
}

// Signed returns the amount with the sign implied by the transaction type.
func (t *Transaction) Signed() float64 {
	if t.Type == TypeExpense {
		return -t.Amount
	}
	return t.Amount
}
