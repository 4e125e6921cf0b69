package model

import "time"

// LoanType indicates the direction of a loan from the user's perspective.
type LoanType string

const (
	// LoanGiven is money the user lent out.
	LoanGiven LoanType = "given"
	// LoanTaken is money the user borrowed.
	LoanTaken LoanType = "taken"
)

// LoanStatus is derived from payments and the due date, never stored as
// the authoritative value.
type LoanStatus string

const (
	// LoanPending means no payments have been made and the loan is not due.
	LoanPending LoanStatus = "pending"
	// LoanPartial means some but not all of the amount has been repaid.
	LoanPartial LoanStatus = "partial"
	// LoanPaid means repayments cover the full amount.
	LoanPaid LoanStatus = "paid"
	// LoanOverdue means the due date has passed without full repayment.
	LoanOverdue LoanStatus = "overdue"
)

// Payment is a single repayment against a loan.
type Payment struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Note   string  `json:"note,omitempty"`
}

// Loan tracks money given to or taken from a counterparty.
type Loan struct {
	ID               string    `json:"id"`
	Type             LoanType  `json:"type"`
	CounterpartyName string    `json:"counterpartyName"`
	Description      string    `json:"description,omitempty"`
	DateIssued       string    `json:"dateIssued"`
	DueDate          string    `json:"dueOrExpectedDate,omitempty"`
	Payments         []Payment `json:"payments"`
	Amount           float64   `json:"amount"`
}

// PaidAmount returns the sum of all recorded payments.
func (l *Loan) PaidAmount() float64 {
	var total float64
	for _, p := range l.Payments {
		total += p.Amount
	}
	return total
}

// Status derives the loan status from payments and the due date as of now.
func (l *Loan) Status(now time.Time) LoanStatus {
	paid := l.PaidAmount()
	if paid >= l.Amount && l.Amount > 0 {
		return LoanPaid
	}
	if l.DueDate != "" {
		if due, err := time.Parse("2006-01-02", l.DueDate); err == nil && now.After(due) {
			return LoanOverdue
		}
	}
	if paid > 0 {
		return LoanPartial
	}
	return LoanPending
}
