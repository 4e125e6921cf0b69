package model

import (
	"testing"
	"time"
)

func TestLoan_Status(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		loan Loan
		want LoanStatus
	}{
		{
			name: "no payments, no due date",
			loan: Loan{Amount: 1000},
			want: LoanPending,
		},
		{
			name: "no payments, due date in the future",
			loan: Loan{Amount: 1000, DueDate: "2024-12-01"},
			want: LoanPending,
		},
		{
			name: "partial repayment",
			loan: Loan{Amount: 1000, Payments: []Payment{{Amount: 400}}},
			want: LoanPartial,
		},
		{
			name: "full repayment",
			loan: Loan{Amount: 1000, Payments: []Payment{{Amount: 600}, {Amount: 400}}},
			want: LoanPaid,
		},
		{
			name: "overpayment still counts as paid",
			loan: Loan{Amount: 1000, Payments: []Payment{{Amount: 1200}}},
			want: LoanPaid,
		},
		{
			name: "past due without full repayment",
			loan: Loan{Amount: 1000, DueDate: "2024-01-01", Payments: []Payment{{Amount: 900}}},
			want: LoanOverdue,
		},
		{
			name: "past due but fully repaid",
			loan: Loan{Amount: 1000, DueDate: "2024-01-01", Payments: []Payment{{Amount: 1000}}},
			want: LoanPaid,
		},
		{
			name: "past due with no payments",
			loan: Loan{Amount: 1000, DueDate: "2024-06-14"},
			want: LoanOverdue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.loan.Status(now); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoan_PaidAmount(t *testing.T) {
	loan := Loan{
		Amount: 500,
		Payments: []Payment{
			{Amount: 100.50},
			{Amount: 200},
		},
	}
	if got := loan.PaidAmount(); got != 300.50 {
		t.Errorf("PaidAmount() = %v, want 300.50", got)
	}
}
