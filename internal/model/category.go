package model

import "time"

// Fallback category names used when a referenced category is deleted.
const (
	FallbackIncomeCategory  = "Salary"
	FallbackExpenseCategory = "General"
)

// Category represents a user-visible grouping for transactions.
// Name is unique within a Type; uniqueness is enforced by the state
// manager, not the storage layer.
type Category struct {
	CreatedAt time.Time       `json:"createdAt"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      TransactionType `json:"type"`
	Color     string          `json:"color"`
	Icon      string          `json:"icon"`
	IsDefault bool            `json:"isDefault"`
}

// FallbackCategoryName returns the reassignment target for transactions
// whose category of the given type was deleted.
func FallbackCategoryName(t TransactionType) string {
	if t == TypeIncome {
		return FallbackIncomeCategory
	}
	return FallbackExpenseCategory
}
