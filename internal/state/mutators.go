package state

import (
	"github.com/wealthcommand/wealth-command/internal/model"
)

// Domain mutators. Each is a thin wrapper over UpdateState: ids and
// timestamps are assigned here, business-rule validation (positive
// amounts and the like) is the calling layer's job before it gets here.

// TransactionPatch is a partial update for a transaction.
type TransactionPatch struct {
	Date        *string
	Description *string
	Type        *model.TransactionType
	Category    *string
	Amount      *float64
}

// AddTransaction records a new transaction, assigning id and timestamps.
func (m *Manager) AddTransaction(t model.Transaction) model.Transaction {
	if t.ID == "" {
		t.ID = model.NewID()
	}
	now := m.now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	m.UpdateState(func(s *model.AppState) {
		s.Transactions = append(copyTransactions(s.Transactions), t)
	})
	return t
}

// UpdateTransaction applies a patch to the transaction with the given id.
// Returns false if no such transaction exists.
func (m *Manager) UpdateTransaction(id string, patch TransactionPatch) bool {
	found := false
	m.UpdateState(func(s *model.AppState) {
		next := copyTransactions(s.Transactions)
		for i := range next {
			if next[i].ID != id {
				continue
			}
			if patch.Date != nil {
				next[i].Date = *patch.Date
			}
			if patch.Description != nil {
				next[i].Description = *patch.Description
			}
			if patch.Type != nil {
				next[i].Type = *patch.Type
			}
			if patch.Category != nil {
				next[i].Category = *patch.Category
			}
			if patch.Amount != nil {
				next[i].Amount = *patch.Amount
			}
			next[i].UpdatedAt = m.now().UTC()
			found = true
			break
		}
		if found {
			s.Transactions = next
		}
	})
	return found
}

// DeleteTransaction removes the transaction with the given id.
func (m *Manager) DeleteTransaction(id string) bool {
	found := false
	m.UpdateState(func(s *model.AppState) {
		next := make([]model.Transaction, 0, len(s.Transactions))
		for _, t := range s.Transactions {
			if t.ID == id {
				found = true
				continue
			}
			next = append(next, t)
		}
		if found {
			s.Transactions = next
		}
	})
	return found
}

// AddCategory adds a category, assigning id and creation time. Name is
// unique within a type; re-adding an existing name returns the existing
// entry without notifying subscribers or scheduling a persist.
func (m *Manager) AddCategory(c model.Category) model.Category {
	if existing, ok := m.findCategory(c.Name, c.Type); ok {
		return existing
	}

	if c.ID == "" {
		c.ID = model.NewID()
	}
	c.CreatedAt = m.now().UTC()

	m.UpdateState(func(s *model.AppState) {
		// Re-check under the write lock; an existing entry still wins.
		for _, existing := range s.Categories {
			if existing.Name == c.Name && existing.Type == c.Type {
				c = existing
				return
			}
		}
		s.Categories = append(copyCategories(s.Categories), c)
	})
	return c
}

func (m *Manager) findCategory(name string, t model.TransactionType) (model.Category, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.state.Categories {
		if c.Name == name && c.Type == t {
			return c, true
		}
	}
	return model.Category{}, false
}

// CategoryPatch is a partial update for a category.
type CategoryPatch struct {
	Name  *string
	Color *string
	Icon  *string
}

// UpdateCategory applies a patch to the category with the given id. When
// the name changes, transactions referencing the old name follow it.
func (m *Manager) UpdateCategory(id string, patch CategoryPatch) bool {
	found := false
	m.UpdateState(func(s *model.AppState) {
		next := copyCategories(s.Categories)
		for i := range next {
			if next[i].ID != id {
				continue
			}
			oldName := next[i].Name
			if patch.Name != nil {
				next[i].Name = *patch.Name
			}
			if patch.Color != nil {
				next[i].Color = *patch.Color
			}
			if patch.Icon != nil {
				next[i].Icon = *patch.Icon
			}
			found = true

			if patch.Name != nil && *patch.Name != oldName {
				txs := copyTransactions(s.Transactions)
				for j := range txs {
					if txs[j].Category == oldName && txs[j].Type == next[i].Type {
						txs[j].Category = *patch.Name
					}
				}
				s.Transactions = txs
			}
			break
		}
		if found {
			s.Categories = next
		}
	})
	return found
}

// DeleteCategory removes a category. Transactions are never deleted with
// it: any transaction referencing the deleted category is reassigned to
// the type-appropriate fallback category. Transaction ids are unchanged.
func (m *Manager) DeleteCategory(id string) bool {
	found := false
	m.UpdateState(func(s *model.AppState) {
		var deleted *model.Category
		next := make([]model.Category, 0, len(s.Categories))
		for _, c := range s.Categories {
			if c.ID == id {
				cc := c
				deleted = &cc
				continue
			}
			next = append(next, c)
		}
		if deleted == nil {
			return
		}
		found = true
		s.Categories = next

		fallback := model.FallbackCategoryName(deleted.Type)
		txs := copyTransactions(s.Transactions)
		for i := range txs {
			if txs[i].Category == deleted.Name && txs[i].Type == deleted.Type {
				txs[i].Category = fallback
			}
		}
		s.Transactions = txs
	})
	return found
}

// SetMonthlyBudget stores the budget for a month key.
func (m *Manager) SetMonthlyBudget(monthKey string, b model.Budget) {
	b.MonthKey = monthKey
	m.UpdateState(func(s *model.AppState) {
		budgets := make(map[string]model.Budget, len(s.MonthlyBudgets)+1)
		for k, v := range s.MonthlyBudgets {
			budgets[k] = v
		}
		budgets[monthKey] = b
		s.MonthlyBudgets = budgets
	})
}

// AddFutureTransaction adds a projected entry to the side implied by its
// type.
func (m *Manager) AddFutureTransaction(ft model.FutureTransaction) model.FutureTransaction {
	if ft.ID == "" {
		ft.ID = model.NewID()
	}
	ft.CreatedAt = m.now().UTC()

	m.UpdateState(func(s *model.AppState) {
		if ft.Type == model.TypeIncome {
			s.FutureTransactions.Income = append(copyFuture(s.FutureTransactions.Income), ft)
		} else {
			s.FutureTransactions.Expenses = append(copyFuture(s.FutureTransactions.Expenses), ft)
		}
	})
	return ft
}

// FuturePatch is a partial update for a future transaction.
type FuturePatch struct {
	Description *string
	Category    *string
	StartDate   *string
	Amount      *float64
	Recurring   *bool
}

// UpdateFutureTransaction applies a patch to the projected entry with the
// given id, on either side.
func (m *Manager) UpdateFutureTransaction(id string, patch FuturePatch) bool {
	found := false
	apply := func(group []model.FutureTransaction) []model.FutureTransaction {
		next := copyFuture(group)
		for i := range next {
			if next[i].ID != id {
				continue
			}
			if patch.Description != nil {
				next[i].Description = *patch.Description
			}
			if patch.Category != nil {
				next[i].Category = *patch.Category
			}
			if patch.StartDate != nil {
				next[i].StartDate = *patch.StartDate
			}
			if patch.Amount != nil {
				next[i].Amount = *patch.Amount
			}
			if patch.Recurring != nil {
				next[i].Recurring = *patch.Recurring
			}
			found = true
			break
		}
		return next
	}

	m.UpdateState(func(s *model.AppState) {
		income := apply(s.FutureTransactions.Income)
		if found {
			s.FutureTransactions.Income = income
			return
		}
		expenses := apply(s.FutureTransactions.Expenses)
		if found {
			s.FutureTransactions.Expenses = expenses
		}
	})
	return found
}

// DeleteFutureTransaction removes the projected entry with the given id.
func (m *Manager) DeleteFutureTransaction(id string) bool {
	found := false
	remove := func(group []model.FutureTransaction) []model.FutureTransaction {
		next := make([]model.FutureTransaction, 0, len(group))
		for _, ft := range group {
			if ft.ID == id {
				found = true
				continue
			}
			next = append(next, ft)
		}
		return next
	}

	m.UpdateState(func(s *model.AppState) {
		s.FutureTransactions.Income = remove(s.FutureTransactions.Income)
		s.FutureTransactions.Expenses = remove(s.FutureTransactions.Expenses)
	})
	return found
}

// AddLoan records a loan on the side implied by its type.
func (m *Manager) AddLoan(l model.Loan) model.Loan {
	if l.ID == "" {
		l.ID = model.NewID()
	}
	if l.Payments == nil {
		l.Payments = []model.Payment{}
	}

	m.UpdateState(func(s *model.AppState) {
		if l.Type == model.LoanGiven {
			s.Loans.Given = append(copyLoans(s.Loans.Given), l)
		} else {
			s.Loans.Taken = append(copyLoans(s.Loans.Taken), l)
		}
	})
	return l
}

// DeleteLoan removes the loan with the given id from either side.
func (m *Manager) DeleteLoan(id string) bool {
	found := false
	remove := func(group []model.Loan) []model.Loan {
		next := make([]model.Loan, 0, len(group))
		for _, l := range group {
			if l.ID == id {
				found = true
				continue
			}
			next = append(next, l)
		}
		return next
	}

	m.UpdateState(func(s *model.AppState) {
		s.Loans.Given = remove(s.Loans.Given)
		s.Loans.Taken = remove(s.Loans.Taken)
	})
	return found
}

// AddLoanPayment appends a repayment to the loan with the given id.
func (m *Manager) AddLoanPayment(loanID string, p model.Payment) bool {
	if p.ID == "" {
		p.ID = model.NewID()
	}

	found := false
	apply := func(group []model.Loan) []model.Loan {
		next := copyLoans(group)
		for i := range next {
			if next[i].ID != loanID {
				continue
			}
			payments := make([]model.Payment, 0, len(next[i].Payments)+1)
			payments = append(payments, next[i].Payments...)
			next[i].Payments = append(payments, p)
			found = true
			break
		}
		return next
	}

	m.UpdateState(func(s *model.AppState) {
		given := apply(s.Loans.Given)
		if found {
			s.Loans.Given = given
			return
		}
		taken := apply(s.Loans.Taken)
		if found {
			s.Loans.Taken = taken
		}
	})
	return found
}

// SetCurrency changes the display currency code.
func (m *Manager) SetCurrency(code string) {
	m.UpdateState(func(s *model.AppState) {
		s.Currency = code
	})
}

// SetTheme switches between light and dark.
func (m *Manager) SetTheme(theme string) {
	m.UpdateState(func(s *model.AppState) {
		s.Theme = theme
	})
}

func copyTransactions(in []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(in))
	copy(out, in)
	return out
}

func copyCategories(in []model.Category) []model.Category {
	out := make([]model.Category, len(in))
	copy(out, in)
	return out
}

func copyFuture(in []model.FutureTransaction) []model.FutureTransaction {
	out := make([]model.FutureTransaction, len(in))
	copy(out, in)
	return out
}

func copyLoans(in []model.Loan) []model.Loan {
	out := make([]model.Loan, len(in))
	copy(out, in)
	return out
}
