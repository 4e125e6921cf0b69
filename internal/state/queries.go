package state

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wealthcommand/wealth-command/internal/model"
)

// Filter narrows GetFilteredTransactions. Zero values mean "no filter".
type Filter struct {
	Type     model.TransactionType
	Category string
	Month    string // "YYYY-MM"
	From     string // inclusive ISO date
	To       string // inclusive ISO date
	Search   string // case-insensitive description match
}

// GetFilteredTransactions returns matching transactions sorted by date,
// newest first.
func (m *Manager) GetFilteredTransactions(f Filter) []model.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(f.Search)
	var out []model.Transaction
	for _, t := range m.state.Transactions {
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.Month != "" && t.MonthKey() != f.Month {
			continue
		}
		if f.From != "" && t.Date < f.From {
			continue
		}
		if f.To != "" && t.Date > f.To {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// Summary aggregates one month of transactions.
type Summary struct {
	MonthKey        string  `json:"monthKey"`
	Income          float64 `json:"income"`
	Expenses        float64 `json:"expenses"`
	Net             float64 `json:"net"`
	StartingBalance float64 `json:"startingBalance"`
	EndingBalance   float64 `json:"endingBalance"`
}

// GetMonthlySummary computes income, expenses, net and balances for one
// month. An empty monthKey means the current month.
func (m *Manager) GetMonthlySummary(monthKey string) Summary {
	if monthKey == "" {
		monthKey = m.CurrentMonthKey()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	sum := Summary{MonthKey: monthKey}
	for _, t := range m.state.Transactions {
		if t.MonthKey() != monthKey {
			continue
		}
		if t.Type == model.TypeIncome {
			sum.Income += t.Amount
		} else {
			sum.Expenses += t.Amount
		}
	}
	sum.Net = sum.Income - sum.Expenses

	if budget, ok := m.state.MonthlyBudgets[monthKey]; ok {
		sum.StartingBalance = budget.StartingBalance
	}
	sum.EndingBalance = sum.StartingBalance + sum.Net
	return sum
}

// CurrentMonthKey returns the "YYYY-MM" key for the current month.
func (m *Manager) CurrentMonthKey() string {
	return model.CurrentMonthKey(m.now())
}

// ExportData serializes the live state as a JSON document.
func (m *Manager) ExportData() (string, error) {
	m.mu.RLock()
	state := m.state
	m.mu.RUnlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode state: %w", err)
	}
	return string(data), nil
}

// ImportData replaces the state wholesale from a JSON document. The
// document must carry transactions and categories arrays; anything else
// is rejected without touching the current state.
func (m *Manager) ImportData(jsonStr string) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &probe); err != nil {
		return fmt.Errorf("invalid import document: %w", err)
	}
	for _, field := range []string{"transactions", "categories"} {
		raw, ok := probe[field]
		if !ok {
			return fmt.Errorf("invalid import document: missing %s array", field)
		}
		var arr []json.RawMessage
		if err := json.Unmarshal(raw, &arr); err != nil {
			return fmt.Errorf("invalid import document: %s is not an array", field)
		}
	}

	var next model.AppState
	if err := json.Unmarshal([]byte(jsonStr), &next); err != nil {
		return fmt.Errorf("invalid import document: %w", err)
	}
	next.Normalize()

	m.UpdateState(func(s *model.AppState) {
		*s = next
	})
	return nil
}
