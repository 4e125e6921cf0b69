package persist

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/wealthcommand/wealth-command/internal/model"
	"github.com/wealthcommand/wealth-command/internal/store"
)

// Snapshot is the portable whole-state document: the flat-store backup
// format and the JSON export format.
type Snapshot struct {
	MonthlyBudgets     map[string]model.Budget  `json:"monthlyBudgets"`
	Currency           string                   `json:"currency"`
	Theme              string                   `json:"theme"`
	Transactions       []model.Transaction      `json:"transactions"`
	Categories         []model.Category         `json:"categories"`
	FutureTransactions model.FutureTransactions `json:"futureTransactions"`
	Loans              model.Loans              `json:"loans"`
	Preferences        model.Preferences        `json:"preferences"`
	LastSaved          time.Time                `json:"lastSaved"`
}

func toSnapshot(s *model.AppState) Snapshot {
	return Snapshot{
		Transactions:       s.Transactions,
		Categories:         s.Categories,
		MonthlyBudgets:     s.MonthlyBudgets,
		FutureTransactions: s.FutureTransactions,
		Loans:              s.Loans,
		Currency:           s.Currency,
		Preferences:        s.Preferences,
		Theme:              s.Theme,
		LastSaved:          s.LastSaved,
	}
}

func fromSnapshot(snap Snapshot) *model.AppState {
	state := &model.AppState{
		Transactions:       snap.Transactions,
		Categories:         snap.Categories,
		MonthlyBudgets:     snap.MonthlyBudgets,
		FutureTransactions: snap.FutureTransactions,
		Loans:              snap.Loans,
		Currency:           snap.Currency,
		Preferences:        snap.Preferences,
		Theme:              snap.Theme,
		LastSaved:          snap.LastSaved,
	}
	state.Normalize()
	return state
}

// futureDoc wraps a future transaction with the income/expenses side it
// belongs to, so one collection can hold both groups.
type futureDoc struct {
	model.FutureTransaction
	Side string `json:"side"`
}

// loanDoc wraps a loan with its given/taken side.
type loanDoc struct {
	model.Loan
	Side string `json:"side"`
}

// Settings record keys.
const (
	settingCurrency    = "currency"
	settingTheme       = "theme"
	settingPreferences = "preferences"
	settingLastSaved   = "lastSaved"
)

func marshalRecord(key string, doc any, idx store.Index) (store.Record, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return store.Record{}, fmt.Errorf("failed to encode record %s: %w", key, err)
	}
	return store.Record{Key: key, Data: data, Index: idx}, nil
}

// stateCollections normalizes the state into per-collection record sets
// for a whole-state save. The analytics cache is deliberately excluded:
// saves never touch cached data.
func stateCollections(s *model.AppState) (map[string][]store.Record, error) {
	cols := make(map[string][]store.Record, 6)

	txRecords := make([]store.Record, 0, len(s.Transactions))
	for _, t := range s.Transactions {
		rec, err := marshalRecord(t.ID, t, store.Index{
			Date:     t.Date,
			Type:     string(t.Type),
			Category: t.Category,
		})
		if err != nil {
			return nil, err
		}
		txRecords = append(txRecords, rec)
	}
	cols[store.Transactions] = txRecords

	catRecords := make([]store.Record, 0, len(s.Categories))
	for _, c := range s.Categories {
		rec, err := marshalRecord(c.ID, c, store.Index{Type: string(c.Type)})
		if err != nil {
			return nil, err
		}
		catRecords = append(catRecords, rec)
	}
	cols[store.Categories] = catRecords

	budgetRecords := make([]store.Record, 0, len(s.MonthlyBudgets))
	for key, b := range s.MonthlyBudgets {
		b.MonthKey = key
		rec, err := marshalRecord(key, b, store.Index{Date: key})
		if err != nil {
			return nil, err
		}
		budgetRecords = append(budgetRecords, rec)
	}
	cols[store.MonthlyBudgets] = budgetRecords

	var futureRecords []store.Record
	for side, group := range map[string][]model.FutureTransaction{
		"income":   s.FutureTransactions.Income,
		"expenses": s.FutureTransactions.Expenses,
	} {
		for _, ft := range group {
			rec, err := marshalRecord(ft.ID, futureDoc{FutureTransaction: ft, Side: side}, store.Index{
				Date: ft.StartDate,
				Type: side,
			})
			if err != nil {
				return nil, err
			}
			futureRecords = append(futureRecords, rec)
		}
	}
	cols[store.FutureTransactions] = futureRecords

	var loanRecords []store.Record
	for side, group := range map[string][]model.Loan{
		"given": s.Loans.Given,
		"taken": s.Loans.Taken,
	} {
		for _, l := range group {
			rec, err := marshalRecord(l.ID, loanDoc{Loan: l, Side: side}, store.Index{
				Date: l.DateIssued,
				Type: side,
			})
			if err != nil {
				return nil, err
			}
			loanRecords = append(loanRecords, rec)
		}
	}
	cols[store.Loans] = loanRecords

	settings := make([]store.Record, 0, 4)
	for _, kv := range []struct {
		value any
		key   string
	}{
		{s.Currency, settingCurrency},
		{s.Theme, settingTheme},
		{s.Preferences, settingPreferences},
		{s.LastSaved, settingLastSaved},
	} {
		rec, err := marshalRecord(kv.key, kv.value, store.Index{})
		if err != nil {
			return nil, err
		}
		settings = append(settings, rec)
	}
	cols[store.Settings] = settings

	return cols, nil
}

// stateFromRecords reassembles an AppState from per-collection records.
// Individual records that fail to decode are skipped and logged; loading
// degrades a record, never the whole state.
func stateFromRecords(cols map[string][]store.Record) *model.AppState {
	state := &model.AppState{}

	for _, rec := range cols[store.Transactions] {
		var t model.Transaction
		if err := json.Unmarshal(rec.Data, &t); err != nil {
			slog.Warn("skipping undecodable transaction record", "key", rec.Key, "error", err)
			continue
		}
		state.Transactions = append(state.Transactions, t)
	}

	for _, rec := range cols[store.Categories] {
		var c model.Category
		if err := json.Unmarshal(rec.Data, &c); err != nil {
			slog.Warn("skipping undecodable category record", "key", rec.Key, "error", err)
			continue
		}
		state.Categories = append(state.Categories, c)
	}

	state.MonthlyBudgets = make(map[string]model.Budget, len(cols[store.MonthlyBudgets]))
	for _, rec := range cols[store.MonthlyBudgets] {
		var b model.Budget
		if err := json.Unmarshal(rec.Data, &b); err != nil {
			slog.Warn("skipping undecodable budget record", "key", rec.Key, "error", err)
			continue
		}
		state.MonthlyBudgets[rec.Key] = b
	}

	for _, rec := range cols[store.FutureTransactions] {
		var doc futureDoc
		if err := json.Unmarshal(rec.Data, &doc); err != nil {
			slog.Warn("skipping undecodable future transaction record", "key", rec.Key, "error", err)
			continue
		}
		if doc.Side == "income" {
			state.FutureTransactions.Income = append(state.FutureTransactions.Income, doc.FutureTransaction)
		} else {
			state.FutureTransactions.Expenses = append(state.FutureTransactions.Expenses, doc.FutureTransaction)
		}
	}

	for _, rec := range cols[store.Loans] {
		var doc loanDoc
		if err := json.Unmarshal(rec.Data, &doc); err != nil {
			slog.Warn("skipping undecodable loan record", "key", rec.Key, "error", err)
			continue
		}
		if doc.Side == "given" {
			state.Loans.Given = append(state.Loans.Given, doc.Loan)
		} else {
			state.Loans.Taken = append(state.Loans.Taken, doc.Loan)
		}
	}

	for _, rec := range cols[store.Settings] {
		var err error
		switch rec.Key {
		case settingCurrency:
			err = json.Unmarshal(rec.Data, &state.Currency)
		case settingTheme:
			err = json.Unmarshal(rec.Data, &state.Theme)
		case settingPreferences:
			err = json.Unmarshal(rec.Data, &state.Preferences)
		case settingLastSaved:
			err = json.Unmarshal(rec.Data, &state.LastSaved)
		}
		if err != nil {
			slog.Warn("skipping undecodable setting record", "key", rec.Key, "error", err)
		}
	}

	state.Normalize()
	return state
}
