package state_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wealthcommand/wealth-command/internal/model"
	"github.com/wealthcommand/wealth-command/internal/state"
	"github.com/wealthcommand/wealth-command/internal/testutil"
)

var fixedNow = func() time.Time {
	return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
}

// fakePersister records what the manager hands it, so tests can assert on
// save timing without real storage.
type fakePersister struct {
	mu       sync.Mutex
	saves    []int // transaction count at each save
	cleanups int
}

func (f *fakePersister) SaveAppState(_ context.Context, s *model.AppState) {
	// Read every field the way the real façade serializes the state; the
	// handed-over value must stay readable while mutations continue.
	_, _ = json.Marshal(s)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, len(s.Transactions))
}

func (f *fakePersister) LoadAppState(_ context.Context) *model.AppState {
	return model.DefaultState(fixedNow())
}

func (f *fakePersister) CleanupOldData(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups++
	return nil
}

func (f *fakePersister) saveCounts() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.saves...)
}

func newFakeManager(t *testing.T) (*state.Manager, *fakePersister) {
	t.Helper()

	fp := &fakePersister{}
	// A long delay so only Flush triggers saves; tests stay deterministic.
	m := state.NewManager(fp, state.Options{Now: fixedNow, SaveDelay: time.Hour})
	m.Load(context.Background())
	t.Cleanup(m.Close)
	return m, fp
}

func TestManager_DebounceCoalescesMutations(t *testing.T) {
	m, fp := newFakeManager(t)

	for i := 0; i < 5; i++ {
		m.AddTransaction(model.Transaction{
			Date: "2024-01-10", Description: "Item", Type: model.TypeExpense,
			Category: "Food", Amount: 10,
		})
	}
	assert.Empty(t, fp.saveCounts(), "nothing persists before the debounce window closes")

	m.Flush()

	counts := fp.saveCounts()
	require.Len(t, counts, 1, "a burst of mutations collapses into one save")
	assert.Equal(t, 5, counts[0], "the save sees the final state, not an intermediate one")
}

func TestManager_TimerSavesOverlapMutations(t *testing.T) {
	fp := &fakePersister{}
	// A tiny delay so timer-fired saves land while mutators are running.
	m := state.NewManager(fp, state.Options{Now: fixedNow, SaveDelay: time.Millisecond})
	m.Load(context.Background())
	defer m.Close()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				m.AddTransaction(model.Transaction{
					Date: "2024-01-10", Description: "Item",
					Type: model.TypeExpense, Category: "Food", Amount: 1,
				})
				m.SetCurrency("USD")
				time.Sleep(250 * time.Microsecond)
			}
		}()
	}
	wg.Wait()
	m.Flush()

	assert.Len(t, m.State().Transactions, 200)
	assert.NotEmpty(t, fp.saveCounts())
}

func TestManager_FlushWithoutChangesDoesNotSave(t *testing.T) {
	m, fp := newFakeManager(t)

	m.Flush()
	assert.Empty(t, fp.saveCounts())
}

func TestManager_SubscribeAndUnsubscribe(t *testing.T) {
	m, _ := newFakeManager(t)

	notified := 0
	unsubscribe := m.Subscribe(func(s *model.AppState) {
		notified++
	})

	m.SetCurrency("USD")
	m.SetTheme("dark")
	assert.Equal(t, 2, notified)

	unsubscribe()
	m.SetCurrency("EUR")
	assert.Equal(t, 2, notified, "no notifications after unsubscribe")

	assert.Equal(t, "EUR", m.State().Currency)
	assert.Equal(t, "dark", m.State().Theme)
}

func TestManager_SetStatePatch(t *testing.T) {
	m, _ := newFakeManager(t)

	currency := "GBP"
	prefs := model.Preferences{Notifications: true, CompactMode: true}
	m.SetState(state.StatePatch{Currency: &currency, Preferences: &prefs})

	s := m.State()
	assert.Equal(t, "GBP", s.Currency)
	assert.True(t, s.Preferences.CompactMode)
	assert.Equal(t, "light", s.Theme, "unpatched fields are untouched")
}

func TestManager_AddUpdateDeleteTransaction(t *testing.T) {
	m, _ := newFakeManager(t)

	added := m.AddTransaction(model.Transaction{
		Date: "2024-01-10", Description: "Groceries", Type: model.TypeExpense,
		Category: "Food", Amount: 52.5,
	})
	require.NotEmpty(t, added.ID)
	assert.Equal(t, fixedNow(), added.CreatedAt)

	amount := 60.0
	require.True(t, m.UpdateTransaction(added.ID, state.TransactionPatch{Amount: &amount}))
	assert.False(t, m.UpdateTransaction("nope", state.TransactionPatch{Amount: &amount}))

	txs := m.State().Transactions
	require.Len(t, txs, 1)
	assert.Equal(t, 60.0, txs[0].Amount)
	assert.Equal(t, "Groceries", txs[0].Description)

	require.True(t, m.DeleteTransaction(added.ID))
	assert.False(t, m.DeleteTransaction(added.ID))
	assert.Empty(t, m.State().Transactions)
}

func TestManager_AddCategoryNameUniqueWithinType(t *testing.T) {
	m, _ := newFakeManager(t)
	before := len(m.State().Categories)

	// "Food"/expense is a default seed; re-adding returns the existing one.
	existing := m.AddCategory(model.Category{Name: "Food", Type: model.TypeExpense})
	assert.Len(t, m.State().Categories, before)

	// Same name under the other type is a distinct category.
	income := m.AddCategory(model.Category{Name: "Food", Type: model.TypeIncome})
	assert.Len(t, m.State().Categories, before+1)
	assert.NotEqual(t, existing.ID, income.ID)
}

func TestManager_UpdateCategoryRenameFollowsTransactions(t *testing.T) {
	m, _ := newFakeManager(t)

	cat := m.AddCategory(model.Category{Name: "Dining", Type: model.TypeExpense})
	m.AddTransaction(model.Transaction{Date: "2024-01-10", Description: "Lunch", Type: model.TypeExpense, Category: "Dining", Amount: 20})
	m.AddTransaction(model.Transaction{Date: "2024-01-11", Description: "Tips", Type: model.TypeIncome, Category: "Dining", Amount: 5})

	name := "Eating Out"
	require.True(t, m.UpdateCategory(cat.ID, state.CategoryPatch{Name: &name}))

	for _, tx := range m.State().Transactions {
		switch tx.Description {
		case "Lunch":
			assert.Equal(t, "Eating Out", tx.Category, "matching-type transactions follow the rename")
		case "Tips":
			assert.Equal(t, "Dining", tx.Category, "other-type transactions keep their name")
		}
	}
}

func TestManager_DeleteCategoryReassignsTransactions(t *testing.T) {
	m, _ := newFakeManager(t)

	cat := m.AddCategory(model.Category{Name: "Dining", Type: model.TypeExpense})
	a := m.AddTransaction(model.Transaction{Date: "2024-01-10", Description: "Lunch", Type: model.TypeExpense, Category: "Dining", Amount: 20})
	b := m.AddTransaction(model.Transaction{Date: "2024-01-11", Description: "Dinner", Type: model.TypeExpense, Category: "Dining", Amount: 35})

	require.True(t, m.DeleteCategory(cat.ID))
	assert.False(t, m.DeleteCategory(cat.ID))

	txs := m.State().Transactions
	require.Len(t, txs, 2)
	for _, tx := range txs {
		assert.Equal(t, model.FallbackExpenseCategory, tx.Category)
	}
	assert.Equal(t, a.ID, txs[0].ID, "transaction ids survive the reassignment")
	assert.Equal(t, b.ID, txs[1].ID)
}

func TestManager_MonthlySummary(t *testing.T) {
	m, _ := newFakeManager(t)

	m.AddTransaction(model.Transaction{Date: "2024-01-05", Description: "Coffee", Type: model.TypeExpense, Category: "Food", Amount: 4.5})
	m.AddTransaction(model.Transaction{Date: "2024-01-02", Description: "Pay", Type: model.TypeIncome, Category: "Salary", Amount: 1000})
	m.AddTransaction(model.Transaction{Date: "2023-12-28", Description: "Old", Type: model.TypeExpense, Category: "Food", Amount: 99})
	m.SetMonthlyBudget("2024-01", model.Budget{StartingBalance: 100})

	sum := m.GetMonthlySummary("")
	assert.Equal(t, "2024-01", sum.MonthKey, "empty key means the current month")
	assert.Equal(t, 1000.0, sum.Income)
	assert.Equal(t, 4.5, sum.Expenses)
	assert.Equal(t, 995.5, sum.Net)
	assert.Equal(t, 100.0, sum.StartingBalance)
	assert.Equal(t, 1095.5, sum.EndingBalance)

	empty := m.GetMonthlySummary("2024-02")
	assert.Zero(t, empty.Income)
	assert.Zero(t, empty.Expenses)
}

func TestManager_GetFilteredTransactions(t *testing.T) {
	m, _ := newFakeManager(t)

	m.AddTransaction(model.Transaction{Date: "2024-01-05", Description: "Morning coffee", Type: model.TypeExpense, Category: "Food", Amount: 4.5})
	m.AddTransaction(model.Transaction{Date: "2024-01-10", Description: "Bus ticket", Type: model.TypeExpense, Category: "Transport", Amount: 2})
	m.AddTransaction(model.Transaction{Date: "2024-01-02", Description: "Pay", Type: model.TypeIncome, Category: "Salary", Amount: 1000})
	m.AddTransaction(model.Transaction{Date: "2023-12-20", Description: "Old coffee", Type: model.TypeExpense, Category: "Food", Amount: 3})

	t.Run("no filter sorts newest first", func(t *testing.T) {
		got := m.GetFilteredTransactions(state.Filter{})
		require.Len(t, got, 4)
		assert.Equal(t, "2024-01-10", got[0].Date)
		assert.Equal(t, "2023-12-20", got[3].Date)
	})

	t.Run("by type", func(t *testing.T) {
		got := m.GetFilteredTransactions(state.Filter{Type: model.TypeIncome})
		require.Len(t, got, 1)
		assert.Equal(t, "Pay", got[0].Description)
	})

	t.Run("by month", func(t *testing.T) {
		got := m.GetFilteredTransactions(state.Filter{Month: "2024-01"})
		assert.Len(t, got, 3)
	})

	t.Run("by date range inclusive", func(t *testing.T) {
		got := m.GetFilteredTransactions(state.Filter{From: "2024-01-02", To: "2024-01-05"})
		assert.Len(t, got, 2)
	})

	t.Run("search is case-insensitive", func(t *testing.T) {
		got := m.GetFilteredTransactions(state.Filter{Search: "COFFEE"})
		assert.Len(t, got, 2)
	})

	t.Run("combined", func(t *testing.T) {
		got := m.GetFilteredTransactions(state.Filter{Category: "Food", Month: "2024-01"})
		require.Len(t, got, 1)
		assert.Equal(t, "Morning coffee", got[0].Description)
	})
}

func TestManager_FutureTransactions(t *testing.T) {
	m, _ := newFakeManager(t)

	ft := m.AddFutureTransaction(model.FutureTransaction{
		Description: "Rent", Type: model.TypeExpense, Category: "General",
		StartDate: "2024-02-01", Amount: 25000, Recurring: true,
	})
	require.NotEmpty(t, ft.ID)
	require.Len(t, m.State().FutureTransactions.Expenses, 1)
	assert.Empty(t, m.State().FutureTransactions.Income)

	amount := 26000.0
	require.True(t, m.UpdateFutureTransaction(ft.ID, state.FuturePatch{Amount: &amount}))
	assert.Equal(t, 26000.0, m.State().FutureTransactions.Expenses[0].Amount)

	require.True(t, m.DeleteFutureTransaction(ft.ID))
	assert.False(t, m.DeleteFutureTransaction(ft.ID))
	assert.Empty(t, m.State().FutureTransactions.Expenses)
}

func TestManager_Loans(t *testing.T) {
	m, _ := newFakeManager(t)

	loan := m.AddLoan(model.Loan{
		Type: model.LoanGiven, CounterpartyName: "Ali",
		DateIssued: "2024-01-01", Amount: 10000,
	})
	require.NotEmpty(t, loan.ID)
	require.Len(t, m.State().Loans.Given, 1)
	assert.NotNil(t, m.State().Loans.Given[0].Payments)

	require.True(t, m.AddLoanPayment(loan.ID, model.Payment{Date: "2024-01-20", Amount: 4000}))
	assert.False(t, m.AddLoanPayment("nope", model.Payment{Amount: 1}))

	got := m.State().Loans.Given[0]
	require.Len(t, got.Payments, 1)
	assert.NotEmpty(t, got.Payments[0].ID)
	assert.Equal(t, model.LoanPartial, got.Status(fixedNow()))

	require.True(t, m.DeleteLoan(loan.ID))
	assert.Empty(t, m.State().Loans.Given)
}

func TestManager_ImportExportRoundTrip(t *testing.T) {
	m, _ := newFakeManager(t)
	m.AddTransaction(model.Transaction{Date: "2024-01-10", Description: "Groceries", Type: model.TypeExpense, Category: "Food", Amount: 52.5})
	m.SetCurrency("USD")

	doc, err := m.ExportData()
	require.NoError(t, err)

	other, _ := newFakeManager(t)
	require.NoError(t, other.ImportData(doc))

	s := other.State()
	require.Len(t, s.Transactions, 1)
	assert.Equal(t, "Groceries", s.Transactions[0].Description)
	assert.Equal(t, "USD", s.Currency)
}

func TestManager_ImportRejectsInvalidDocuments(t *testing.T) {
	m, _ := newFakeManager(t)
	m.AddTransaction(model.Transaction{Date: "2024-01-10", Description: "Keep me", Type: model.TypeExpense, Category: "Food", Amount: 1})

	for _, doc := range []string{
		`not json`,
		`{"transactions":[]}`,
		`{"categories":[]}`,
		`{"transactions":"nope","categories":[]}`,
	} {
		require.Error(t, m.ImportData(doc))
	}

	txs := m.State().Transactions
	require.Len(t, txs, 1)
	assert.Equal(t, "Keep me", txs[0].Description, "failed import leaves state untouched")
}

func TestManager_PersistsThroughFacade(t *testing.T) {
	m, tf := testutil.SetupTestManager(t, fixedNow)

	m.AddTransaction(model.Transaction{Date: "2024-01-10", Description: "Groceries", Type: model.TypeExpense, Category: "Food", Amount: 52.5})
	m.Flush()

	// A fresh manager over the same façade sees the persisted state.
	reloaded := state.NewManager(tf.Facade, state.Options{Now: fixedNow})
	reloaded.Load(context.Background())
	t.Cleanup(reloaded.Close)

	txs := reloaded.State().Transactions
	require.Len(t, txs, 1)
	assert.Equal(t, "Groceries", txs[0].Description)
}

func TestManager_CleanupPrunesLiveState(t *testing.T) {
	fp := &fakePersister{}
	m := state.NewManager(fp, state.Options{Now: fixedNow, SaveDelay: time.Hour})
	m.Load(context.Background())
	defer m.Close()

	// fixedNow is 2024-01-15; the retention cutoff is 2023-10-15.
	m.AddTransaction(model.Transaction{Date: "2023-01-01", Description: "Ancient", Type: model.TypeExpense, Category: "Food", Amount: 5})
	m.AddTransaction(model.Transaction{Date: "2024-01-10", Description: "Recent", Type: model.TypeExpense, Category: "Food", Amount: 7})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartCleanup(ctx, time.Millisecond)

	// Pruned transactions must not reappear in the next full save.
	require.Eventually(t, func() bool {
		return len(m.GetFilteredTransactions(state.Filter{})) == 1
	}, time.Second, time.Millisecond)

	got := m.GetFilteredTransactions(state.Filter{})
	require.Len(t, got, 1)
	assert.Equal(t, "Recent", got[0].Description)
}

func TestManager_AddCategoryDuplicateDoesNotNotify(t *testing.T) {
	m, fp := newFakeManager(t)

	notified := 0
	defer m.Subscribe(func(*model.AppState) { notified++ })()

	// "Food"/expense is a default seed.
	got := m.AddCategory(model.Category{Name: "Food", Type: model.TypeExpense})
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, 0, notified, "a no-op add must not notify subscribers")

	m.Flush()
	assert.Empty(t, fp.saveCounts(), "a no-op add must not schedule a persist")
}

func TestManager_StartCleanupRunsPeriodically(t *testing.T) {
	fp := &fakePersister{}
	m := state.NewManager(fp, state.Options{Now: fixedNow, SaveDelay: time.Hour})
	m.Load(context.Background())
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartCleanup(ctx, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		fp.mu.Lock()
		defer fp.mu.Unlock()
		return fp.cleanups >= 2
	}, time.Second, 5*time.Millisecond)
}
