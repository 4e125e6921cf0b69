package persist_test

import (
	"context"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/wealthcommand/wealth-command/internal/model"
	"github.com/wealthcommand/wealth-command/internal/testutil"
)

func TestExportData_CSVGolden(t *testing.T) {
	now := func() time.Time {
		return time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	}
	tf := testutil.SetupTestFacade(t, now)
	ctx := context.Background()

	state := model.DefaultState(now())
	state.Transactions = []model.Transaction{
		{ID: "t1", Date: "2024-01-15", Description: `Quoted "desc"`, Type: model.TypeExpense, Category: "Food", Amount: 12.5},
		{ID: "t2", Date: "2024-01-20", Description: "Coffee", Type: model.TypeExpense, Category: "Food", Amount: 4.5},
		{ID: "t3", Date: "2024-02-01", Description: "Lunch, downtown", Type: model.TypeExpense, Category: "Food", Amount: 350},
	}
	tf.Facade.SaveAppState(ctx, state)

	data, err := tf.Facade.ExportData(ctx, "csv")
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "transactions_csv", data)
}
