package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestSQLite returns a migrated in-memory SQLite store.
func newTestSQLite(t *testing.T) Store {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestFallback(t *testing.T) Store {
	t.Helper()
	return NewFallbackStore(NewMemKV(), "")
}

// Both adapters must satisfy the same contract.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()

	backends := map[string]func(*testing.T) Store{
		"sqlite":   newTestSQLite,
		"fallback": newTestFallback,
	}
	for name, create := range backends {
		t.Run(name, func(t *testing.T) {
			fn(t, create(t))
		})
	}
}

func doc(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestStore_AddAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		rec := Record{
			Key:   "tx1",
			Data:  doc(t, map[string]any{"desc": "Coffee", "amount": 4.5}),
			Index: Index{Date: "2024-01-05", Type: "expense", Category: "Food"},
		}
		require.NoError(t, s.Add(ctx, Transactions, rec))

		got, err := s.Get(ctx, Transactions, "tx1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "tx1", got.Key)
		assert.JSONEq(t, string(rec.Data), string(got.Data))
		assert.Equal(t, "2024-01-05", got.Index.Date)
		assert.Equal(t, "expense", got.Index.Type)
		assert.Equal(t, "Food", got.Index.Category)
	})
}

func TestStore_GetMissingReturnsNil(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		got, err := s.Get(context.Background(), Transactions, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestStore_AddDuplicateKey(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		rec := Record{Key: "cat1", Data: doc(t, map[string]any{"name": "Food"})}

		require.NoError(t, s.Add(ctx, Categories, rec))
		err := s.Add(ctx, Categories, rec)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicateKey)
	})
}

func TestStore_UpdateMergesFields(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Add(ctx, Transactions, Record{
			Key:   "tx1",
			Data:  doc(t, map[string]any{"desc": "Coffee", "amount": 4.5, "category": "Food"}),
			Index: Index{Category: "Food"},
		}))

		partial := doc(t, map[string]any{"amount": 6.0})
		require.NoError(t, s.Update(ctx, Transactions, "tx1", partial, nil))

		got, err := s.Get(ctx, Transactions, "tx1")
		require.NoError(t, err)
		require.NotNil(t, got)

		var merged map[string]any
		require.NoError(t, json.Unmarshal(got.Data, &merged))
		assert.Equal(t, 6.0, merged["amount"])
		assert.Equal(t, "Coffee", merged["desc"], "unmentioned fields survive the merge")
		assert.Equal(t, "Food", got.Index.Category)
	})
}

func TestStore_UpdateMissingKey(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		err := s.Update(context.Background(), Transactions, "ghost", doc(t, map[string]any{"a": 1}), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Add(ctx, Loans, Record{Key: "l1", Data: doc(t, map[string]any{"amount": 100})}))

		// Deleting a key that never existed succeeds and changes nothing.
		require.NoError(t, s.Delete(ctx, Loans, "ghost"))

		records, err := s.GetAll(ctx, Loans, nil)
		require.NoError(t, err)
		assert.Len(t, records, 1)

		require.NoError(t, s.Delete(ctx, Loans, "l1"))
		require.NoError(t, s.Delete(ctx, Loans, "l1"))

		records, err = s.GetAll(ctx, Loans, nil)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestStore_GetAllRangeQuery(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		dates := []string{"2024-01-01", "2024-02-15", "2024-03-30", "2024-05-01"}
		for i, date := range dates {
			require.NoError(t, s.Add(ctx, Transactions, Record{
				Key:   dates[i],
				Data:  doc(t, map[string]any{"date": date}),
				Index: Index{Date: date},
			}))
		}

		got, err := s.GetAll(ctx, Transactions, &Query{
			Index: IndexDate,
			Min:   "2024-02-01",
			Max:   "2024-04-01",
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "2024-02-15", got[0].Index.Date)
		assert.Equal(t, "2024-03-30", got[1].Index.Date)

		// Open-ended upper bound
		got, err = s.GetAll(ctx, Transactions, &Query{Index: IndexDate, Min: "2024-03-01"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestStore_GetAllUnknownIndex(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Add(ctx, Transactions, Record{Key: "a", Data: doc(t, map[string]any{}), Index: Index{Date: "2024-01-01"}}))

		_, err := s.GetAll(ctx, Transactions, &Query{Index: "bogus", Min: "x"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownIndex)
	})
}

func TestStore_ClearEmptiesSingleCollection(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Add(ctx, Transactions, Record{Key: "t1", Data: doc(t, map[string]any{})}))
		require.NoError(t, s.Add(ctx, Categories, Record{Key: "c1", Data: doc(t, map[string]any{})}))

		require.NoError(t, s.Clear(ctx, Transactions))

		txs, err := s.GetAll(ctx, Transactions, nil)
		require.NoError(t, err)
		assert.Empty(t, txs)

		cats, err := s.GetAll(ctx, Categories, nil)
		require.NoError(t, err)
		assert.Len(t, cats, 1, "clearing one collection leaves others alone")
	})
}

func TestStore_ReplaceRewritesCollections(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.Add(ctx, Transactions, Record{Key: "old", Data: doc(t, map[string]any{})}))

		require.NoError(t, s.Replace(ctx, map[string][]Record{
			Transactions: {
				{Key: "new1", Data: doc(t, map[string]any{"n": 1})},
				{Key: "new2", Data: doc(t, map[string]any{"n": 2})},
			},
			Categories: {
				{Key: "c1", Data: doc(t, map[string]any{})},
			},
		}))

		txs, err := s.GetAll(ctx, Transactions, nil)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, "new1", txs[0].Key)
		assert.Equal(t, "new2", txs[1].Key)

		old, err := s.Get(ctx, Transactions, "old")
		require.NoError(t, err)
		assert.Nil(t, old)
	})
}

func TestStore_InsertionOrderPreserved(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		keys := []string{"z", "a", "m", "b"}
		for _, k := range keys {
			require.NoError(t, s.Add(ctx, Categories, Record{Key: k, Data: doc(t, map[string]any{})}))
		}

		records, err := s.GetAll(ctx, Categories, nil)
		require.NoError(t, err)
		require.Len(t, records, len(keys))
		for i, k := range keys {
			assert.Equal(t, k, records[i].Key)
		}
	})
}
