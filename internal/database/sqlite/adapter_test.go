package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/Rana718/injectdb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	ctx := context.Background()

	adapter := New()
	require.NoError(t, adapter.Connect(ctx, "sqlite://"+filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { adapter.Close() })

	_, err := adapter.db.ExecContext(ctx, `
		CREATE TABLE customers (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT
		);
		CREATE TABLE orders (
			id TEXT PRIMARY KEY,
			customer_id TEXT REFERENCES customers(id),
			amount INTEGER DEFAULT 0
		);
	`)
	require.NoError(t, err)
	return adapter
}

func TestAdapter_Catalog(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	tables, err := adapter.GetAllTableNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, tables)

	columns, err := adapter.GetTableColumns(ctx, "customers")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email", "name"}, types.ColumnNames(columns))
	assert.True(t, columns[0].IsPrimary)
	assert.True(t, columns[1].IsUnique)
	assert.False(t, columns[1].Nullable)
	assert.True(t, columns[2].Nullable)

	columns, err = adapter.GetTableColumns(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, "customers", columns[1].ForeignKeyTable)
	assert.Equal(t, "id", columns[1].ForeignKeyColumn)
	assert.Equal(t, "0", columns[2].Default)
}

func TestAdapter_NamesNeedingQuotes(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	_, err := adapter.db.ExecContext(ctx, `
		CREATE TABLE "order items" (
			"line id" TEXT PRIMARY KEY,
			"order" TEXT REFERENCES orders(id),
			"sku code" TEXT UNIQUE
		)
	`)
	require.NoError(t, err)

	columns, err := adapter.GetTableColumns(ctx, "order items")
	require.NoError(t, err)
	assert.Equal(t, []string{"line id", "order", "sku code"}, types.ColumnNames(columns))
	assert.True(t, columns[0].IsPrimary)
	assert.Equal(t, "orders", columns[1].ForeignKeyTable)
	assert.True(t, columns[2].IsUnique)

	n, err := adapter.InsertRows(ctx, "order items", []string{"line id", "sku code"}, [][]any{{"l1", "A-1"}})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAdapter_GetTableColumnsUnknownTable(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	columns, err := adapter.GetTableColumns(ctx, `customers"; DROP TABLE orders; --`)
	require.NoError(t, err)
	assert.Empty(t, columns)

	tables, err := adapter.GetAllTableNames(ctx)
	require.NoError(t, err)
	assert.Contains(t, tables, "orders")
}

func TestAdapter_InsertSelectLookup(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	n, err := adapter.InsertRows(ctx, "customers", []string{"id", "email", "name"}, [][]any{
		{"c1", "ana@example.com", "Ana"},
		{"c2", "bo@example.com", nil},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	result, err := adapter.SelectColumns(ctx, "customers", []string{"email", "name"})
	require.NoError(t, err)
	assert.Equal(t, []string{"email", "name"}, result.Columns)
	assert.Equal(t, [][]any{{"ana@example.com", "Ana"}, {"bo@example.com", nil}}, result.Rows)

	ids, err := adapter.LookupIDs(ctx, "customers", "email", "id", []any{"bo@example.com", "nobody@example.com"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"bo@example.com": "c2"}, ids)
}

func TestAdapter_InsertManyBatches(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	rows := make([][]any, 1203)
	for i := range rows {
		rows[i] = []any{fmt.Sprintf("id-%d", i), fmt.Sprintf("user%d@example.com", i), nil}
	}
	n, err := adapter.InsertRows(ctx, "customers", []string{"id", "email", "name"}, rows)
	require.NoError(t, err)
	assert.EqualValues(t, 1203, n)
}

func TestAdapter_LookupManyKeys(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	const total = 40000
	rows := make([][]any, total)
	keys := make([]any, 0, total+1)
	for i := range rows {
		email := fmt.Sprintf("user%d@example.com", i)
		rows[i] = []any{fmt.Sprintf("id-%d", i), email}
		keys = append(keys, email)
	}
	keys = append(keys, "nobody@example.com")

	_, err := adapter.InsertRows(ctx, "customers", []string{"id", "email"}, rows)
	require.NoError(t, err)

	ids, err := adapter.LookupIDs(ctx, "customers", "email", "id", keys)
	require.NoError(t, err)
	assert.Len(t, ids, total)
	assert.Equal(t, "id-39999", ids["user39999@example.com"])
	assert.NotContains(t, ids, "nobody@example.com")
}

func TestAdapter_InsertRollsBackOnError(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	_, err := adapter.InsertRows(ctx, "customers", []string{"id", "email"}, [][]any{
		{"c1", "dup@example.com"},
		{"c2", "dup@example.com"},
	})
	require.Error(t, err)

	result, err := adapter.SelectColumns(ctx, "customers", []string{"id"})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
}
