package postgres

import (
	"context"
	"testing"

	"github.com/Rana718/injectdb/internal/testinfra"
	"github.com/Rana718/injectdb/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()

	connString := testinfra.RequirePostgres(t)
	ctx := context.Background()

	adapter := New()
	require.NoError(t, adapter.Connect(ctx, connString))
	t.Cleanup(func() { adapter.Close() })

	_, err := adapter.pool.Exec(ctx, `
		DROP TABLE IF EXISTS orders;
		DROP TABLE IF EXISTS customers;
		CREATE TABLE customers (
			id UUID PRIMARY KEY,
			email VARCHAR(120) UNIQUE NOT NULL,
			profile JSONB
		);
		CREATE TABLE orders (
			id UUID PRIMARY KEY,
			customer_id UUID REFERENCES customers(id),
			amount INTEGER
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
	assert.Contains(t, tables, "customers")
	assert.Contains(t, tables, "orders")

	columns, err := adapter.GetTableColumns(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "customer_id", "amount"}, types.ColumnNames(columns))
	assert.True(t, columns[0].IsPrimary)
	assert.Equal(t, "customers", columns[1].ForeignKeyTable)
	assert.Equal(t, "id", columns[1].ForeignKeyColumn)
	assert.Equal(t, "INTEGER", columns[2].Type)
}

func TestAdapter_InsertSelectLookup(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	n, err := adapter.InsertRows(ctx, "customers", []string{"id", "email", "profile"}, [][]any{
		{"0b8c4c1e-3a43-4ae4-9a0f-1b8d9e3c0a01", "ana@example.com", `{"tier":"gold"}`},
		{"0b8c4c1e-3a43-4ae4-9a0f-1b8d9e3c0a02", "bo@example.com", nil},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	// text literals are coerced into the INTEGER column
	_, err = adapter.InsertRows(ctx, "orders", []string{"id", "customer_id", "amount"}, [][]any{
		{"5d1f0e7a-8f7e-4c39-9d56-3b1b7c0f0a11", "0b8c4c1e-3a43-4ae4-9a0f-1b8d9e3c0a01", "42"},
	})
	require.NoError(t, err)

	result, err := adapter.SelectColumns(ctx, "customers", []string{"id", "email"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.IsType(t, "", result.Rows[0][0])

	ids, err := adapter.LookupIDs(ctx, "customers", "email", "id", []any{"ana@example.com", "missing@example.com"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ana@example.com": "0b8c4c1e-3a43-4ae4-9a0f-1b8d9e3c0a01"}, ids)
}

func TestAdapter_InsertRollsBackOnError(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	_, err := adapter.InsertRows(ctx, "customers", []string{"id", "email"}, [][]any{
		{"0b8c4c1e-3a43-4ae4-9a0f-1b8d9e3c0a03", "dup@example.com"},
		{"0b8c4c1e-3a43-4ae4-9a0f-1b8d9e3c0a04", "dup@example.com"},
	})
	require.Error(t, err)

	result, err := adapter.SelectColumns(ctx, "customers", []string{"email"})
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
}
