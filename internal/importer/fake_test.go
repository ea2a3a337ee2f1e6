package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rana718/injectdb/internal/database/common"
	"github.com/Rana718/injectdb/internal/types"
)

type insertCall struct {
	table   string
	columns []string
	rows    [][]any
}

// fakeDB is an in-memory Destination and Source.
type fakeDB struct {
	schema    map[string][]types.SchemaColumn
	data      map[string]*common.QueryResult
	inserts   []insertCall
	failTable string
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		schema: map[string][]types.SchemaColumn{
			"users": {
				{Name: "id", Type: "UUID", IsPrimary: true},
				{Name: "name", Type: "TEXT"},
				{Name: "email", Type: "VARCHAR(120)"},
				{Name: "meta", Type: "JSONB"},
				{Name: "owner", Type: "TEXT"},
			},
			"counters": {
				{Name: "id", Type: "INTEGER", IsPrimary: true, IsAutoIncrement: true},
				{Name: "label", Type: "TEXT"},
			},
			"orders": {
				{Name: "id", Type: "UUID", IsPrimary: true},
				{Name: "customer_id", Type: "UUID"},
				{Name: "total", Type: "INTEGER"},
			},
		},
		data: map[string]*common.QueryResult{
			"customers": {Columns: []string{"id", "email"}, Rows: [][]any{
				{"c-1", "ana@example.com"},
				{"c-2", "bo@example.com"},
			}},
		},
	}
}

func (f *fakeDB) GetTableColumns(ctx context.Context, tableName string) ([]types.SchemaColumn, error) {
	return f.schema[tableName], nil
}

func (f *fakeDB) LookupIDs(ctx context.Context, tableName, keyColumn, idColumn string, keys []any) (map[string]any, error) {
	data, ok := f.data[tableName]
	if !ok {
		return nil, fmt.Errorf("relation %q does not exist", tableName)
	}
	keyIdx, idIdx := -1, -1
	for i, c := range data.Columns {
		if c == keyColumn {
			keyIdx = i
		}
		if c == idColumn {
			idIdx = i
		}
	}
	wanted := make(map[string]bool)
	for _, k := range keys {
		wanted[common.LookupKey(k)] = true
	}
	out := make(map[string]any)
	for _, row := range data.Rows {
		key := common.LookupKey(row[keyIdx])
		if wanted[key] {
			out[key] = row[idIdx]
		}
	}
	return out, nil
}

func (f *fakeDB) InsertRows(ctx context.Context, tableName string, columns []string, rows [][]any) (int64, error) {
	if tableName == f.failTable {
		return 0, errors.New("insert rejected")
	}
	f.inserts = append(f.inserts, insertCall{table: tableName, columns: columns, rows: rows})
	return int64(len(rows)), nil
}

func (f *fakeDB) SelectColumns(ctx context.Context, tableName string, columns []string) (*common.QueryResult, error) {
	data, ok := f.data[tableName]
	if !ok {
		return nil, fmt.Errorf("relation %q does not exist", tableName)
	}
	out := &common.QueryResult{Columns: columns}
	for _, row := range data.Rows {
		selected := make([]any, len(columns))
		for i, c := range columns {
			for j, name := range data.Columns {
				if name == c {
					selected[i] = row[j]
				}
			}
		}
		out.Rows = append(out.Rows, selected)
	}
	return out, nil
}
