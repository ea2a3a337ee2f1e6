package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Rana718/injectdb/internal/types"
)

func (s *Adapter) GetAllTableNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

// GetTableColumns reads the column catalog through the pragma table-valued
// functions. An unknown table yields no columns.
func (s *Adapter) GetTableColumns(ctx context.Context, tableName string) ([]types.SchemaColumn, error) {
	uniqueColumns, err := s.uniqueColumns(ctx, tableName)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", dflt_value, pk FROM pragma_table_info(?) ORDER BY cid`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []types.SchemaColumn
	for rows.Next() {
		var cid, notNull, pk int
		var column types.SchemaColumn
		var dataType string
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &column.Name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return nil, err
		}

		column.Type = formatSQLiteType(dataType)
		column.Nullable = notNull == 0 && pk == 0
		column.IsPrimary = pk > 0
		column.IsAutoIncrement = pk > 0 && strings.EqualFold(dataType, "INTEGER")
		column.IsUnique = uniqueColumns[column.Name]
		if defaultValue.Valid {
			column.Default = defaultValue.String
		}
		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.applyForeignKeys(ctx, tableName, columns); err != nil {
		return nil, err
	}
	return columns, nil
}

func (s *Adapter) applyForeignKeys(ctx context.Context, tableName string, columns []types.SchemaColumn) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seq, "table", "from", "to", on_update, on_delete, "match" FROM pragma_foreign_key_list(?)`, tableName)
	if err != nil {
		return fmt.Errorf("failed to read foreign keys of %s: %w", tableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, seq int
		var table, from string
		var to sql.NullString
		var onUpdate, onDelete, match string

		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return err
		}

		for i := range columns {
			if columns[i].Name == from {
				columns[i].ForeignKeyTable = table
				columns[i].ForeignKeyColumn = to.String
				break
			}
		}
	}
	return rows.Err()
}

// uniqueColumns returns the columns covered by a single-column unique index.
func (s *Adapter) uniqueColumns(ctx context.Context, tableName string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, name, "unique", origin, partial FROM pragma_index_list(?)`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to read indexes of %s: %w", tableName, err)
	}

	var uniqueIndexes []string
	for rows.Next() {
		var seq, unique int
		var indexName, origin string
		var partial int

		if err := rows.Scan(&seq, &indexName, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, err
		}
		if unique == 1 && origin != "pk" {
			uniqueIndexes = append(uniqueIndexes, indexName)
		}
	}
	rows.Close()

	uniqueMap := make(map[string]bool)
	for _, indexName := range uniqueIndexes {
		columns, err := s.indexColumns(ctx, indexName)
		if err != nil {
			return nil, err
		}
		if len(columns) == 1 {
			uniqueMap[columns[0]] = true
		}
	}
	return uniqueMap, nil
}

func (s *Adapter) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT seqno, cid, name FROM pragma_index_info(?)", indexName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var name sql.NullString
		if err := rows.Scan(&seqno, &cid, &name); err != nil {
			return nil, err
		}
		columns = append(columns, name.String)
	}
	return columns, rows.Err()
}

func formatSQLiteType(dataType string) string {
	if dataType == "" {
		return "BLOB"
	}
	return strings.ToUpper(dataType)
}
