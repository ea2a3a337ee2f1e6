package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Rana718/injectdb/internal/types"
)

func (m *Adapter) GetAllTableNames(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
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

func (m *Adapter) GetTableColumns(ctx context.Context, tableName string) ([]types.SchemaColumn, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT
			c.column_name,
			c.data_type,
			c.column_type,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length,
			CASE WHEN c.column_key = 'PRI' THEN 1 ELSE 0 END AS is_primary_key,
			CASE WHEN c.column_key = 'UNI' THEN 1 ELSE 0 END AS is_unique,
			c.extra,
			k.REFERENCED_TABLE_NAME,
			k.REFERENCED_COLUMN_NAME
		FROM information_schema.columns c
		LEFT JOIN information_schema.key_column_usage k
			ON c.table_schema = k.table_schema
			AND c.table_name = k.table_name
			AND c.column_name = k.column_name
			AND k.referenced_table_name IS NOT NULL
		WHERE c.table_name = ? AND c.table_schema = DATABASE()
		ORDER BY c.ordinal_position
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []types.SchemaColumn
	for rows.Next() {
		var column types.SchemaColumn
		var dataType, columnType, isNullable, extra string
		var columnDefault, referencedTable, referencedColumn sql.NullString
		var charMaxLength sql.NullInt64
		var isPrimary, isUnique int

		err := rows.Scan(
			&column.Name,
			&dataType,
			&columnType,
			&isNullable,
			&columnDefault,
			&charMaxLength,
			&isPrimary,
			&isUnique,
			&extra,
			&referencedTable,
			&referencedColumn,
		)
		if err != nil {
			return nil, err
		}

		column.Type = formatMySQLType(dataType, columnType, charMaxLength)
		column.Nullable = isNullable == "YES"
		column.IsPrimary = isPrimary == 1
		column.IsUnique = isUnique == 1
		column.IsAutoIncrement = strings.Contains(strings.ToLower(extra), "auto_increment")
		if columnDefault.Valid {
			column.Default = columnDefault.String
		}
		if referencedTable.Valid && referencedColumn.Valid {
			column.ForeignKeyTable = referencedTable.String
			column.ForeignKeyColumn = referencedColumn.String
		}

		columns = append(columns, column)
	}
	return columns, rows.Err()
}

func formatMySQLType(dataType, columnType string, charMaxLength sql.NullInt64) string {
	switch dataType {
	case "varchar":
		if charMaxLength.Valid {
			return fmt.Sprintf("VARCHAR(%d)", charMaxLength.Int64)
		}
		return "VARCHAR(255)"
	case "char":
		if charMaxLength.Valid {
			return fmt.Sprintf("CHAR(%d)", charMaxLength.Int64)
		}
		return "CHAR(1)"
	default:
		if columnType != "" {
			return strings.ToUpper(columnType)
		}
		return strings.ToUpper(dataType)
	}
}
