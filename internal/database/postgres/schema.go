package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Rana718/injectdb/internal/types"
)

func (p *Adapter) GetAllTableNames(ctx context.Context) ([]string, error) {
	// Check both current_schema() and 'public' so a search_path set in the URL is honoured
	rows, err := p.pool.Query(ctx, `
		SELECT DISTINCT table_name FROM information_schema.tables
		WHERE table_schema IN (current_schema(), 'public') AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := make([]string, 0, 32)
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

func (p *Adapter) GetTableColumns(ctx context.Context, tableName string) ([]types.SchemaColumn, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT DISTINCT ON (c.ordinal_position)
			c.column_name,
			c.udt_name,
			c.is_nullable,
			c.column_default,
			c.character_maximum_length
		FROM information_schema.columns c
		WHERE c.table_name = $1
		  AND c.table_schema IN (current_schema(), 'public')
		ORDER BY c.ordinal_position, c.table_schema
	`, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns of %s: %w", tableName, err)
	}
	defer rows.Close()

	var columns []types.SchemaColumn
	index := make(map[string]int)
	for rows.Next() {
		var column types.SchemaColumn
		var udtName, isNullable string
		var columnDefault sql.NullString
		var charMaxLength sql.NullInt64

		if err := rows.Scan(&column.Name, &udtName, &isNullable, &columnDefault, &charMaxLength); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", tableName, err)
		}

		column.Type = formatPostgresType(udtName, charMaxLength)
		column.Nullable = isNullable == "YES"
		if columnDefault.Valid {
			column.Default = columnDefault.String
			column.IsAutoIncrement = strings.Contains(strings.ToLower(columnDefault.String), "nextval")
		}

		index[column.Name] = len(columns)
		columns = append(columns, column)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := p.applyConstraints(ctx, tableName, columns, index); err != nil {
		return nil, err
	}
	return columns, nil
}

func (p *Adapter) applyConstraints(ctx context.Context, tableName string, columns []types.SchemaColumn, index map[string]int) error {
	rows, err := p.pool.Query(ctx, `
		SELECT
			src_attr.attname AS column_name,
			con.contype::text AS constraint_type,
			tgt_table.relname AS foreign_table_name,
			tgt_attr.attname AS foreign_column_name
		FROM pg_constraint con
		JOIN pg_class src_table ON con.conrelid = src_table.oid
		JOIN pg_namespace ns ON src_table.relnamespace = ns.oid
		CROSS JOIN LATERAL UNNEST(con.conkey, COALESCE(con.confkey, con.conkey)) AS cols(src_col, tgt_col)
		JOIN pg_attribute src_attr ON src_attr.attrelid = src_table.oid AND src_attr.attnum = cols.src_col
		LEFT JOIN pg_class tgt_table ON con.confrelid = tgt_table.oid
		LEFT JOIN pg_attribute tgt_attr ON tgt_attr.attrelid = tgt_table.oid AND tgt_attr.attnum = cols.tgt_col
		WHERE src_table.relname = $1
		  AND ns.nspname IN (current_schema(), 'public')
		  AND con.contype IN ('p', 'u', 'f')
	`, tableName)
	if err != nil {
		return fmt.Errorf("failed to read constraints of %s: %w", tableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		var columnName, constraintType string
		var fkTable, fkColumn sql.NullString
		if err := rows.Scan(&columnName, &constraintType, &fkTable, &fkColumn); err != nil {
			return fmt.Errorf("failed to scan constraint of %s: %w", tableName, err)
		}

		i, ok := index[columnName]
		if !ok {
			continue
		}
		switch constraintType {
		case "p":
			columns[i].IsPrimary = true
		case "u":
			columns[i].IsUnique = true
		case "f":
			columns[i].ForeignKeyTable = fkTable.String
			columns[i].ForeignKeyColumn = fkColumn.String
		}
	}
	return rows.Err()
}

var typeMap = map[string]string{
	"varchar": "VARCHAR", "bpchar": "CHAR", "text": "TEXT",
	"int2": "SMALLINT", "int4": "INTEGER", "int8": "BIGINT",
	"float4": "REAL", "float8": "DOUBLE PRECISION", "numeric": "NUMERIC",
	"bool": "BOOLEAN", "date": "DATE", "time": "TIME",
	"timestamp": "TIMESTAMP", "timestamptz": "TIMESTAMP WITH TIME ZONE",
	"uuid": "UUID", "json": "JSON", "jsonb": "JSONB", "bytea": "BYTEA",
}

func formatPostgresType(udtName string, charMaxLength sql.NullInt64) string {
	base, ok := typeMap[strings.ToLower(udtName)]
	if !ok {
		base = strings.ToUpper(udtName)
	}
	if charMaxLength.Valid && (base == "VARCHAR" || base == "CHAR") {
		return fmt.Sprintf("%s(%d)", base, charMaxLength.Int64)
	}
	return base
}
