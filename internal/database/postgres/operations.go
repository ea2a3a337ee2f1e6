package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/injectdb/internal/database/common"
	"github.com/lib/pq"
)

func quoteAll(names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = pq.QuoteIdentifier(name)
	}
	return quoted
}

func (p *Adapter) SelectColumns(ctx context.Context, tableName string, columns []string) (*common.QueryResult, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns selected from %s", tableName)
	}

	query, args, err := p.qb.Select(quoteAll(columns)...).From(pq.QuoteIdentifier(tableName)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", tableName, err)
	}
	defer rows.Close()

	fieldDescriptions := rows.FieldDescriptions()
	names := make([]string, len(fieldDescriptions))
	for i, fd := range fieldDescriptions {
		names[i] = fd.Name
	}

	result := &common.QueryResult{Columns: names}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i := range values {
			values[i] = common.NormalizeValue(values[i])
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

func (p *Adapter) LookupIDs(ctx context.Context, tableName, keyColumn, idColumn string, keys []any) (map[string]any, error) {
	result := make(map[string]any, len(keys))
	for _, chunk := range common.ChunkKeys(keys, maxBindParams) {
		if err := p.lookupChunk(ctx, tableName, keyColumn, idColumn, chunk, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (p *Adapter) lookupChunk(ctx context.Context, tableName, keyColumn, idColumn string, keys []any, result map[string]any) error {
	query, args, err := p.qb.
		Select(pq.QuoteIdentifier(keyColumn), pq.QuoteIdentifier(idColumn)).
		From(pq.QuoteIdentifier(tableName)).
		Where(squirrel.Eq{pq.QuoteIdentifier(keyColumn): keys}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build lookup: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to resolve %s.%s: %w", tableName, keyColumn, err)
	}
	defer rows.Close()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return fmt.Errorf("failed to scan lookup row: %w", err)
		}
		result[common.LookupKey(values[0])] = common.NormalizeValue(values[1])
	}
	return rows.Err()
}

func (p *Adapter) InsertRows(ctx context.Context, tableName string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	quoted := quoteAll(columns)
	batch := common.BatchRows(len(columns), maxBindParams)

	var inserted int64
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))

		builder := p.qb.Insert(pq.QuoteIdentifier(tableName)).Columns(quoted...)
		for _, row := range rows[start:end] {
			builder = builder.Values(row...)
		}

		query, args, err := builder.ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build insert: %w", err)
		}

		tag, err := tx.Exec(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert into %s: %w", tableName, err)
		}
		inserted += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit insert into %s: %w", tableName, err)
	}
	return inserted, nil
}
