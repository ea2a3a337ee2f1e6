package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/injectdb/internal/database/common"
)

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteAll(names []string) []string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdentifier(name)
	}
	return quoted
}

func (s *Adapter) SelectColumns(ctx context.Context, tableName string, columns []string) (*common.QueryResult, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("no columns selected from %s", tableName)
	}

	query, args, err := s.qb.Select(quoteAll(columns)...).From(quoteIdentifier(tableName)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %s: %w", tableName, err)
	}
	defer rows.Close()

	return common.ScanRows(rows)
}

func (s *Adapter) LookupIDs(ctx context.Context, tableName, keyColumn, idColumn string, keys []any) (map[string]any, error) {
	result := make(map[string]any, len(keys))
	for _, chunk := range common.ChunkKeys(keys, maxBindParams) {
		if err := s.lookupChunk(ctx, tableName, keyColumn, idColumn, chunk, result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *Adapter) lookupChunk(ctx context.Context, tableName, keyColumn, idColumn string, keys []any, result map[string]any) error {
	query, args, err := s.qb.
		Select(quoteIdentifier(keyColumn), quoteIdentifier(idColumn)).
		From(quoteIdentifier(tableName)).
		Where(squirrel.Eq{quoteIdentifier(keyColumn): keys}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build lookup: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to resolve %s.%s: %w", tableName, keyColumn, err)
	}
	defer rows.Close()

	found, err := common.ScanRows(rows)
	if err != nil {
		return err
	}
	for _, row := range found.Rows {
		result[common.LookupKey(row[0])] = row[1]
	}
	return nil
}

func (s *Adapter) InsertRows(ctx context.Context, tableName string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	quoted := quoteAll(columns)
	batch := common.BatchRows(len(columns), maxBindParams)

	var inserted int64
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))

		builder := s.qb.Insert(quoteIdentifier(tableName)).Columns(quoted...)
		for _, row := range rows[start:end] {
			builder = builder.Values(row...)
		}

		query, args, err := builder.ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build insert: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert into %s: %w", tableName, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert into %s: %w", tableName, err)
	}
	return inserted, nil
}
