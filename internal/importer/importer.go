package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rana718/injectdb/internal/database/common"
	"github.com/Rana718/injectdb/internal/frame"
	"github.com/Rana718/injectdb/internal/logging"
	"github.com/Rana718/injectdb/internal/types"
)

const DefaultIDColumn = "id"

// Destination is the part of a database adapter an import writes through.
type Destination interface {
	GetTableColumns(ctx context.Context, tableName string) ([]types.SchemaColumn, error)
	LookupIDs(ctx context.Context, tableName, keyColumn, idColumn string, keys []any) (map[string]any, error)
	InsertRows(ctx context.Context, tableName string, columns []string, rows [][]any) (int64, error)
}

// Source is the part of a database adapter a transfer reads from.
type Source interface {
	SelectColumns(ctx context.Context, tableName string, columns []string) (*common.QueryResult, error)
}

type Importer struct {
	dest     Destination
	idColumn string
	logger   logging.Logger
}

func New(dest Destination, idColumn string, logger logging.Logger) *Importer {
	if idColumn == "" {
		idColumn = DefaultIDColumn
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Importer{dest: dest, idColumn: idColumn, logger: logger}
}

// ImportFrame inserts the mapped fields of f, one destination table at a time.
// A failing table is reported in its result and does not stop the others;
// the returned error only covers problems with the request itself.
func (im *Importer) ImportFrame(ctx context.Context, f *frame.Frame, mappings []Mapping, relationships []Relationship) ([]TableResult, error) {
	if f == nil {
		return nil, ErrNoFrame
	}
	if err := ValidateMappings(mappings); err != nil {
		return nil, err
	}

	plans := groupByTable(mappings)
	results := make([]TableResult, 0, len(plans))
	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := im.importTable(ctx, f, plan, relationships)
		if result.err != nil {
			result.Error = result.err.Error()
			im.logger.Error("Import into %s failed: %v", plan.table, result.err)
		} else {
			im.logger.Success("Inserted %d rows into %s", result.Rows, plan.table)
		}
		results = append(results, result)
	}
	return results, nil
}

func (im *Importer) importTable(ctx context.Context, f *frame.Frame, plan *tablePlan, relationships []Relationship) TableResult {
	result := TableResult{Table: plan.table}

	rows, err := f.Select(plan.sources, plan.columns)
	if err != nil {
		result.err = err
		return result
	}

	for _, rel := range relationships {
		if rel.SourceTable != plan.table {
			continue
		}
		values, ok := rows.Column(rel.SourceColumn)
		if !ok {
			continue
		}
		if err := rows.SetColumn(rel.DestColumn, values); err != nil {
			result.err = err
			return result
		}
		im.logger.Verbose("Copied %s.%s into %s", plan.table, rel.SourceColumn, rel.DestColumn)
	}

	generated, err := im.prepare(ctx, plan.table, rows)
	result.GeneratedIDs = generated
	result.Columns = rows.Columns
	if err != nil {
		result.err = err
		return result
	}

	result.Rows, result.err = im.dest.InsertRows(ctx, plan.table, rows.Columns, rows.Rows)
	return result
}

// prepare fills ids, encodes nested values and checks every row set column
// exists in table. It returns how many ids were generated.
func (im *Importer) prepare(ctx context.Context, table string, rows *frame.Frame) (int, error) {
	columns, err := im.dest.GetTableColumns(ctx, table)
	if err != nil {
		return 0, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	generated := 0
	if idColumn := findColumn(columns, im.idColumn); idColumn != nil && acceptsUUID(*idColumn) {
		generated = rows.FillMissingUUIDs(im.idColumn)
	}

	if err := rows.EncodeNested(); err != nil {
		return generated, err
	}

	var missing []string
	for _, name := range rows.Columns {
		if !types.HasColumn(columns, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return generated, &MissingColumnsError{Table: table, Columns: missing}
	}
	return generated, nil
}

// Transfer copies columns of a source table into a destination table,
// resolving relationship columns against the destination on the way.
func (im *Importer) Transfer(ctx context.Context, src Source, req TransferRequest) (*TransferResult, error) {
	if src == nil || im.dest == nil {
		return nil, ErrNotConnected
	}
	if req.SourceTable == "" || req.DestTable == "" {
		return nil, fmt.Errorf("source and destination tables are required")
	}
	if len(req.SourceColumns) == 0 {
		return nil, fmt.Errorf("select at least one source column")
	}

	data, err := src.SelectColumns(ctx, req.SourceTable, req.SourceColumns)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", req.SourceTable, err)
	}
	rows := frame.New(data.Columns, data.Rows)
	im.logger.Verbose("Read %d rows from %s", rows.Len(), req.SourceTable)

	renamed := make(map[string]string, len(req.SourceColumns))
	if len(req.DestColumns) == len(req.SourceColumns) {
		rows, err = rows.Select(req.SourceColumns, req.DestColumns)
		if err != nil {
			return nil, err
		}
		for i, name := range req.SourceColumns {
			renamed[name] = req.DestColumns[i]
		}
	}

	result := &TransferResult{Table: req.DestTable}
	result.GeneratedIDs, err = im.prepare(ctx, req.DestTable, rows)
	if err != nil {
		return nil, err
	}

	for _, rel := range req.Relationships {
		if rel.SourceTable != "" && rel.SourceTable != req.SourceTable && rel.SourceTable != req.DestTable {
			continue
		}
		column, ok := renamed[rel.SourceColumn]
		if !ok {
			column = rel.SourceColumn
		}
		if column == "" || !rows.HasColumn(column) {
			return nil, fmt.Errorf("relationship column %s is not part of the transfer", rel.SourceColumn)
		}

		unresolved, err := im.resolve(ctx, rows, column, rel)
		if err != nil {
			return nil, err
		}
		result.Unresolved += unresolved
	}

	result.Columns = rows.Columns
	result.Rows, err = im.dest.InsertRows(ctx, req.DestTable, rows.Columns, rows.Rows)
	if err != nil {
		return nil, err
	}
	im.logger.Success("Transferred %d rows from %s to %s", result.Rows, req.SourceTable, req.DestTable)
	return result, nil
}

// resolve swaps the values of column for the id of the destination row whose
// rel.DestColumn holds the same value. Values with no match become NULL and
// are counted.
func (im *Importer) resolve(ctx context.Context, rows *frame.Frame, column string, rel Relationship) (int, error) {
	keys := rows.Distinct(column)
	if len(keys) == 0 {
		return 0, nil
	}

	ids, err := im.dest.LookupIDs(ctx, rel.DestTable, rel.DestColumn, im.idColumn, keys)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve relationship %s: %w", rel, err)
	}

	values, _ := rows.Column(column)
	unresolved := 0
	for i, value := range values {
		if frame.IsEmpty(value) {
			values[i] = nil
			continue
		}
		id, ok := ids[common.LookupKey(value)]
		if !ok {
			unresolved++
		}
		values[i] = id
	}
	if unresolved > 0 {
		im.logger.Warn("%d values of %s had no match in %s.%s", unresolved, column, rel.DestTable, rel.DestColumn)
	}
	return unresolved, rows.SetColumn(column, values)
}

func findColumn(columns []types.SchemaColumn, name string) *types.SchemaColumn {
	for i := range columns {
		if columns[i].Name == name {
			return &columns[i]
		}
	}
	return nil
}

// acceptsUUID reports whether generated UUID strings fit the column.
func acceptsUUID(column types.SchemaColumn) bool {
	if column.IsAutoIncrement {
		return false
	}
	t := strings.ToLower(column.Type)
	return strings.Contains(t, "uuid") || strings.Contains(t, "char") || strings.Contains(t, "text")
}
