package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/Rana718/injectdb/internal/database/common"
	"github.com/Rana718/injectdb/internal/types"
)

type DatabaseAdapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// Catalog introspection
	GetAllTableNames(ctx context.Context) ([]string, error)
	GetTableColumns(ctx context.Context, tableName string) ([]types.SchemaColumn, error)

	// Data access
	SelectColumns(ctx context.Context, tableName string, columns []string) (*common.QueryResult, error)
	LookupIDs(ctx context.Context, tableName, keyColumn, idColumn string, keys []any) (map[string]any, error)
	InsertRows(ctx context.Context, tableName string, columns []string, rows [][]any) (int64, error)
}

// ProviderFromURL infers the provider from a connection string. fallback is returned when
// the URL carries no recognisable scheme.
func ProviderFromURL(url, fallback string) string {
	lower := strings.ToLower(strings.TrimSpace(url))
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgresql"
	case strings.HasPrefix(lower, "mysql://"), strings.Contains(lower, "@tcp("):
		return "mysql"
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return "sqlite"
	}
	return fallback
}

// Open picks the adapter for url, connects and pings it. The adapter is closed again when
// the ping fails so callers only ever hold live connections.
func Open(ctx context.Context, url, fallbackProvider string) (DatabaseAdapter, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("connection URL is empty")
	}

	adapter := NewAdapter(ProviderFromURL(url, fallbackProvider))
	if err := adapter.Connect(ctx, url); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := adapter.Ping(ctx); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return adapter, nil
}

// MaskURL hides the password part of a connection URL for display.
func MaskURL(url string) string {
	schemeEnd := strings.Index(url, "://")
	at := strings.LastIndex(url, "@")
	if schemeEnd < 0 || at < schemeEnd {
		return url
	}
	creds := url[schemeEnd+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return url[:schemeEnd+3] + creds[:colon] + ":***" + url[at:]
	}
	return url
}
