package datafile

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteReader previews every table of a SQLite database
type SQLiteReader struct{}

// Read implements Reader
func (SQLiteReader) Read(ctx context.Context, path string) (Content, error) {
	dsn := "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	names, err := tableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	out := &Database{}
	for _, name := range names {
		preview, err := previewTable(ctx, db, name)
		if err != nil {
			return nil, err
		}
		out.Tables = append(out.Tables, *preview)
	}
	return out, nil
}

func tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table'")
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func previewTable(ctx context.Context, db *sql.DB, name string) (*TablePreview, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(name), DatabasePreviewRows)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reading table %s: %w", name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	preview := &TablePreview{Name: name, Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		record := make([]string, len(columns))
		for i, v := range values {
			record[i] = formatSQLValue(v)
		}
		preview.Rows = append(preview.Rows, record)
	}
	return preview, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func formatSQLValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
