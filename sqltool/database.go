// Package sqltool exposes read-only SQL database capabilities as agent
// tools: table listing, schema inspection and guarded query execution.
package sqltool

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"

	_ "github.com/mattn/go-sqlite3"
)

const sampleRows = 3

// Database wraps a SQL connection with the introspection and read-only
// query primitives the toolkit builds on.
type Database struct {
	db       *sql.DB
	executed atomic.Int64
}

// Open opens a SQLite database at the given path.
func Open(path string) (*Database, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Database{db: db}, nil
}

// NewDatabase wraps an already-open connection.
func NewDatabase(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Executed returns the number of statements actually run against the
// database. Rejected statements never count.
func (d *Database) Executed() int64 {
	return d.executed.Load()
}

// ListTables returns user table names in sorted order.
func (d *Database) ListTables(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
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

// TableInfo returns the CREATE statements for the named tables, each
// followed by a short sample of its rows so the model can see concrete
// values alongside the schema.
func (d *Database) TableInfo(ctx context.Context, tables []string) (string, error) {
	var sb strings.Builder
	for i, table := range tables {
		var createSQL string
		err := d.db.QueryRowContext(ctx,
			`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&createSQL)
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("table %q not found", table)
		}
		if err != nil {
			return "", fmt.Errorf("schema for %q: %w", table, err)
		}

		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(createSQL)

		sample, err := d.sampleTable(ctx, table)
		if err != nil {
			return "", err
		}
		sb.WriteString("\n\n/*\n")
		sb.WriteString(fmt.Sprintf("%d rows from %s table:\n", sampleRows, table))
		sb.WriteString(sample)
		sb.WriteString("*/")
	}
	return sb.String(), nil
}

func (d *Database) sampleTable(ctx context.Context, table string) (string, error) {
	rows, err := d.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT * FROM %s LIMIT %d`, quoteIdentifier(table), sampleRows))
	if err != nil {
		return "", fmt.Errorf("sample %q: %w", table, err)
	}
	defer rows.Close()
	return renderRows(rows, "\t")
}

// Query runs a read-only statement and returns the result set as text.
// Data-modifying statements are rejected by CheckReadOnly before anything
// reaches the database.
func (d *Database) Query(ctx context.Context, query string) (string, error) {
	if err := CheckReadOnly(query); err != nil {
		return "", err
	}

	d.executed.Add(1)
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	out, err := renderRows(rows, " | ")
	if err != nil {
		return "", err
	}
	if out == "" {
		return "(no rows)", nil
	}
	return out, nil
}

// renderRows prints a header line followed by one line per row, values
// joined by sep. Returns "" for an empty result set.
func renderRows(rows *sql.Rows, sep string) (string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	count := 0
	for rows.Next() {
		if count == 0 {
			sb.WriteString(strings.Join(cols, sep))
			sb.WriteString("\n")
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		fields := make([]string, len(cols))
		for i, v := range values {
			fields[i] = renderValue(v)
		}
		sb.WriteString(strings.Join(fields, sep))
		sb.WriteString("\n")
		count++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if count == 0 {
		return "", nil
	}
	return sb.String(), nil
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
