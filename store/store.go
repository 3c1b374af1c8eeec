// Package store persists flattened column maps in SQLite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agentflare-ai/go-xsdgen/flatten"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoRowTag is returned when a result without a row tag is saved.
var ErrNoRowTag = errors.New("result has no row tag")

// DB wraps a SQLite database connection.
type DB struct {
	*sql.DB
}

// Open creates a new SQLite database connection.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &DB{DB: db}, nil
}

// Migrate runs all pending migrations.
func (db *DB) Migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("query migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return fmt.Errorf("scan migration: %w", err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("query migrations: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var migrations []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			migrations = append(migrations, entry.Name())
		}
	}
	sort.Strings(migrations)

	for _, name := range migrations {
		version := strings.TrimSuffix(name, ".sql")
		if applied[version] {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

// SaveColumns replaces the column map and repeatable notes stored for the
// schema of res, and makes sure a table named after the row tag has one TEXT
// column per flattened column.
func (db *DB) SaveColumns(ctx context.Context, res *flatten.Result) error {
	if res.RowTag == "" {
		return ErrNoRowTag
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM xsd_columns WHERE schema = ? AND row_tag = ?`,
		res.Schema, res.RowTag,
	); err != nil {
		return fmt.Errorf("clear columns: %w", err)
	}
	for i, c := range res.Columns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO xsd_columns (schema, row_tag, position, name, xpath, attribute) VALUES (?, ?, ?, ?, ?, ?)`,
			res.Schema, res.RowTag, i, c.Name, c.XPath, c.Attribute,
		); err != nil {
			return fmt.Errorf("insert column %s: %w", c.Name, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM xsd_repeatables WHERE schema = ?`,
		res.Schema,
	); err != nil {
		return fmt.Errorf("clear repeatables: %w", err)
	}
	for _, r := range res.Repeats {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO xsd_repeatables (schema, prefix, path, min_occurs, max_occurs) VALUES (?, ?, ?, ?, ?)`,
			res.Schema, r.Prefix, r.Path, r.Range.DeclMin, r.Range.DeclMax,
		); err != nil {
			return fmt.Errorf("insert repeatable %s: %w", r.Prefix, err)
		}
	}

	if len(res.Columns) > 0 {
		if err := ensureRowTable(ctx, tx, res.RowTag, res.Columns); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit columns: %w", err)
	}
	return nil
}

// ensureRowTable creates the row table, or adds the columns it lacks. Column
// names repeated by choice branches map to one table column.
func ensureRowTable(ctx context.Context, tx *sql.Tx, table string, columns []flatten.Column) error {
	existing, err := tableColumns(ctx, tx, table)
	if err != nil {
		return err
	}
	// SQLite compares column names case-insensitively.
	seen := make(map[string]bool, len(existing))
	for name := range existing {
		seen[strings.ToLower(name)] = true
	}
	create := len(existing) == 0

	var defs []string
	for _, c := range columns {
		key := strings.ToLower(c.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		if create {
			defs = append(defs, quoteIdent(c.Name)+" TEXT")
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", quoteIdent(table), quoteIdent(c.Name))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("add column %s: %w", c.Name, err)
		}
	}

	if create {
		stmt := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(table), strings.Join(defs, ", "))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create row table %s: %w", table, err)
		}
	}
	return nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func tableColumns(ctx context.Context, q querier, table string) (map[string]bool, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns[name] = true
	}
	return columns, rows.Err()
}

// RowTableColumns returns the column names of the row table.
func (db *DB) RowTableColumns(ctx context.Context, rowTag string) ([]string, error) {
	cols, err := tableColumns(ctx, db.DB, rowTag)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(cols))
	for name := range cols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Columns returns the stored column map in flattening order.
func (db *DB) Columns(ctx context.Context, schema, rowTag string) ([]flatten.Column, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name, xpath, attribute FROM xsd_columns WHERE schema = ? AND row_tag = ? ORDER BY position`,
		schema, rowTag,
	)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", err)
	}
	defer rows.Close()

	var columns []flatten.Column
	for rows.Next() {
		var c flatten.Column
		if err := rows.Scan(&c.Name, &c.XPath, &c.Attribute); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// Repeatable is a stored repeatable note.
type Repeatable struct {
	Prefix    string
	Path      string
	MinOccurs int
	MaxOccurs int
}

// Repeatables returns the repeatable notes stored for schema.
func (db *DB) Repeatables(ctx context.Context, schema string) ([]Repeatable, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT prefix, path, min_occurs, max_occurs FROM xsd_repeatables WHERE schema = ? ORDER BY rowid`,
		schema,
	)
	if err != nil {
		return nil, fmt.Errorf("query repeatables: %w", err)
	}
	defer rows.Close()

	var out []Repeatable
	for rows.Next() {
		var r Repeatable
		if err := rows.Scan(&r.Prefix, &r.Path, &r.MinOccurs, &r.MaxOccurs); err != nil {
			return nil, fmt.Errorf("scan repeatable: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
