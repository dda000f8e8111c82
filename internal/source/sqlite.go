package source

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/station-bubble-chart/internal/domain"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite stores observations as a text-typed table and serves it back as a
// TableSource. Every column is TEXT so a reload parses exactly what a CSV
// load would.
type SQLite struct {
	db    *sql.DB
	table string
}

// OpenSQLite opens (or creates) the database at path and ensures table exists.
func OpenSQLite(path, table string) (*SQLite, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLite{db: db, table: table}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	cols := make([]string, len(domain.Columns))
	for i, c := range domain.Columns {
		cols[i] = quoteIdent(c) + " TEXT"
	}
	_, err := s.db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(s.table), strings.Join(cols, ", ")))
	return err
}

// FetchTable returns every row of the configured table in insertion order.
// A non-empty path names a different table in the same database.
func (s *SQLite) FetchTable(ctx context.Context, path string) ([]map[string]string, error) {
	table := s.table
	if path != "" {
		table = path
	}
	if !tableName.MatchString(table) {
		return nil, &domain.LoadError{Path: table, Err: fmt.Errorf("invalid table name")}
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", columnList(), quoteIdent(table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, &domain.LoadError{Path: table, Err: fmt.Errorf("query rows: %w", err)}
	}
	defer rows.Close()

	var out []map[string]string
	cells := make([]sql.NullString, len(domain.Columns))
	dest := make([]any, len(cells))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, &domain.LoadError{Path: table, Err: fmt.Errorf("scan row: %w", err)}
		}
		row := make(map[string]string, len(cells))
		for i, c := range domain.Columns {
			row[c] = cells[i].String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.LoadError{Path: table, Err: err}
	}
	return out, nil
}

// Store replaces the table's contents with ds in one transaction.
func (s *SQLite) Store(ctx context.Context, ds domain.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+quoteIdent(s.table)); err != nil {
		return fmt.Errorf("clear table: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(domain.Columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", quoteIdent(s.table), columnList(), placeholders))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range ds.Observations() {
		rec := o.Record()
		args := make([]any, len(rec))
		for i, v := range rec {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s: %w", o.Key(), err)
		}
	}
	return tx.Commit()
}

// Ping checks the database connection.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func columnList() string {
	cols := make([]string, len(domain.Columns))
	for i, c := range domain.Columns {
		cols[i] = quoteIdent(c)
	}
	return strings.Join(cols, ", ")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
