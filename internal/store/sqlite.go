package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vitalcall/consult/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	sqliteMaxRetries = 3
	sqliteRetryDelay = 50 * time.Millisecond
)

// SQLiteStore implements Store on SQLite. Each table keeps an autoincrement
// position column so rows come back in insertion order.
type SQLiteStore struct {
	db    *sql.DB
	locks tableLocks
}

// NewSQLite creates a new SQLite-backed store.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	for _, t := range Tables {
		if _, err := s.db.Exec(createTableSQL(t)); err != nil {
			return fmt.Errorf("create %s: %w", t.Name, err)
		}
	}
	return nil
}

func createTableSQL(t Table) string {
	cols := make([]string, 0, len(t.Fields)+1)
	cols = append(cols, "position INTEGER PRIMARY KEY AUTOINCREMENT")
	for _, f := range t.Fields {
		cols = append(cols, f+" TEXT NOT NULL DEFAULT ''")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(cols, ",\n\t"))
}

func insertSQL(t Table) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Fields)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(t.Fields, ", "), placeholders)
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// ReadAll returns every row of t ordered by position.
func (s *SQLiteStore) ReadAll(ctx context.Context, t Table) ([]Row, error) {
	return s.read(ctx, t), nil
}

func (s *SQLiteStore) read(ctx context.Context, t Table) []Row {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY position", strings.Join(t.Fields, ", "), t.Name)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return degradeRead(t, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close rows", "table", t.Name, "error", closeErr)
		}
	}()

	out := []Row{}
	values := make([]string, len(t.Fields))
	dest := make([]any, len(t.Fields))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return degradeRead(t, err)
		}
		row := make(Row, len(t.Fields))
		for i, f := range t.Fields {
			row[f] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return degradeRead(t, err)
	}
	return out
}

// WriteAll replaces the table contents in a single transaction.
func (s *SQLiteStore) WriteAll(ctx context.Context, t Table, rows []Row) error {
	unlock := s.locks.lock(t.Name)
	defer unlock()
	return s.write(ctx, t, rows)
}

func (s *SQLiteStore) write(ctx context.Context, t Table, rows []Row) error {
	err := shared.RetryOnConflict(ctx, sqliteMaxRetries, sqliteRetryDelay, "write "+t.Name, func() error {
		return s.replaceOnce(ctx, t, rows)
	})
	if err != nil {
		return shared.Internal("write "+t.Name+" table", err)
	}
	return nil
}

func (s *SQLiteStore) replaceOnce(ctx context.Context, t Table, rows []Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+t.Name); err != nil {
		return fmt.Errorf("clear %s: %w", t.Name, err)
	}
	stmt, err := tx.PrepareContext(ctx, insertSQL(t))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, args(t, row)...); err != nil {
			return fmt.Errorf("insert %s row: %w", t.Name, err)
		}
	}
	return tx.Commit()
}

// Append inserts row after the current last position.
func (s *SQLiteStore) Append(ctx context.Context, t Table, row Row) error {
	unlock := s.locks.lock(t.Name)
	defer unlock()

	err := shared.RetryOnConflict(ctx, sqliteMaxRetries, sqliteRetryDelay, "append "+t.Name, func() error {
		_, err := s.db.ExecContext(ctx, insertSQL(t), args(t, row)...)
		return err
	})
	if err != nil {
		return shared.Internal("append "+t.Name+" row", err)
	}
	return nil
}

// Update performs a locked read-modify-write of t.
func (s *SQLiteStore) Update(ctx context.Context, t Table, fn func(rows []Row) ([]Row, error)) error {
	unlock := s.locks.lock(t.Name)
	defer unlock()

	rows, err := fn(s.read(ctx, t))
	if err != nil {
		return err
	}
	return s.write(ctx, t, rows)
}

func args(t Table, row Row) []any {
	projected := project(t, row)
	out := make([]any, len(t.Fields))
	for i, f := range t.Fields {
		out[i] = projected[f]
	}
	return out
}
