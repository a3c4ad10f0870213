package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a queried invocation does not exist.
var ErrNotFound = errors.New("invocation not found")

// Invocation is one recorded run of a wrapped command.
type Invocation struct {
	ID        string
	Base      string
	Command   string
	CheckOnly bool
	ExitCode  int
	Coverage  *float64 // nil when no coverage report was produced
	Tips      int
	StartedAt time.Time
	Duration  time.Duration
}

// Store wraps a SQL database holding run history.
type Store struct {
	db *sql.DB
}

// Open creates or opens the history database. Driver is "sqlite" or "mysql".
// For sqlite, use ":memory:" for in-memory databases in tests.
func Open(driver, dsn string) (*Store, error) {
	switch driver {
	case "sqlite":
		return openSQLite(dsn)
	case "mysql":
		return openMySQL(dsn)
	default:
		return nil, fmt.Errorf("unsupported state driver %q", driver)
	}
}

func openSQLite(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("creating state dir for %s: %w", dbPath, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db %s: %w", dbPath, err)
	}

	// WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	// SQLite handles one writer at a time
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

func openMySQL(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to MySQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("MySQL connection failed: %w; check that the server is running and state.dsn is correct", err)
	}
	if _, err := db.Exec(mysqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordInvocation stores a finished run.
func (s *Store) RecordInvocation(ctx context.Context, inv *Invocation) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invocations (id, base, command, check_only, exit_code, coverage, tips, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.Base, inv.Command, inv.CheckOnly, inv.ExitCode,
		nullFloat(inv.Coverage), inv.Tips,
		inv.StartedAt.Unix(), inv.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording invocation %s: %w", inv.ID, err)
	}
	return nil
}

// GetInvocation retrieves an invocation by id.
func (s *Store) GetInvocation(ctx context.Context, id string) (*Invocation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, base, command, check_only, exit_code, coverage, tips, started_at, duration_ms
		 FROM invocations WHERE id = ?`, id)

	inv, err := scanInvocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting invocation %s: %w", id, err)
	}
	return inv, nil
}

// ListInvocations returns up to limit invocations, newest first. A limit of
// zero or less returns all of them.
func (s *Store) ListInvocations(ctx context.Context, limit int) ([]*Invocation, error) {
	query := `SELECT id, base, command, check_only, exit_code, coverage, tips, started_at, duration_ms
		 FROM invocations ORDER BY started_at DESC, id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invocations: %w", err)
	}
	defer rows.Close()

	var out []*Invocation
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInvocation(row scanner) (*Invocation, error) {
	var inv Invocation
	var coverage sql.NullFloat64
	var startedAt, durationMS int64

	err := row.Scan(
		&inv.ID, &inv.Base, &inv.Command, &inv.CheckOnly, &inv.ExitCode,
		&coverage, &inv.Tips, &startedAt, &durationMS,
	)
	if err != nil {
		return nil, err
	}

	if coverage.Valid {
		v := coverage.Float64
		inv.Coverage = &v
	}
	inv.StartedAt = time.Unix(startedAt, 0)
	inv.Duration = time.Duration(durationMS) * time.Millisecond
	return &inv, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
