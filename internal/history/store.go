// Package history records benchmark runs in a sqlite database so that
// throughput can be compared across dialects and over time.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/funvibe/tapec/internal/logging"
)

// ErrNoRuns is returned by Best when nothing matches
var ErrNoRuns = errors.New("no recorded runs")

// Run is one timed execution of a program
type Run struct {
	ID           string
	SourceName   string
	SourceSHA256 string
	Dialect      string
	TapeSize     int
	Instructions uint64
	Elapsed      time.Duration
	CreatedAt    time.Time
}

// Rate is executed instructions per second
func (r Run) Rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Instructions) / r.Elapsed.Seconds()
}

// Fingerprint identifies a program by the hex sha256 of its source text
func Fingerprint(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Store is a wrapper around the sqlite connection
type Store struct {
	conn *sql.DB
}

// Open opens or creates the history database at path
func Open(path string) (*Store, error) {
	log := logging.Get("history")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// Ensure the database is accessible
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	log.Debugf("opened %s", path)
	return &Store{conn: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source_name TEXT NOT NULL,
			source_sha256 TEXT NOT NULL,
			dialect TEXT NOT NULL,
			tape_size INTEGER NOT NULL,
			instructions INTEGER NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source_sha256, dialect)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create history tables: %w", err)
		}
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.conn.Close()
}

// Record stores r and returns its id. A missing id or timestamp is filled in.
func (s *Store) Record(ctx context.Context, r Run) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO runs (id, source_name, source_sha256, dialect, tape_size, instructions, elapsed_ns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.SourceName, r.SourceSHA256, r.Dialect, r.TapeSize,
		int64(r.Instructions), r.Elapsed.Nanoseconds(), r.CreatedAt.UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	return r.ID, nil
}

const selectRuns = `SELECT id, source_name, source_sha256, dialect, tape_size, instructions, elapsed_ns, created_at FROM runs`

// Recent returns up to limit runs, newest first
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.conn.QueryContext(ctx, selectRuns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Best returns the fastest recorded run of a program under dialect
func (s *Store) Best(ctx context.Context, sha, dialect string) (Run, error) {
	row := s.conn.QueryRowContext(ctx,
		selectRuns+` WHERE source_sha256 = ? AND dialect = ? AND elapsed_ns > 0
		 ORDER BY CAST(instructions AS REAL) / elapsed_ns DESC LIMIT 1`,
		sha, dialect)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNoRuns
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r            Run
		instructions int64
		elapsed      int64
		created      int64
	)
	err := sc.Scan(&r.ID, &r.SourceName, &r.SourceSHA256, &r.Dialect, &r.TapeSize, &instructions, &elapsed, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("failed to read run: %w", err)
	}
	r.Instructions = uint64(instructions)
	r.Elapsed = time.Duration(elapsed)
	r.CreatedAt = time.Unix(0, created)
	return r, nil
}
