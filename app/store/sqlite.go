package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrPersistence wraps every failure of the underlying database
	ErrPersistence = errors.New("storage error")
	// ErrNotFound returned by Get for an unknown id
	ErrNotFound = errors.New("job not found")
	// ErrInvalidJob returned by Add for empty title or description
	ErrInvalidJob = errors.New("title and description are required")

	errStopRetry = errors.New("stop retry")
)

const createJobsTable = `CREATE TABLE IF NOT EXISTS jobs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	date DATE NOT NULL
)`

// rows written as dd-mm-yyyy text are rewritten to yyyy-mm-dd
const migrateDates = `UPDATE jobs
	SET date = substr(date, 7, 4) || '-' || substr(date, 4, 2) || '-' || substr(date, 1, 2)
	WHERE typeof(date) = 'text' AND date GLOB '[0-9][0-9]-[0-9][0-9]-[0-9][0-9][0-9][0-9]'`

// Job is a single job application record
type Job struct {
	ID          int64  `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`
	Date        Date   `db:"date" json:"date"`
}

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// SQLiteStore implements job storage using SQLite
type SQLiteStore struct {
	db  *sqlx.DB
	rpt Repeater
}

// Option sets optional store parameters
type Option func(s *SQLiteStore)

// WithRepeater sets the repeater used for writes hitting a busy database
func WithRepeater(rpt Repeater) Option {
	return func(s *SQLiteStore) {
		s.rpt = rpt
	}
}

// New opens the database at dbPath, creating the directory and the schema if missing
func New(ctx context.Context, dbPath string, opts ...Option) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." && !strings.HasPrefix(dbPath, ":memory:") {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single connection serializes all access

	res := &SQLiteStore{db: db, rpt: repeater.New(&strategy.Once{})}
	for _, opt := range opts {
		opt(res)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			if closeErr := db.Close(); closeErr != nil {
				return nil, fmt.Errorf("failed to set %q: %w (also failed to close db: %v)", pragma, err, closeErr)
			}
			return nil, fmt.Errorf("failed to set %q: %w", pragma, err)
		}
	}

	if err := res.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("%w (also failed to close db: %v)", err, closeErr)
		}
		return nil, err
	}
	return res, nil
}

// initialize creates the schema and converts legacy date text
func (s *SQLiteStore) initialize(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createJobsTable); err != nil {
		return fmt.Errorf("failed to create jobs table: %w", err)
	}
	res, err := s.db.ExecContext(ctx, migrateDates)
	if err != nil {
		return fmt.Errorf("failed to migrate dates: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Printf("[INFO] converted %d legacy dates to yyyy-mm-dd", n)
	}
	return nil
}

// Add inserts a new job and returns it with the assigned id. Zero date means today.
func (s *SQLiteStore) Add(ctx context.Context, title, description string, date Date) (Job, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(description) == "" {
		return Job{}, ErrInvalidJob
	}
	if date.IsZero() {
		date = Today()
	}

	job := Job{Title: title, Description: description, Date: date}
	err := s.write(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `INSERT INTO jobs (title, description, date) VALUES (?, ?, ?)`,
			job.Title, job.Description, job.Date)
		if err != nil {
			return err
		}
		job.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return Job{}, fmt.Errorf("failed to add job %q: %w: %w", title, ErrPersistence, err)
	}
	log.Printf("[DEBUG] added job #%d %q, %s", job.ID, job.Title, job.Date)
	return job, nil
}

// List returns all jobs in row order
func (s *SQLiteStore) List(ctx context.Context) ([]Job, error) {
	jobs := []Job{}
	if err := s.db.SelectContext(ctx, &jobs, selectJobs+" ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w: %w", ErrPersistence, err)
	}
	return jobs, nil
}

// Search returns jobs matching all non-empty filter fields, ordered by date, then by id
func (s *SQLiteStore) Search(ctx context.Context, f Filter) ([]Job, error) {
	query, args := buildSearch(f)
	jobs := []Job{}
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search jobs: %w: %w", ErrPersistence, err)
	}
	return jobs, nil
}

// Get returns a single job by id
func (s *SQLiteStore) Get(ctx context.Context, id int64) (Job, error) {
	var job Job
	err := s.db.GetContext(ctx, &job, selectJobs+" WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, fmt.Errorf("job #%d: %w", id, ErrNotFound)
	}
	if err != nil {
		return Job{}, fmt.Errorf("failed to get job #%d: %w: %w", id, ErrPersistence, err)
	}
	return job, nil
}

// Remove deletes the job by id. Unknown id is not an error, removed is false in this case.
func (s *SQLiteStore) Remove(ctx context.Context, id int64) (removed bool, err error) {
	err = s.write(ctx, func() error {
		res, e := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
		if e != nil {
			return e
		}
		n, e := res.RowsAffected()
		removed = n > 0
		return e
	})
	if err != nil {
		return false, fmt.Errorf("failed to remove job #%d: %w: %w", id, ErrPersistence, err)
	}
	log.Printf("[DEBUG] remove job #%d, found %v", id, removed)
	return removed, nil
}

// Clear drops all jobs and re-creates the schema. The id sequence starts over.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	err := s.write(ctx, func() error {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback() //nolint:errcheck // no-op after commit

		// dropping an AUTOINCREMENT table removes its sqlite_sequence entry as well
		for _, query := range []string{`DROP TABLE IF EXISTS jobs`, createJobsTable} {
			if _, err := tx.ExecContext(ctx, query); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("failed to clear jobs: %w: %w", ErrPersistence, err)
	}
	log.Printf("[INFO] all jobs cleared")
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// write runs fn with the store repeater, retrying only while the database is busy
func (s *SQLiteStore) write(ctx context.Context, fn func() error) error {
	var permErr error
	err := s.rpt.Do(ctx, func() error {
		e := fn()
		if e != nil && !isBusy(e) {
			permErr = e
			return errStopRetry
		}
		if e != nil {
			log.Printf("[DEBUG] database busy, %v", e)
		}
		return e
	}, errStopRetry)
	if permErr != nil {
		return permErr
	}
	return err
}

// isBusy detects SQLITE_BUSY and SQLITE_LOCKED, including extended codes
func isBusy(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code() & 0xff
	return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
}
