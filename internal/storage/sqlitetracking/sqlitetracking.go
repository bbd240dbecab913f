package sqlitetracking

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Storage keeps trackings in a single SQLite file (or ":memory:").
// Timestamps are stored as unix nanoseconds so ordering is exact.
type Storage struct {
	db *sql.DB
}

func New(ctx context.Context, path string) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	// один писатель; для ":memory:" ещё и одна общая база
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Storage{db: db}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return errors.Wrap(s.db.PingContext(ctx), "ping sqlite")
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL`,
		`
CREATE TABLE IF NOT EXISTS tracking_numbers (
  id TEXT PRIMARY KEY,
  tracking_number TEXT NOT NULL UNIQUE,
  customer_name TEXT NOT NULL,
  delivery_address TEXT NOT NULL,
  package_weight TEXT NULL,
  service_type TEXT NOT NULL DEFAULT 'Standard Ground',
  reference_number TEXT NULL,
  estimated_delivery TEXT NULL,
  current_status TEXT NOT NULL DEFAULT 'Package Received',
  current_location TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_numbers_created_at ON tracking_numbers(created_at DESC)`,
		`
CREATE TABLE IF NOT EXISTS tracking_events (
  id TEXT PRIMARY KEY,
  tracking_number_id TEXT NOT NULL,
  status TEXT NOT NULL,
  location TEXT NOT NULL,
  description TEXT NULL,
  display_timestamp TEXT NOT NULL,
  created_at INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_events_owner_created_at ON tracking_events(tracking_number_id, created_at DESC)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: tracking_numbers.tracking_number")
}

func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
