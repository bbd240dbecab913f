package pgtracking

import (
	"context"

	"github.com/pkg/errors"
)

func (s *Storage) initSchema(ctx context.Context) error {
	stmts := []string{
		`
CREATE TABLE IF NOT EXISTS tracking_numbers (
  id TEXT PRIMARY KEY,
  tracking_number TEXT NOT NULL,
  customer_name TEXT NOT NULL,
  delivery_address TEXT NOT NULL,
  package_weight TEXT NULL,
  service_type TEXT NOT NULL DEFAULT 'Standard Ground',
  reference_number TEXT NULL,
  estimated_delivery TEXT NULL,
  current_status TEXT NOT NULL DEFAULT 'Package Received',
  current_location TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  CONSTRAINT uq_tracking_numbers_tracking_number UNIQUE (tracking_number)
)`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_numbers_created_at ON tracking_numbers(created_at DESC)`,
		// Без FK: событие может ссылаться на несуществующий трекинг, каскад делаем сами.
		`
CREATE TABLE IF NOT EXISTS tracking_events (
  id TEXT PRIMARY KEY,
  tracking_number_id TEXT NOT NULL,
  status TEXT NOT NULL,
  location TEXT NOT NULL,
  description TEXT NULL,
  display_timestamp TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
)`,
		// seq разрывает ничьи по created_at в порядке вставки.
		`ALTER TABLE tracking_numbers ADD COLUMN IF NOT EXISTS seq BIGSERIAL NOT NULL`,
		`ALTER TABLE tracking_events ADD COLUMN IF NOT EXISTS seq BIGSERIAL NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_tracking_events_owner_created_at ON tracking_events(tracking_number_id, created_at DESC)`,
	}

	for _, q := range stmts {
		if _, err := s.db.Exec(ctx, q); err != nil {
			return errors.Wrap(err, "init schema")
		}
	}
	return nil
}
