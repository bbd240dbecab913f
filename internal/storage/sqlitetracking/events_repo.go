package sqlitetracking

import (
	"context"
	"database/sql"

	"github.com/BearBump/TrackDesk/internal/models"
	"github.com/pkg/errors"
)

const eventColumns = `
  id, tracking_number_id, status, location, description, display_timestamp, created_at`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanEvent(row scanner) (*models.TrackingEvent, error) {
	var (
		e           models.TrackingEvent
		description sql.NullString
		createdAt   int64
	)
	if err := row.Scan(
		&e.ID, &e.TrackingNumberID, &e.Status, &e.Location,
		&description, &e.Timestamp, &createdAt,
	); err != nil {
		return nil, err
	}
	e.Description = nullable(description)
	e.CreatedAt = fromNanos(createdAt)
	return &e, nil
}

func listEvents(ctx context.Context, q querier, trackingNumberID string) ([]*models.TrackingEvent, error) {
	rows, err := q.QueryContext(ctx, `SELECT`+eventColumns+`
FROM tracking_events
WHERE tracking_number_id = ?
ORDER BY created_at DESC, rowid DESC
`, trackingNumberID)
	if err != nil {
		return nil, errors.Wrap(err, "select events")
	}
	defer rows.Close()

	out := make([]*models.TrackingEvent, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func insertEvent(ctx context.Context, tx *sql.Tx, e *models.TrackingEvent) error {
	_, err := tx.ExecContext(ctx, `
INSERT INTO tracking_events (`+eventColumns+`
)
VALUES (?,?,?,?,?,?,?)
`, e.ID, e.TrackingNumberID, e.Status, e.Location, e.Description, e.Timestamp, toNanos(e.CreatedAt))
	if err != nil {
		return errors.Wrap(err, "insert tracking event")
	}
	return nil
}

func (s *Storage) ListTrackingEvents(ctx context.Context, trackingNumberID string) ([]*models.TrackingEvent, error) {
	return listEvents(ctx, s.db, trackingNumberID)
}

func (s *Storage) AddTrackingEvent(ctx context.Context, e *models.TrackingEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertEvent(ctx, tx, e); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
UPDATE tracking_numbers
SET current_status = ?, current_location = ?, updated_at = ?
WHERE id = ?
`, e.Status, e.Location, toNanos(e.CreatedAt), e.TrackingNumberID)
	if err != nil {
		return errors.Wrap(err, "propagate event to tracking")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func (s *Storage) UpdateTrackingEvent(ctx context.Context, id string, patch models.TrackingEventPatch) (*models.TrackingEvent, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	e, err := scanEvent(tx.QueryRowContext(ctx, `SELECT`+eventColumns+`
FROM tracking_events
WHERE id = ?
`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select tracking event")
	}

	patch.Apply(e)
	_, err = tx.ExecContext(ctx, `
UPDATE tracking_events
SET status = ?, location = ?, description = ?, display_timestamp = ?
WHERE id = ?
`, e.Status, e.Location, e.Description, e.Timestamp, id)
	if err != nil {
		return nil, false, errors.Wrap(err, "update tracking event")
	}

	if err := tx.Commit(); err != nil {
		return nil, false, errors.Wrap(err, "commit tx")
	}
	return e, true, nil
}

func (s *Storage) DeleteTrackingEvent(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tracking_events WHERE id = ?`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete tracking event")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n > 0, nil
}
