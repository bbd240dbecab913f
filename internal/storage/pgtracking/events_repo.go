package pgtracking

import (
	"context"

	"github.com/BearBump/TrackDesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const eventColumns = `
  id, tracking_number_id, status, location, description, display_timestamp, created_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanEvent(row scanner) (*models.TrackingEvent, error) {
	var e models.TrackingEvent
	if err := row.Scan(
		&e.ID, &e.TrackingNumberID, &e.Status, &e.Location,
		&e.Description, &e.Timestamp, &e.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func listEvents(ctx context.Context, q querier, trackingNumberID string) ([]*models.TrackingEvent, error) {
	rows, err := q.Query(ctx, `SELECT`+eventColumns+`
FROM tracking_events
WHERE tracking_number_id = $1
ORDER BY created_at DESC, seq DESC
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

func insertEvent(ctx context.Context, tx pgx.Tx, e *models.TrackingEvent) error {
	_, err := tx.Exec(ctx, `
INSERT INTO tracking_events (`+eventColumns+`
)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, e.ID, e.TrackingNumberID, e.Status, e.Location, e.Description, e.Timestamp, e.CreatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "insert tracking event")
	}
	return nil
}

func (s *Storage) ListTrackingEvents(ctx context.Context, trackingNumberID string) ([]*models.TrackingEvent, error) {
	return listEvents(ctx, s.db, trackingNumberID)
}

// AddTrackingEvent inserts the event and, if the owner exists, makes it the owner's current state.
func (s *Storage) AddTrackingEvent(ctx context.Context, e *models.TrackingEvent) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertEvent(ctx, tx, e); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
UPDATE tracking_numbers
SET
  current_status = $2,
  current_location = $3,
  updated_at = $4
WHERE id = $1
`, e.TrackingNumberID, e.Status, e.Location, e.CreatedAt.UTC())
	if err != nil {
		return errors.Wrap(err, "propagate event to tracking")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func (s *Storage) UpdateTrackingEvent(ctx context.Context, id string, patch models.TrackingEventPatch) (*models.TrackingEvent, bool, error) {
	args := append([]any{id}, patchArgs(patch.Status, patch.Location, patch.Description, patch.Timestamp)...)
	e, err := scanEvent(s.db.QueryRow(ctx, `
UPDATE tracking_events
SET
  status = CASE WHEN $2::boolean THEN $3::text ELSE status END,
  location = CASE WHEN $4::boolean THEN $5::text ELSE location END,
  description = CASE WHEN $6::boolean THEN $7::text ELSE description END,
  display_timestamp = CASE WHEN $8::boolean THEN $9::text ELSE display_timestamp END
WHERE id = $1
RETURNING`+eventColumns, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "update tracking event")
	}
	return e, true, nil
}

func (s *Storage) DeleteTrackingEvent(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM tracking_events WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete tracking event")
	}
	return tag.RowsAffected() > 0, nil
}
