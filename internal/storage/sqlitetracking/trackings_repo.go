package sqlitetracking

import (
	"context"
	"database/sql"
	"time"

	"github.com/BearBump/TrackDesk/internal/models"
	"github.com/pkg/errors"
)

const trackingColumns = `
  id, tracking_number, customer_name, delivery_address,
  package_weight, service_type, reference_number, estimated_delivery,
  current_status, current_location, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTracking(row scanner) (*models.TrackingRecord, error) {
	var (
		t                            models.TrackingRecord
		weight, reference, estimated sql.NullString
		createdAt, updatedAt         int64
	)
	if err := row.Scan(
		&t.ID, &t.TrackingNumber, &t.CustomerName, &t.DeliveryAddress,
		&weight, &t.ServiceType, &reference, &estimated,
		&t.CurrentStatus, &t.CurrentLocation, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	t.PackageWeight = nullable(weight)
	t.ReferenceNumber = nullable(reference)
	t.EstimatedDelivery = nullable(estimated)
	t.CreatedAt = fromNanos(createdAt)
	t.UpdatedAt = fromNanos(updatedAt)
	return &t, nil
}

func (s *Storage) GetTrackingByNumber(ctx context.Context, trackingNumber string) (*models.TrackingWithEvents, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	t, err := scanTracking(tx.QueryRowContext(ctx, `SELECT`+trackingColumns+`
FROM tracking_numbers
WHERE tracking_number = ?
`, trackingNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select tracking")
	}

	events, err := listEvents(ctx, tx, t.ID)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, errors.Wrap(err, "commit tx")
	}
	return &models.TrackingWithEvents{TrackingRecord: *t, Events: events}, true, nil
}

func (s *Storage) ListTrackings(ctx context.Context) ([]*models.TrackingRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT`+trackingColumns+`
FROM tracking_numbers
ORDER BY created_at DESC, rowid DESC
`)
	if err != nil {
		return nil, errors.Wrap(err, "select trackings")
	}
	defer rows.Close()

	out := make([]*models.TrackingRecord, 0)
	for rows.Next() {
		t, err := scanTracking(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan tracking")
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) CreateTracking(ctx context.Context, rec *models.TrackingRecord, seed *models.TrackingEvent) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
INSERT INTO tracking_numbers (`+trackingColumns+`
)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
`, rec.ID, rec.TrackingNumber, rec.CustomerName, rec.DeliveryAddress,
		rec.PackageWeight, rec.ServiceType, rec.ReferenceNumber, rec.EstimatedDelivery,
		rec.CurrentStatus, rec.CurrentLocation, toNanos(rec.CreatedAt), toNanos(rec.UpdatedAt))
	if isUniqueViolation(err) {
		return models.ErrDuplicateTrackingNumber
	}
	if err != nil {
		return errors.Wrap(err, "insert tracking")
	}

	if seed != nil {
		if err := insertEvent(ctx, tx, seed); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

func (s *Storage) UpdateTracking(ctx context.Context, id string, patch models.TrackingPatch, now time.Time) (*models.TrackingRecord, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	t, err := scanTracking(tx.QueryRowContext(ctx, `SELECT`+trackingColumns+`
FROM tracking_numbers
WHERE id = ?
`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select tracking")
	}

	patch.Apply(t)
	t.UpdatedAt = fromNanos(toNanos(now))

	_, err = tx.ExecContext(ctx, `
UPDATE tracking_numbers
SET
  customer_name = ?,
  delivery_address = ?,
  package_weight = ?,
  service_type = ?,
  reference_number = ?,
  estimated_delivery = ?,
  current_status = ?,
  current_location = ?,
  updated_at = ?
WHERE id = ?
`, t.CustomerName, t.DeliveryAddress, t.PackageWeight, t.ServiceType,
		t.ReferenceNumber, t.EstimatedDelivery, t.CurrentStatus, t.CurrentLocation,
		toNanos(t.UpdatedAt), id)
	if err != nil {
		return nil, false, errors.Wrap(err, "update tracking")
	}

	if err := tx.Commit(); err != nil {
		return nil, false, errors.Wrap(err, "commit tx")
	}
	return t, true, nil
}

func (s *Storage) DeleteTracking(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracking_events WHERE tracking_number_id = ?`, id); err != nil {
		return false, errors.Wrap(err, "delete tracking events")
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM tracking_numbers WHERE id = ?`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete tracking")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}

	if err := tx.Commit(); err != nil {
		return false, errors.Wrap(err, "commit tx")
	}
	return n > 0, nil
}
