package pgtracking

import (
	"context"
	"time"

	"github.com/BearBump/TrackDesk/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const uniqueViolation = "23505"

const trackingColumns = `
  id, tracking_number, customer_name, delivery_address,
  package_weight, service_type, reference_number, estimated_delivery,
  current_status, current_location, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanTracking(row scanner) (*models.TrackingRecord, error) {
	var t models.TrackingRecord
	if err := row.Scan(
		&t.ID, &t.TrackingNumber, &t.CustomerName, &t.DeliveryAddress,
		&t.PackageWeight, &t.ServiceType, &t.ReferenceNumber, &t.EstimatedDelivery,
		&t.CurrentStatus, &t.CurrentLocation, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Storage) GetTrackingByNumber(ctx context.Context, trackingNumber string) (*models.TrackingWithEvents, bool, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly, IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, false, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	t, err := scanTracking(tx.QueryRow(ctx, `SELECT`+trackingColumns+`
FROM tracking_numbers
WHERE tracking_number = $1
`, trackingNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "select tracking")
	}

	events, err := listEvents(ctx, tx, t.ID)
	if err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, errors.Wrap(err, "commit tx")
	}
	return &models.TrackingWithEvents{TrackingRecord: *t, Events: events}, true, nil
}

func (s *Storage) ListTrackings(ctx context.Context) ([]*models.TrackingRecord, error) {
	rows, err := s.db.Query(ctx, `SELECT`+trackingColumns+`
FROM tracking_numbers
ORDER BY created_at DESC, seq DESC
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
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO tracking_numbers (`+trackingColumns+`
)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`, rec.ID, rec.TrackingNumber, rec.CustomerName, rec.DeliveryAddress,
		rec.PackageWeight, rec.ServiceType, rec.ReferenceNumber, rec.EstimatedDelivery,
		rec.CurrentStatus, rec.CurrentLocation, rec.CreatedAt.UTC(), rec.UpdatedAt.UTC())
	if isUniqueViolation(err, "uq_tracking_numbers_tracking_number") {
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

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "commit tx")
	}
	return nil
}

// UpdateTracking writes only the fields present in patch. A present null stores NULL.
func (s *Storage) UpdateTracking(ctx context.Context, id string, patch models.TrackingPatch, now time.Time) (*models.TrackingRecord, bool, error) {
	args := []any{id, now.UTC()}
	args = append(args, patchArgs(
		patch.CustomerName, patch.DeliveryAddress, patch.PackageWeight, patch.ServiceType,
		patch.ReferenceNumber, patch.EstimatedDelivery, patch.CurrentStatus, patch.CurrentLocation,
	)...)
	t, err := scanTracking(s.db.QueryRow(ctx, `
UPDATE tracking_numbers
SET
  customer_name = CASE WHEN $3::boolean THEN $4::text ELSE customer_name END,
  delivery_address = CASE WHEN $5::boolean THEN $6::text ELSE delivery_address END,
  package_weight = CASE WHEN $7::boolean THEN $8::text ELSE package_weight END,
  service_type = CASE WHEN $9::boolean THEN $10::text ELSE service_type END,
  reference_number = CASE WHEN $11::boolean THEN $12::text ELSE reference_number END,
  estimated_delivery = CASE WHEN $13::boolean THEN $14::text ELSE estimated_delivery END,
  current_status = CASE WHEN $15::boolean THEN $16::text ELSE current_status END,
  current_location = CASE WHEN $17::boolean THEN $18::text ELSE current_location END,
  updated_at = $2
WHERE id = $1
RETURNING`+trackingColumns, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "update tracking")
	}
	return t, true, nil
}

// patchArgs flattens each value into a (present, value) pair of query arguments.
func patchArgs(values ...models.PatchString) []any {
	out := make([]any, 0, 2*len(values))
	for _, v := range values {
		var val *string
		if v.Set {
			val = v.Ptr()
		}
		out = append(out, v.Set, val)
	}
	return out
}

// DeleteTracking removes the tracking and its events in one transaction.
func (s *Storage) DeleteTracking(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM tracking_events WHERE tracking_number_id = $1`, id); err != nil {
		return false, errors.Wrap(err, "delete tracking events")
	}
	tag, err := tx.Exec(ctx, `DELETE FROM tracking_numbers WHERE id = $1`, id)
	if err != nil {
		return false, errors.Wrap(err, "delete tracking")
	}

	if err := tx.Commit(ctx); err != nil {
		return false, errors.Wrap(err, "commit tx")
	}
	return tag.RowsAffected() > 0, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}
