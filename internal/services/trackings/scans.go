package trackings

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/BearBump/TrackDesk/internal/broker/messages"
	"github.com/pkg/errors"
)

// HandleCarrierScan decodes one scan message from the broker and applies it.
// Malformed scans and scans for unknown tracking numbers are logged and skipped, so the
// message gets committed; any other error is returned and stops the consumer.
func (s *Service) HandleCarrierScan(ctx context.Context, key, value []byte) error {
	var scan messages.CarrierScan
	if err := json.Unmarshal(value, &scan); err != nil {
		slog.Warn("skip malformed carrier scan", "key", string(key), "error", err.Error())
		return nil
	}

	ev, err := s.ApplyCarrierScan(ctx, scan)
	switch {
	case err == nil:
		slog.Info("carrier scan applied", "tracking_number", scan.TrackingNumber, "event_id", ev.ID, "status", ev.Status)
		return nil
	case IsValidation(err), errors.Is(err, ErrUnknownTrackingNumber):
		slog.Warn("skip carrier scan", "tracking_number", scan.TrackingNumber, "error", err.Error())
		return nil
	default:
		return errors.Wrap(err, "apply carrier scan")
	}
}
