package trackings

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/TrackDesk/internal/broker/messages"
	"github.com/BearBump/TrackDesk/internal/models"
	"github.com/BearBump/TrackDesk/internal/stats"
	"github.com/BearBump/TrackDesk/internal/trackcode"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Сколько раз перегенерировать номер, если он уже занят.
const maxTrackingNumberAttempts = 5

type Repository interface {
	GetTrackingByNumber(ctx context.Context, trackingNumber string) (*models.TrackingWithEvents, bool, error)
	ListTrackings(ctx context.Context) ([]*models.TrackingRecord, error)
	CreateTracking(ctx context.Context, rec *models.TrackingRecord, seed *models.TrackingEvent) error
	UpdateTracking(ctx context.Context, id string, patch models.TrackingPatch, now time.Time) (*models.TrackingRecord, bool, error)
	DeleteTracking(ctx context.Context, id string) (bool, error)
	ListTrackingEvents(ctx context.Context, trackingNumberID string) ([]*models.TrackingEvent, error)
	AddTrackingEvent(ctx context.Context, ev *models.TrackingEvent) error
	UpdateTrackingEvent(ctx context.Context, id string, patch models.TrackingEventPatch) (*models.TrackingEvent, bool, error)
	DeleteTrackingEvent(ctx context.Context, id string) (bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type CodeGenerator interface {
	Next() string
}

// Service is the tracking store: it assigns identities and timestamps, synthesizes
// history and keeps derived state consistent. Persistence is delegated to Repository.
type Service struct {
	repo      Repository
	publisher Publisher
	topic     string

	codes CodeGenerator
	newID func() string
	now   func() time.Time
	loc   *time.Location
}

// New builds a Service. A nil publisher disables change notifications.
func New(repo Repository, publisher Publisher, topic string) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		topic:     topic,
		codes:     trackcode.NewGenerator(nil, nil),
		newID:     uuid.NewString,
		now:       time.Now,
		loc:       time.Local,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Service) WithCodeGenerator(g CodeGenerator) *Service {
	if g != nil {
		s.codes = g
	}
	return s
}

func (s *Service) WithIDGenerator(newID func() string) *Service {
	if newID != nil {
		s.newID = newID
	}
	return s
}

// WithLocation sets the zone used for display timestamps and the month boundary of Stats.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

func (s *Service) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.TrackingWithEvents, bool, error) {
	// malformed codes cannot exist in storage
	if !trackcode.Valid(trackingNumber) {
		return nil, false, nil
	}
	return s.repo.GetTrackingByNumber(ctx, trackingNumber)
}

func (s *Service) ListTrackings(ctx context.Context) ([]*models.TrackingRecord, error) {
	return s.repo.ListTrackings(ctx)
}

func (s *Service) CreateTracking(ctx context.Context, in models.TrackingCreateInput) (*models.TrackingRecord, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if in.ServiceType == "" {
		in.ServiceType = models.DefaultServiceType
	}
	if in.CurrentStatus == "" {
		in.CurrentStatus = models.DefaultCurrentStatus
	}

	now := s.now()
	rec := &models.TrackingRecord{
		ID:                s.newID(),
		CustomerName:      in.CustomerName,
		DeliveryAddress:   in.DeliveryAddress,
		PackageWeight:     in.PackageWeight,
		ServiceType:       in.ServiceType,
		ReferenceNumber:   in.ReferenceNumber,
		EstimatedDelivery: in.EstimatedDelivery,
		CurrentStatus:     in.CurrentStatus,
		CurrentLocation:   in.CurrentLocation,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	description := "Package has been " + strings.ToLower(in.CurrentStatus)
	seed := &models.TrackingEvent{
		ID:               s.newID(),
		TrackingNumberID: rec.ID,
		Status:           in.CurrentStatus,
		Location:         in.CurrentLocation,
		Description:      &description,
		Timestamp:        s.displayTime(now),
		CreatedAt:        now,
	}

	var err error
	for attempt := 1; attempt <= maxTrackingNumberAttempts; attempt++ {
		rec.TrackingNumber = s.codes.Next()
		err = s.repo.CreateTracking(ctx, rec, seed)
		if !errors.Is(err, models.ErrDuplicateTrackingNumber) {
			break
		}
		slog.Warn("tracking number collision", "tracking_number", rec.TrackingNumber, "attempt", attempt)
	}
	if err != nil {
		return nil, errors.Wrap(err, "create tracking")
	}

	s.notify(ctx, messages.TrackingChanged{
		Kind:           messages.KindTrackingCreated,
		TrackingID:     rec.ID,
		TrackingNumber: rec.TrackingNumber,
		EventID:        seed.ID,
		Status:         rec.CurrentStatus,
		Location:       rec.CurrentLocation,
		OccurredAt:     now,
	})
	return rec, nil
}

// UpdateTracking merges the provided fields into the record. Status or location changes
// made here are not recorded in the event history.
func (s *Service) UpdateTracking(ctx context.Context, id string, patch models.TrackingPatch) (*models.TrackingRecord, bool, error) {
	if err := notEmpty(map[string]models.PatchString{
		"customerName":    patch.CustomerName,
		"deliveryAddress": patch.DeliveryAddress,
		"serviceType":     patch.ServiceType,
		"currentStatus":   patch.CurrentStatus,
		"currentLocation": patch.CurrentLocation,
	}); err != nil {
		return nil, false, err
	}

	now := s.now()
	rec, ok, err := s.repo.UpdateTracking(ctx, id, patch, now)
	if err != nil || !ok {
		return nil, ok, err
	}

	s.notify(ctx, messages.TrackingChanged{
		Kind:           messages.KindTrackingUpdated,
		TrackingID:     rec.ID,
		TrackingNumber: rec.TrackingNumber,
		Status:         rec.CurrentStatus,
		Location:       rec.CurrentLocation,
		OccurredAt:     now,
	})
	return rec, true, nil
}

func (s *Service) DeleteTracking(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.DeleteTracking(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	s.notify(ctx, messages.TrackingChanged{
		Kind:       messages.KindTrackingDeleted,
		TrackingID: id,
		OccurredAt: s.now(),
	})
	return true, nil
}

func (s *Service) ListTrackingEvents(ctx context.Context, trackingNumberID string) ([]*models.TrackingEvent, error) {
	return s.repo.ListTrackingEvents(ctx, trackingNumberID)
}

// AddTrackingEvent appends an event and makes it the current state of its tracking.
func (s *Service) AddTrackingEvent(ctx context.Context, in models.TrackingEventInput) (*models.TrackingEvent, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	now := s.now()
	ev := &models.TrackingEvent{
		ID:               s.newID(),
		TrackingNumberID: in.TrackingNumberID,
		Status:           in.Status,
		Location:         in.Location,
		Description:      in.Description,
		CreatedAt:        now,
	}
	if in.Timestamp != nil && *in.Timestamp != "" {
		ev.Timestamp = *in.Timestamp
	} else {
		ev.Timestamp = s.displayTime(now)
	}

	if err := s.repo.AddTrackingEvent(ctx, ev); err != nil {
		return nil, errors.Wrap(err, "add tracking event")
	}

	s.notify(ctx, messages.TrackingChanged{
		Kind:       messages.KindEventAdded,
		TrackingID: ev.TrackingNumberID,
		EventID:    ev.ID,
		Status:     ev.Status,
		Location:   ev.Location,
		OccurredAt: now,
	})
	return ev, nil
}

// UpdateTrackingEvent edits an event in place. The owning tracking is not touched.
func (s *Service) UpdateTrackingEvent(ctx context.Context, id string, patch models.TrackingEventPatch) (*models.TrackingEvent, bool, error) {
	if err := notEmpty(map[string]models.PatchString{
		"status":    patch.Status,
		"location":  patch.Location,
		"timestamp": patch.Timestamp,
	}); err != nil {
		return nil, false, err
	}
	return s.repo.UpdateTrackingEvent(ctx, id, patch)
}

// DeleteTrackingEvent removes an event. The owner's current status is not re-derived
// from the remaining history.
func (s *Service) DeleteTrackingEvent(ctx context.Context, id string) (bool, error) {
	return s.repo.DeleteTrackingEvent(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	ts, err := s.repo.ListTrackings(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return stats.Compute(ts, s.now().In(s.loc)), nil
}

// ApplyCarrierScan appends a carrier scan to the tracking it refers to.
func (s *Service) ApplyCarrierScan(ctx context.Context, scan messages.CarrierScan) (*models.TrackingEvent, error) {
	switch {
	case scan.TrackingNumber == "":
		return nil, &ValidationError{Fields: []FieldError{{Field: "tracking_number", Message: "is required"}}}
	case !trackcode.Valid(scan.TrackingNumber):
		return nil, &ValidationError{Fields: []FieldError{{Field: "tracking_number", Message: "is malformed"}}}
	}
	t, ok, err := s.repo.GetTrackingByNumber(ctx, scan.TrackingNumber)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(ErrUnknownTrackingNumber, scan.TrackingNumber)
	}
	return s.AddTrackingEvent(ctx, models.TrackingEventInput{
		TrackingNumberID: t.ID,
		Status:           scan.Status,
		Location:         scan.Location,
		Description:      scan.Description,
		Timestamp:        scan.Timestamp,
	})
}

func (s *Service) displayTime(t time.Time) string {
	return models.FormatDisplayTime(t.In(s.loc))
}

// notify is best-effort: the store is already updated, a broker failure is only logged.
func (s *Service) notify(ctx context.Context, msg messages.TrackingChanged) {
	if s.publisher == nil || s.topic == "" {
		return
	}
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal tracking change", "error", err.Error())
		return
	}
	if err := s.publisher.Publish(ctx, s.topic, []byte(msg.TrackingID), b); err != nil {
		slog.Error("publish tracking change", "kind", msg.Kind, "tracking_id", msg.TrackingID, "error", err.Error())
	}
}
