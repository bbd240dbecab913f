package trackings_api

import (
	"context"
	"time"

	"github.com/BearBump/TrackDesk/internal/models"
	"github.com/go-chi/chi/v5"
)

type Service interface {
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.TrackingWithEvents, bool, error)
	ListTrackings(ctx context.Context) ([]*models.TrackingRecord, error)
	CreateTracking(ctx context.Context, in models.TrackingCreateInput) (*models.TrackingRecord, error)
	UpdateTracking(ctx context.Context, id string, patch models.TrackingPatch) (*models.TrackingRecord, bool, error)
	DeleteTracking(ctx context.Context, id string) (bool, error)
	ListTrackingEvents(ctx context.Context, trackingNumberID string) ([]*models.TrackingEvent, error)
	AddTrackingEvent(ctx context.Context, in models.TrackingEventInput) (*models.TrackingEvent, error)
	UpdateTrackingEvent(ctx context.Context, id string, patch models.TrackingEventPatch) (*models.TrackingEvent, bool, error)
	DeleteTrackingEvent(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context) (models.Stats, error)
}

// Limiter throttles the public lookup endpoint.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
	WindowKey(prefix, client string, window time.Duration) string
}

type TrackingsAPI struct {
	svc Service

	limiter     Limiter
	lookupLimit int64
}

func New(svc Service) *TrackingsAPI {
	return &TrackingsAPI{svc: svc}
}

// WithLookupLimit limits GET /tracking/{code} to perMinute requests per client IP.
// A nil limiter or a non-positive limit turns throttling off.
func (a *TrackingsAPI) WithLookupLimit(l Limiter, perMinute int64) *TrackingsAPI {
	a.limiter = l
	a.lookupLimit = perMinute
	return a
}

// Routes returns the router to be mounted under /api.
func (a *TrackingsAPI) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(a.throttleLookup).Get("/tracking/{code}", a.getTracking)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/tracking", a.listTrackings)
		r.Post("/tracking", a.createTracking)
		r.Patch("/tracking/{id}", a.updateTracking)
		r.Delete("/tracking/{id}", a.deleteTracking)

		r.Get("/tracking/{id}/events", a.listTrackingEvents)
		r.Post("/tracking/{id}/events", a.addTrackingEvent)
		r.Patch("/events/{id}", a.updateTrackingEvent)
		r.Delete("/events/{id}", a.deleteTrackingEvent)

		r.Get("/stats", a.stats)
	})

	return r
}
