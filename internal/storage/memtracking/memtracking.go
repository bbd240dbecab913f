// Package memtracking keeps tracking records and their events in process memory.
//
// Both collections are guarded by a single lock, so every method is applied as a whole
// or not at all. Values handed out are copies; callers cannot mutate stored state.
package memtracking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/BearBump/TrackDesk/internal/models"
)

type Storage struct {
	mu        sync.RWMutex
	trackings map[string]*models.TrackingRecord
	events    map[string]*models.TrackingEvent

	// insertion order, newest wins on equal CreatedAt
	seq     map[string]uint64
	lastSeq uint64
}

func New() *Storage {
	return &Storage{
		trackings: make(map[string]*models.TrackingRecord),
		events:    make(map[string]*models.TrackingEvent),
		seq:       make(map[string]uint64),
	}
}

func (s *Storage) GetTrackingByNumber(ctx context.Context, trackingNumber string) (*models.TrackingWithEvents, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.trackings {
		if t.TrackingNumber != trackingNumber {
			continue
		}
		return &models.TrackingWithEvents{
			TrackingRecord: *t.Clone(),
			Events:         s.eventsOf(t.ID),
		}, true, nil
	}
	return nil, false, nil
}

func (s *Storage) ListTrackings(ctx context.Context) ([]*models.TrackingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.TrackingRecord, 0, len(s.trackings))
	for _, t := range s.trackings {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return s.newer(out[i].CreatedAt, out[j].CreatedAt, trackingKey(out[i].ID), trackingKey(out[j].ID))
	})
	return out, nil
}

func (s *Storage) CreateTracking(ctx context.Context, rec *models.TrackingRecord, seed *models.TrackingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.trackings {
		if t.TrackingNumber == rec.TrackingNumber {
			return models.ErrDuplicateTrackingNumber
		}
	}
	s.trackings[rec.ID] = rec.Clone()
	s.stamp(trackingKey(rec.ID))
	if seed != nil {
		s.events[seed.ID] = seed.Clone()
		s.stamp(eventKey(seed.ID))
	}
	return nil
}

func (s *Storage) UpdateTracking(ctx context.Context, id string, patch models.TrackingPatch, now time.Time) (*models.TrackingRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trackings[id]
	if !ok {
		return nil, false, nil
	}
	updated := t.Clone()
	patch.Apply(updated)
	updated.UpdatedAt = now
	s.trackings[id] = updated
	return updated.Clone(), true, nil
}

func (s *Storage) DeleteTracking(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Сначала события, потом сам трекинг.
	for eid, e := range s.events {
		if e.TrackingNumberID == id {
			delete(s.events, eid)
			delete(s.seq, eventKey(eid))
		}
	}
	if _, ok := s.trackings[id]; !ok {
		return false, nil
	}
	delete(s.trackings, id)
	delete(s.seq, trackingKey(id))
	return true, nil
}

func (s *Storage) ListTrackingEvents(ctx context.Context, trackingNumberID string) ([]*models.TrackingEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eventsOf(trackingNumberID), nil
}

// AddTrackingEvent stores ev and copies its status and location onto the owning record.
// A missing owner is not an error: the event is kept and propagation is skipped.
func (s *Storage) AddTrackingEvent(ctx context.Context, ev *models.TrackingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[ev.ID] = ev.Clone()
	s.stamp(eventKey(ev.ID))
	if t, ok := s.trackings[ev.TrackingNumberID]; ok {
		updated := t.Clone()
		updated.CurrentStatus = ev.Status
		updated.CurrentLocation = ev.Location
		updated.UpdatedAt = ev.CreatedAt
		s.trackings[t.ID] = updated
	}
	return nil
}

func (s *Storage) UpdateTrackingEvent(ctx context.Context, id string, patch models.TrackingEventPatch) (*models.TrackingEvent, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok {
		return nil, false, nil
	}
	updated := e.Clone()
	patch.Apply(updated)
	s.events[id] = updated
	return updated.Clone(), true, nil
}

func (s *Storage) DeleteTrackingEvent(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return false, nil
	}
	delete(s.events, id)
	delete(s.seq, eventKey(id))
	return true, nil
}

// eventsOf must be called with s.mu held.
func (s *Storage) eventsOf(trackingNumberID string) []*models.TrackingEvent {
	out := make([]*models.TrackingEvent, 0)
	for _, e := range s.events {
		if e.TrackingNumberID == trackingNumberID {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return s.newer(out[i].CreatedAt, out[j].CreatedAt, eventKey(out[i].ID), eventKey(out[j].ID))
	})
	return out
}

func trackingKey(id string) string { return "t/" + id }
func eventKey(id string) string    { return "e/" + id }

// stamp must be called with s.mu held. Re-adding a key keeps its original position.
func (s *Storage) stamp(key string) {
	if _, ok := s.seq[key]; ok {
		return
	}
	s.lastSeq++
	s.seq[key] = s.lastSeq
}

// newer orders by creation time descending, then by insertion order descending.
func (s *Storage) newer(a, b time.Time, ka, kb string) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return s.seq[ka] > s.seq[kb]
}
