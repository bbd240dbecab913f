package mocks

import (
	"context"
	"time"

	"github.com/BearBump/TrackDesk/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a testify mock for trackings.Repository.
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetTrackingByNumber(ctx context.Context, trackingNumber string) (*models.TrackingWithEvents, bool, error) {
	args := m.Called(ctx, trackingNumber)
	t, _ := args.Get(0).(*models.TrackingWithEvents)
	return t, args.Bool(1), args.Error(2)
}

func (m *MockRepository) ListTrackings(ctx context.Context) ([]*models.TrackingRecord, error) {
	args := m.Called(ctx)
	ts, _ := args.Get(0).([]*models.TrackingRecord)
	return ts, args.Error(1)
}

func (m *MockRepository) CreateTracking(ctx context.Context, rec *models.TrackingRecord, seed *models.TrackingEvent) error {
	args := m.Called(ctx, rec, seed)
	return args.Error(0)
}

func (m *MockRepository) UpdateTracking(ctx context.Context, id string, patch models.TrackingPatch, now time.Time) (*models.TrackingRecord, bool, error) {
	args := m.Called(ctx, id, patch, now)
	t, _ := args.Get(0).(*models.TrackingRecord)
	return t, args.Bool(1), args.Error(2)
}

func (m *MockRepository) DeleteTracking(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListTrackingEvents(ctx context.Context, trackingNumberID string) ([]*models.TrackingEvent, error) {
	args := m.Called(ctx, trackingNumberID)
	evs, _ := args.Get(0).([]*models.TrackingEvent)
	return evs, args.Error(1)
}

func (m *MockRepository) AddTrackingEvent(ctx context.Context, ev *models.TrackingEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockRepository) UpdateTrackingEvent(ctx context.Context, id string, patch models.TrackingEventPatch) (*models.TrackingEvent, bool, error) {
	args := m.Called(ctx, id, patch)
	e, _ := args.Get(0).(*models.TrackingEvent)
	return e, args.Bool(1), args.Error(2)
}

func (m *MockRepository) DeleteTrackingEvent(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockPublisher is a testify mock for trackings.Publisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, key, value []byte) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}
