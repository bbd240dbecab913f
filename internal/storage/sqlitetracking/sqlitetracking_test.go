package sqlitetracking

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/BearBump/TrackDesk/internal/models"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	ctx  context.Context
	st   *Storage
	base time.Time
}

func (s *StorageSuite) SetupTest() {
	s.ctx = context.Background()
	s.base = time.Date(2024, 3, 22, 14, 30, 0, 0, time.UTC)

	st, err := New(s.ctx, filepath.Join(s.T().TempDir(), "trackdesk.db"))
	s.Require().NoError(err)
	s.st = st
	s.T().Cleanup(func() { _ = st.Close() })
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func strPtr(v string) *string { return &v }

func (s *StorageSuite) record(id, number string, createdAt time.Time) *models.TrackingRecord {
	return &models.TrackingRecord{
		ID:              id,
		TrackingNumber:  number,
		CustomerName:    "John Smith",
		DeliveryAddress: "123 Main St",
		ServiceType:     models.DefaultServiceType,
		CurrentStatus:   models.DefaultCurrentStatus,
		CurrentLocation: "Chicago, IL",
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
}

func (s *StorageSuite) event(id, owner, status string, createdAt time.Time) *models.TrackingEvent {
	return &models.TrackingEvent{
		ID:               id,
		TrackingNumberID: owner,
		Status:           status,
		Location:         "Denver, CO",
		Timestamp:        models.FormatDisplayTime(createdAt),
		CreatedAt:        createdAt,
	}
}

func (s *StorageSuite) TestCreateAndGet() {
	rec := s.record("t-1", "MTK000000001", s.base)
	rec.PackageWeight = strPtr("2.5 lbs")
	seed := s.event("e-1", "t-1", models.DefaultCurrentStatus, s.base)
	seed.Description = strPtr("Package has been package received")
	s.Require().NoError(s.st.CreateTracking(s.ctx, rec, seed))

	got, ok, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("t-1", got.ID)
	s.Equal("2.5 lbs", *got.PackageWeight)
	s.Nil(got.ReferenceNumber)
	s.True(got.CreatedAt.Equal(s.base))
	s.Require().Len(got.Events, 1)
	s.Equal("Package has been package received", *got.Events[0].Description)

	_, ok, err = s.st.GetTrackingByNumber(s.ctx, "mtk000000001")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StorageSuite) TestCreateDuplicateNumber() {
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-1", "MTK000000001", s.base), nil))
	err := s.st.CreateTracking(s.ctx, s.record("t-2", "MTK000000001", s.base), nil)
	s.ErrorIs(err, models.ErrDuplicateTrackingNumber)

	list, err := s.st.ListTrackings(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 1)
}

func (s *StorageSuite) TestListNewestFirst() {
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-1", "MTK000000001", s.base), nil))
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-2", "MTK000000002", s.base.Add(time.Minute)), nil))
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-3", "MTK000000003", s.base.Add(-time.Minute)), nil))

	list, err := s.st.ListTrackings(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]string{"t-2", "t-1", "t-3"}, []string{list[0].ID, list[1].ID, list[2].ID})
}

func (s *StorageSuite) TestUpdateTracking() {
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-1", "MTK000000001", s.base), nil))

	later := s.base.Add(time.Hour)
	got, ok, err := s.st.UpdateTracking(s.ctx, "t-1", models.TrackingPatch{
		CustomerName:    models.Set("Jane Smith"),
		ReferenceNumber: models.Set("REF-1"),
	}, later)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("Jane Smith", got.CustomerName)
	s.Equal("REF-1", *got.ReferenceNumber)
	s.Equal("123 Main St", got.DeliveryAddress)
	s.True(got.UpdatedAt.Equal(later))
	s.True(got.CreatedAt.Equal(s.base))

	_, ok, err = s.st.UpdateTracking(s.ctx, "missing", models.TrackingPatch{CustomerName: models.Set("x")}, later)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StorageSuite) TestUpdateNullClearsOptional() {
	rec := s.record("t-1", "MTK000000001", s.base)
	rec.PackageWeight = strPtr("2.5 lbs")
	rec.ReferenceNumber = strPtr("REF-1")
	seed := s.event("e-1", "t-1", models.DefaultCurrentStatus, s.base)
	seed.Description = strPtr("Package received")
	s.Require().NoError(s.st.CreateTracking(s.ctx, rec, seed))

	got, ok, err := s.st.UpdateTracking(s.ctx, "t-1", models.TrackingPatch{PackageWeight: models.Null()}, s.base)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Nil(got.PackageWeight)
	s.Equal("REF-1", *got.ReferenceNumber)

	ev, ok, err := s.st.UpdateTrackingEvent(s.ctx, "e-1", models.TrackingEventPatch{Description: models.Null()})
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Nil(ev.Description)

	stored, _, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
	s.Require().NoError(err)
	s.Nil(stored.PackageWeight)
	s.Nil(stored.Events[0].Description)
}

func (s *StorageSuite) TestSameCreatedAtNewestInsertFirst() {
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-1", "MTK000000001", s.base), nil))
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-2", "MTK000000002", s.base), nil))
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, s.event("e-1", "t-1", "In Transit", s.base)))
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, s.event("e-0", "t-1", "Delivered", s.base)))

	list, err := s.st.ListTrackings(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"t-2", "t-1"}, []string{list[0].ID, list[1].ID})

	evs, err := s.st.ListTrackingEvents(s.ctx, "t-1")
	s.Require().NoError(err)
	s.Equal([]string{"e-0", "e-1"}, []string{evs[0].ID, evs[1].ID})
}

func (s *StorageSuite) TestAddEventPropagates() {
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-1", "MTK000000001", s.base), nil))

	ev := s.event("e-1", "t-1", models.TrackingStatusInTransit, s.base.Add(time.Hour))
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, ev))

	got, _, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
	s.Require().NoError(err)
	s.Equal(models.TrackingStatusInTransit, got.CurrentStatus)
	s.Equal("Denver, CO", got.CurrentLocation)
	s.True(got.UpdatedAt.Equal(ev.CreatedAt))
	s.Require().Len(got.Events, 1)
	s.Equal("e-1", got.Events[0].ID)
}

func (s *StorageSuite) TestOrphanEventIsStored() {
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, s.event("e-1", "nobody", "Processing", s.base)))

	evs, err := s.st.ListTrackingEvents(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Len(evs, 1)
}

func (s *StorageSuite) TestEventsNewestFirst() {
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-1", "MTK000000001", s.base), nil))
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, s.event("e-1", "t-1", "Processing", s.base.Add(time.Minute))))
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, s.event("e-2", "t-1", "In Transit", s.base.Add(2*time.Minute))))

	evs, err := s.st.ListTrackingEvents(s.ctx, "t-1")
	s.Require().NoError(err)
	s.Require().Len(evs, 2)
	s.Equal("e-2", evs[0].ID)
	s.Equal("e-1", evs[1].ID)
}

func (s *StorageSuite) TestUpdateEventDoesNotTouchOwner() {
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-1", "MTK000000001", s.base), nil))
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, s.event("e-1", "t-1", "In Transit", s.base.Add(time.Minute))))

	ev, ok, err := s.st.UpdateTrackingEvent(s.ctx, "e-1", models.TrackingEventPatch{
		Status:      models.Set("Delivered"),
		Description: models.Set("Left at door"),
	})
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal("Delivered", ev.Status)
	s.Equal("Left at door", *ev.Description)
	s.Equal("Denver, CO", ev.Location)

	got, _, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
	s.Require().NoError(err)
	s.Equal("In Transit", got.CurrentStatus)

	_, ok, err = s.st.UpdateTrackingEvent(s.ctx, "missing", models.TrackingEventPatch{Status: models.Set("x")})
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StorageSuite) TestDeleteEventKeepsStatus() {
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-1", "MTK000000001", s.base), nil))
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, s.event("e-1", "t-1", "In Transit", s.base.Add(time.Minute))))

	ok, err := s.st.DeleteTrackingEvent(s.ctx, "e-1")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.st.DeleteTrackingEvent(s.ctx, "e-1")
	s.Require().NoError(err)
	s.False(ok)

	got, _, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
	s.Require().NoError(err)
	s.Equal("In Transit", got.CurrentStatus)
	s.Empty(got.Events)
}

func (s *StorageSuite) TestDeleteTrackingCascades() {
	s.Require().NoError(s.st.CreateTracking(s.ctx, s.record("t-1", "MTK000000001", s.base),
		s.event("e-0", "t-1", models.DefaultCurrentStatus, s.base)))
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, s.event("e-1", "t-1", "In Transit", s.base.Add(time.Minute))))

	ok, err := s.st.DeleteTracking(s.ctx, "t-1")
	s.Require().NoError(err)
	s.True(ok)

	evs, err := s.st.ListTrackingEvents(s.ctx, "t-1")
	s.Require().NoError(err)
	s.Empty(evs)

	_, found, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
	s.Require().NoError(err)
	s.False(found)

	ok, err = s.st.DeleteTracking(s.ctx, "t-1")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *StorageSuite) TestPing() {
	s.NoError(s.st.Ping(s.ctx))
}
