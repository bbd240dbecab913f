package memtracking

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/TrackDesk/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite

	st  *Storage
	ctx context.Context
	t0  time.Time
}

func (s *StorageSuite) SetupTest() {
	s.st = New()
	s.ctx = context.Background()
	s.t0 = time.Date(2024, time.March, 22, 10, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) create(id, number string, createdAt time.Time) *models.TrackingRecord {
	rec := &models.TrackingRecord{
		ID:              id,
		TrackingNumber:  number,
		CustomerName:    "John Smith",
		DeliveryAddress: "123 Oak Street\nTampa, FL 33601",
		ServiceType:     models.DefaultServiceType,
		CurrentStatus:   models.TrackingStatusReceived,
		CurrentLocation: "Miami, FL",
		CreatedAt:       createdAt,
		UpdatedAt:       createdAt,
	}
	seed := &models.TrackingEvent{
		ID:               id + "-seed",
		TrackingNumberID: id,
		Status:           rec.CurrentStatus,
		Location:         rec.CurrentLocation,
		Timestamp:        models.FormatDisplayTime(createdAt),
		CreatedAt:        createdAt,
	}
	s.Require().NoError(s.st.CreateTracking(s.ctx, rec, seed))
	return rec
}

func (s *StorageSuite) TestCreateAndGetByNumber() {
	s.create("a", "MTK000000001", s.t0)

	got, ok, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal("a", got.ID)
	s.Require().Len(got.Events, 1)
	s.Require().Equal(models.TrackingStatusReceived, got.Events[0].Status)
}

func (s *StorageSuite) TestGetByNumber_CaseSensitiveAndMissing() {
	s.create("a", "MTK000000001", s.t0)

	_, ok, err := s.st.GetTrackingByNumber(s.ctx, "mtk000000001")
	s.Require().NoError(err)
	s.Require().False(ok)

	_, ok, err = s.st.GetTrackingByNumber(s.ctx, "MTK999999999")
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *StorageSuite) TestCreate_DuplicateNumberRejected() {
	s.create("a", "MTK000000001", s.t0)

	err := s.st.CreateTracking(s.ctx, &models.TrackingRecord{ID: "b", TrackingNumber: "MTK000000001"}, nil)
	s.Require().ErrorIs(err, models.ErrDuplicateTrackingNumber)

	list, err := s.st.ListTrackings(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
}

func (s *StorageSuite) TestListTrackings_NewestFirst() {
	s.create("old", "MTK000000001", s.t0)
	s.create("new", "MTK000000002", s.t0.Add(2*time.Hour))
	s.create("mid", "MTK000000003", s.t0.Add(time.Hour))

	list, err := s.st.ListTrackings(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Require().Equal("new", list[0].ID)
	s.Require().Equal("mid", list[1].ID)
	s.Require().Equal("old", list[2].ID)
}

func (s *StorageSuite) TestListTrackings_SameCreatedAtNewestInsertFirst() {
	s.create("first", "MTK000000001", s.t0)
	s.create("second", "MTK000000002", s.t0)
	s.create("third", "MTK000000003", s.t0)

	for i := 0; i < 20; i++ {
		list, err := s.st.ListTrackings(s.ctx)
		s.Require().NoError(err)
		s.Require().Equal([]string{"third", "second", "first"}, []string{list[0].ID, list[1].ID, list[2].ID})
	}
}

func (s *StorageSuite) TestAddTrackingEvent_SameCreatedAtNewestInsertFirst() {
	s.create("a", "MTK000000001", s.t0)
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, &models.TrackingEvent{
		ID: "e1", TrackingNumberID: "a", Status: "In Transit", Location: "Orlando, FL", CreatedAt: s.t0,
	}))
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, &models.TrackingEvent{
		ID: "e0", TrackingNumberID: "a", Status: "Delivered", Location: "Tampa, FL", CreatedAt: s.t0,
	}))

	for i := 0; i < 20; i++ {
		got, _, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
		s.Require().NoError(err)
		s.Require().Len(got.Events, 3)
		s.Require().Equal("e0", got.Events[0].ID)
		s.Require().Equal("e1", got.Events[1].ID)
		s.Require().Equal("a-seed", got.Events[2].ID)
	}
}

func (s *StorageSuite) TestUpdateTracking_MergesAndTouchesUpdatedAt() {
	s.create("a", "MTK000000001", s.t0)
	later := s.t0.Add(time.Hour)

	got, ok, err := s.st.UpdateTracking(s.ctx, "a", models.TrackingPatch{CustomerName: models.Set("Jane")}, later)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal("Jane", got.CustomerName)
	s.Require().Equal("Miami, FL", got.CurrentLocation)
	s.Require().Equal(later, got.UpdatedAt)
	s.Require().Equal(s.t0, got.CreatedAt)

	evs, err := s.st.ListTrackingEvents(s.ctx, "a")
	s.Require().NoError(err)
	s.Require().Len(evs, 1)
}

func (s *StorageSuite) TestUpdateTracking_Missing() {
	got, ok, err := s.st.UpdateTracking(s.ctx, "nope", models.TrackingPatch{CustomerName: models.Set("Jane")}, s.t0)
	s.Require().NoError(err)
	s.Require().False(ok)
	s.Require().Nil(got)
}

func (s *StorageSuite) TestDeleteTracking_Cascades() {
	s.create("a", "MTK000000001", s.t0)
	s.create("b", "MTK000000002", s.t0)
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, &models.TrackingEvent{
		ID: "e", TrackingNumberID: "a", Status: "In Transit", Location: "Orlando, FL", CreatedAt: s.t0.Add(time.Minute),
	}))

	ok, err := s.st.DeleteTracking(s.ctx, "a")
	s.Require().NoError(err)
	s.Require().True(ok)

	evs, err := s.st.ListTrackingEvents(s.ctx, "a")
	s.Require().NoError(err)
	s.Require().Empty(evs)

	evs, err = s.st.ListTrackingEvents(s.ctx, "b")
	s.Require().NoError(err)
	s.Require().Len(evs, 1)

	ok, err = s.st.DeleteTracking(s.ctx, "a")
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *StorageSuite) TestAddTrackingEvent_PropagatesToRecord() {
	s.create("a", "MTK000000001", s.t0)
	at := s.t0.Add(time.Hour)

	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, &models.TrackingEvent{
		ID: "e", TrackingNumberID: "a", Status: "In Transit", Location: "Orlando, FL", CreatedAt: at,
	}))

	got, ok, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal("In Transit", got.CurrentStatus)
	s.Require().Equal("Orlando, FL", got.CurrentLocation)
	s.Require().Equal(at, got.UpdatedAt)
	s.Require().Len(got.Events, 2)
	s.Require().Equal("e", got.Events[0].ID)
}

func (s *StorageSuite) TestAddTrackingEvent_OrphanIsKept() {
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, &models.TrackingEvent{
		ID: "e", TrackingNumberID: "ghost", Status: "In Transit", Location: "Orlando, FL", CreatedAt: s.t0,
	}))

	evs, err := s.st.ListTrackingEvents(s.ctx, "ghost")
	s.Require().NoError(err)
	s.Require().Len(evs, 1)

	list, err := s.st.ListTrackings(s.ctx)
	s.Require().NoError(err)
	s.Require().Empty(list)
}

func (s *StorageSuite) TestUpdateTrackingEvent_NoCascade() {
	s.create("a", "MTK000000001", s.t0)
	got, ok, err := s.st.UpdateTrackingEvent(s.ctx, "a-seed", models.TrackingEventPatch{Status: models.Set("Exception")})
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Require().Equal("Exception", got.Status)
	s.Require().Equal("Miami, FL", got.Location)

	rec, _, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
	s.Require().NoError(err)
	s.Require().Equal(models.TrackingStatusReceived, rec.CurrentStatus)

	_, ok, err = s.st.UpdateTrackingEvent(s.ctx, "nope", models.TrackingEventPatch{Status: models.Set("Exception")})
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *StorageSuite) TestDeleteTrackingEvent_DoesNotRederiveStatus() {
	s.create("a", "MTK000000001", s.t0)
	s.Require().NoError(s.st.AddTrackingEvent(s.ctx, &models.TrackingEvent{
		ID: "e", TrackingNumberID: "a", Status: "In Transit", Location: "Orlando, FL", CreatedAt: s.t0.Add(time.Hour),
	}))

	ok, err := s.st.DeleteTrackingEvent(s.ctx, "e")
	s.Require().NoError(err)
	s.Require().True(ok)

	rec, _, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
	s.Require().NoError(err)
	s.Require().Equal("In Transit", rec.CurrentStatus)
	s.Require().Len(rec.Events, 1)

	ok, err = s.st.DeleteTrackingEvent(s.ctx, "e")
	s.Require().NoError(err)
	s.Require().False(ok)
}

func (s *StorageSuite) TestReturnedValuesAreCopies() {
	s.create("a", "MTK000000001", s.t0)

	list, err := s.st.ListTrackings(s.ctx)
	s.Require().NoError(err)
	list[0].CurrentStatus = "tampered"

	got, _, err := s.st.GetTrackingByNumber(s.ctx, "MTK000000001")
	s.Require().NoError(err)
	s.Require().Equal(models.TrackingStatusReceived, got.CurrentStatus)
}

func (s *StorageSuite) TestCanceledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.st.ListTrackings(ctx)
	s.Require().ErrorIs(err, context.Canceled)
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func TestSeedDemoData(t *testing.T) {
	st := New()
	st.SeedDemoData()
	ctx := context.Background()

	list, err := st.ListTrackings(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "MTK123456789", list[0].TrackingNumber)

	got, ok, err := st.GetTrackingByNumber(ctx, "MTK123456789")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Events, 3)
	require.Equal(t, "e3", got.Events[0].ID)
	require.Equal(t, "e1", got.Events[2].ID)

	got, ok, err = st.GetTrackingByNumber(ctx, "MTK456789123")
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, got.Events)
}
