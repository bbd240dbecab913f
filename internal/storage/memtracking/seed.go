package memtracking

import (
	"time"

	"github.com/BearBump/TrackDesk/internal/models"
)

// SeedDemoData installs the demo trackings shown on the landing page.
func (s *Storage) SeedDemoData() {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	at := func(m time.Month, d, hh, mm int) time.Time {
		return time.Date(2024, m, d, hh, mm, 0, 0, time.Local)
	}

	trackings := []*models.TrackingRecord{
		{
			ID:                "1",
			TrackingNumber:    "MTK123456789",
			CustomerName:      "John Smith",
			DeliveryAddress:   "123 Oak Street\nTampa, FL 33601",
			PackageWeight:     ptr("15.2 lbs"),
			ServiceType:       models.DefaultServiceType,
			ReferenceNumber:   ptr("Order #12345"),
			EstimatedDelivery: ptr("March 25, 2024"),
			CurrentStatus:     models.TrackingStatusInTransit,
			CurrentLocation:   "Tampa, FL Local Depot",
			CreatedAt:         day(2024, time.March, 22),
			UpdatedAt:         day(2024, time.March, 24),
		},
		{
			ID:                "2",
			TrackingNumber:    "MTK987654321",
			CustomerName:      "Sarah Johnson",
			DeliveryAddress:   "456 Palm Ave\nMiami, FL 33101",
			PackageWeight:     ptr("22.8 lbs"),
			ServiceType:       "Express",
			ReferenceNumber:   ptr("Order #12346"),
			EstimatedDelivery: ptr("March 24, 2024"),
			CurrentStatus:     models.TrackingStatusOutForDelivery,
			CurrentLocation:   "Miami, FL",
			CreatedAt:         day(2024, time.March, 21),
			UpdatedAt:         day(2024, time.March, 24),
		},
		{
			ID:                "3",
			TrackingNumber:    "MTK456789123",
			CustomerName:      "Mike Davis",
			DeliveryAddress:   "789 Sunset Blvd\nOrlando, FL 32801",
			PackageWeight:     ptr("18.5 lbs"),
			ServiceType:       models.DefaultServiceType,
			ReferenceNumber:   ptr("Order #12347"),
			EstimatedDelivery: ptr("March 22, 2024"),
			CurrentStatus:     models.TrackingStatusDelivered,
			CurrentLocation:   "Orlando, FL",
			CreatedAt:         day(2024, time.March, 20),
			UpdatedAt:         day(2024, time.March, 22),
		},
	}

	events := []*models.TrackingEvent{
		{
			ID:               "e1",
			TrackingNumberID: "1",
			Status:           "Package received at facility",
			Location:         "Miami, FL Distribution Center",
			Description:      ptr("Your package has been received and is being processed"),
			Timestamp:        "March 22, 2024 - 2:30 PM",
			CreatedAt:        at(time.March, 22, 14, 30),
		},
		{
			ID:               "e2",
			TrackingNumberID: "1",
			Status:           "In transit to destination",
			Location:         "Orlando, FL Sorting Facility",
			Description:      ptr("Package is on its way to the destination city"),
			Timestamp:        "March 23, 2024 - 8:15 AM",
			CreatedAt:        at(time.March, 23, 8, 15),
		},
		{
			ID:               "e3",
			TrackingNumberID: "1",
			Status:           "Arrived at local facility",
			Location:         "Tampa, FL Local Depot",
			Description:      ptr("Package has arrived at the local delivery facility"),
			Timestamp:        "March 24, 2024 - 6:45 AM",
			CreatedAt:        at(time.March, 24, 6, 45),
		},
	}

	for _, t := range trackings {
		s.trackings[t.ID] = t
		s.stamp(trackingKey(t.ID))
	}
	for _, e := range events {
		s.events[e.ID] = e
		s.stamp(eventKey(e.ID))
	}
}

func ptr(s string) *string { return &s }
