package messages

import "time"

const (
	KindTrackingCreated = "tracking.created"
	KindTrackingUpdated = "tracking.updated"
	KindTrackingDeleted = "tracking.deleted"
	KindEventAdded      = "tracking.event_added"
)

// TrackingChanged is published after every successful mutation of a tracking.
type TrackingChanged struct {
	Kind           string    `json:"kind"`
	TrackingID     string    `json:"tracking_id"`
	TrackingNumber string    `json:"tracking_number,omitempty"`
	EventID        string    `json:"event_id,omitempty"`
	Status         string    `json:"status,omitempty"`
	Location       string    `json:"location,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
