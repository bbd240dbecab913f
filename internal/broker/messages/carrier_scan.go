package messages

// CarrierScan is a status scan pushed by a carrier integration.
type CarrierScan struct {
	TrackingNumber string  `json:"tracking_number"`
	Status         string  `json:"status"`
	Location       string  `json:"location"`
	Description    *string `json:"description,omitempty"`
	Timestamp      *string `json:"timestamp,omitempty"`
}
