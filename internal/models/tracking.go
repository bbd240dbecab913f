package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Статусы, которые встречаются в коде. Статус остаётся свободным текстом.
const (
	TrackingStatusReceived       = "Package Received"
	TrackingStatusInTransit      = "In Transit"
	TrackingStatusOutForDelivery = "Out for Delivery"
	TrackingStatusDelivered      = "Delivered"
)

// Значения по умолчанию для новых трекингов.
const (
	DefaultServiceType   = "Standard Ground"
	DefaultCurrentStatus = TrackingStatusReceived
)

// DisplayTimeLayout renders "March 22, 2024 - 2:30 PM".
const DisplayTimeLayout = "January 2, 2006 - 3:04 PM"

var ErrDuplicateTrackingNumber = errors.New("tracking number already exists")

type TrackingRecord struct {
	ID                string    `json:"id"`
	TrackingNumber    string    `json:"trackingNumber"`
	CustomerName      string    `json:"customerName"`
	DeliveryAddress   string    `json:"deliveryAddress"`
	PackageWeight     *string   `json:"packageWeight"`
	ServiceType       string    `json:"serviceType"`
	ReferenceNumber   *string   `json:"referenceNumber"`
	EstimatedDelivery *string   `json:"estimatedDelivery"`
	CurrentStatus     string    `json:"currentStatus"`
	CurrentLocation   string    `json:"currentLocation"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (t *TrackingRecord) Clone() *TrackingRecord {
	c := *t
	c.PackageWeight = cloneString(t.PackageWeight)
	c.ReferenceNumber = cloneString(t.ReferenceNumber)
	c.EstimatedDelivery = cloneString(t.EstimatedDelivery)
	return &c
}

type TrackingEvent struct {
	ID               string    `json:"id"`
	TrackingNumberID string    `json:"trackingNumberId"`
	Status           string    `json:"status"`
	Location         string    `json:"location"`
	Description      *string   `json:"description"`
	Timestamp        string    `json:"timestamp"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (e *TrackingEvent) Clone() *TrackingEvent {
	c := *e
	c.Description = cloneString(e.Description)
	return &c
}

// TrackingWithEvents is a read-only projection: the record plus its events, newest first.
type TrackingWithEvents struct {
	TrackingRecord
	Events []*TrackingEvent `json:"events"`
}

type TrackingCreateInput struct {
	CustomerName      string  `json:"customerName" validate:"required"`
	DeliveryAddress   string  `json:"deliveryAddress" validate:"required"`
	PackageWeight     *string `json:"packageWeight"`
	ServiceType       string  `json:"serviceType"`
	ReferenceNumber   *string `json:"referenceNumber"`
	EstimatedDelivery *string `json:"estimatedDelivery"`
	CurrentStatus     string  `json:"currentStatus"`
	CurrentLocation   string  `json:"currentLocation" validate:"required"`
}

// PatchString is one attribute of a partial update. It tells an absent key apart from
// an explicit JSON null and from a value.
type PatchString struct {
	Set   bool
	Null  bool
	Value string
}

func Set(v string) PatchString { return PatchString{Set: true, Value: v} }

func Null() PatchString { return PatchString{Set: true, Null: true} }

// UnmarshalJSON is only called for keys present in the document, null included.
func (p *PatchString) UnmarshalJSON(b []byte) error {
	p.Set = true
	if string(b) == "null" {
		p.Null = true
		p.Value = ""
		return nil
	}
	p.Null = false
	return json.Unmarshal(b, &p.Value)
}

// Ptr returns the new value of an optional attribute: nil for null.
func (p PatchString) Ptr() *string {
	if p.Null {
		return nil
	}
	v := p.Value
	return &v
}

// TrackingPatch carries one optional value per mutable attribute of a record.
// An unset PatchString keeps the stored value.
type TrackingPatch struct {
	CustomerName      PatchString `json:"customerName"`
	DeliveryAddress   PatchString `json:"deliveryAddress"`
	PackageWeight     PatchString `json:"packageWeight"`
	ServiceType       PatchString `json:"serviceType"`
	ReferenceNumber   PatchString `json:"referenceNumber"`
	EstimatedDelivery PatchString `json:"estimatedDelivery"`
	CurrentStatus     PatchString `json:"currentStatus"`
	CurrentLocation   PatchString `json:"currentLocation"`
}

// Apply merges p into t field by field. Identity, tracking number and timestamps are untouched.
// Null clears optional attributes; required attributes ignore it (callers reject it first).
func (p TrackingPatch) Apply(t *TrackingRecord) {
	coalesce(&t.CustomerName, p.CustomerName)
	coalesce(&t.DeliveryAddress, p.DeliveryAddress)
	coalesceOptional(&t.PackageWeight, p.PackageWeight)
	coalesce(&t.ServiceType, p.ServiceType)
	coalesceOptional(&t.ReferenceNumber, p.ReferenceNumber)
	coalesceOptional(&t.EstimatedDelivery, p.EstimatedDelivery)
	coalesce(&t.CurrentStatus, p.CurrentStatus)
	coalesce(&t.CurrentLocation, p.CurrentLocation)
}

type TrackingEventInput struct {
	TrackingNumberID string  `json:"trackingNumberId" validate:"required"`
	Status           string  `json:"status" validate:"required"`
	Location         string  `json:"location" validate:"required"`
	Description      *string `json:"description"`
	Timestamp        *string `json:"timestamp"`
}

type TrackingEventPatch struct {
	Status      PatchString `json:"status"`
	Location    PatchString `json:"location"`
	Description PatchString `json:"description"`
	Timestamp   PatchString `json:"timestamp"`
}

func (p TrackingEventPatch) Apply(e *TrackingEvent) {
	coalesce(&e.Status, p.Status)
	coalesce(&e.Location, p.Location)
	coalesceOptional(&e.Description, p.Description)
	coalesce(&e.Timestamp, p.Timestamp)
}

type Stats struct {
	TotalPackages int `json:"totalPackages"`
	InTransit     int `json:"inTransit"`
	Delivered     int `json:"delivered"`
	ThisMonth     int `json:"thisMonth"`
}

func FormatDisplayTime(t time.Time) string {
	return t.Format(DisplayTimeLayout)
}

func coalesce(dst *string, v PatchString) {
	if v.Set && !v.Null {
		*dst = v.Value
	}
}

func coalesceOptional(dst **string, v PatchString) {
	if v.Set {
		*dst = v.Ptr()
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
