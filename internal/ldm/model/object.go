// Package model holds the core entities of the Local Dynamic Map: the stored
// data object and the provider/consumer registrations. It is decoupled from
// the storage and transport layers.
package model

import (
	"time"

	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/its"
)

// DataObject is the unit of LDM storage: one decoded, timestamped,
// geolocated facility message.
type DataObject struct {
	// ApplicationID identifies the provider that published the object.
	ApplicationID string

	// Type is the message kind, used for permission checks and type filters.
	Type its.TypeTag

	// Key is the identity derived from the message content. Republications
	// with the same key update the stored object in place.
	Key string

	// Timestamp is when the object was submitted or last updated.
	Timestamp time.Time

	// TimeValidity is how long past Timestamp the object stays fresh.
	TimeValidity time.Duration

	// Location of the described entity or event.
	Location geo.Position

	// RelevanceRadius in meters around Location. Zero means the object is
	// relevant only at its exact position.
	RelevanceRadius float64

	// Payload is the decoded message content.
	Payload its.Payload

	// Seq is the insertion sequence number assigned by the storage backend.
	// It survives in-place updates so ordering ties break by first insertion.
	Seq uint64
}

// ExpiresAt returns the instant the object's time validity elapses.
func (o *DataObject) ExpiresAt() time.Time {
	return o.Timestamp.Add(o.TimeValidity)
}

// ValidAt reports whether the object is valid at the given instant with the
// given area of maintenance: fresh in time AND geographically relevant.
// A nil area imposes no geographic restriction.
func (o *DataObject) ValidAt(now time.Time, area geo.Area) bool {
	if !now.Before(o.ExpiresAt()) {
		return false
	}
	if area == nil {
		return true
	}
	if o.RelevanceRadius > 0 {
		return area.IntersectsCircle(o.Location, o.RelevanceRadius)
	}
	return area.Contains(o.Location)
}

// InArea reports whether the object is geographically relevant to the given
// area, ignoring time validity.
func (o *DataObject) InArea(area geo.Area) bool {
	if area == nil {
		return true
	}
	if o.RelevanceRadius > 0 {
		return area.IntersectsCircle(o.Location, o.RelevanceRadius)
	}
	return area.Contains(o.Location)
}
