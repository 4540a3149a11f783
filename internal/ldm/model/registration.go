package model

import (
	"time"

	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/its"
)

// Provider is an active data-provider registration: a facility service
// authorized to publish the granted message types.
type Provider struct {
	ApplicationID string

	// Permissions is the set of type tags this provider may publish.
	Permissions its.TagSet

	// DefaultValidity applies to published objects that carry no explicit
	// time validity.
	DefaultValidity time.Duration
}

// Consumer is an active data-consumer registration: an application
// authorized to query and subscribe to the granted message types.
type Consumer struct {
	ApplicationID string

	// Permissions is the set of type tags this consumer may read.
	Permissions its.TagSet

	// AreaOfInterest scopes this consumer's query and subscription results.
	// Nil means no geographic scoping beyond the area of maintenance.
	AreaOfInterest geo.Area
}
