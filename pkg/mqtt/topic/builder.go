// Package topic centralizes the MQTT topic layout of the station message
// plane. Every producer and consumer builds topics through it, never by
// hand, so the layout stays consistent.
package topic

import (
	"fmt"
	"strings"
)

// Standard topic segments. They are the wire contract between stations and
// roadside infrastructure; changing them breaks deployed peers.
const (
	// SuffixFacility carries incoming ITS messages, one subtree per type.
	// Structure: {root}/facility/{type}/{stationID}
	SuffixFacility = "facility"

	// SuffixPosition carries the host station's own position fixes.
	// Structure: {root}/position/{stationID}
	SuffixPosition = "position"

	// SuffixNotify carries subscription notifications republished for
	// external consumers.
	// Structure: {root}/ldm/notify/{applicationID}
	SuffixNotify = "ldm/notify"
)

// Builder constructs MQTT topic strings under a fixed root namespace
// (e.g. "its/v1").
type Builder struct {
	root string
}

// NewBuilder creates a Builder with the specified root namespace.
func NewBuilder(root string) *Builder {
	return &Builder{root: root}
}

// Facility returns the topic a station publishes messages of the given
// type on. The type segment is lowercase ("cam", "denm", "vam").
func (b *Builder) Facility(typeTag, stationID string) string {
	return b.build(SuffixFacility+"/"+strings.ToLower(typeTag), stationID)
}

// FacilityWildcard returns the filter matching every station's messages of
// one type. Result: {root}/facility/{type}/+
func (b *Builder) FacilityWildcard(typeTag string) string {
	return b.build(SuffixFacility+"/"+strings.ToLower(typeTag), Wildcard)
}

// TypeFromFacility extracts the type segment back out of a facility topic.
// Returns false if the topic does not belong to the facility subtree.
func (b *Builder) TypeFromFacility(topic string) (string, bool) {
	prefix := b.root + "/" + SuffixFacility + "/"
	rest, ok := strings.CutPrefix(topic, prefix)
	if !ok {
		return "", false
	}
	typeSeg, _, ok := strings.Cut(rest, "/")
	if !ok || typeSeg == "" {
		return "", false
	}
	return typeSeg, true
}

// Position returns the topic a station publishes its position fixes on.
func (b *Builder) Position(stationID string) string {
	return b.build(SuffixPosition, stationID)
}

// PositionWildcard returns the filter matching every position feed.
// Result: {root}/position/+
func (b *Builder) PositionWildcard() string {
	return b.build(SuffixPosition, Wildcard)
}

// Notify returns the topic notifications for one consumer application are
// republished on.
func (b *Builder) Notify(applicationID string) string {
	return b.build(SuffixNotify, applicationID)
}

// build constructs the final topic string. Pattern: {root}/{suffix}/{id}
func (b *Builder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
