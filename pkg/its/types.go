// Package its defines the ITS facility message model shared by the LDM and
// the facility adapters: the closed set of message type tags, the common PDU
// header, and typed CAM/DENM/VAM payloads with dotted-path field access.
//
// Only the fields the LDM filters and orders on are modeled; ASN.1 encoding
// and decoding is out of scope, payloads arrive already decoded.
package its

import (
	"fmt"
	"sort"
	"strings"
)

// TypeTag identifies the kind of a facility message. It drives access
// permission checks and type filtering in the LDM.
type TypeTag string

const (
	TagCAM    TypeTag = "CAM"    // Cooperative Awareness Message
	TagDENM   TypeTag = "DENM"   // Decentralized Environmental Notification Message
	TagVAM    TypeTag = "VAM"    // VRU Awareness Message
	TagMAPEM  TypeTag = "MAPEM"  // MAP Extended Message (topology)
	TagSPATEM TypeTag = "SPATEM" // Signal Phase and Timing Extended Message
	TagIVIM   TypeTag = "IVIM"   // Infrastructure to Vehicle Information Message
	TagSREM   TypeTag = "SREM"   // Signal Request Extended Message
	TagSSEM   TypeTag = "SSEM"   // Signal request Status Extended Message
)

var knownTags = map[TypeTag]struct{}{
	TagCAM: {}, TagDENM: {}, TagVAM: {}, TagMAPEM: {},
	TagSPATEM: {}, TagIVIM: {}, TagSREM: {}, TagSSEM: {},
}

// AllTags returns every known message type.
func AllTags() []TypeTag {
	return []TypeTag{TagCAM, TagDENM, TagVAM, TagMAPEM, TagSPATEM, TagIVIM, TagSREM, TagSSEM}
}

// ParseTypeTag converts a string to a TypeTag, case-insensitively.
func ParseTypeTag(s string) (TypeTag, error) {
	tag := TypeTag(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := knownTags[tag]; !ok {
		return "", fmt.Errorf("unknown message type %q", s)
	}
	return tag, nil
}

// TagSet is a set of message type tags, used for permission grants and
// subscription type filters.
type TagSet map[TypeTag]struct{}

// NewTagSet builds a TagSet from the given tags.
func NewTagSet(tags ...TypeTag) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether the tag is a member of the set.
func (s TagSet) Has(tag TypeTag) bool {
	_, ok := s[tag]
	return ok
}

// HasAll reports whether every given tag is a member of the set.
func (s TagSet) HasAll(tags ...TypeTag) bool {
	for _, t := range tags {
		if !s.Has(t) {
			return false
		}
	}
	return true
}

// Tags returns the members in lexical order.
func (s TagSet) Tags() []TypeTag {
	out := make([]TypeTag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s TagSet) String() string {
	parts := make([]string, 0, len(s))
	for _, t := range s.Tags() {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ",")
}
