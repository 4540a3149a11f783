package its

import (
	"fmt"
	"strings"
)

// Payload is the decoded content of a stored facility message. Fields are
// addressed by dotted paths (e.g. "header.stationID") so the LDM filter and
// order engine can operate over heterogeneous message shapes.
//
// Typed payloads (Cam, Denm, Vam) resolve paths with a switch; Generic falls
// back to walking nested maps.
type Payload interface {
	// Field resolves a dotted path to a field value. The second return is
	// false when the path does not exist for this payload shape.
	Field(path string) (any, bool)
}

// keyed is implemented by payloads that carry their own identity.
type keyed interface {
	IdentityKey() string
}

// IdentityKey derives the storage identity of a payload: typed payloads
// provide their own, anything else falls back to <tag>/<header.stationID>.
// The second return is false when no identity can be derived.
func IdentityKey(tag TypeTag, p Payload) (string, bool) {
	if k, ok := p.(keyed); ok {
		return k.IdentityKey(), true
	}
	if v, ok := p.Field("header.stationID"); ok {
		return fmt.Sprintf("%s/%v", tag, v), true
	}
	return "", false
}

// Generic is a schema-less payload backed by nested maps, as produced by
// json.Unmarshal into map[string]any. It serves message kinds that have no
// typed model (MAPEM, SPATEM, ...).
type Generic map[string]any

var _ Payload = Generic{}

// Field walks the nested maps segment by segment.
func (g Generic) Field(path string) (any, bool) {
	var cur any = map[string]any(g)
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ItsPduHeader is the common header of every ITS facility message.
type ItsPduHeader struct {
	ProtocolVersion int    `json:"protocolVersion"`
	MessageID       int    `json:"messageID"`
	StationID       uint32 `json:"stationID"`
}

func (h ItsPduHeader) headerField(path string) (any, bool) {
	switch path {
	case "header.protocolVersion":
		return h.ProtocolVersion, true
	case "header.messageID":
		return h.MessageID, true
	case "header.stationID":
		return h.StationID, true
	}
	return nil, false
}

// ReferencePosition is a geographic position in tenths of microdegrees, the
// unit ETSI messages carry on the wire.
type ReferencePosition struct {
	Latitude  int64 `json:"latitude"`
	Longitude int64 `json:"longitude"`
}

// Degrees converts the position to decimal degrees.
func (r ReferencePosition) Degrees() (lat, lon float64) {
	return float64(r.Latitude) / 1e7, float64(r.Longitude) / 1e7
}
