package its

import (
	"encoding/json"
	"testing"
)

func TestParseTypeTag(t *testing.T) {
	tests := []struct {
		in      string
		want    TypeTag
		wantErr bool
	}{
		{"CAM", TagCAM, false},
		{"cam", TagCAM, false},
		{" denm ", TagDENM, false},
		{"SPATEM", TagSPATEM, false},
		{"BSM", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseTypeTag(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTypeTag(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTypeTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCamField(t *testing.T) {
	cam := &Cam{
		Header:            ItsPduHeader{ProtocolVersion: 2, MessageID: 2, StationID: 1234},
		StationType:       5,
		ReferencePosition: ReferencePosition{Latitude: 413869310, Longitude: 21121040},
		Speed:             13.9,
		Heading:           92.5,
		DriveDirection:    "forward",
	}

	tests := []struct {
		path string
		want any
		ok   bool
	}{
		{"header.stationID", uint32(1234), true},
		{"header.protocolVersion", 2, true},
		{"stationType", 5, true},
		{"referencePosition.latitude", int64(413869310), true},
		{"speed", 13.9, true},
		{"driveDirection", "forward", true},
		{"header.bogus", nil, false},
		{"noSuchField", nil, false},
	}

	for _, tt := range tests {
		got, ok := cam.Field(tt.path)
		if ok != tt.ok {
			t.Errorf("Field(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("Field(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestIdentityKey(t *testing.T) {
	cam := &Cam{Header: ItsPduHeader{StationID: 7}}
	if key, ok := IdentityKey(TagCAM, cam); !ok || key != "CAM/7" {
		t.Errorf("cam identity = %q, %v; want CAM/7, true", key, ok)
	}

	denm := &Denm{ActionID: ActionID{OriginatingStationID: 9, SequenceNumber: 3}}
	if key, ok := IdentityKey(TagDENM, denm); !ok || key != "DENM/9/3" {
		t.Errorf("denm identity = %q, %v; want DENM/9/3, true", key, ok)
	}

	// Generic payloads fall back to the station id in the header.
	gen := Generic{"header": map[string]any{"stationID": float64(42)}}
	if key, ok := IdentityKey(TagSPATEM, gen); !ok || key != "SPATEM/42" {
		t.Errorf("generic identity = %q, %v; want SPATEM/42, true", key, ok)
	}

	// No header at all: identity cannot be derived.
	if _, ok := IdentityKey(TagMAPEM, Generic{"intersection": 1}); ok {
		t.Error("identity derived from a payload without a station id")
	}
}

func TestGenericFieldWalksDecodedJSON(t *testing.T) {
	raw := `{"header":{"stationID":55,"messageID":4},"intersection":{"id":17,"state":"green"}}`

	var gen Generic
	if err := json.Unmarshal([]byte(raw), &gen); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if v, ok := gen.Field("intersection.state"); !ok || v != "green" {
		t.Errorf("Field(intersection.state) = %v, %v; want green, true", v, ok)
	}
	if v, ok := gen.Field("header.stationID"); !ok || v != float64(55) {
		t.Errorf("Field(header.stationID) = %v, %v; want 55, true", v, ok)
	}
	if _, ok := gen.Field("intersection.id.deeper"); ok {
		t.Error("walking past a scalar should fail")
	}
	if _, ok := gen.Field("missing.path"); ok {
		t.Error("missing path should not resolve")
	}
}

func TestTagSet(t *testing.T) {
	s := NewTagSet(TagCAM, TagDENM)

	if !s.Has(TagCAM) || s.Has(TagVAM) {
		t.Error("membership checks failed")
	}
	if !s.HasAll(TagCAM, TagDENM) {
		t.Error("HasAll should succeed on full membership")
	}
	if s.HasAll(TagCAM, TagVAM) {
		t.Error("HasAll should fail when any tag is missing")
	}
	if got := s.String(); got != "CAM,DENM" {
		t.Errorf("String() = %q, want CAM,DENM", got)
	}
}
