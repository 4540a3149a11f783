package its

import "fmt"

// Vam is a VRU Awareness Message announcing a vulnerable road user
// (pedestrian, cyclist, ...).
type Vam struct {
	Header ItsPduHeader `json:"header"`

	// GenerationDeltaTime is the message generation time modulo 65536 ms.
	GenerationDeltaTime uint16 `json:"generationDeltaTime"`

	// VruProfile is "pedestrian", "bicyclist", "motorcyclist" or "animal".
	VruProfile string `json:"vruProfile"`

	Position ReferencePosition `json:"position"`

	// Speed in m/s.
	Speed float64 `json:"speed"`
}

var _ Payload = (*Vam)(nil)

func (v *Vam) Field(path string) (any, bool) {
	if val, ok := v.Header.headerField(path); ok {
		return val, true
	}
	switch path {
	case "generationDeltaTime":
		return v.GenerationDeltaTime, true
	case "vruProfile":
		return v.VruProfile, true
	case "position.latitude":
		return v.Position.Latitude, true
	case "position.longitude":
		return v.Position.Longitude, true
	case "speed":
		return v.Speed, true
	}
	return nil, false
}

// IdentityKey keys VAMs by originating station, like CAMs.
func (v *Vam) IdentityKey() string {
	return fmt.Sprintf("%s/%d", TagVAM, v.Header.StationID)
}
