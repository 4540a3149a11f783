package its

import "fmt"

// Cam is a Cooperative Awareness Message: the periodic self-announcement of
// a station's position and kinematics.
type Cam struct {
	Header ItsPduHeader `json:"header"`

	// GenerationDeltaTime is the message generation time modulo 65536 ms.
	GenerationDeltaTime uint16 `json:"generationDeltaTime"`

	// StationType per ETSI TS 102 894-2 (5 = passenger car, 15 = RSU, ...).
	StationType int `json:"stationType"`

	ReferencePosition ReferencePosition `json:"referencePosition"`

	// Speed in m/s.
	Speed float64 `json:"speed"`

	// Heading in degrees clockwise from north.
	Heading float64 `json:"heading"`

	// DriveDirection is "forward", "backward" or "unavailable".
	DriveDirection string `json:"driveDirection"`
}

var _ Payload = (*Cam)(nil)

func (c *Cam) Field(path string) (any, bool) {
	if v, ok := c.Header.headerField(path); ok {
		return v, true
	}
	switch path {
	case "generationDeltaTime":
		return c.GenerationDeltaTime, true
	case "stationType":
		return c.StationType, true
	case "referencePosition.latitude":
		return c.ReferencePosition.Latitude, true
	case "referencePosition.longitude":
		return c.ReferencePosition.Longitude, true
	case "speed":
		return c.Speed, true
	case "heading":
		return c.Heading, true
	case "driveDirection":
		return c.DriveDirection, true
	}
	return nil, false
}

// IdentityKey keys CAMs by originating station: each station has exactly one
// live awareness entry, republications update it in place.
func (c *Cam) IdentityKey() string {
	return fmt.Sprintf("%s/%d", TagCAM, c.Header.StationID)
}
