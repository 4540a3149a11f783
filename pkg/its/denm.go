package its

import "fmt"

// ActionID identifies a DENM event: the station that detected it plus a
// per-station sequence number.
type ActionID struct {
	OriginatingStationID uint32 `json:"originatingStationID"`
	SequenceNumber       uint16 `json:"sequenceNumber"`
}

// Denm is a Decentralized Environmental Notification Message: an
// event-driven hazard warning.
type Denm struct {
	Header ItsPduHeader `json:"header"`

	ActionID ActionID `json:"actionID"`

	// DetectionTime is the event detection time in ITS epoch milliseconds.
	DetectionTime int64 `json:"detectionTime"`

	EventPosition ReferencePosition `json:"eventPosition"`

	// CauseCode/SubCauseCode per ETSI TS 102 894-2 CauseCodeType.
	CauseCode    int `json:"causeCode"`
	SubCauseCode int `json:"subCauseCode"`

	// ValidityDuration of the event in seconds.
	ValidityDuration int `json:"validityDuration"`

	// RelevanceDistance in meters around the event position.
	RelevanceDistance float64 `json:"relevanceDistance"`
}

var _ Payload = (*Denm)(nil)

func (d *Denm) Field(path string) (any, bool) {
	if v, ok := d.Header.headerField(path); ok {
		return v, true
	}
	switch path {
	case "actionID.originatingStationID":
		return d.ActionID.OriginatingStationID, true
	case "actionID.sequenceNumber":
		return d.ActionID.SequenceNumber, true
	case "detectionTime":
		return d.DetectionTime, true
	case "eventPosition.latitude":
		return d.EventPosition.Latitude, true
	case "eventPosition.longitude":
		return d.EventPosition.Longitude, true
	case "causeCode":
		return d.CauseCode, true
	case "subCauseCode":
		return d.SubCauseCode, true
	case "validityDuration":
		return d.ValidityDuration, true
	case "relevanceDistance":
		return d.RelevanceDistance, true
	}
	return nil, false
}

// IdentityKey keys DENMs by action ID: updates to an ongoing event replace
// the stored entry instead of duplicating it.
func (d *Denm) IdentityKey() string {
	return fmt.Sprintf("%s/%d/%d", TagDENM, d.ActionID.OriginatingStationID, d.ActionID.SequenceNumber)
}
