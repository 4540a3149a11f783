// Package geo provides the geometric primitives used by the LDM to judge
// geographic relevance: WGS84 positions and the relevance-area shapes
// defined by ETSI for ITS messages (circle, rectangle, ellipse).
package geo

import "math"

// earthRadius is the mean earth radius in meters.
const earthRadius = 6371000.0

// Position is a WGS84 coordinate in decimal degrees.
type Position struct {
	Latitude  float64 `json:"latitude" mapstructure:"latitude"`
	Longitude float64 `json:"longitude" mapstructure:"longitude"`
}

// DistanceTo returns the haversine distance to q in meters.
func (p Position) DistanceTo(q Position) float64 {
	lat1 := p.Latitude * math.Pi / 180
	lat2 := q.Latitude * math.Pi / 180
	dLat := (q.Latitude - p.Latitude) * math.Pi / 180
	dLon := (q.Longitude - p.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(a))
}

// Area is a geographic region against which positions are tested.
// Implementations must be immutable; Recenter returns a new Area with the
// same shape moved to the given center.
type Area interface {
	Contains(p Position) bool

	// IntersectsCircle reports whether the area intersects a circle of the
	// given radius (meters) around center. Used for objects published with a
	// relevance radius. A radius of zero degrades to Contains.
	IntersectsCircle(center Position, radius float64) bool

	Recenter(center Position) Area
}

// Circle is an Area bounded by a radius in meters around a center point.
type Circle struct {
	Center Position
	Radius float64
}

var _ Area = Circle{}

func (c Circle) Contains(p Position) bool {
	return c.Center.DistanceTo(p) <= c.Radius
}

func (c Circle) IntersectsCircle(center Position, radius float64) bool {
	return c.Center.DistanceTo(center) <= c.Radius+radius
}

func (c Circle) Recenter(center Position) Area {
	return Circle{Center: center, Radius: c.Radius}
}

// Rectangle is an Area bounded by two semi-axes in meters. Azimuth is the
// heading of the long semi-axis in degrees clockwise from north.
type Rectangle struct {
	Center    Position
	SemiMajor float64
	SemiMinor float64
	Azimuth   float64
}

var _ Area = Rectangle{}

func (r Rectangle) Contains(p Position) bool {
	along, across := axisOffsets(r.Center, p, r.Azimuth)
	return math.Abs(along) <= r.SemiMajor && math.Abs(across) <= r.SemiMinor
}

// IntersectsCircle approximates the intersection test by inflating both
// semi-axes by the circle radius. Good enough for the kilometer-scale areas
// the maintenance engine works with.
func (r Rectangle) IntersectsCircle(center Position, radius float64) bool {
	along, across := axisOffsets(r.Center, center, r.Azimuth)
	return math.Abs(along) <= r.SemiMajor+radius && math.Abs(across) <= r.SemiMinor+radius
}

func (r Rectangle) Recenter(center Position) Area {
	return Rectangle{Center: center, SemiMajor: r.SemiMajor, SemiMinor: r.SemiMinor, Azimuth: r.Azimuth}
}

// Ellipse is an Area bounded by two semi-axes in meters. Azimuth is the
// heading of the long semi-axis in degrees clockwise from north.
type Ellipse struct {
	Center    Position
	SemiMajor float64
	SemiMinor float64
	Azimuth   float64
}

var _ Area = Ellipse{}

func (e Ellipse) Contains(p Position) bool {
	if e.SemiMajor <= 0 || e.SemiMinor <= 0 {
		return false
	}
	along, across := axisOffsets(e.Center, p, e.Azimuth)
	na := along / e.SemiMajor
	nb := across / e.SemiMinor
	return na*na+nb*nb <= 1
}

// IntersectsCircle uses the same inflated-axes approximation as Rectangle.
func (e Ellipse) IntersectsCircle(center Position, radius float64) bool {
	inflated := Ellipse{
		Center:    e.Center,
		SemiMajor: e.SemiMajor + radius,
		SemiMinor: e.SemiMinor + radius,
		Azimuth:   e.Azimuth,
	}
	return inflated.Contains(center)
}

func (e Ellipse) Recenter(center Position) Area {
	return Ellipse{Center: center, SemiMajor: e.SemiMajor, SemiMinor: e.SemiMinor, Azimuth: e.Azimuth}
}

// axisOffsets projects p into the local tangent plane at center and rotates
// it into the axis frame given by azimuth. Returns the offsets along the
// major and minor axes in meters. Equirectangular approximation, valid for
// the short distances relevance areas span.
func axisOffsets(center, p Position, azimuth float64) (along, across float64) {
	latRad := center.Latitude * math.Pi / 180
	x := (p.Longitude - center.Longitude) * math.Pi / 180 * earthRadius * math.Cos(latRad)
	y := (p.Latitude - center.Latitude) * math.Pi / 180 * earthRadius

	a := azimuth * math.Pi / 180
	along = x*math.Sin(a) + y*math.Cos(a)
	across = x*math.Cos(a) - y*math.Sin(a)
	return along, across
}
