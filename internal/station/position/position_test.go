package position

import (
	"testing"
	"time"

	"github.com/openv2x/openv2x/internal/ldm"
	"github.com/openv2x/openv2x/pkg/geo"
)

func TestApplyThrottlesSmallMoves(t *testing.T) {
	start := geo.Position{Latitude: 41.386931, Longitude: 2.112104}
	l, err := ldm.New(&ldm.Config{AreaOfMaintenance: geo.Circle{Center: start, Radius: 5000}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	f := NewFeed(l, nil, nil, 1)
	base := time.Now()
	f.now = func() time.Time { return base }

	// First fix always applies.
	f.Apply(Fix{Latitude: 413869310, Longitude: 21121040})
	if got := l.AreaOfMaintenance().(geo.Circle).Center; got.Latitude != 41.386931 {
		t.Fatalf("first fix not applied: %+v", got)
	}

	// A 1m move right afterwards is dropped.
	f.Apply(Fix{Latitude: 413869400, Longitude: 21121040})
	if got := l.AreaOfMaintenance().(geo.Circle).Center; got.Latitude != 41.386931 {
		t.Errorf("small move recentered the area to %+v", got)
	}

	// A large move applies immediately.
	f.Apply(Fix{Latitude: 414000000, Longitude: 21121040})
	if got := l.AreaOfMaintenance().(geo.Circle).Center; got.Latitude != 41.4 {
		t.Errorf("large move not applied, center %+v", got)
	}

	// After the interval even a tiny move applies.
	f.now = func() time.Time { return base.Add(2 * time.Second) }
	f.Apply(Fix{Latitude: 414000090, Longitude: 21121040})
	if got := l.AreaOfMaintenance().(geo.Circle).Center; got.Latitude != 41.400009 {
		t.Errorf("post-interval move not applied, center %+v", got)
	}
}

func TestFixDegrees(t *testing.T) {
	fix := Fix{Latitude: 413869310, Longitude: -21121040}
	pos := fix.Degrees()
	if pos.Latitude != 41.386931 || pos.Longitude != -2.112104 {
		t.Errorf("Degrees() = %+v", pos)
	}
}
