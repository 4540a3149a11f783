// Package position feeds the host station's position fixes into the map's
// area of maintenance.
package position

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/openv2x/openv2x/internal/ldm"
	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/log"
	"github.com/openv2x/openv2x/pkg/mqtt"
	"github.com/openv2x/openv2x/pkg/mqtt/topic"
)

// Fix is one position sample of the host station. Coordinates are in
// tenth microdegrees, matching the reference positions carried inside the
// messages themselves.
type Fix struct {
	StationID uint32 `json:"stationID"`
	Latitude  int64  `json:"latitude"`
	Longitude int64  `json:"longitude"`

	// Timestamp in milliseconds since the Unix epoch. Informational.
	Timestamp int64 `json:"timestamp"`
}

// Degrees converts the fix to decimal degrees.
func (f Fix) Degrees() geo.Position {
	return geo.Position{Latitude: float64(f.Latitude) / 1e7, Longitude: float64(f.Longitude) / 1e7}
}

// Feed recenters the area of maintenance as the host moves. Fixes that
// move less than MinMovement within MinInterval are dropped, recentering
// on every GNSS sample is useless churn.
type Feed struct {
	ldm       *ldm.LocalDynamicMap
	client    mqtt.Client
	topics    *topic.Builder
	stationID uint32
	logger    log.Logger

	// MinMovement in meters and MinInterval between applied fixes.
	MinMovement float64
	MinInterval time.Duration

	mu          sync.Mutex
	lastApplied geo.Position
	lastTime    time.Time
	hasLast     bool

	now func() time.Time
}

// NewFeed wires a position feed for the given host station ID.
func NewFeed(l *ldm.LocalDynamicMap, client mqtt.Client, topics *topic.Builder, stationID uint32) *Feed {
	return &Feed{
		ldm:         l,
		client:      client,
		topics:      topics,
		stationID:   stationID,
		logger:      log.Std().WithName("position"),
		MinMovement: 10,
		MinInterval: time.Second,
		now:         time.Now,
	}
}

// Start subscribes to the host's position topic and blocks until the
// context ends.
func (f *Feed) Start(ctx context.Context) error {
	t := f.topics.Position(fmt.Sprintf("%d", f.stationID))
	if err := f.client.Subscribe(ctx, t, 0, f.handle); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", t, err)
	}

	<-ctx.Done()
	return ctx.Err()
}

func (f *Feed) handle(ctx context.Context, t string, payload []byte) {
	var fix Fix
	if err := json.Unmarshal(payload, &fix); err != nil {
		f.logger.Warn("Dropping undecodable position fix", "error", err.Error())
		return
	}
	f.Apply(fix)
}

// Apply feeds one fix through the throttle and into the map.
func (f *Feed) Apply(fix Fix) {
	pos := fix.Degrees()
	now := f.now()

	f.mu.Lock()
	if f.hasLast &&
		now.Sub(f.lastTime) < f.MinInterval &&
		pos.DistanceTo(f.lastApplied) < f.MinMovement {
		f.mu.Unlock()
		return
	}
	f.lastApplied = pos
	f.lastTime = now
	f.hasLast = true
	f.mu.Unlock()

	f.ldm.RefreshAreaOfMaintenance(pos)
	f.logger.Debug("Area of maintenance recentered", "lat", pos.Latitude, "lon", pos.Longitude)
}
