package ldm

import (
	"fmt"
	"strings"
	"time"

	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/log"
)

// MaintenanceStrategy selects how invalid objects are physically removed.
type MaintenanceStrategy uint8

const (
	// StrategyReactive checks validity lazily whenever an object is touched
	// by a query or subscription evaluation; reads evict what they find
	// invalid and no background sweep runs.
	StrategyReactive MaintenanceStrategy = iota

	// StrategyProactive additionally runs a periodic sweep, bounding memory
	// growth when no consumer polls.
	StrategyProactive
)

func (s MaintenanceStrategy) String() string {
	switch s {
	case StrategyReactive:
		return "reactive"
	case StrategyProactive:
		return "proactive"
	}
	return "unknown"
}

func (s MaintenanceStrategy) validate() error {
	switch s {
	case StrategyReactive, StrategyProactive:
		return nil
	}
	return fmt.Errorf("unknown maintenance strategy %d", s)
}

// ParseStrategy converts a configuration string to a strategy. The empty
// string maps to the reactive default.
func ParseStrategy(s string) (MaintenanceStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reactive":
		return StrategyReactive, nil
	case "proactive":
		return StrategyProactive, nil
	}
	return StrategyReactive, fmt.Errorf("unknown maintenance strategy %q", s)
}

const (
	reasonExpired   = "expired"
	reasonOutOfArea = "out_of_area"
)

// RefreshAreaOfMaintenance recenters the shared maintenance region on the
// host's current position. All subsequent validity checks use the moved
// region. Under the proactive strategy, objects the move left behind are
// purged immediately; the reactive strategy leaves them to be evicted on the
// next read.
//
// Safe to call concurrently with every other operation. Called by the
// external location source; the LDM never moves the area on its own.
func (l *LocalDynamicMap) RefreshAreaOfMaintenance(position geo.Position) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.area == nil {
		log.Warn("Position refresh ignored: no area of maintenance configured")
		return
	}
	l.area = l.area.Recenter(position)
	log.Debug("Area of maintenance refreshed", "latitude", position.Latitude, "longitude", position.Longitude)

	if l.strategy == StrategyProactive {
		l.purgeLocked(l.now())
	}
}

// AreaOfMaintenance returns the current shared region, nil when none is
// configured.
func (l *LocalDynamicMap) AreaOfMaintenance() geo.Area {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.area
}

// Sweep removes every invalid object now. It is the manual form of the
// proactive sweep and is idempotent; sweeping an empty or all-valid store
// does nothing. Returns the number of objects removed.
func (l *LocalDynamicMap) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.purgeLocked(l.now())
}

// purgeLocked removes all invalid records. Caller holds the write lock.
func (l *LocalDynamicMap) purgeLocked(now time.Time) int {
	removed := 0
	for _, obj := range l.backend.Scan() {
		if obj.ValidAt(now, l.area) {
			continue
		}
		reason := reasonExpired
		if now.Before(obj.ExpiresAt()) {
			reason = reasonOutOfArea
		}
		l.evictLocked(obj.Key, reason)
		removed++
	}
	return removed
}

// sweeper is the proactive background sweep loop.
func (l *LocalDynamicMap) sweeper() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := l.Sweep(); n > 0 {
				log.Debug("Maintenance sweep completed", "evicted", n)
			}
		case <-l.done:
			return
		}
	}
}
