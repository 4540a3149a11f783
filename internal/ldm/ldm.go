// Package ldm implements the Local Dynamic Map: a shared, concurrently
// accessed store of timestamped, geolocated facility messages, served to
// consumers through query and publish/subscribe interfaces.
//
// One RWMutex guards the storage backend, the registry, the subscription
// table and the area of maintenance together. Subscription callbacks are
// never invoked under that lock; dispatch is decoupled through a queue
// drained by a dedicated goroutine, so a callback may safely re-enter the
// LDM.
package ldm

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openv2x/openv2x/internal/ldm/model"
	"github.com/openv2x/openv2x/internal/ldm/registry"
	"github.com/openv2x/openv2x/internal/ldm/store"
	"github.com/openv2x/openv2x/internal/pkg/metrics"
	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/its"
	"github.com/openv2x/openv2x/pkg/log"
)

// Config carries the construction parameters of a LocalDynamicMap.
type Config struct {
	// Backend is the storage implementation. Defaults to the in-memory one.
	Backend store.Backend

	// Strategy selects how invalid objects are physically removed.
	Strategy MaintenanceStrategy

	// SweepInterval is the period of the proactive background sweep.
	// Ignored by the reactive strategy. Defaults to one second.
	SweepInterval time.Duration

	// AreaOfMaintenance is the initial shared region. Its shape is kept and
	// recentered on every position refresh. Nil disables geographic
	// invalidation until the first refresh arrives (and then stays nil, so
	// configure a shape when area maintenance is wanted).
	AreaOfMaintenance geo.Area
}

// LocalDynamicMap is one LDM instance. Safe for concurrent use by any number
// of producers and consumers.
type LocalDynamicMap struct {
	mu      sync.RWMutex
	backend store.Backend
	reg     *registry.Registry
	area    geo.Area

	strategy   MaintenanceStrategy
	sweepEvery time.Duration

	subs       map[uuid.UUID]*subscription
	dispatchCh chan dispatch

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// now is replaceable in tests.
	now func() time.Time
}

// New creates and starts a LocalDynamicMap. The caller owns the instance and
// must Close it to stop the dispatcher and any background sweep.
func New(cfg *Config) (*LocalDynamicMap, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if err := cfg.Strategy.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidParameters, err)
	}

	backend := cfg.Backend
	if backend == nil {
		backend = store.NewMemory()
	}
	sweepEvery := cfg.SweepInterval
	if sweepEvery <= 0 {
		sweepEvery = time.Second
	}

	l := &LocalDynamicMap{
		backend:    backend,
		reg:        registry.New(),
		area:       cfg.AreaOfMaintenance,
		strategy:   cfg.Strategy,
		sweepEvery: sweepEvery,
		subs:       make(map[uuid.UUID]*subscription),
		dispatchCh: make(chan dispatch, 64),
		done:       make(chan struct{}),
		now:        time.Now,
	}

	l.wg.Add(1)
	go l.dispatcher()

	if l.strategy == StrategyProactive {
		l.wg.Add(1)
		go l.sweeper()
	}

	log.Debug("LDM instance created", "strategy", l.strategy.String(), "sweepInterval", sweepEvery)
	return l, nil
}

// Close stops the dispatcher and the background sweep. Pending dispatches
// not yet handed to callbacks are dropped. Close is idempotent.
func (l *LocalDynamicMap) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
	l.wg.Wait()
}

// RegisterProvider records a data provider allowed to publish the given
// message types. defaultValidity applies to objects published without an
// explicit time validity and must be positive.
func (l *LocalDynamicMap) RegisterProvider(applicationID string, permissions []its.TypeTag, defaultValidity time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg.RegisterProvider(applicationID, its.NewTagSet(permissions...), defaultValidity)
}

// DeregisterProvider removes a provider registration. Its stored objects
// remain until they expire or leave the maintenance area.
func (l *LocalDynamicMap) DeregisterProvider(applicationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg.DeregisterProvider(applicationID)
}

// RegisterConsumer records a data consumer allowed to query and subscribe to
// the given message types, optionally scoped to an area of interest.
func (l *LocalDynamicMap) RegisterConsumer(applicationID string, permissions []its.TypeTag, areaOfInterest geo.Area) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg.RegisterConsumer(applicationID, its.NewTagSet(permissions...), areaOfInterest)
}

// DeregisterConsumer removes a consumer registration and cancels all of the
// consumer's live subscriptions.
func (l *LocalDynamicMap) DeregisterConsumer(applicationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.reg.DeregisterConsumer(applicationID); err != nil {
		return err
	}
	l.cancelAllLocked(applicationID)
	return nil
}

// Providers returns a snapshot of the active provider registrations.
func (l *LocalDynamicMap) Providers() []*model.Provider {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reg.Providers()
}

// Consumers returns a snapshot of the active consumer registrations.
func (l *LocalDynamicMap) Consumers() []*model.Consumer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reg.Consumers()
}

// ObjectCount returns the number of stored records, valid or not.
func (l *LocalDynamicMap) ObjectCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.backend.Len()
}

// evictLocked removes a record and accounts for it. Idempotent: evicting an
// absent key is a no-op.
func (l *LocalDynamicMap) evictLocked(key string, reason string) {
	obj, ok := l.backend.Get(key)
	if !ok {
		return
	}
	l.backend.Delete(key)
	metrics.StoredObjects.WithLabelValues(string(obj.Type)).Dec()
	metrics.EvictionsTotal.WithLabelValues(reason).Inc()
	log.Debug("Evicted data object", "key", key, "reason", reason)
}
