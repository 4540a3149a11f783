package ldm

import (
	"fmt"
	"time"

	"github.com/openv2x/openv2x/internal/ldm/filter"
	"github.com/openv2x/openv2x/internal/ldm/model"
	"github.com/openv2x/openv2x/internal/pkg/metrics"
	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/its"
)

// QueryRequest is a one-shot consumer query.
type QueryRequest struct {
	ApplicationID string
	Types         []its.TypeTag

	// Filter narrows results. Nil matches everything.
	Filter filter.Expression

	// Order sorts results by successive keys; the sort is stable, ties keep
	// insertion order.
	Order []filter.OrderBy

	// Priority caps the result count when positive.
	Priority int
}

// Query returns a snapshot of the currently valid objects matching the
// request. Publishes committed after the snapshot is taken are not
// reflected. The expiry and area checks run at scan time, so results never
// contain invalid objects even before the maintenance engine removes them.
func (l *LocalDynamicMap) Query(req *QueryRequest) ([]*model.DataObject, error) {
	start := time.Now()
	defer func() {
		metrics.QueryDuration.Observe(time.Since(start).Seconds())
	}()

	if req == nil || len(req.Types) == 0 {
		return nil, fmt.Errorf("%w: at least one message type is required", model.ErrInvalidParameters)
	}
	if req.Filter != nil {
		if err := req.Filter.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidParameters, err)
		}
	}
	if err := filter.ValidateOrder(req.Order); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidParameters, err)
	}

	l.mu.RLock()
	consumer, err := l.reg.AuthorizeConsumer(req.ApplicationID, req.Types)
	if err != nil {
		l.mu.RUnlock()
		return nil, err
	}

	now := l.now()
	matched, invalid := l.collectLocked(now, its.NewTagSet(req.Types...), consumer.AreaOfInterest, req.Filter)
	l.mu.RUnlock()

	// Reactive maintenance: reads physically remove what they found invalid.
	if l.strategy == StrategyReactive && len(invalid) > 0 {
		l.evictInvalid(invalid)
	}

	filter.Sort(matched, req.Order)
	if req.Priority > 0 && len(matched) > req.Priority {
		matched = matched[:req.Priority]
	}
	return matched, nil
}

// collectLocked scans the backend and partitions records of the requested
// types into valid matches and invalid keys. Caller holds at least the read
// lock; the returned slice is a private snapshot.
func (l *LocalDynamicMap) collectLocked(now time.Time, types its.TagSet, areaOfInterest geo.Area, expr filter.Expression) (matched []*model.DataObject, invalid []string) {
	for _, obj := range l.backend.Scan() {
		if !obj.ValidAt(now, l.area) {
			invalid = append(invalid, obj.Key)
			continue
		}
		if !types.Has(obj.Type) {
			continue
		}
		if areaOfInterest != nil && !obj.InArea(areaOfInterest) {
			continue
		}
		if !filter.Matches(expr, obj.Payload) {
			continue
		}
		matched = append(matched, obj)
	}
	return matched, invalid
}

// evictInvalid removes keys found invalid during a read, re-checking under
// the write lock since a concurrent publish may have refreshed them.
func (l *LocalDynamicMap) evictInvalid(keys []string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for _, key := range keys {
		obj, ok := l.backend.Get(key)
		if !ok || obj.ValidAt(now, l.area) {
			continue
		}
		reason := reasonExpired
		if now.Before(obj.ExpiresAt()) {
			reason = reasonOutOfArea
		}
		l.evictLocked(key, reason)
	}
}
