package ldm

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/openv2x/openv2x/internal/ldm/filter"
	"github.com/openv2x/openv2x/internal/ldm/model"
	"github.com/openv2x/openv2x/internal/pkg/metrics"
	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/its"
	"github.com/openv2x/openv2x/pkg/log"
)

// Notification is one subscription dispatch: the matching objects at the
// time of the triggering publish, ordered and capped per the subscription.
type Notification struct {
	SubscriptionID uuid.UUID
	ApplicationID  string
	Objects        []*model.DataObject
}

// Callback receives subscription notifications. It runs on the LDM's
// dispatcher goroutine, outside the store lock, so it may re-enter the LDM.
// A slow callback delays subsequent dispatches for all subscriptions.
type Callback func(Notification)

// SubscribeRequest creates a long-lived consumer subscription.
type SubscribeRequest struct {
	ApplicationID string
	Types         []its.TypeTag

	Filter filter.Expression
	Order  []filter.OrderBy

	// NotifyInterval is the minimum time between dispatches. Zero means
	// every qualifying change dispatches; negative is invalid. Changes
	// arriving inside the interval coalesce into the next dispatch.
	NotifyInterval time.Duration

	// Multiplicity caps the objects per dispatch. Zero means no cap;
	// negative is invalid.
	Multiplicity int

	Callback Callback
}

// subscription is the recorded state of one live subscription. lastDispatch
// is guarded by the LDM lock; cancelled is atomic so the dispatcher can
// check it without taking the lock.
type subscription struct {
	id           uuid.UUID
	appID        string
	types        its.TagSet
	filter       filter.Expression
	order        []filter.OrderBy
	notifyEvery  time.Duration
	multiplicity int
	callback     Callback
	aoi          geo.Area

	lastDispatch time.Time
	cancelled    atomic.Bool
}

// dispatch is one queued notification on its way to a callback.
type dispatch struct {
	sub     *subscription
	objects []*model.DataObject
}

// Subscribe records a subscription. Every subsequent publish of a matching
// type re-evaluates the subscription against the full matching set and, if
// the notify interval has elapsed since the last dispatch, invokes the
// callback with up to Multiplicity objects ordered per Order.
func (l *LocalDynamicMap) Subscribe(req *SubscribeRequest) (uuid.UUID, error) {
	if req == nil || req.Callback == nil {
		return uuid.Nil, fmt.Errorf("%w: callback is required", model.ErrInvalidParameters)
	}
	if len(req.Types) == 0 {
		return uuid.Nil, fmt.Errorf("%w: at least one message type is required", model.ErrInvalidParameters)
	}
	if req.NotifyInterval < 0 {
		return uuid.Nil, fmt.Errorf("%w: notify interval must not be negative", model.ErrInvalidParameters)
	}
	if req.Multiplicity < 0 {
		return uuid.Nil, fmt.Errorf("%w: multiplicity must not be negative", model.ErrInvalidParameters)
	}
	if req.Filter != nil {
		if err := req.Filter.Validate(); err != nil {
			return uuid.Nil, fmt.Errorf("%w: %v", model.ErrInvalidParameters, err)
		}
	}
	if err := filter.ValidateOrder(req.Order); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", model.ErrInvalidParameters, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	consumer, err := l.reg.AuthorizeConsumer(req.ApplicationID, req.Types)
	if err != nil {
		return uuid.Nil, err
	}

	sub := &subscription{
		id:           uuid.New(),
		appID:        req.ApplicationID,
		types:        its.NewTagSet(req.Types...),
		filter:       req.Filter,
		order:        req.Order,
		notifyEvery:  req.NotifyInterval,
		multiplicity: req.Multiplicity,
		callback:     req.Callback,
		aoi:          consumer.AreaOfInterest,
	}
	l.subs[sub.id] = sub

	metrics.ActiveSubscriptions.Inc()
	log.Debug("Subscription created", "id", sub.id.String(), "consumer", sub.appID, "types", sub.types.String())
	return sub.id, nil
}

// Unsubscribe cancels all subscriptions owned by the application. A dispatch
// already handed to the callback is not retracted, but no further dispatch
// follows. Fails with NotRegistered when the application owns none.
func (l *LocalDynamicMap) Unsubscribe(applicationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancelAllLocked(applicationID) == 0 {
		return fmt.Errorf("no subscription for %s: %w", applicationID, model.ErrNotRegistered)
	}
	return nil
}

func (l *LocalDynamicMap) cancelAllLocked(applicationID string) int {
	n := 0
	for id, sub := range l.subs {
		if sub.appID != applicationID {
			continue
		}
		sub.cancelled.Store(true)
		delete(l.subs, id)
		metrics.ActiveSubscriptions.Dec()
		n++
	}
	if n > 0 {
		log.Debug("Subscriptions cancelled", "consumer", applicationID, "count", n)
	}
	return n
}

// collectDispatchesLocked re-evaluates subscriptions touched by a publish of
// the given type. Runs under the write lock; the returned dispatches are
// delivered after the lock is released.
func (l *LocalDynamicMap) collectDispatchesLocked(tag its.TypeTag) []dispatch {
	var out []dispatch
	now := l.now()

	for _, sub := range l.subs {
		if !sub.types.Has(tag) {
			continue
		}
		// Throttle: inside the interval the change coalesces into the next
		// qualifying dispatch. No timer fires at the interval boundary.
		if sub.notifyEvery > 0 && !sub.lastDispatch.IsZero() && now.Sub(sub.lastDispatch) < sub.notifyEvery {
			continue
		}

		matched, _ := l.collectLocked(now, sub.types, sub.aoi, sub.filter)
		if len(matched) == 0 {
			continue
		}

		filter.Sort(matched, sub.order)
		if sub.multiplicity > 0 && len(matched) > sub.multiplicity {
			matched = matched[:sub.multiplicity]
		}

		sub.lastDispatch = now
		out = append(out, dispatch{sub: sub, objects: matched})
	}
	return out
}

// enqueue hands dispatches to the dispatcher goroutine. Called without the
// lock so a full queue cannot stall publishers holding it.
func (l *LocalDynamicMap) enqueue(dispatches []dispatch) {
	for _, d := range dispatches {
		select {
		case l.dispatchCh <- d:
		case <-l.done:
			return
		}
	}
}

// dispatcher delivers queued notifications to callbacks, one at a time,
// outside the store lock.
func (l *LocalDynamicMap) dispatcher() {
	defer l.wg.Done()

	for {
		select {
		case d := <-l.dispatchCh:
			if d.sub.cancelled.Load() {
				continue
			}
			d.sub.callback(Notification{
				SubscriptionID: d.sub.id,
				ApplicationID:  d.sub.appID,
				Objects:        d.objects,
			})
			metrics.DispatchesTotal.Inc()
		case <-l.done:
			return
		}
	}
}
