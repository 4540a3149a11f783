package ldm

import (
	"fmt"
	"time"

	"github.com/openv2x/openv2x/internal/ldm/model"
	"github.com/openv2x/openv2x/internal/pkg/metrics"
	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/its"
	"github.com/openv2x/openv2x/pkg/log"
)

// PublishRequest carries one data object from a provider into the LDM.
type PublishRequest struct {
	ApplicationID string
	Type          its.TypeTag
	Timestamp     time.Time
	Location      geo.Position

	// RelevanceRadius in meters around Location, zero for point relevance.
	RelevanceRadius float64

	Payload its.Payload

	// TimeValidity overrides the provider's default validity when positive.
	TimeValidity time.Duration
}

// Publish inserts or updates a data object. An object with the same identity
// key is updated in place: timestamp, validity, location and payload are all
// overwritten and no duplicate is created. On success, subscriptions for the
// object's type are re-evaluated and matching ones dispatched.
//
// A failed publish never partially updates an object.
func (l *LocalDynamicMap) Publish(req *PublishRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", model.ErrInvalidParameters)
	}
	if err := l.publish(req); err != nil {
		metrics.PublishTotal.WithLabelValues(string(req.Type), "failed").Inc()
		return err
	}
	metrics.PublishTotal.WithLabelValues(string(req.Type), "success").Inc()
	return nil
}

func (l *LocalDynamicMap) publish(req *PublishRequest) error {
	if req.Payload == nil {
		return fmt.Errorf("%w: payload is required", model.ErrInvalidParameters)
	}
	if req.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", model.ErrInvalidParameters)
	}
	if req.TimeValidity < 0 {
		return fmt.Errorf("%w: time validity must not be negative", model.ErrInvalidParameters)
	}

	l.mu.Lock()

	provider, ok := l.reg.Provider(req.ApplicationID)
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("provider %s: %w", req.ApplicationID, model.ErrNotRegistered)
	}
	if !provider.Permissions.Has(req.Type) {
		l.mu.Unlock()
		return fmt.Errorf("provider %s, type %s: %w", req.ApplicationID, req.Type, model.ErrPermissionDenied)
	}

	key, ok := its.IdentityKey(req.Type, req.Payload)
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("%w: payload carries no identity", model.ErrInvalidParameters)
	}

	validity := req.TimeValidity
	if validity == 0 {
		validity = provider.DefaultValidity
	}

	obj := &model.DataObject{
		ApplicationID:   req.ApplicationID,
		Type:            req.Type,
		Key:             key,
		Timestamp:       req.Timestamp,
		TimeValidity:    validity,
		Location:        req.Location,
		RelevanceRadius: req.RelevanceRadius,
		Payload:         req.Payload,
	}

	_, existed := l.backend.Get(key)
	if err := l.backend.Upsert(key, obj); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("%w: %v", model.ErrStorage, err)
	}

	dispatches := l.collectDispatchesLocked(req.Type)
	l.mu.Unlock()

	if !existed {
		metrics.StoredObjects.WithLabelValues(string(req.Type)).Inc()
	}
	log.Debug("Published data object", "key", key, "provider", req.ApplicationID, "updated", existed)

	l.enqueue(dispatches)
	return nil
}
