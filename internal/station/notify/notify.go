// Package notify bridges map subscriptions back onto the broker: objects
// dispatched to a bridged consumer are republished as JSON on the
// consumer's notify topic.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openv2x/openv2x/internal/ldm"
	"github.com/openv2x/openv2x/internal/ldm/filter"
	"github.com/openv2x/openv2x/pkg/its"
	"github.com/openv2x/openv2x/pkg/log"
	"github.com/openv2x/openv2x/pkg/mqtt"
	"github.com/openv2x/openv2x/pkg/mqtt/topic"
)

// Bridge describes one forwarding rule: which consumer to register, what
// it watches and how often it may be notified.
type Bridge struct {
	// ApplicationID names the consumer and the notify topic suffix.
	ApplicationID string

	Types  []its.TypeTag
	Filter filter.Expression

	// NotifyInterval throttles republishing. Zero forwards every change.
	NotifyInterval time.Duration

	// Multiplicity caps the objects per notification. Zero is unlimited.
	Multiplicity int
}

// wireObject is the republished form of one stored object.
type wireObject struct {
	Type      its.TypeTag `json:"type"`
	Key       string      `json:"key"`
	Timestamp int64       `json:"timestamp"`
	Payload   any         `json:"payload"`
}

type wireNotification struct {
	SubscriptionID string       `json:"subscriptionID"`
	ApplicationID  string       `json:"applicationID"`
	Objects        []wireObject `json:"objects"`
}

// Forwarder holds the bridged subscriptions for one station.
type Forwarder struct {
	ldm     *ldm.LocalDynamicMap
	client  mqtt.Client
	topics  *topic.Builder
	bridges []Bridge
	logger  log.Logger
}

// NewForwarder wires a Forwarder over the given bridges.
func NewForwarder(l *ldm.LocalDynamicMap, client mqtt.Client, topics *topic.Builder, bridges []Bridge) *Forwarder {
	return &Forwarder{
		ldm:     l,
		client:  client,
		topics:  topics,
		bridges: bridges,
		logger:  log.Std().WithName("notify"),
	}
}

// Start registers one consumer and subscription per bridge, then blocks
// until the context ends. Registrations are torn down on exit.
func (f *Forwarder) Start(ctx context.Context) error {
	for _, b := range f.bridges {
		if err := f.ldm.RegisterConsumer(b.ApplicationID, b.Types, nil); err != nil {
			return fmt.Errorf("failed to register bridge consumer %s: %w", b.ApplicationID, err)
		}

		bridge := b
		_, err := f.ldm.Subscribe(&ldm.SubscribeRequest{
			ApplicationID:  bridge.ApplicationID,
			Types:          bridge.Types,
			Filter:         bridge.Filter,
			NotifyInterval: bridge.NotifyInterval,
			Multiplicity:   bridge.Multiplicity,
			Callback:       func(n ldm.Notification) { f.forward(ctx, n) },
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe bridge %s: %w", bridge.ApplicationID, err)
		}
		f.logger.Info("Bridge active", "application", bridge.ApplicationID, "types", fmt.Sprintf("%v", bridge.Types))
	}

	<-ctx.Done()

	for _, b := range f.bridges {
		if err := f.ldm.DeregisterConsumer(b.ApplicationID); err != nil {
			f.logger.Error(err, "Failed to deregister bridge consumer", "application", b.ApplicationID)
		}
	}
	return ctx.Err()
}

// forward republishes one notification on the consumer's notify topic.
func (f *Forwarder) forward(ctx context.Context, n ldm.Notification) {
	wire := wireNotification{
		SubscriptionID: n.SubscriptionID.String(),
		ApplicationID:  n.ApplicationID,
		Objects:        make([]wireObject, 0, len(n.Objects)),
	}
	for _, o := range n.Objects {
		wire.Objects = append(wire.Objects, wireObject{
			Type:      o.Type,
			Key:       o.Key,
			Timestamp: o.Timestamp.UnixMilli(),
			Payload:   o.Payload,
		})
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		f.logger.Error(err, "Failed to encode notification", "application", n.ApplicationID)
		return
	}

	t := f.topics.Notify(n.ApplicationID)
	if err := f.client.Publish(ctx, t, 0, false, payload); err != nil {
		f.logger.Error(err, "Failed to republish notification", "topic", t)
		return
	}
	f.logger.Debug("Notification republished", "topic", t, "objects", len(wire.Objects))
}
