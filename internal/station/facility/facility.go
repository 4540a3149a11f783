// Package facility is the inbound MQTT adapter of the station. It receives
// JSON-encoded ITS messages from the broker, decodes them into their typed
// form and feeds them into the local dynamic map.
package facility

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openv2x/openv2x/internal/ldm"
	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/its"
	"github.com/openv2x/openv2x/pkg/log"
	"github.com/openv2x/openv2x/pkg/mqtt"
	"github.com/openv2x/openv2x/pkg/mqtt/topic"
)

// ApplicationID is the provider identity the ingestor registers under.
const ApplicationID = "station/facility"

// handledTags lists the message types the ingestor decodes.
var handledTags = []its.TypeTag{its.TagCAM, its.TagDENM, its.TagVAM}

// Ingestor subscribes to the facility topics and publishes every decoded
// message into the map.
type Ingestor struct {
	ldm    *ldm.LocalDynamicMap
	client mqtt.Client
	topics *topic.Builder
	logger log.Logger

	// defaultValidity is passed to the provider registration. Messages
	// that carry their own validity override it.
	defaultValidity time.Duration
}

// NewIngestor wires an Ingestor. The provider registration happens in
// Start so a failed station never leaves a dangling registration.
func NewIngestor(l *ldm.LocalDynamicMap, client mqtt.Client, topics *topic.Builder, defaultValidity time.Duration) *Ingestor {
	return &Ingestor{
		ldm:             l,
		client:          client,
		topics:          topics,
		logger:          log.Std().WithName("facility"),
		defaultValidity: defaultValidity,
	}
}

// Start registers the provider and subscribes to one wildcard filter per
// handled type, then blocks until the context ends.
func (i *Ingestor) Start(ctx context.Context) error {
	if err := i.ldm.RegisterProvider(ApplicationID, handledTags, i.defaultValidity); err != nil {
		return fmt.Errorf("failed to register facility provider: %w", err)
	}
	defer func() {
		if err := i.ldm.DeregisterProvider(ApplicationID); err != nil {
			i.logger.Error(err, "Failed to deregister facility provider")
		}
	}()

	for _, tag := range handledTags {
		filter := i.topics.FacilityWildcard(string(tag))
		if err := i.client.Subscribe(ctx, filter, 1, i.handle); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", filter, err)
		}
	}

	<-ctx.Done()
	return ctx.Err()
}

// handle decodes one broker message and stores it. Decode failures are
// logged and dropped, a malformed peer must not take the station down.
func (i *Ingestor) handle(ctx context.Context, t string, payload []byte) {
	typeSeg, ok := i.topics.TypeFromFacility(t)
	if !ok {
		i.logger.Debug("Message on non-facility topic", "topic", t)
		return
	}
	tag, err := its.ParseTypeTag(typeSeg)
	if err != nil {
		i.logger.Warn("Message with unknown type segment", "topic", t, "type", typeSeg)
		return
	}

	req, err := decode(tag, payload)
	if err != nil {
		i.logger.Warn("Dropping undecodable message", "topic", t, "error", err.Error())
		return
	}
	req.ApplicationID = ApplicationID

	if err := i.ldm.Publish(req); err != nil {
		i.logger.Error(err, "Failed to store message", "topic", t, "type", tag)
		return
	}
	i.logger.Debug("Stored message", "type", tag)
}

// decode unmarshals a JSON facility payload into a publish request with
// the location, timestamp and validity the message itself carries.
func decode(tag its.TypeTag, payload []byte) (*ldm.PublishRequest, error) {
	req := &ldm.PublishRequest{Type: tag, Timestamp: time.Now()}

	switch tag {
	case its.TagCAM:
		var m its.Cam
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, err
		}
		lat, lon := m.ReferencePosition.Degrees()
		req.Location = geo.Position{Latitude: lat, Longitude: lon}
		req.Payload = &m

	case its.TagDENM:
		var m its.Denm
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, err
		}
		lat, lon := m.EventPosition.Degrees()
		req.Location = geo.Position{Latitude: lat, Longitude: lon}
		req.RelevanceRadius = m.RelevanceDistance
		if m.ValidityDuration > 0 {
			req.TimeValidity = time.Duration(m.ValidityDuration) * time.Second
		}
		req.Payload = &m

	case its.TagVAM:
		var m its.Vam
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, err
		}
		lat, lon := m.Position.Degrees()
		req.Location = geo.Position{Latitude: lat, Longitude: lon}
		req.Payload = &m

	default:
		return nil, fmt.Errorf("no decoder for message type %s", tag)
	}

	return req, nil
}
