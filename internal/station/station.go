// Package station assembles the v2x station process: the local dynamic
// map, the MQTT adapters feeding and draining it, and the admin surface.
package station

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/openv2x/openv2x/internal/ldm"
	"github.com/openv2x/openv2x/internal/station/admin"
	"github.com/openv2x/openv2x/internal/station/facility"
	"github.com/openv2x/openv2x/internal/station/notify"
	"github.com/openv2x/openv2x/internal/station/position"
	"github.com/openv2x/openv2x/pkg/log"
	"github.com/openv2x/openv2x/pkg/mqtt"
	"github.com/openv2x/openv2x/pkg/mqtt/topic"
)

// Service is the common interface of the station's long-running parts.
type Service interface {
	Start(ctx context.Context) error
}

// Station owns the map and its adapters.
type Station struct {
	stationID uint32
	ldm       *ldm.LocalDynamicMap
	client    mqtt.Client
	services  []Service
	phase     *lifecycle
	logger    log.Logger
}

func newStation(cfg *Config) (*Station, error) {
	ldmCfg, err := cfg.ldmConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid map configuration: %w", err)
	}
	l, err := ldm.New(ldmCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create local dynamic map: %w", err)
	}

	mqttCfg := cfg.MqttOptions.ToClientConfig()
	if mqttCfg.ClientID == "" {
		mqttCfg.ClientID = fmt.Sprintf("v2x-station-%d", cfg.StationID)
	}
	client, err := mqtt.NewClient(mqttCfg)
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to create mqtt client: %w", err)
	}

	topics := topic.NewBuilder(cfg.MqttOptions.TopicRoot)

	bridges, err := cfg.bridges()
	if err != nil {
		l.Close()
		return nil, err
	}

	s := &Station{
		stationID: cfg.StationID,
		ldm:       l,
		client:    client,
		phase:     newLifecycle(),
		logger:    log.Std().WithName("station"),
	}
	s.services = []Service{
		facility.NewIngestor(l, client, topics, cfg.LdmOptions.DefaultValidity),
		position.NewFeed(l, client, topics, cfg.StationID),
		notify.NewForwarder(l, client, topics, bridges),
		admin.NewServer(cfg.HttpOptions, l),
	}
	return s, nil
}

// Phase reports the current lifecycle phase.
func (s *Station) Phase() string {
	return s.phase.Current()
}

// Run connects to the broker, starts every service and blocks until the
// context ends or a service fails.
func (s *Station) Run(ctx context.Context) error {
	s.logger.Info("Starting v2x station", "stationID", s.stationID)

	if err := s.phase.Event(ctx, EventConnect); err != nil {
		return err
	}
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start mqtt client: %w", err)
	}
	defer s.client.Disconnect(context.Background())
	defer s.ldm.Close()

	if err := s.client.AwaitConnection(ctx); err != nil {
		return fmt.Errorf("broker connection failed: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, svc := range s.services {
		srv := svc
		g.Go(func() error {
			err := srv.Start(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		})
	}

	if err := s.phase.Event(ctx, EventReady); err != nil {
		return err
	}
	s.logger.Info("Station running")

	err := g.Wait()

	stopCtx := context.Background()
	if ferr := s.phase.Event(stopCtx, EventStop); ferr == nil {
		_ = s.phase.Event(stopCtx, EventStopped)
	}
	s.logger.Info("Station stopped")
	return err
}
