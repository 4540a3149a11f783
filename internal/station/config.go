package station

import (
	"fmt"
	"time"

	"github.com/openv2x/openv2x/internal/ldm"
	"github.com/openv2x/openv2x/internal/ldm/filter"
	"github.com/openv2x/openv2x/internal/station/notify"
	"github.com/openv2x/openv2x/pkg/geo"
	"github.com/openv2x/openv2x/pkg/its"
	"github.com/openv2x/openv2x/pkg/options"
)

// BridgeRule is the configurable form of a notify bridge.
type BridgeRule struct {
	ApplicationID  string        `json:"application-id" mapstructure:"application-id"`
	Types          []string      `json:"types" mapstructure:"types"`
	Filter         string        `json:"filter" mapstructure:"filter"`
	NotifyInterval time.Duration `json:"notify-interval" mapstructure:"notify-interval"`
	Multiplicity   int           `json:"multiplicity" mapstructure:"multiplicity"`
}

// Config carries everything needed to assemble a station.
type Config struct {
	// StationID is the host's ITS station identity.
	StationID uint32

	MqttOptions *options.MqttOptions
	HttpOptions *options.HttpOptions
	LdmOptions  *options.LdmOptions

	// Bridges are the notify forwarding rules.
	Bridges []BridgeRule
}

// ldmConfig translates the flag-level options into the map's config.
func (c *Config) ldmConfig() (*ldm.Config, error) {
	strategy, err := ldm.ParseStrategy(c.LdmOptions.Strategy)
	if err != nil {
		return nil, err
	}
	return &ldm.Config{
		Strategy:      strategy,
		SweepInterval: c.LdmOptions.SweepInterval,
		AreaOfMaintenance: geo.Circle{
			Center: geo.Position{Latitude: c.LdmOptions.Latitude, Longitude: c.LdmOptions.Longitude},
			Radius: c.LdmOptions.AreaRadius,
		},
	}, nil
}

// bridges translates the configured rules into notify bridges.
func (c *Config) bridges() ([]notify.Bridge, error) {
	out := make([]notify.Bridge, 0, len(c.Bridges))
	for _, rule := range c.Bridges {
		if rule.ApplicationID == "" {
			return nil, fmt.Errorf("bridge rule without application-id")
		}

		b := notify.Bridge{
			ApplicationID:  rule.ApplicationID,
			NotifyInterval: rule.NotifyInterval,
			Multiplicity:   rule.Multiplicity,
		}
		for _, raw := range rule.Types {
			tag, err := its.ParseTypeTag(raw)
			if err != nil {
				return nil, fmt.Errorf("bridge %s: %w", rule.ApplicationID, err)
			}
			b.Types = append(b.Types, tag)
		}
		if rule.Filter != "" {
			expr, err := filter.Parse(rule.Filter)
			if err != nil {
				return nil, fmt.Errorf("bridge %s: %w", rule.ApplicationID, err)
			}
			b.Filter = expr
		}
		out = append(out, b)
	}
	return out, nil
}

// NewStation assembles a station from the config.
func (c *Config) NewStation() (*Station, error) {
	return newStation(c)
}
