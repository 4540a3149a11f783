package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*LdmOptions)(nil)

// LdmOptions configures the local dynamic map kept by the station.
type LdmOptions struct {
	// Strategy selects how invalid objects are removed: "reactive" drops
	// them when a read encounters them, "proactive" sweeps periodically.
	Strategy string `json:"strategy" mapstructure:"strategy"`

	// SweepInterval is the period of the proactive sweeper. Ignored under
	// the reactive strategy.
	SweepInterval time.Duration `json:"sweep-interval" mapstructure:"sweep-interval"`

	// AreaRadius is the radius in meters of the circular area of
	// maintenance centered on the host station.
	AreaRadius float64 `json:"area-radius" mapstructure:"area-radius"`

	// Initial center of the area of maintenance, in degrees. Updated at
	// runtime from the position feed.
	Latitude  float64 `json:"latitude" mapstructure:"latitude"`
	Longitude float64 `json:"longitude" mapstructure:"longitude"`

	// DefaultValidity applies to providers registered by the station's own
	// facility layer.
	DefaultValidity time.Duration `json:"default-validity" mapstructure:"default-validity"`
}

// NewLdmOptions creates a LdmOptions object with default parameters.
func NewLdmOptions() *LdmOptions {
	return &LdmOptions{
		Strategy:        "reactive",
		SweepInterval:   time.Second,
		AreaRadius:      5000,
		DefaultValidity: 5 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *LdmOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	switch o.Strategy {
	case "", "reactive", "proactive":
	default:
		errors = append(errors, fmt.Errorf("unknown maintenance strategy %q", o.Strategy))
	}
	if o.SweepInterval <= 0 {
		errors = append(errors, fmt.Errorf("sweep interval must be positive, got %v", o.SweepInterval))
	}
	if o.AreaRadius <= 0 {
		errors = append(errors, fmt.Errorf("area radius must be positive, got %v", o.AreaRadius))
	}
	if o.Latitude < -90 || o.Latitude > 90 {
		errors = append(errors, fmt.Errorf("latitude %v out of range", o.Latitude))
	}
	if o.Longitude < -180 || o.Longitude > 180 {
		errors = append(errors, fmt.Errorf("longitude %v out of range", o.Longitude))
	}
	if o.DefaultValidity <= 0 {
		errors = append(errors, fmt.Errorf("default validity must be positive, got %v", o.DefaultValidity))
	}

	return errors
}

// AddFlags adds flags for LdmOptions to the specified FlagSet.
func (o *LdmOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Strategy, "ldm.strategy", o.Strategy, "Maintenance strategy, one of: reactive, proactive.")
	fs.DurationVar(&o.SweepInterval, "ldm.sweep-interval", o.SweepInterval, "Period of the proactive sweeper.")
	fs.Float64Var(&o.AreaRadius, "ldm.area-radius", o.AreaRadius, "Radius in meters of the area of maintenance.")
	fs.Float64Var(&o.Latitude, "ldm.latitude", o.Latitude, "Initial latitude of the area of maintenance center.")
	fs.Float64Var(&o.Longitude, "ldm.longitude", o.Longitude, "Initial longitude of the area of maintenance center.")
	fs.DurationVar(&o.DefaultValidity, "ldm.default-validity", o.DefaultValidity, "Default time validity for the station's own providers.")
}
