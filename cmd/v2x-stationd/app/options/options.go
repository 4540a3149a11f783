package options

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/openv2x/openv2x/internal/station"
	"github.com/openv2x/openv2x/pkg/app"
	"github.com/openv2x/openv2x/pkg/log"
	"github.com/openv2x/openv2x/pkg/options"
)

// StationOptions aggregates every option block of the station daemon.
type StationOptions struct {
	StationID uint32 `json:"station-id" mapstructure:"station-id"`

	// Bridges are only settable through the configuration file.
	Bridges []station.BridgeRule `json:"bridges" mapstructure:"bridges"`

	MqttOptions *options.MqttOptions `json:"mqtt" mapstructure:"mqtt"`
	HttpOptions *options.HttpOptions `json:"http" mapstructure:"http"`
	LdmOptions  *options.LdmOptions  `json:"ldm" mapstructure:"ldm"`
	Log         *log.Options         `json:"log" mapstructure:"log"`
}

var _ app.NamedFlagSetOptions = (*StationOptions)(nil)

func NewStationOptions() *StationOptions {
	return &StationOptions{
		MqttOptions: options.NewMqttOptions(),
		HttpOptions: options.NewHttpOptions(),
		LdmOptions:  options.NewLdmOptions(),
		Log:         log.NewOptions(),
	}
}

func (o *StationOptions) Flags() app.NamedFlagSets {
	fss := app.NamedFlagSets{}
	o.addStationFlags(fss.FlagSet("station"))
	o.MqttOptions.AddFlags(fss.FlagSet("mqtt"))
	o.HttpOptions.AddFlags(fss.FlagSet("http"))
	o.LdmOptions.AddFlags(fss.FlagSet("ldm"))
	o.Log.AddFlags(fss.FlagSet("log"))
	return fss
}

func (o *StationOptions) addStationFlags(fs *pflag.FlagSet) {
	fs.Uint32Var(&o.StationID, "station.id", o.StationID, "The host's ITS station identity.")
}

func (o *StationOptions) Complete() error {
	return nil
}

func (o *StationOptions) Validate() error {
	errs := []error{}
	if o.StationID == 0 {
		errs = append(errs, fmt.Errorf("station.id must be set"))
	}
	errs = append(errs, o.MqttOptions.Validate()...)
	errs = append(errs, o.HttpOptions.Validate()...)
	errs = append(errs, o.LdmOptions.Validate()...)
	errs = append(errs, o.Log.Validate()...)
	return errors.Join(errs...)
}

func (o *StationOptions) Config() (*station.Config, error) {
	return &station.Config{
		StationID:   o.StationID,
		MqttOptions: o.MqttOptions,
		HttpOptions: o.HttpOptions,
		LdmOptions:  o.LdmOptions,
		Bridges:     o.Bridges,
	}, nil
}
