package app

import (
	"fmt"

	"github.com/openv2x/openv2x/cmd/v2x-stationd/app/options"
	"github.com/openv2x/openv2x/pkg/app"
	"github.com/openv2x/openv2x/pkg/log"
)

const (
	commandName = "v2x-stationd"
	commandDesc = `The v2x station daemon maintains a local dynamic map of the surrounding
traffic environment. It ingests ITS messages (CAM, DENM, VAM) from the
broker, keeps them valid in time and space around the moving host, and
serves them to local applications through queries and subscriptions.`
)

func NewApp() *app.App {
	opts := options.NewStationOptions()
	application := app.NewApp(
		commandName,
		"Launch a v2x station",
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithDefaultValidArgs(),
		app.WithRunFunc(run(opts)),
	)
	return application
}

func run(opts *options.StationOptions) app.RunFunc {
	return func() error {
		log.Init(opts.Log)
		defer log.Sync()

		ctx := app.SetupSignalContext()

		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		st, err := cfg.NewStation()
		if err != nil {
			return fmt.Errorf("failed to create station: %w", err)
		}

		return st.Run(ctx)
	}
}
