// Package app builds the project's command-line applications: a cobra
// command wired to grouped option flags, a viper-backed configuration
// file, and a run function.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunFunc defines the application's startup callback function.
type RunFunc func() error

// NamedFlagSetOptions is implemented by an application's aggregate option
// struct.
type NamedFlagSetOptions interface {
	// Flags returns the flags grouped by section.
	Flags() NamedFlagSets

	// Complete fills in any fields not set explicitly.
	Complete() error

	// Validate checks the final option values.
	Validate() error
}

// App is the main structure of a cli application.
type App struct {
	basename    string
	brief       string
	description string
	options     NamedFlagSetOptions
	runFunc     RunFunc
	noConfig    bool
	cmd         *cobra.Command
}

// Option defines optional parameters for initializing the application
// structure.
type Option func(*App)

// WithOptions opens the application's function to read from the command
// line or read parameters from the configuration file.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) {
		a.options = opts
	}
}

// WithRunFunc is used to set the application startup callback function.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) {
		a.runFunc = run
	}
}

// WithDescription is used to set the description of the application.
func WithDescription(desc string) Option {
	return func(a *App) {
		a.description = desc
	}
}

// WithNoConfig disables the --config flag and configuration file loading.
func WithNoConfig() Option {
	return func(a *App) {
		a.noConfig = true
	}
}

// WithDefaultValidArgs rejects any positional argument.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.cmd.Args = cobra.NoArgs
	}
}

// NewApp creates a new application instance based on the given application
// name, brief description, and other options.
func NewApp(basename, brief string, opts ...Option) *App {
	a := &App{
		basename: basename,
		brief:    brief,
		cmd: &cobra.Command{
			Use:           basename,
			SilenceUsage:  true,
			SilenceErrors: true,
		},
	}

	for _, o := range opts {
		o(a)
	}
	a.buildCommand()

	return a
}

func (a *App) buildCommand() {
	a.cmd.Short = a.brief
	a.cmd.Long = a.description
	a.cmd.RunE = a.runCommand

	if a.options != nil {
		fss := a.options.Flags()
		for _, name := range fss.Order {
			a.cmd.Flags().AddFlagSet(fss.FlagSets[name])
		}
	}

	if !a.noConfig {
		addConfigFlag(a.basename, a.cmd.Flags())
	}
}

// Command returns the underlying cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run launches the application.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	if a.options == nil {
		if a.runFunc != nil {
			return a.runFunc()
		}
		return nil
	}

	if !a.noConfig {
		// File values fill in anything the flags left at default.
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return err
		}
		if err := viper.Unmarshal(a.options); err != nil {
			return fmt.Errorf("failed to unmarshal configuration: %w", err)
		}
	}

	if err := a.options.Complete(); err != nil {
		return err
	}
	if err := a.options.Validate(); err != nil {
		return err
	}

	if a.runFunc != nil {
		return a.runFunc()
	}
	return nil
}
