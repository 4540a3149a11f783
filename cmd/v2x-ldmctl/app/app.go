// Package app implements v2x-ldmctl, the operator CLI of the station's
// admin API.
package app

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

const commandDesc = `v2x-ldmctl inspects a running v2x station through its admin API: the
objects currently held in the local dynamic map and the registered
providers and consumers.`

type globalFlags struct {
	server  string
	output  string
	timeout time.Duration
}

// NewLdmctlCommand builds the root command.
func NewLdmctlCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "v2x-ldmctl",
		Short:         "Inspect a running v2x station",
		Long:          commandDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.server, "server", "s", "http://127.0.0.1:8947", "Address of the station's admin API.")
	root.PersistentFlags().StringVarP(&flags.output, "output", "o", "table", "Output format, one of: table, yaml, json.")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", 10*time.Second, "Request timeout.")

	root.AddCommand(newObjectsCommand(flags))
	root.AddCommand(newRegistrationsCommand(flags))

	return root
}

// get fetches one admin endpoint and decodes the JSON body into out.
func (f *globalFlags) get(path string, query url.Values, out any) error {
	u, err := url.Parse(f.server)
	if err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}
	u.Path = path
	u.RawQuery = query.Encode()

	client := &http.Client{Timeout: f.timeout}
	resp, err := client.Get(u.String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Result string `json:"result"`
			Error  string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", apiErr.Result, apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	return json.Unmarshal(body, out)
}
