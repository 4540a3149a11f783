package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openv2x/openv2x/internal/station/admin"
)

func newRegistrationsCommand(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "registrations",
		Short: "List the registered providers and consumers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp admin.RegistrationsResponse
			if err := flags.get("/v1/registrations", nil, &resp); err != nil {
				return err
			}
			return printRegistrations(cmd, flags.output, &resp)
		},
	}
}

func printRegistrations(cmd *cobra.Command, format string, resp *admin.RegistrationsResponse) error {
	switch format {
	case "table":
		table := uitable.New()
		table.AddRow("APPLICATION", "ROLE", "PERMISSIONS")
		for _, r := range resp.Registrations {
			table.AddRow(r.ApplicationID, r.Role, strings.Join(r.Permissions, ","))
		}
		cmd.Println(table.String())
		return nil

	case "yaml":
		out, err := yaml.Marshal(resp)
		if err != nil {
			return err
		}
		cmd.Print(string(out))
		return nil

	case "json":
		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(out))
		return nil

	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
