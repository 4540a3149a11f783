package app

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/openv2x/openv2x/internal/station/admin"
)

func newObjectsCommand(flags *globalFlags) *cobra.Command {
	var (
		types      string
		filterExpr string
		order      string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "objects",
		Short: "List the objects currently held in the map",
		Example: `  # All objects
  v2x-ldmctl objects

  # CAMs of stations other than 1, fastest first, top five
  v2x-ldmctl objects --types CAM --filter "speed > 0 AND header.stationID != 1" --order "speed desc" --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query := url.Values{}
			if types != "" {
				query.Set("types", types)
			}
			if filterExpr != "" {
				query.Set("filter", filterExpr)
			}
			if order != "" {
				query.Set("order", order)
			}
			if limit > 0 {
				query.Set("limit", fmt.Sprintf("%d", limit))
			}

			var resp admin.ObjectsResponse
			if err := flags.get("/v1/objects", query, &resp); err != nil {
				return err
			}
			return printObjects(cmd, flags.output, &resp)
		},
	}

	cmd.Flags().StringVar(&types, "types", "", "Comma-separated message types (default all).")
	cmd.Flags().StringVar(&filterExpr, "filter", "", `Filter expression, "path op value" clauses joined by AND.`)
	cmd.Flags().StringVar(&order, "order", "", `Order keys, e.g. "speed desc, header.stationID".`)
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of objects to return.")

	return cmd
}

func printObjects(cmd *cobra.Command, format string, resp *admin.ObjectsResponse) error {
	switch format {
	case "table":
		table := uitable.New()
		table.MaxColWidth = 60
		table.AddRow("TYPE", "KEY", "TIMESTAMP", "VALIDITY", "LATITUDE", "LONGITUDE")
		for _, o := range resp.Objects {
			table.AddRow(
				string(o.Type),
				o.Key,
				time.UnixMilli(o.Timestamp).Format(time.RFC3339),
				(time.Duration(o.TimeValidityMs) * time.Millisecond).String(),
				fmt.Sprintf("%.6f", o.Latitude),
				fmt.Sprintf("%.6f", o.Longitude),
			)
		}
		cmd.Println(table.String())
		cmd.Printf("\n%d object(s)\n", resp.Count)
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
