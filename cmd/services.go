package cmd

import (
	"fmt"

	"area/internal/cli"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// newServicesCmd creates the services listing command.
func newServicesCmd() *cobra.Command {
	var oauthOnly bool

	cmd := &cobra.Command{
		Use:   "services",
		Short: "List the services the platform integrates",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			services, err := rt.catalog.Services(cmd.Context())
			if err != nil {
				return err
			}

			t := cli.NewTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"SERVICE", "OAUTH", "ACTIONS", "REACTIONS", "STATUS"})
			for _, svc := range services {
				if oauthOnly && !svc.RequiresOAuth {
					continue
				}
				oauth := "-"
				status := "-"
				if svc.RequiresOAuth {
					oauth = "required"
					status = cli.ConnectedMark(svc.IsConnected)
				}
				t.AppendRow(table.Row{
					svc.Name,
					oauth,
					len(svc.Actions),
					len(svc.Reactions),
					status,
				})
			}
			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&oauthOnly, "oauth", false, "only show services that require an OAuth connection")
	return cmd
}

// newStatusCmd creates the connection status command.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the OAuth connection status of every service",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}

			statuses, err := rt.api.ConnectionStatuses(cmd.Context())
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No services connected.")
				return nil
			}

			t := cli.NewTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"SERVICE", "STATUS"})
			// the catalog order keeps output stable between runs
			for _, svc := range rt.catalog.OAuthServices(cmd.Context()) {
				status, ok := statuses[svc.Name]
				if !ok {
					continue
				}
				t.AppendRow(table.Row{svc.Name, cli.ConnectedMark(status.Connected)})
				delete(statuses, svc.Name)
			}
			for name, status := range statuses {
				t.AppendRow(table.Row{name, cli.ConnectedMark(status.Connected)})
			}
			t.Render()
			return nil
		},
	}
}
