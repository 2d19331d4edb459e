package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"area/internal/api"
	"area/internal/cli"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// newAreasCmd creates the automation rule command group.
func newAreasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "areas",
		Short: "Manage automation rules",
		Long: `An area links one service action (the trigger) to one or more
service reactions. These commands list, create and operate on your
areas.`,
	}

	cmd.AddCommand(newAreasListCmd())
	cmd.AddCommand(newAreasCreateCmd())
	cmd.AddCommand(newAreasDeleteCmd())
	cmd.AddCommand(newAreasToggleCmd())
	cmd.AddCommand(newAreasHistoryCmd())
	cmd.AddCommand(newAreasStatsCmd())
	return cmd
}

func newAreasListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your areas",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}

			areas, err := rt.api.ListAreas(cmd.Context())
			if err != nil {
				return err
			}
			if len(areas) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No areas yet.")
				return nil
			}

			t := cli.NewTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "NAME", "TRIGGER", "REACTIONS", "STATE"})
			for _, area := range areas {
				trigger := fmt.Sprintf("%s/%s", area.Action.ServiceName, area.Action.ActionName)
				t.AppendRow(table.Row{
					area.ID,
					area.Name,
					trigger,
					len(area.Reactions),
					cli.ActiveMark(area.IsActive),
				})
			}
			t.Render()
			return nil
		},
	}
}

func newAreasCreateCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an area from a definition file",
		Long: `Create an area from a YAML or JSON definition:

  name: notify on push
  action:
    service_name: github
    action_name: push
    params: {repository: my/repo}
  reactions:
    - service_name: discord
      reaction_name: send_message
      params: {channel: builds}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}

			req, err := readAreaDefinition(file)
			if err != nil {
				return err
			}

			area, err := rt.api.CreateArea(cmd.Context(), *req)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created area %s (%s)\n", area.ID, area.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "area definition file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// readAreaDefinition loads a create request from a YAML or JSON file.
// YAML is tried first since JSON is a subset of it.
func readAreaDefinition(path string) (*api.CreateAreaRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read area definition: %w", err)
	}

	var viaYAML map[string]interface{}
	if err := yaml.Unmarshal(data, &viaYAML); err != nil {
		return nil, fmt.Errorf("failed to parse area definition: %w", err)
	}
	normalized, err := json.Marshal(viaYAML)
	if err != nil {
		return nil, err
	}

	var req api.CreateAreaRequest
	if err := json.Unmarshal(normalized, &req); err != nil {
		return nil, fmt.Errorf("invalid area definition: %w", err)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("area definition is missing a name")
	}
	if req.Action.ServiceName == "" || req.Action.ActionName == "" {
		return nil, fmt.Errorf("area definition is missing the trigger action")
	}
	if len(req.Reactions) == 0 {
		return nil, fmt.Errorf("area definition needs at least one reaction")
	}
	return &req, nil
}

func newAreasDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}

			if err := rt.api.DeleteArea(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted area %s\n", args[0])
			return nil
		},
	}
}

func newAreasToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Toggle an area between active and paused",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}

			if err := rt.api.ToggleAreaActive(cmd.Context(), args[0]); err != nil {
				return err
			}

			area, err := rt.api.GetArea(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Area %s is now %s\n", args[0], cli.ActiveMark(area.IsActive))
			return nil
		},
	}
}

func newAreasHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Show an area's execution history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}

			entries, err := rt.api.AreaHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No executions recorded.")
				return nil
			}

			t := cli.NewTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"EXECUTED", "STATUS", "DETAIL"})
			for _, entry := range entries {
				t.AppendRow(table.Row{entry.ExecutedAt, entry.Status, entry.Detail})
			}
			t.Render()
			return nil
		},
	}
}

func newAreasStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics for your areas",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}

			stats, err := rt.api.AreaStatistics(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Areas:      %d (%d active)\n", stats.TotalAreas, stats.ActiveAreas)
			fmt.Fprintf(out, "Executions: %d", stats.TotalExecutions)
			if stats.FailedRuns > 0 {
				fmt.Fprintf(out, " (%d failed)", stats.FailedRuns)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
