package cmd

import (
	"fmt"

	"area/internal/cli"

	"github.com/spf13/cobra"
)

// newConnectCmd creates the service authorization command.
func newConnectCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "connect SERVICE",
		Short: "Authorize a service over OAuth",
		Long: `Run the OAuth authorization flow for a service. The browser opens
on the provider's consent page; once you approve, the credential is
handed to the backend and the service becomes usable in areas.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serviceName := args[0]

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}

			stop := cli.Progress(fmt.Sprintf("Authorizing %s in the browser...", serviceName), quiet)
			result := rt.flowController().StartFlow(cmd.Context(), serviceName)
			stop()

			if !result.Success {
				return &cli.FlowFailedError{
					Service: serviceName,
					Reason:  result.Reason,
					Cause:   result.Err,
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Reason)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")
	return cmd
}

// newDisconnectCmd creates the service disconnection command.
func newDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect SERVICE",
		Short: "Revoke a service's OAuth connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serviceName := args[0]

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}

			if err := rt.api.DisconnectService(cmd.Context(), serviceName); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s disconnected\n", serviceName)
			return nil
		},
	}
}

// newRefreshCmd creates the token refresh command.
func newRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh SERVICE",
		Short: "Refresh the backend's stored token for a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serviceName := args[0]

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if err := rt.requireSession(); err != nil {
				return err
			}

			if err := rt.api.RefreshServiceToken(cmd.Context(), serviceName); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s token refreshed\n", serviceName)
			return nil
		},
	}
}
