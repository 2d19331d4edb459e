package cmd

import (
	"errors"
	"os"

	"area/internal/api"
	"area/internal/cli"

	"github.com/spf13/cobra"
)

// Exit codes follow common conventions so scripts can branch on the
// failure class.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error.
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates a session is required but missing
	// or expired.
	ExitCodeAuthRequired = 2
	// ExitCodeFlowFailed indicates a service authorization flow failed.
	ExitCodeFlowFailed = 3
)

// rootCmd is the entry point of the area CLI.
var rootCmd = &cobra.Command{
	Use:   "area",
	Short: "Connect services and manage automations on the AREA platform",
	Long: `area is the command-line client for the AREA automation platform.
It manages your session, authorizes third-party services over OAuth,
creates automation rules and streams their execution notifications.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main
// with the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the build version.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the CLI and exits with a semantic code on failure.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "area version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps an error to its exit code.
func getExitCode(err error) int {
	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}
	if errors.Is(err, api.ErrAuthenticationExpired) {
		return ExitCodeAuthRequired
	}

	var flowFailed *cli.FlowFailedError
	if errors.As(err, &flowFailed) {
		return ExitCodeFlowFailed
	}

	return ExitCodeError
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newServicesCmd())
	rootCmd.AddCommand(newConnectCmd())
	rootCmd.AddCommand(newDisconnectCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newAreasCmd())
	rootCmd.AddCommand(newListenCmd())
}
