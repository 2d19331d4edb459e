package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"area/internal/api"
	"area/internal/oauth"
	"area/internal/session"
	pkgoauth "area/pkg/oauth"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// newLoginCmd creates the login command. Accounts with two-factor
// authentication enabled go through a second verification step.
func newLoginCmd() *cobra.Command {
	var email string
	var password string
	var withGoogle bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the AREA backend",
		Long: `Authenticate with your email and password. When two-factor
authentication is enabled for the account, a verification code is
requested as a second step. With --google the browser opens on
Google's consent page and the resulting token signs you in instead.
The session is persisted for later commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			if withGoogle {
				return runGoogleLogin(cmd, rt)
			}

			if email == "" {
				email, err = promptLine(cmd, "Email: ")
				if err != nil {
					return err
				}
			}
			if password == "" {
				password, err = promptPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			resp, err := rt.api.Login(ctx, email, password)
			if err != nil {
				return err
			}

			if resp.Requires2FA {
				code, err := promptLine(cmd, "Verification code: ")
				if err != nil {
					return err
				}
				resp, err = rt.api.Verify2FA(ctx, email, code)
				if err != nil {
					return err
				}
			}

			if resp.AccessToken == "" {
				return fmt.Errorf("login did not return a session token")
			}

			err = rt.sessions.Set(session.Credential{
				AccessToken:  resp.AccessToken,
				RefreshToken: resp.RefreshToken,
				Email:        email,
				CreatedAt:    time.Now(),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().BoolVar(&withGoogle, "google", false, "sign in with a Google account")
	return cmd
}

// runGoogleLogin acquires a Google access token in the browser and
// trades it for a backend session.
func runGoogleLogin(cmd *cobra.Command, rt *runtime) error {
	broker, err := oauth.NewGoogleBroker(oauth.GoogleBrokerConfig{
		ClientID:     rt.cfg.OAuth.ClientID("google"),
		CallbackPort: rt.cfg.OAuth.CallbackPort,
	})
	if err != nil {
		return err
	}

	state, err := pkgoauth.GenerateState()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	accessToken, err := broker.RequestToken(ctx, state, []string{"openid", "email", "profile"})
	if err != nil {
		return err
	}

	resp, err := rt.api.GoogleLogin(ctx, accessToken)
	if err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("login did not return a session token")
	}

	email := ""
	if resp.User != nil {
		email = resp.User.Email
	}
	err = rt.sessions.Set(session.Credential{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Email:        email,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return err
	}

	if email != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", email)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Logged in with Google.")
	}
	return nil
}

// promptLine reads one trimmed line from stdin.
func promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo when stdin is a
// terminal, falling back to a plain line read otherwise (pipes, tests).
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.OutOrStdout(), prompt)
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}
	return promptLine(cmd, prompt)
}

// newLogoutCmd creates the logout command.
func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			if !rt.sessions.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}

			// best effort: the local session is cleared even when the
			// backend call fails
			if err := rt.api.Logout(cmd.Context()); err != nil && !errors.Is(err, api.ErrAuthenticationExpired) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: backend logout failed: %v\n", err)
			}
			if err := rt.sessions.Clear(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
