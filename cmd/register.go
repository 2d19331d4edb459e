package cmd

import (
	"fmt"

	"area/internal/api"

	"github.com/spf13/cobra"
)

// newRegisterCmd creates the account registration command.
func newRegisterCmd() *cobra.Command {
	var req api.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new AREA account",
		Long: `Create a new account. The backend sends a verification email;
the account must be verified before logging in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			if req.Email == "" {
				req.Email, err = promptLine(cmd, "Email: ")
				if err != nil {
					return err
				}
			}
			if req.Password == "" {
				req.Password, err = promptPassword(cmd, "Password: ")
				if err != nil {
					return err
				}
				confirm, err := promptPassword(cmd, "Confirm password: ")
				if err != nil {
					return err
				}
				if confirm != req.Password {
					return fmt.Errorf("passwords do not match")
				}
			}
			req.PasswordConfirm = req.Password

			if err := rt.api.Register(cmd.Context(), req); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Account created. Check %s for the verification email.\n", req.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&req.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	return cmd
}
