package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with a ModelScope access token",
		Long: `Exchange a ModelScope access token for a session. The session cookies are
stored under $MODELSCOPE_HOME/config and sent with every later request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := app.modelScope()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logging in...")

			if err := client.Login(cmd.Context(), token); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Login successful.")

			return nil
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "ModelScope access token")
	_ = cmd.MarkFlagRequired("token")

	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.cookieStore().Clear(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")

			return nil
		},
	}
}
