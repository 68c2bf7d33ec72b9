package cli

import (
	"github.com/spf13/cobra"
	"github.com/vadimbarashkov/dlink/internal/mutation"
	"github.com/vadimbarashkov/dlink/internal/validation"
)

func newLoginCommand(e *env) *cobra.Command {
	var form validation.LoginForm

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Username == "" {
				form.Username = e.term.Prompt("Username")
			}
			if form.Password == "" {
				form.Password = e.term.Prompt("Password")
			}

			login := mutation.NewLogin(e.client, e.session, e.nav, e.term)
			if err := login.Submit(cmd.Context(), form); err != nil {
				return e.fail(err)
			}

			e.term.Printf("Signed in as %s.\n", form.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&form.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "password, prompted for when omitted")

	return cmd
}

func newRegisterCommand(e *env) *cobra.Command {
	var form validation.RegisterForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if form.Fullname == "" {
				form.Fullname = e.term.Prompt("Name")
			}
			if form.Username == "" {
				form.Username = e.term.Prompt("Username")
			}
			if form.Password == "" {
				form.Password = e.term.Prompt("Password")
			}
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = e.term.Prompt("Confirm password")
			}

			register := mutation.NewRegister(e.client, e.nav, e.term)

			if _, err := register.Submit(cmd.Context(), form); err != nil {
				return e.fail(err)
			}

			e.term.Printf("Account %s created. Run \"dlink login\" to sign in.\n", form.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&form.Fullname, "name", "n", "", "full name")
	cmd.Flags().StringVarP(&form.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "password, prompted for when omitted")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "password confirmation, prompted for when omitted")

	return cmd
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			logout := mutation.NewLogout(e.session, e.links, e.nav, e.logger)
			if err := logout.Submit(); err != nil {
				return err
			}

			e.term.Printf("Signed out.\n")
			return nil
		},
	}
}
