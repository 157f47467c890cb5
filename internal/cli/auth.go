package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"bookdesk/internal/models"
	"bookdesk/internal/validate"
)

func newLoginCmd(deps *Deps) *cobra.Command {
	var asLibrarian bool

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in to the library service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := args[0]
			if err := validate.Email(email); err != nil {
				return err
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			role := models.RoleUser
			if asLibrarian {
				role = models.RoleLibrarian
			}

			creds, err := deps.Remote.Login(cmd.Context(), email, password, role)
			if err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}

			deps.Session.Establish(creds.Token, creds.User)
			deps.setToken(creds.Token)
			if err := deps.Cache.SaveSession(cmd.Context(), creds.Token, creds.User); err != nil {
				deps.Logger.Warn("Failed to persist session", zap.Error(err))
			}

			fmt.Printf("Logged in as %s (%s)\n", creds.User.Name, creds.User.Role)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asLibrarian, "librarian", false, "log in with a librarian account")
	return cmd
}

func newRegisterCmd(deps *Deps) *cobra.Command {
	var asLibrarian bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := stdin()

			name, err := prompt(in, "Name: ")
			if err != nil {
				return err
			}
			if name == "" {
				return fmt.Errorf("name cannot be empty")
			}

			email, err := prompt(in, "Email: ")
			if err != nil {
				return err
			}
			if err := validate.Email(email); err != nil {
				return err
			}

			password, err := readPassword("Password: ")
			if err != nil {
				return err
			}
			confirm, err := readPassword("Confirm password: ")
			if err != nil {
				return err
			}
			if err := validate.PasswordPair(password, confirm); err != nil {
				return err
			}

			role := models.RoleUser
			if asLibrarian {
				role = models.RoleLibrarian
			}

			user, err := deps.Remote.Register(cmd.Context(), name, email, password, role)
			if err != nil {
				return fmt.Errorf("%s", remoteMessage(err))
			}

			fmt.Printf("Account created for %s. Log in with 'bookdesk login %s'\n", user.Name, user.Email)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asLibrarian, "librarian", false, "register a librarian account")
	return cmd
}

func newLogoutCmd(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps.Session.Clear()
			deps.setToken("")
			if err := deps.Cache.ClearSession(cmd.Context()); err != nil {
				deps.Logger.Warn("Failed to clear stored session", zap.Error(err))
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}
