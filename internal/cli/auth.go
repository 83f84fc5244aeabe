package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/avachat/chat-widget/internal/core/domain"
	"github.com/avachat/chat-widget/internal/core/service"
)

func newSignUpCmd(rt *runtime) *cobra.Command {
	var in domain.SignUpInput
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.fillPassword(&in.Password); err != nil {
				return err
			}
			a, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Auth.SignUp(cmd.Context(), in); err != nil {
				return errors.New(service.FormError(err))
			}
			rt.printf("Signed up as %s.\n", in.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newSignInCmd(rt *runtime) *cobra.Command {
	var in domain.SignInInput
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in to an existing account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := rt.fillPassword(&in.Password); err != nil {
				return err
			}
			a, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Auth.SignIn(cmd.Context(), in); err != nil {
				return errors.New(service.FormError(err))
			}
			rt.printf("Signed in as %s.\n", in.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Email, "email", "", "account email")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.Session.Logout(cmd.Context())
			rt.printf("Signed out.\n")
			return nil
		},
	}
}

func newStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the stored token is still accepted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rt.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Bootstrap(cmd.Context()) {
				rt.printf("Signed in (%s).\n", rt.cfg.APIURL)
			} else {
				rt.printf("Signed out.\n")
			}
			return nil
		},
	}
}

// fillPassword prompts for the password when the flag was not given. Input is
// masked when stdin is a terminal.
func (rt *runtime) fillPassword(pw *string) error {
	if *pw != "" {
		return nil
	}
	fmt.Fprint(rt.streams.Err, "Password: ")

	if f, ok := rt.streams.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(rt.streams.Err)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		*pw = string(b)
		return nil
	}

	line, err := rt.reader.ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("read password: %w", err)
	}
	*pw = strings.TrimRight(line, "\r\n")
	return nil
}
