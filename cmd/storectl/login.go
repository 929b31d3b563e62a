package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lotusshop/go-storefront-session/authclient"
	"github.com/lotusshop/go-storefront-session/internal/utils"
)

func newLoginCommand() *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if user == "" {
				return errors.New("--user is required (phone number or email)")
			}

			fmt.Fprint(os.Stderr, "Password: ")
			password, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return errors.Wrap(err, "read password")
			}

			if err := a.controller.Start(cmd.Context()); err != nil {
				return err
			}
			defer a.controller.Close()

			ok := a.controller.Login(cmd.Context(), authclient.Credentials{
				ProviderUserID: user,
				Password:       string(password),
			})
			if !ok {
				return errors.New("login failed: check your credentials")
			}

			snapshot := a.controller.Snapshot()
			fmt.Printf("Signed in as %s\n", utils.Value(snapshot.User).Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "provider user id (phone number or email)")
	return cmd
}
