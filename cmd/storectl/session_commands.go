package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lotusshop/go-storefront-session/token"
	"github.com/lotusshop/go-storefront-session/tokenstore"
)

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if err := a.controller.Start(cmd.Context()); err != nil {
				return err
			}
			defer a.controller.Close()
			a.controller.Logout(cmd.Context())
			fmt.Println("Signed out")
			return nil
		},
	}
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity decoded from the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			if err := a.controller.Start(cmd.Context()); err != nil {
				return err
			}
			defer a.controller.Close()

			snapshot := a.controller.Snapshot()
			if !snapshot.Authenticated {
				fmt.Println("Not signed in")
				return nil
			}
			if snapshot.User == nil {
				// Present but undecodable token: still an authenticated
				// session, just nothing to display.
				fmt.Println("Signed in (claims unavailable)")
				return nil
			}
			fmt.Printf("ID:    %s\n", snapshot.User.ID)
			fmt.Printf("Name:  %s\n", snapshot.User.Name)
			fmt.Printf("Email: %s\n", snapshot.User.Email)
			fmt.Printf("Phone: %s\n", snapshot.User.Phone)
			if len(snapshot.User.Roles) > 0 {
				fmt.Printf("Roles: %s\n", strings.Join(snapshot.User.Roles, ", "))
			}
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show token expiry",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath)
			if err != nil {
				return err
			}
			pair, err := tokenstore.Load(cmd.Context(), a.store)
			if err != nil {
				return err
			}
			if pair.AccessToken == "" {
				fmt.Println("No session")
				return nil
			}
			remaining := token.TimeRemaining(pair.AccessToken)
			switch {
			case remaining < 0:
				fmt.Println("Access token expired (will refresh on next request)")
			case token.ExpiringSoon(pair.AccessToken, a.cfg.GetRefreshThreshold()):
				fmt.Printf("Access token expiring soon: %ds remaining\n", remaining)
			default:
				fmt.Printf("Access token valid: %ds remaining\n", remaining)
			}
			fmt.Printf("Refresh token stored: %v\n", pair.RefreshToken != "")
			return nil
		},
	}
}
