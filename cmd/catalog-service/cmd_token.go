package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"moviecatalog/pkg/auth"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		role    string
		expiry  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a signed bearer token",
		Long: `Mint an HS256 bearer token accepted by the catalog service.

The signing secret defaults to the JWT_SECRET environment variable.
An expiry of 0 produces a token without an exp claim.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("signing secret is required (--secret or JWT_SECRET)")
			}
			r := auth.Role(role)
			if !auth.NewRoleSet(auth.RoleAdmin, auth.RoleUser).Contains(r) {
				return fmt.Errorf("unknown role %q", role)
			}

			token, err := auth.NewJWTManager(secret, expiry).GenerateAccessToken(subject, r)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HS256 signing secret")
	cmd.Flags().StringVar(&subject, "subject", "", "token subject (user id)")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleUser), "role claim: admin or user")
	cmd.Flags().DurationVar(&expiry, "expiry", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
