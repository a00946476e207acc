// cmd/award-engine/token.go
package main

import (
	"errors"
	"fmt"
	"time"

	"award-engine/internal/ops"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin token for the ops API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		auth := ops.NewAuthenticator(cfg.Ops.JWTSecret)
		if !auth.Enabled() {
			return errors.New("ops.jwt_secret is not configured")
		}

		now := time.Now()
		token, err := auth.Sign(ops.Claims{
			Role: ops.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   subject,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringP("subject", "s", "admin", "actor id carried by the token")
	tokenCmd.Flags().Duration("ttl", 12*time.Hour, "token lifetime")
}
