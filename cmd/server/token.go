package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirecast-server/internal/app"
	"github.com/vovakirdan/wirecast-server/internal/auth"
)

var (
	tokenUserID   int64
	tokenUsername string
	tokenAvatar   string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a session token for local testing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tokenUserID <= 0 {
			return errors.New("--user-id must be positive")
		}
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		jwtCfg := app.JWTConfig(&cfg)
		if tokenTTL > 0 {
			jwtCfg.TTL = tokenTTL
		}
		token, err := auth.GenerateToken(jwtCfg, tokenUserID, tokenUsername, tokenAvatar)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().Int64Var(&tokenUserID, "user-id", 0, "user id to embed (required)")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "display name")
	tokenCmd.Flags().StringVar(&tokenAvatar, "avatar", "", "avatar url")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default 24h)")
	_ = tokenCmd.MarkFlagRequired("user-id")
}
