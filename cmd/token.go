package cmd

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/portal-admin/internal/auth"
	authPostgres "github.com/frahmantamala/portal-admin/internal/auth/postgres"
)

var tokenCmd = &cobra.Command{
	Use:   "token [user-id]",
	Short: "Issue an access token for a user",
	Long:  `Issue a signed access token for local development. Refused in production.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if cfg.Environment == "production" {
			log.Fatal("token: refusing to issue tokens in production")
		}

		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || userID <= 0 {
			log.Fatalf("token: invalid user id %q", args[0])
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(db, "production")
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		p, err := authPostgres.NewRepository(gdb).GetPrincipal(context.Background(), userID)
		if err != nil {
			log.Fatalf("token: failed to load user: %v", err)
		}
		if p == nil {
			log.Fatalf("token: user %d not found", userID)
		}

		tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration)
		token, err := tokens.GenerateAccessToken(p.ID, p.Email)
		if err != nil {
			log.Fatalf("token: %v", err)
		}
		fmt.Println(token)
	},
}
