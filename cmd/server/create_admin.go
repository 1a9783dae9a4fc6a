package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/shop-api/internal/database"
	"github.com/iliyamo/shop-api/internal/repository"
	"github.com/iliyamo/shop-api/internal/service"
)

var admin service.RegisterInput

// createAdminCmd provisions an administrator.  Public registration does
// not create admins unless ALLOW_ADMIN_SIGNUP is set.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Provision an administrator account",
	Long: `Create an administrator account directly in the database.

Examples:
  shopd create-admin --username root --password 's3cret' --email ops@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		ctx := contextOrBackground(cmd.Context())
		db, err := database.Open(ctx, dbSettings(cfg))
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		auth := service.NewAuthService(repository.NewUserRepo(db), repository.NewTokenRepo(db), service.AuthConfig{
			JWTSecret:      cfg.JWTSecret,
			AccessTTLMin:   cfg.AccessTTLMin,
			RefreshTTLDays: cfg.RefreshTTLDays,
			BcryptCost:     cfg.BcryptCost,
		}, log)
		u, err := auth.CreateAdmin(ctx, admin)
		if err != nil {
			return err
		}
		log.Info().Uint64("user_id", u.ID).Str("username", u.Username).Msg("admin created")
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&admin.Username, "username", "", "login name (required)")
	f.StringVar(&admin.Password, "password", "", "password (required)")
	f.StringVar(&admin.Email, "email", "", "contact address (required)")
	f.StringVar(&admin.FirstName, "first-name", "", "given name")
	f.StringVar(&admin.LastName, "last-name", "", "family name")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")
	_ = createAdminCmd.MarkFlagRequired("email")
}
