package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/iliyamo/shop-api/internal/config"
	"github.com/iliyamo/shop-api/internal/database"
	"github.com/iliyamo/shop-api/internal/logging"
)

// rootCmd represents the base command.  Run without a subcommand it
// serves the API.
var rootCmd = &cobra.Command{
	Use:   "shopd",
	Short: "shopd - e-commerce HTTP API",
	Long: `shopd serves the shop HTTP API: accounts and tokens, the product
catalog, per-user carts and orders.

Commands:
  serve         - Run the HTTP API (default)
  migrate       - Apply pending database migrations
  create-admin  - Provision an administrator account`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

// bootstrap loads .env and the configuration and builds the logger.  A
// missing .env file is fine; the environment may already be populated.
func bootstrap() (config.Config, zerolog.Logger, error) {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, zerolog.Nop(), err
	}
	return cfg, logging.New(os.Stdout, cfg.Env, cfg.LogLevel), nil
}

func dbSettings(cfg config.Config) database.Settings {
	return database.Settings{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	}
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		if err := database.Migrate(dbSettings(cfg)); err != nil {
			return err
		}
		log.Info().Msg("migrations applied")
		return nil
	},
}

// contextOrBackground returns ctx, or a background context when cobra
// was executed without one.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
