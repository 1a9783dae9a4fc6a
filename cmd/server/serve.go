package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/shop-api/internal/config"
	"github.com/iliyamo/shop-api/internal/database"
	"github.com/iliyamo/shop-api/internal/handler"
	"github.com/iliyamo/shop-api/internal/middleware"
	"github.com/iliyamo/shop-api/internal/queue"
	"github.com/iliyamo/shop-api/internal/repository"
	"github.com/iliyamo/shop-api/internal/router"
	"github.com/iliyamo/shop-api/internal/service"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(contextOrBackground(parent), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := dbSettings(cfg)
	if cfg.MigrateOnStart {
		if err := database.Migrate(settings); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info().Msg("migrations applied")
	}
	db, err := database.Open(ctx, settings)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rdb := connectRedis(ctx, log)
	if rdb != nil {
		defer rdb.Close()
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb, log)

	qcfg := config.LoadQueueConfig()
	var events queue.Publisher = queue.NopPublisher{}
	if qcfg.Enabled {
		events = queue.NewAMQPPublisher(qcfg.URL, qcfg.Queue, log)
	}

	users := repository.NewUserRepo(db)
	auth := service.NewAuthService(users, repository.NewTokenRepo(db), service.AuthConfig{
		JWTSecret:        cfg.JWTSecret,
		AccessTTLMin:     cfg.AccessTTLMin,
		RefreshTTLDays:   cfg.RefreshTTLDays,
		BcryptCost:       cfg.BcryptCost,
		AllowAdminSignup: cfg.AllowAdminSignup,
	}, log)
	catalog := service.NewCatalogService(repository.NewProductRepo(db), cache, log)
	carts := service.NewCartService(repository.NewCartRepo(db))
	orders := service.NewOrderService(repository.NewOrderRepo(db), events, log)

	e := router.New(router.Deps{
		Log:       log,
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
		Cache:     cache,
		Auth:      handler.NewAuthHandler(auth),
		Products:  handler.NewProductHandler(catalog),
		Cart:      handler.NewCartHandler(carts),
		Orders:    handler.NewOrderHandler(orders),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		return e.Shutdown(shutCtx)
	})
	if qcfg.Enabled {
		consumer := queue.NewConsumer(qcfg.URL, qcfg.Queue, qcfg.LogPath, log)
		g.Go(func() error {
			if err := consumer.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// connectRedis returns a client, or nil when Redis is disabled or
// unreachable.  The API runs without rate limiting and caching then.
func connectRedis(ctx context.Context, log zerolog.Logger) *redis.Client {
	rcfg := config.LoadRedisConfig()
	if !rcfg.Enabled {
		log.Info().Msg("redis disabled")
		return nil
	}
	rdb, err := config.NewRedisClient(ctx, rcfg)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable; rate limiting and caching off")
		return nil
	}
	return rdb
}
