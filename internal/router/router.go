package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/shop-api/internal/config"
	"github.com/iliyamo/shop-api/internal/handler"
	"github.com/iliyamo/shop-api/internal/middleware"
)

// Deps carries everything the route table needs.  Redis and Cache may be
// nil; the rate limiter and the product list cache then pass through.
type Deps struct {
	Log       zerolog.Logger
	DB        handler.Pinger
	JWTSecret string
	RateLimit config.RateLimitConfig
	Redis     *redis.Client
	Cache     *middleware.ResponseCache

	Auth     *handler.AuthHandler
	Products *handler.ProductHandler
	Cart     *handler.CartHandler
	Orders   *handler.OrderHandler
}

// New builds the Echo instance with the global middleware and every route
// registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request logging wraps everything so rate-limited and panicking
	// requests are logged too.
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(middleware.RateLimit(d.RateLimit, d.Redis, d.Log))

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.JWTSecret)
	RegisterCatalog(e, d.Products, d.Cache, d.JWTSecret)
	RegisterCart(e, d.Cart, d.JWTSecret)
	RegisterOrders(e, d.Orders, d.JWTSecret)
	return e
}

// RegisterRoutes registers routes that do not belong to any module.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the identity endpoints.  Registration and the
// token endpoints are public; the dashboard requires an access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/api")
	g.POST("/register/", a.Register)
	g.POST("/login/", a.Login)
	g.POST("/token/", a.Token)
	// The refresh token is not rotated here.
	g.POST("/token/refresh/", a.RefreshToken)
	// Logout takes the refresh token in the body, no access token needed.
	g.POST("/logout/", a.Logout)

	g.GET("/dashboard/", a.Dashboard, middleware.JWTAuth(jwtSecret))
}
