package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-api/internal/handler"
	"github.com/iliyamo/shop-api/internal/middleware"
	"github.com/iliyamo/shop-api/internal/model"
)

// RegisterCatalog registers the product endpoints.  Listing is public and
// goes through the response cache; every mutation requires an admin.
func RegisterCatalog(e *echo.Echo, p *handler.ProductHandler, cache *middleware.ResponseCache, jwtSecret string) {
	g := e.Group("/api/products")
	g.GET("/", p.List, cache.Middleware())
	g.GET("/search/", p.Search, cache.Middleware())

	admin := []echo.MiddlewareFunc{middleware.JWTAuth(jwtSecret), middleware.RequireRole(model.RoleAdmin)}
	g.POST("/create/", p.Create, admin...)
	g.PUT("/:id/update/", p.Update, admin...)
	g.PATCH("/:id/update/", p.Update, admin...)
	g.DELETE("/:id/delete/", p.Delete, admin...)
}
