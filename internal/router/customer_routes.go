package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/shop-api/internal/handler"
	"github.com/iliyamo/shop-api/internal/middleware"
	"github.com/iliyamo/shop-api/internal/model"
)

// RegisterCart registers the cart endpoints.  Any authenticated user has
// a cart.
func RegisterCart(e *echo.Echo, h *handler.CartHandler, jwtSecret string) {
	g := e.Group("/cart", middleware.JWTAuth(jwtSecret))
	g.GET("/", h.View)
	g.POST("/add/", h.Add)
	g.DELETE("/remove/", h.Remove)
	g.PATCH("/update/", h.Update)
}

// RegisterOrders registers checkout, the caller's order views, the
// customer direct order and order administration.
func RegisterOrders(e *echo.Echo, h *handler.OrderHandler, jwtSecret string) {
	auth := middleware.JWTAuth(jwtSecret)

	e.POST("/api/order/", h.Place, auth)
	e.GET("/api/order/", h.ListMine, auth)

	c := e.Group("/customer/orders", auth, middleware.RequireRole(model.RoleCustomer))
	c.GET("/", h.ListMine)
	c.POST("/", h.CreateDirect)

	admin := e.Group("/admin/orders", auth, middleware.RequireRole(model.RoleAdmin))
	admin.GET("/", h.AdminList)
	admin.GET("/:id/", h.AdminGet)
	admin.PUT("/:id/", h.AdminUpdate)
	admin.PATCH("/:id/", h.AdminUpdate)
}
