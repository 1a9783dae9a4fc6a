package handler

import (
    "context"
    "encoding/json"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shop-api/internal/middleware"
    "github.com/iliyamo/shop-api/internal/model"
    "github.com/iliyamo/shop-api/internal/service"
)

// OrderAPI is the part of the order service the handlers use.
type OrderAPI interface {
    Place(ctx context.Context, p service.Principal) ([]model.Order, error)
    ListMine(ctx context.Context, p service.Principal) ([]model.Order, error)
    CreateDirect(ctx context.Context, p service.Principal, productID uint64, qty int64) (*model.Order, error)
    ListAll(ctx context.Context, p service.Principal) ([]model.Order, error)
    Get(ctx context.Context, p service.Principal, id uint64) (*model.Order, error)
    UpdateStatus(ctx context.Context, p service.Principal, id uint64, status string) (*model.Order, error)
}

// OrderHandler serves checkout, the customer order views and order
// administration.
type OrderHandler struct {
    Orders OrderAPI
}

func NewOrderHandler(orders OrderAPI) *OrderHandler { return &OrderHandler{Orders: orders} }

// Place handles POST /api/order/: check out the cart.
func (h *OrderHandler) Place(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    orders, err := h.Orders.Place(ctx, middleware.PrincipalFrom(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, model.Views(orders))
}

// ListMine handles GET /api/order/ and GET /customer/orders/.
func (h *OrderHandler) ListMine(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    orders, err := h.Orders.ListMine(ctx, middleware.PrincipalFrom(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, model.Views(orders))
}

type directOrderReq struct {
    Product  json.RawMessage `json:"product"`
    Quantity json.RawMessage `json:"quantity"`
}

// CreateDirect handles POST /customer/orders/: a single order placed
// without the cart.
func (h *OrderHandler) CreateDirect(c echo.Context) error {
    var req directOrderReq
    if err := decodeObject(c, &req); err != nil {
        return writeError(c, err)
    }
    productID, ok := idField(req.Product)
    if !ok {
        return badRequest(c, "A valid product is required.")
    }
    qty := int64(1)
    if present(req.Quantity) {
        if qty, ok = intField(req.Quantity); !ok {
            return badRequest(c, "Invalid quantity value.")
        }
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    o, err := h.Orders.CreateDirect(ctx, middleware.PrincipalFrom(c), productID, qty)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, o.Record())
}

// AdminList handles GET /admin/orders/.
func (h *OrderHandler) AdminList(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    orders, err := h.Orders.ListAll(ctx, middleware.PrincipalFrom(c))
    if err != nil {
        return writeError(c, err)
    }
    records := make([]model.OrderRecord, 0, len(orders))
    for i := range orders {
        records = append(records, orders[i].Record())
    }
    return c.JSON(http.StatusOK, records)
}

// AdminGet handles GET /admin/orders/:id/.
func (h *OrderHandler) AdminGet(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found."})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    o, err := h.Orders.Get(ctx, middleware.PrincipalFrom(c), id)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, o.Record())
}

type statusReq struct {
    Status *string `json:"status"`
}

// AdminUpdate handles PUT and PATCH /admin/orders/:id/.  Only the status
// can change.
func (h *OrderHandler) AdminUpdate(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Order not found."})
    }
    var req statusReq
    if err := decodeObject(c, &req); err != nil {
        return writeError(c, err)
    }
    if req.Status == nil {
        return badRequest(c, "status is required")
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    o, err := h.Orders.UpdateStatus(ctx, middleware.PrincipalFrom(c), id, *req.Status)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, o.Record())
}
