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

// CartAPI is the part of the cart service the handlers use.
type CartAPI interface {
    Add(ctx context.Context, p service.Principal, productID uint64, qty int64) error
    View(ctx context.Context, p service.Principal) ([]model.CartLine, error)
    Remove(ctx context.Context, p service.Principal, productID uint64) error
    SetQuantity(ctx context.Context, p service.Principal, productID uint64, qty int64) error
}

// CartHandler serves the caller's cart.
type CartHandler struct {
    Cart CartAPI
}

func NewCartHandler(cart CartAPI) *CartHandler { return &CartHandler{Cart: cart} }

type cartReq struct {
    ProductID json.RawMessage `json:"product_id"`
    Quantity  json.RawMessage `json:"quantity"`
}

// productID returns the product id from the body, falling back to the
// product_id query parameter (DELETE clients often send no body).
func (r cartReq) productID(c echo.Context) (uint64, bool) {
    if present(r.ProductID) {
        return idField(r.ProductID)
    }
    if q := c.QueryParam("product_id"); q != "" {
        return idField(json.RawMessage(q))
    }
    return 0, false
}

// Add handles POST /cart/add/.  quantity defaults to 1.
func (h *CartHandler) Add(c echo.Context) error {
    var req cartReq
    if err := decodeObject(c, &req); err != nil {
        return writeError(c, err)
    }
    productID, ok := req.productID(c)
    if !ok {
        return badRequest(c, "A valid product_id is required.")
    }
    qty := int64(1)
    if present(req.Quantity) {
        if qty, ok = intField(req.Quantity); !ok {
            return badRequest(c, "Invalid quantity value.")
        }
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Cart.Add(ctx, middleware.PrincipalFrom(c), productID, qty); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Product added to cart successfully!"})
}

// View handles GET /cart/.
func (h *CartHandler) View(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    lines, err := h.Cart.View(ctx, middleware.PrincipalFrom(c))
    if err != nil {
        return writeError(c, err)
    }
    if len(lines) == 0 {
        return c.JSON(http.StatusOK, echo.Map{"message": "Your cart is empty."})
    }
    return c.JSON(http.StatusOK, lines)
}

// Remove handles DELETE /cart/remove/.
func (h *CartHandler) Remove(c echo.Context) error {
    var req cartReq
    if err := decodeObject(c, &req); err != nil {
        return writeError(c, err)
    }
    productID, ok := req.productID(c)
    if !ok {
        return badRequest(c, "A valid product_id is required.")
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Cart.Remove(ctx, middleware.PrincipalFrom(c), productID); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Product removed from cart successfully."})
}

// Update handles PATCH /cart/update/ and overwrites the quantity.
func (h *CartHandler) Update(c echo.Context) error {
    var req cartReq
    if err := decodeObject(c, &req); err != nil {
        return writeError(c, err)
    }
    productID, ok := req.productID(c)
    if !ok {
        return badRequest(c, "A valid product_id is required.")
    }
    qty, ok := intField(req.Quantity)
    if !ok {
        return badRequest(c, "Invalid quantity value.")
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Cart.SetQuantity(ctx, middleware.PrincipalFrom(c), productID, qty); err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "Cart updated successfully."})
}
