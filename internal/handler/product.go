package handler

import (
    "context"
    "encoding/json"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shop-api/internal/middleware"
    "github.com/iliyamo/shop-api/internal/model"
    "github.com/iliyamo/shop-api/internal/service"
)

// CatalogAPI is the part of the catalog service the handlers use.
type CatalogAPI interface {
    List(ctx context.Context) ([]model.Product, error)
    Search(ctx context.Context, in service.SearchInput) (*service.SearchResult, error)
    Create(ctx context.Context, p service.Principal, in service.ProductInput) (*model.Product, error)
    Update(ctx context.Context, p service.Principal, id uint64, in service.ProductInput) (*model.Product, error)
    Delete(ctx context.Context, p service.Principal, id uint64) error
}

// ProductHandler serves the catalog endpoints.
type ProductHandler struct {
    Catalog CatalogAPI
}

func NewProductHandler(catalog CatalogAPI) *ProductHandler { return &ProductHandler{Catalog: catalog} }

// productReq keeps every field raw so that "absent", "null" and a
// wrongly typed value can be told apart.
type productReq struct {
    Name        json.RawMessage `json:"name"`
    Description json.RawMessage `json:"description"`
    Price       json.RawMessage `json:"price"`
    Quantity    json.RawMessage `json:"quantity"`
    Image       json.RawMessage `json:"image"`
}

func (r productReq) input() (service.ProductInput, error) {
    var in service.ProductInput
    var err error
    if in.Name, err = stringField("name", r.Name); err != nil {
        return in, err
    }
    if in.Description, err = stringField("description", r.Description); err != nil {
        return in, err
    }
    if present(r.Price) {
        s := strings.TrimSpace(string(r.Price))
        if strings.HasPrefix(s, `"`) {
            if err := json.Unmarshal(r.Price, &s); err != nil {
                return in, invalid("A valid number is required for price.")
            }
        }
        in.Price = &s
    }
    if present(r.Quantity) {
        q, ok := intField(r.Quantity)
        if !ok {
            return in, invalid("A valid integer is required for quantity.")
        }
        in.Quantity = &q
    }
    if len(r.Image) > 0 {
        // null clears the image, like an empty string
        img := ""
        if present(r.Image) {
            if err := json.Unmarshal(r.Image, &img); err != nil {
                return in, invalid("image must be a string")
            }
        }
        in.Image = &img
    }
    return in, nil
}

func stringField(name string, raw json.RawMessage) (*string, error) {
    if !present(raw) {
        return nil, nil
    }
    var s string
    if err := json.Unmarshal(raw, &s); err != nil {
        return nil, invalid(name + " must be a string")
    }
    return &s, nil
}

func invalid(msg string) error {
    return &service.Error{Kind: service.KindValidation, Message: msg}
}

// List handles GET /api/products/.
func (h *ProductHandler) List(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    products, err := h.Catalog.List(ctx)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, products)
}

// Search handles GET /api/products/search/?q=&in_stock=&page=&page_size=.
func (h *ProductHandler) Search(c echo.Context) error {
    in := service.SearchInput{Text: c.QueryParam("q")}
    var err error
    if v := c.QueryParam("in_stock"); v != "" {
        if in.InStock, err = strconv.ParseBool(v); err != nil {
            return badRequest(c, "in_stock must be true or false")
        }
    }
    if in.Page, err = queryInt(c, "page"); err != nil {
        return badRequest(c, "page must be an integer")
    }
    if in.PageSize, err = queryInt(c, "page_size"); err != nil {
        return badRequest(c, "page_size must be an integer")
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    res, err := h.Catalog.Search(ctx, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// queryInt parses an optional integer query parameter; absent is 0.
func queryInt(c echo.Context, name string) (int, error) {
    v := c.QueryParam(name)
    if v == "" {
        return 0, nil
    }
    return strconv.Atoi(v)
}

// Create handles POST /api/products/create/.
func (h *ProductHandler) Create(c echo.Context) error {
    var req productReq
    if err := decodeObject(c, &req); err != nil {
        return writeError(c, err)
    }
    in, err := req.input()
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p, err := h.Catalog.Create(ctx, middleware.PrincipalFrom(c), in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, p)
}

// Update handles PUT and PATCH /api/products/:id/update/.  Both are
// partial: only the supplied fields change.
func (h *ProductHandler) Update(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
    }
    var req productReq
    if err := decodeObject(c, &req); err != nil {
        return writeError(c, err)
    }
    in, err := req.input()
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    p, err := h.Catalog.Update(ctx, middleware.PrincipalFrom(c), id, in)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /api/products/:id/delete/.
func (h *ProductHandler) Delete(c echo.Context) error {
    id, ok := pathID(c)
    if !ok {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Product not found"})
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Catalog.Delete(ctx, middleware.PrincipalFrom(c), id); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}
