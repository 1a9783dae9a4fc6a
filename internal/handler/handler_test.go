package handler

import (
    "errors"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/mock"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/shop-api/internal/middleware"
    "github.com/iliyamo/shop-api/internal/model"
    "github.com/iliyamo/shop-api/internal/service"
    "github.com/iliyamo/shop-api/internal/utils"
)

const secret = "handler-secret"

var (
    alice = service.Principal{UserID: 2, Role: model.RoleCustomer}
    root  = service.Principal{UserID: 1, Role: model.RoleAdmin}
)

func bearerFor(t *testing.T, p service.Principal) string {
    t.Helper()
    at, err := utils.NewAccessToken(secret, p.UserID, p.Role, 5)
    require.NoError(t, err)
    return at.Token
}

func call(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(method, path, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if token != "" {
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func svcErr(k service.Kind, msg string) error { return &service.Error{Kind: k, Message: msg} }

func TestRegister(t *testing.T) {
    auth := &mockAuth{}
    h := NewAuthHandler(auth)
    e := echo.New()
    e.POST("/api/register/", h.Register)

    auth.On("Register", mock.Anything, mock.MatchedBy(func(in service.RegisterInput) bool {
        return in.Username == "alice" && in.Role == "" && in.Email == "a@x.com"
    })).Return(&model.User{ID: 2, Username: "alice", Email: "a@x.com", Role: model.RoleCustomer, PasswordHash: "secret-hash"}, nil)

    rec := call(e, http.MethodPost, "/api/register/", `{"username":"alice","password":"pw","email":"a@x.com"}`, "")
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.JSONEq(t, `{"id":2,"username":"alice","first_name":"","last_name":"","email":"a@x.com","phone":null,"address":null,"role":"customer"}`, rec.Body.String())
    assert.NotContains(t, rec.Body.String(), "secret-hash")
}

func TestRegisterBadRole(t *testing.T) {
    auth := &mockAuth{}
    e := echo.New()
    e.POST("/api/register/", NewAuthHandler(auth).Register)
    auth.On("Register", mock.Anything, mock.Anything).
        Return(nil, svcErr(service.KindValidation, "Role must be either 'admin' or 'customer'"))

    rec := call(e, http.MethodPost, "/api/register/", `{"username":"x","password":"pw","email":"x@x.com","role":"superuser"}`, "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.JSONEq(t, `{"error":"Role must be either 'admin' or 'customer'"}`, rec.Body.String())
}

func TestLoginWrongPassword(t *testing.T) {
    auth := &mockAuth{}
    e := echo.New()
    e.POST("/api/login/", NewAuthHandler(auth).Login)
    auth.On("Login", mock.Anything, "alice", "nope").
        Return(nil, service.TokenPair{}, svcErr(service.KindUnauthenticated, "Invalid credentials"))

    rec := call(e, http.MethodPost, "/api/login/", `{"username":"alice","password":"nope"}`, "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.JSONEq(t, `{"error":"Invalid credentials"}`, rec.Body.String())
}

func TestLoginAndToken(t *testing.T) {
    auth := &mockAuth{}
    h := NewAuthHandler(auth)
    e := echo.New()
    e.POST("/api/login/", h.Login)
    e.POST("/api/token/", h.Token)
    auth.On("Login", mock.Anything, "alice", "pw").
        Return(&model.User{ID: 2, Username: "alice", Role: model.RoleCustomer}, service.TokenPair{Access: "a", Refresh: "r"}, nil)

    rec := call(e, http.MethodPost, "/api/login/", `{"username":"alice","password":"pw"}`, "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"access":"a"`)
    assert.Contains(t, rec.Body.String(), `"username":"alice"`)

    rec = call(e, http.MethodPost, "/api/token/", `{"username":"alice","password":"pw"}`, "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"access":"a","refresh":"r"}`, rec.Body.String())

    rec = call(e, http.MethodPost, "/api/token/", `{"username":"alice"}`, "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshAndLogout(t *testing.T) {
    auth := &mockAuth{}
    h := NewAuthHandler(auth)
    e := echo.New()
    e.POST("/api/token/refresh/", h.RefreshToken)
    e.POST("/api/logout/", h.Logout)
    auth.On("Refresh", mock.Anything, "good").Return("new-access", nil)
    auth.On("Refresh", mock.Anything, "bad").Return("", svcErr(service.KindUnauthenticated, "Token is invalid or expired"))
    auth.On("Logout", mock.Anything, "good").Return(nil)

    rec := call(e, http.MethodPost, "/api/token/refresh/", `{"refresh":"good"}`, "")
    assert.JSONEq(t, `{"access":"new-access"}`, rec.Body.String())
    rec = call(e, http.MethodPost, "/api/token/refresh/", `{"refresh":"bad"}`, "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    rec = call(e, http.MethodPost, "/api/logout/", `{"refresh":"good"}`, "")
    assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDashboard(t *testing.T) {
    auth := &mockAuth{}
    e := echo.New()
    e.GET("/api/dashboard/", NewAuthHandler(auth).Dashboard, middleware.JWTAuth(secret))
    auth.On("WhoAmI", mock.Anything, alice).Return(&model.User{ID: 2, Username: "alice", Role: model.RoleCustomer}, nil)

    rec := call(e, http.MethodGet, "/api/dashboard/", "", bearerFor(t, alice))
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"message":"You are authenticated"`)

    rec = call(e, http.MethodGet, "/api/dashboard/", "", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductCreateParsesFields(t *testing.T) {
    cat := &mockCatalog{}
    e := echo.New()
    e.POST("/api/products/create/", NewProductHandler(cat).Create, middleware.JWTAuth(secret))

    cat.On("Create", mock.Anything, root, mock.MatchedBy(func(in service.ProductInput) bool {
        return *in.Name == "Mug" && *in.Price == "4.50" && *in.Quantity == 3 && in.Image == nil
    })).Return(&model.Product{ID: 7, Name: "Mug", Description: "Blue", Price: model.MustMoney("4.50"), Quantity: 3}, nil)

    rec := call(e, http.MethodPost, "/api/products/create/", `{"name":"Mug","description":"Blue","price":"4.50","quantity":3}`, bearerFor(t, root))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.JSONEq(t, `{"id":7,"name":"Mug","description":"Blue","price":"4.50","quantity":3,"image":null}`, rec.Body.String())

    rec = call(e, http.MethodPost, "/api/products/create/", `{"name":"Mug","quantity":"many"}`, bearerFor(t, root))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    cat.AssertNumberOfCalls(t, "Create", 1)
}

func TestProductCreateNumericPrice(t *testing.T) {
    cat := &mockCatalog{}
    e := echo.New()
    e.POST("/api/products/create/", NewProductHandler(cat).Create, middleware.JWTAuth(secret))
    cat.On("Create", mock.Anything, root, mock.MatchedBy(func(in service.ProductInput) bool {
        return in.Price != nil && *in.Price == "12.5"
    })).Return(&model.Product{ID: 1, Price: model.MustMoney("12.5")}, nil)

    rec := call(e, http.MethodPost, "/api/products/create/", `{"name":"A","description":"B","price":12.5,"quantity":1}`, bearerFor(t, root))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Contains(t, rec.Body.String(), `"price":"12.50"`)
}

func TestProductDeleteMapsErrors(t *testing.T) {
    cat := &mockCatalog{}
    e := echo.New()
    e.DELETE("/api/products/:id/delete/", NewProductHandler(cat).Delete, middleware.JWTAuth(secret))
    cat.On("Delete", mock.Anything, root, uint64(99)).Return(svcErr(service.KindNotFound, "Product not found"))
    cat.On("Delete", mock.Anything, alice, uint64(1)).Return(svcErr(service.KindForbidden, "You do not have permission to perform this action."))
    cat.On("Delete", mock.Anything, root, uint64(1)).Return(nil)
    cat.On("Delete", mock.Anything, root, uint64(2)).Return(errors.New("db down"))

    rec := call(e, http.MethodDelete, "/api/products/99/delete/", "", bearerFor(t, root))
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.JSONEq(t, `{"error":"Product not found"}`, rec.Body.String())

    rec = call(e, http.MethodDelete, "/api/products/1/delete/", "", bearerFor(t, alice))
    assert.Equal(t, http.StatusForbidden, rec.Code)

    rec = call(e, http.MethodDelete, "/api/products/1/delete/", "", bearerFor(t, root))
    assert.Equal(t, http.StatusNoContent, rec.Code)

    rec = call(e, http.MethodDelete, "/api/products/2/delete/", "", bearerFor(t, root))
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestProductUpdatePartial(t *testing.T) {
    cat := &mockCatalog{}
    e := echo.New()
    e.PATCH("/api/products/:id/update/", NewProductHandler(cat).Update, middleware.JWTAuth(secret))
    cat.On("Update", mock.Anything, root, uint64(3), mock.MatchedBy(func(in service.ProductInput) bool {
        return in.Name == nil && in.Price == nil && in.Quantity != nil && *in.Quantity == 0 && in.Image != nil && *in.Image == ""
    })).Return(&model.Product{ID: 3, Name: "Pen"}, nil)

    rec := call(e, http.MethodPatch, "/api/products/3/update/", `{"quantity":0,"image":null}`, bearerFor(t, root))
    assert.Equal(t, http.StatusOK, rec.Code)
    cat.AssertExpectations(t)
}

func cartEcho(cart CartAPI) *echo.Echo {
    h := NewCartHandler(cart)
    e := echo.New()
    g := e.Group("/cart", middleware.JWTAuth(secret))
    g.GET("/", h.View)
    g.POST("/add/", h.Add)
    g.DELETE("/remove/", h.Remove)
    g.PATCH("/update/", h.Update)
    return e
}

func TestCartAdd(t *testing.T) {
    cart := &mockCart{}
    e := cartEcho(cart)
    tok := bearerFor(t, alice)
    cart.On("Add", mock.Anything, alice, uint64(5), int64(1)).Return(nil).Once()
    cart.On("Add", mock.Anything, alice, uint64(5), int64(3)).Return(nil).Once()
    cart.On("Add", mock.Anything, alice, uint64(404), int64(1)).Return(svcErr(service.KindNotFound, "Product not found.")).Once()

    rec := call(e, http.MethodPost, "/cart/add/", `{"product_id":5}`, tok)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"message":"Product added to cart successfully!"}`, rec.Body.String())

    rec = call(e, http.MethodPost, "/cart/add/", `{"product_id":"5","quantity":3}`, tok)
    assert.Equal(t, http.StatusOK, rec.Code)

    rec = call(e, http.MethodPost, "/cart/add/", `{"product_id":404}`, tok)
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.JSONEq(t, `{"error":"Product not found."}`, rec.Body.String())

    rec = call(e, http.MethodPost, "/cart/add/", `[{"product_id":5}]`, tok)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.JSONEq(t, `{"error":"Expected a JSON object."}`, rec.Body.String())

    rec = call(e, http.MethodPost, "/cart/add/", `{"product_id":5}`, "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    cart.AssertExpectations(t)
}

func TestCartView(t *testing.T) {
    cart := &mockCart{}
    e := cartEcho(cart)
    cart.On("View", mock.Anything, alice).Return([]model.CartLine{}, nil).Once()
    cart.On("View", mock.Anything, alice).Return([]model.CartLine{{
        ProductID: 5, ProductName: "Mug", Description: "Blue", Price: model.MustMoney("4.50"), Quantity: 2, Total: model.MustMoney("9"),
    }}, nil).Once()

    rec := call(e, http.MethodGet, "/cart/", "", bearerFor(t, alice))
    assert.JSONEq(t, `{"message":"Your cart is empty."}`, rec.Body.String())

    rec = call(e, http.MethodGet, "/cart/", "", bearerFor(t, alice))
    assert.JSONEq(t, `[{"product_id":5,"product_name":"Mug","description":"Blue","price":"4.50","image":null,"quantity":2,"total":"9.00"}]`, rec.Body.String())
}

func TestCartUpdateQuantityMessages(t *testing.T) {
    cart := &mockCart{}
    e := cartEcho(cart)
    tok := bearerFor(t, alice)
    cart.On("SetQuantity", mock.Anything, alice, uint64(5), int64(0)).
        Return(svcErr(service.KindValidation, "Quantity must be a positive integer."))
    cart.On("SetQuantity", mock.Anything, alice, uint64(6), int64(2)).
        Return(svcErr(service.KindNotFound, "Product not found in cart."))

    rec := call(e, http.MethodPatch, "/cart/update/", `{"product_id":5,"quantity":"two"}`, tok)
    assert.JSONEq(t, `{"error":"Invalid quantity value."}`, rec.Body.String())

    rec = call(e, http.MethodPatch, "/cart/update/", `{"product_id":5,"quantity":1.5}`, tok)
    assert.JSONEq(t, `{"error":"Invalid quantity value."}`, rec.Body.String())

    rec = call(e, http.MethodPatch, "/cart/update/", `{"product_id":5,"quantity":0}`, tok)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.JSONEq(t, `{"error":"Quantity must be a positive integer."}`, rec.Body.String())

    rec = call(e, http.MethodPatch, "/cart/update/", `{"product_id":6,"quantity":2}`, tok)
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartRemoveFromQuery(t *testing.T) {
    cart := &mockCart{}
    e := cartEcho(cart)
    cart.On("Remove", mock.Anything, alice, uint64(5)).Return(nil)

    rec := call(e, http.MethodDelete, "/cart/remove/?product_id=5", "", bearerFor(t, alice))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"message":"Product removed from cart successfully."}`, rec.Body.String())
    cart.AssertExpectations(t)
}

func TestPlaceOrder(t *testing.T) {
    orders := &mockOrders{}
    h := NewOrderHandler(orders)
    e := echo.New()
    e.POST("/api/order/", h.Place, middleware.JWTAuth(secret))
    at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
    pid := uint64(5)
    orders.On("Place", mock.Anything, alice).Return([]model.Order{{
        ID: 1, UserID: 2, Username: "alice", ProductID: &pid, ProductName: "Mug",
        UnitPrice: model.MustMoney("4.50"), Quantity: 2, Status: model.StatusPending, OrderedAt: at,
    }}, nil).Once()
    orders.On("Place", mock.Anything, alice).Return(nil, svcErr(service.KindValidation, "Your cart is empty")).Once()

    rec := call(e, http.MethodPost, "/api/order/", "", bearerFor(t, alice))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.JSONEq(t, `[{"id":1,"user":"alice","product":"Mug","quantity":2,"ordered_at":"2026-01-02T03:04:05Z","status":"Pending"}]`, rec.Body.String())

    rec = call(e, http.MethodPost, "/api/order/", "", bearerFor(t, alice))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.JSONEq(t, `{"error":"Your cart is empty"}`, rec.Body.String())
}

func TestAdminUpdateOrder(t *testing.T) {
    orders := &mockOrders{}
    h := NewOrderHandler(orders)
    e := echo.New()
    e.PUT("/admin/orders/:id/", h.AdminUpdate, middleware.JWTAuth(secret))
    orders.On("UpdateStatus", mock.Anything, root, uint64(4), "Shipped").
        Return(nil, svcErr(service.KindConflict, "cannot change status from Pending to Shipped"))
    orders.On("UpdateStatus", mock.Anything, root, uint64(4), "Processed").
        Return(&model.Order{ID: 4, UserID: 2, ProductName: "Mug", UnitPrice: model.MustMoney("1"), Quantity: 1, Status: model.StatusProcessed}, nil)

    rec := call(e, http.MethodPut, "/admin/orders/4/", `{"status":"Shipped"}`, bearerFor(t, root))
    assert.Equal(t, http.StatusConflict, rec.Code)

    rec = call(e, http.MethodPut, "/admin/orders/4/", `{"status":"Processed"}`, bearerFor(t, root))
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"status":"Processed"`)
    assert.Contains(t, rec.Body.String(), `"unit_price":"1.00"`)

    rec = call(e, http.MethodPut, "/admin/orders/4/", `{}`, bearerFor(t, root))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDirectOrder(t *testing.T) {
    orders := &mockOrders{}
    e := echo.New()
    e.POST("/customer/orders/", NewOrderHandler(orders).CreateDirect, middleware.JWTAuth(secret))
    orders.On("CreateDirect", mock.Anything, alice, uint64(5), int64(2)).
        Return(&model.Order{ID: 9, UserID: 2, Quantity: 2, Status: model.StatusPending}, nil)

    rec := call(e, http.MethodPost, "/customer/orders/", `{"product":5,"quantity":2}`, bearerFor(t, alice))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Contains(t, rec.Body.String(), `"status":"Pending"`)

    rec = call(e, http.MethodPost, "/customer/orders/", `{"quantity":2}`, bearerFor(t, alice))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
    e := echo.New()
    e.GET("/healthz", Health(nil))
    rec := call(e, http.MethodGet, "/healthz", "", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())
}

func TestProductSearch(t *testing.T) {
    cat := &mockCatalog{}
    e := echo.New()
    e.GET("/api/products/search/", NewProductHandler(cat).Search)
    cat.On("Search", mock.Anything, service.SearchInput{Text: "mug", InStock: true, Page: 2, PageSize: 5}).
        Return(&service.SearchResult{Items: []model.Product{}, Total: 6, Page: 2, PageSize: 5}, nil)

    rec := call(e, http.MethodGet, "/api/products/search/?q=mug&in_stock=true&page=2&page_size=5", "", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.JSONEq(t, `{"items":[],"total":6,"page":2,"page_size":5}`, rec.Body.String())

    rec = call(e, http.MethodGet, "/api/products/search/?page=two", "", "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    cat.AssertNumberOfCalls(t, "Search", 1)
}
