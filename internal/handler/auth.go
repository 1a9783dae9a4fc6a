package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shop-api/internal/middleware"
    "github.com/iliyamo/shop-api/internal/model"
    "github.com/iliyamo/shop-api/internal/service"
)

// AuthAPI is the part of the auth service the handlers use.
type AuthAPI interface {
    Register(ctx context.Context, in service.RegisterInput) (*model.User, error)
    Login(ctx context.Context, username, password string) (*model.User, service.TokenPair, error)
    Refresh(ctx context.Context, raw string) (string, error)
    Logout(ctx context.Context, raw string) error
    WhoAmI(ctx context.Context, p service.Principal) (*model.User, error)
}

// AuthHandler serves registration, login and token endpoints.
type AuthHandler struct {
    Auth AuthAPI
}

func NewAuthHandler(auth AuthAPI) *AuthHandler { return &AuthHandler{Auth: auth} }

// ----- DTOs -----

type registerReq struct {
    Username  string  `json:"username"`
    Password  string  `json:"password"`
    Email     string  `json:"email"`
    FirstName string  `json:"first_name"`
    LastName  string  `json:"last_name"`
    Phone     *string `json:"phone"`
    Address   *string `json:"address"`
    Role      string  `json:"role"`
}

type credentialsReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

type refreshReq struct {
    Refresh string `json:"refresh"`
}

type loginResp struct {
    User    model.Profile `json:"user"`
    Access  string        `json:"access"`
    Refresh string        `json:"refresh"`
}

// Register handles POST /api/register/.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := decodeObject(c, &req); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    u, err := h.Auth.Register(ctx, service.RegisterInput{
        Username:  req.Username,
        Password:  req.Password,
        Email:     req.Email,
        FirstName: req.FirstName,
        LastName:  req.LastName,
        Phone:     req.Phone,
        Address:   req.Address,
        Role:      req.Role,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, u.Profile())
}

// Login handles POST /api/login/: credentials in, profile and token pair out.
func (h *AuthHandler) Login(c echo.Context) error {
    u, pair, err := h.login(c)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, loginResp{User: u.Profile(), Access: pair.Access, Refresh: pair.Refresh})
}

// Token handles POST /api/token/: like Login but returns only the pair.
func (h *AuthHandler) Token(c echo.Context) error {
    _, pair, err := h.login(c)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) login(c echo.Context) (*model.User, service.TokenPair, error) {
    var req credentialsReq
    if err := decodeObject(c, &req); err != nil {
        return nil, service.TokenPair{}, err
    }
    if strings.TrimSpace(req.Username) == "" || req.Password == "" {
        return nil, service.TokenPair{}, &service.Error{Kind: service.KindValidation, Message: "username and password are required"}
    }
    ctx, cancel := withTimeout(c)
    defer cancel()
    return h.Auth.Login(ctx, req.Username, req.Password)
}

// RefreshToken handles POST /api/token/refresh/.  The refresh token is
// not rotated.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
    var req refreshReq
    if err := decodeObject(c, &req); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    access, err := h.Auth.Refresh(ctx, req.Refresh)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"access": access})
}

// Logout handles POST /api/logout/ by revoking the given refresh token.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    if err := decodeObject(c, &req); err != nil {
        return writeError(c, err)
    }
    ctx, cancel := withTimeout(c)
    defer cancel()

    if err := h.Auth.Logout(ctx, req.Refresh); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// Dashboard handles GET /api/dashboard/ and returns the caller's profile.
func (h *AuthHandler) Dashboard(c echo.Context) error {
    ctx, cancel := withTimeout(c)
    defer cancel()

    u, err := h.Auth.WhoAmI(ctx, middleware.PrincipalFrom(c))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "You are authenticated", "user": u.Profile()})
}
