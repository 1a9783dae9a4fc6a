package middleware

// identity.go exposes the caller identity established by JWTAuth to the
// handlers and to the request log.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shop-api/internal/model"
    "github.com/iliyamo/shop-api/internal/service"
)

// PrincipalFrom returns the authenticated caller, or the zero Principal
// when JWTAuth did not run or rejected the request.
func PrincipalFrom(c echo.Context) service.Principal {
    id, _ := c.Get(ctxUserID).(uint64)
    role, _ := c.Get(ctxRole).(model.Role)
    return service.Principal{UserID: id, Role: role}
}

// userID returns the caller's id as a string, or "guest".
func userID(c echo.Context) string {
    if id, ok := c.Get(ctxUserID).(uint64); ok && id != 0 {
        return strconv.FormatUint(id, 10)
    }
    return "guest"
}
