package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/shop-api/internal/model"
)

// RequireRole returns a middleware that lets the request through only if
// the role stored by JWTAuth is one of roles.  It must run after JWTAuth;
// a request without an identity is answered with 401, a request with the
// wrong role with 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
    allowed := make(map[model.Role]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            role, ok := c.Get(ctxRole).(model.Role)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication credentials were not provided."})
            }
            if !allowed[role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "You do not have permission to perform this action."})
            }
            return next(c)
        }
    }
}
