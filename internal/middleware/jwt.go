package middleware // middleware holds the Echo middleware shared by all route groups

import (
    "net/http" // HTTP status codes for responses
    "strings"  // header prefix handling

    "github.com/labstack/echo/v4" // Echo middleware signatures

    "github.com/iliyamo/shop-api/internal/utils" // access token parsing
)

// Context keys set by JWTAuth.
const (
    ctxUserID = "user_id" // uint64
    ctxRole   = "role"    // model.Role
)

// JWTAuth returns an Echo middleware that requires a valid Bearer access
// token.  On success the token's user id and role are stored in the
// context under "user_id" and "role"; handlers read them back through
// PrincipalFrom.  Missing or invalid tokens are answered with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            raw, ok := bearer(c.Request().Header.Get(echo.HeaderAuthorization))
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Authentication credentials were not provided."})
            }
            claims, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Token is invalid or expired"})
            }
            c.Set(ctxUserID, claims.UserID)
            c.Set(ctxRole, claims.Role)
            return next(c)
        }
    }
}

// bearer extracts the token from an Authorization header value.  The
// scheme is matched case-insensitively.
func bearer(header string) (string, bool) {
    scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
    if !found || !strings.EqualFold(scheme, "Bearer") {
        return "", false
    }
    token = strings.TrimSpace(token)
    return token, token != ""
}
