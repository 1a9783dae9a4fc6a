package handler // handler holds the HTTP handlers; each one decodes, calls a service and renders

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/shop-api/internal/service"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 5 * time.Second

const maxBodyBytes = 1 << 20

// errExpectedObject is returned for bodies that are valid JSON but not an
// object (an array, a string, ...).
var errExpectedObject = &service.Error{Kind: service.KindValidation, Message: "Expected a JSON object."}

// withTimeout derives the store context for a request.
func withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// statusOf maps a service error kind to an HTTP status.
func statusOf(k service.Kind) int {
    switch k {
    case service.KindValidation:
        return http.StatusBadRequest
    case service.KindUnauthenticated:
        return http.StatusUnauthorized
    case service.KindForbidden:
        return http.StatusForbidden
    case service.KindNotFound:
        return http.StatusNotFound
    case service.KindConflict:
        return http.StatusConflict
    default:
        return http.StatusInternalServerError
    }
}

// writeError renders err as {"error": message}.  Internal errors are
// logged with the request logger and never echoed to the client.
func writeError(c echo.Context, err error) error {
    var se *service.Error
    if !errors.As(err, &se) || se.Kind == service.KindInternal {
        zerolog.Ctx(c.Request().Context()).Error().Err(err).
            Str("route", c.Path()).Msg("request failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
    return c.JSON(statusOf(se.Kind), echo.Map{"error": se.Message})
}

// badRequest renders a 400 with msg.
func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

// decodeObject reads the request body into dst.  The body must be a JSON
// object; an empty body decodes as {}.
func decodeObject(c echo.Context, dst any) error {
    body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
    if err != nil {
        return &service.Error{Kind: service.KindValidation, Message: "could not read request body"}
    }
    body = bytes.TrimSpace(body)
    if len(body) == 0 {
        return nil
    }
    if body[0] != '{' {
        if json.Valid(body) {
            return errExpectedObject
        }
        return &service.Error{Kind: service.KindValidation, Message: "malformed JSON body"}
    }
    if err := json.Unmarshal(body, dst); err != nil {
        return &service.Error{Kind: service.KindValidation, Message: "malformed JSON body"}
    }
    return nil
}

// pathID parses the numeric :id route parameter.
func pathID(c echo.Context) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    return id, err == nil && id > 0
}

// intField parses a JSON value that should hold an integer.  Numbers and
// numeric strings are accepted; anything else, including fractions, is
// rejected.
func intField(raw json.RawMessage) (int64, bool) {
    s := strings.TrimSpace(string(raw))
    if uq, err := strconv.Unquote(s); err == nil {
        s = strings.TrimSpace(uq)
    }
    n, err := strconv.ParseInt(s, 10, 64)
    return n, err == nil
}

// idField is intField restricted to positive ids.
func idField(raw json.RawMessage) (uint64, bool) {
    n, ok := intField(raw)
    if !ok || n <= 0 {
        return 0, false
    }
    return uint64(n), true
}

// present reports whether a JSON field was supplied with a non-null value.
func present(raw json.RawMessage) bool {
    return len(raw) > 0 && string(raw) != "null"
}
