package middleware

import (
    "fmt"
    "net/http"
    "runtime/debug"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// RequestLogger assigns every request an id (reusing a client supplied
// X-Request-ID), attaches a request-scoped logger to the request context
// for zerolog.Ctx, and writes one access log line per request.  Panics in
// later handlers are recovered and answered with a generic 500.
func RequestLogger(base zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) (err error) {
            start := time.Now()
            req := c.Request()

            id := req.Header.Get(HeaderRequestID)
            if id == "" || len(id) > 128 {
                id = uuid.NewString()
            }
            c.Response().Header().Set(HeaderRequestID, id)

            log := base.With().Str("request_id", id).Logger()
            c.SetRequest(req.WithContext(log.WithContext(req.Context())))

            defer func() {
                if r := recover(); r != nil {
                    log.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("handler panicked")
                    if !c.Response().Committed {
                        err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
                    }
                }
                status := c.Response().Status
                ev := log.Info()
                switch {
                case status >= 500:
                    ev = log.Error()
                case status >= 400:
                    ev = log.Warn()
                }
                ev.Str("method", req.Method).
                    Str("route", c.Path()).
                    Str("uri", req.RequestURI).
                    Int("status", status).
                    Dur("latency", time.Since(start)).
                    Str("user_id", userID(c)).
                    Str("ip", c.RealIP()).
                    Msg("request")
            }()

            if err = next(c); err != nil {
                // let Echo write the error now so the logged status is final
                c.Error(err)
                err = nil
            }
            return err
        }
    }
}
