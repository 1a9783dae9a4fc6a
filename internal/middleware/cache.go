package middleware

import (
    "bytes"
    "context"
    "crypto/sha256"
    "encoding/json"
    "errors"
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "github.com/iliyamo/shop-api/internal/config"
)

// ResponseCache stores successful responses of read routes in Redis and
// replays them until they expire or the namespace is invalidated.  A nil
// *ResponseCache, or one without a client, caches nothing.
type ResponseCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
    log zerolog.Logger
}

// NewResponseCache returns a cache bound to rdb.  rdb may be nil.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log zerolog.Logger) *ResponseCache {
    if cfg.TTL <= 0 {
        cfg.TTL = 30 * time.Second
    }
    return &ResponseCache{cfg: cfg, rdb: rdb, log: log.With().Str("component", "cache").Logger()}
}

func (rc *ResponseCache) active() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

// cachedResponse is the stored form of a response.
type cachedResponse struct {
    Status      int    `json:"status"`
    ContentType string `json:"content_type"`
    Body        []byte `json:"body"`
}

// captureWriter tees the response body into buf, up to limit bytes.
// overflow is set once the body exceeds the limit.
type captureWriter struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    if !cw.overflow {
        if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
            cw.overflow = true
            cw.buf.Reset()
        } else {
            cw.buf.Write(b)
        }
    }
    return cw.ResponseWriter.Write(b)
}

// Middleware serves hits from Redis and stores 200 responses on a miss.
// Responses are tagged with X-Cache: HIT or MISS.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if m := c.Request().Method; !rc.active() || (m != http.MethodGet && m != http.MethodHead) {
                return next(c)
            }
            ctx := c.Request().Context()
            key := rc.key(c)

            if raw, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
                var cr cachedResponse
                if json.Unmarshal(raw, &cr) == nil {
                    c.Response().Header().Set("X-Cache", "HIT")
                    return c.Blob(cr.Status, cr.ContentType, cr.Body)
                }
            } else if !errors.Is(err, redis.Nil) {
                rc.log.Warn().Err(err).Msg("cache read failed")
            }

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: rc.cfg.MaxBodyBytes}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")
            if err := next(c); err != nil {
                return err
            }
            if cw.status != http.StatusOK || cw.overflow {
                return nil
            }
            payload, err := json.Marshal(cachedResponse{
                Status:      cw.status,
                ContentType: c.Response().Header().Get(echo.HeaderContentType),
                Body:        cw.buf.Bytes(),
            })
            if err != nil {
                return nil
            }
            // the request may already be cancelled by the time we store
            if err := rc.rdb.SetEx(context.WithoutCancel(ctx), key, payload, rc.cfg.TTL).Err(); err != nil {
                rc.log.Warn().Err(err).Msg("cache write failed")
            }
            return nil
        }
    }
}

// Invalidate deletes every key in the cache namespace.
func (rc *ResponseCache) Invalidate(ctx context.Context) error {
    if !rc.active() {
        return nil
    }
    var cursor uint64
    for {
        keys, next, err := rc.rdb.Scan(ctx, cursor, rc.cfg.Prefix+":*", 200).Result()
        if err != nil {
            return fmt.Errorf("scan cache keys: %w", err)
        }
        if len(keys) > 0 {
            if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
                return fmt.Errorf("delete cache keys: %w", err)
            }
        }
        if next == 0 {
            return nil
        }
        cursor = next
    }
}

// key hashes the method, route pattern and query string so keys stay
// short whatever the query.  Parameters are canonicalized first, so ?a=1&b=2
// and ?b=2&a=1 share an entry.
func (rc *ResponseCache) key(c echo.Context) string {
    sum := sha256.Sum256([]byte(c.Request().Method + " " + c.Path() + "?" + c.QueryParams().Encode()))
    return fmt.Sprintf("%s:%x", rc.cfg.Prefix, sum[:16])
}
