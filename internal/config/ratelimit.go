package config

import "time"

// Bucket sizes one token bucket: Capacity requests may burst, then
// RefillTokens come back every RefillInterval.
type Bucket struct {
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
}

// RateLimitConfig configures the Redis token buckets applied to every
// route.  Credential endpoints (register, login, token) draw from the
// separate, smaller Auth bucket so password guessing is throttled harder
// than browsing.
type RateLimitConfig struct {
    Enabled     bool
    Default     Bucket
    Auth        Bucket
    TTL         time.Duration // idle buckets expire after this long
    KeyStrategy string        // ip, route or ip_route
    Prefix      string
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  The limiter runs
// before authentication, so buckets are keyed by client address and
// route only.
func LoadRateLimitConfig() RateLimitConfig {
    cfg := RateLimitConfig{
        Enabled: envBool("RATE_LIMIT_ENABLED", true),
        Default: Bucket{
            Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
            RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
            RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        },
        Auth: Bucket{
            Capacity:       envInt("RATE_LIMIT_AUTH_CAPACITY", 10),
            RefillTokens:   1,
            RefillInterval: envDur("RATE_LIMIT_AUTH_REFILL_INTERVAL", 6*time.Second),
        },
        TTL:         envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
        Prefix:      envStr("RATE_LIMIT_PREFIX", "shop:rl"),
    }
    return cfg.Normalized()
}

// Normalized clamps values that would make a bucket unusable.  TTL is
// raised so that an idle bucket outlives a full refill.
func (c RateLimitConfig) Normalized() RateLimitConfig {
    c.Default = c.Default.normalized()
    c.Auth = c.Auth.normalized()
    longest := max(c.Default.fullRefill(), c.Auth.fullRefill())
    if c.TTL < longest {
        c.TTL = longest
    }
    return c
}

func (b Bucket) normalized() Bucket {
    b.Capacity = max(b.Capacity, 1)
    b.RefillTokens = max(b.RefillTokens, 1)
    if b.RefillInterval <= 0 {
        b.RefillInterval = time.Second
    }
    return b
}

// fullRefill is how long an empty bucket takes to fill up again.
func (b Bucket) fullRefill() time.Duration {
    steps := (b.Capacity + b.RefillTokens - 1) / b.RefillTokens
    return time.Duration(steps) * b.RefillInterval
}
