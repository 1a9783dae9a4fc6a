package config // package config loads application configuration from environment variables

import (
    "fmt"
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env              string // application environment (e.g. "dev", "prod")
    Port             string // HTTP port to listen on
    LogLevel         string // zerolog level name (debug, info, warn, error)
    DBUser           string // database username
    DBPass           string // database password (optional)
    DBHost           string // database host address
    DBPort           string // database port number
    DBName           string // database name
    JWTSecret        string // secret used to sign JWTs
    AccessTTLMin     int    // access token time‑to‑live in minutes
    RefreshTTLDays   int    // refresh token time‑to‑live in days
    BcryptCost       int    // bcrypt cost for password hashing
    AllowAdminSignup bool   // accept role=admin on public registration
    MigrateOnStart   bool   // apply pending migrations before serving
}

// Load reads configuration values from environment variables.  Every
// missing or malformed required variable is collected so that one start-up
// attempt reports all of them.
func Load() (Config, error) {
    var l loader
    cfg := Config{
        Env:              l.must("APP_ENV"),
        Port:             l.must("APP_PORT"),
        LogLevel:         envStr("LOG_LEVEL", "info"),
        DBUser:           l.must("DB_USER"),
        DBPass:           os.Getenv("DB_PASS"), // empty allowed
        DBHost:           l.must("DB_HOST"),
        DBPort:           l.must("DB_PORT"),
        DBName:           l.must("DB_NAME"),
        JWTSecret:        l.must("JWT_SECRET"),
        AccessTTLMin:     l.mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:   l.mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:       l.mustInt("BCRYPT_COST"),
        AllowAdminSignup: envBool("ALLOW_ADMIN_SIGNUP", false),
        MigrateOnStart:   envBool("MIGRATE_ON_START", false),
    }
    if len(l.problems) > 0 {
        return Config{}, fmt.Errorf("config: %s", strings.Join(l.problems, "; "))
    }
    return cfg, nil
}

// loader accumulates problems found while reading required variables.
type loader struct {
    problems []string
}

// must retrieves the value of a required environment variable.
func (l *loader) must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        l.problems = append(l.problems, "missing required env var "+key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into a positive integer.
func (l *loader) mustInt(key string) int {
    s := l.must(key)
    if s == "" {
        return 0
    }
    n, err := strconv.Atoi(s)
    if err != nil || n <= 0 {
        l.problems = append(l.problems, fmt.Sprintf("invalid int for %s: %q", key, s))
        return 0
    }
    return n
}
