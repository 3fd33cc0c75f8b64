package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string
	GeoIPDBPath string

	// Identity provider used for independent plan resolution.
	IdentityAPIURL     string
	IdentityAPIKey     string
	PlanResolveTimeout time.Duration

	// QuotaTimezone is the single reference timezone for day boundaries and
	// reset times. IANA name, e.g. "UTC" or "Asia/Jakarta".
	QuotaTimezone       string
	PlanOverrideEnabled bool
	RefreshInterval     time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
	AllowedOrigins   []string
	DBMaxConns       int32
	DBMinConns       int32
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		GeoIPDBPath:         os.Getenv("GEOIP_DB_PATH"),
		IdentityAPIURL:      getEnv("IDENTITY_API_URL", "https://api.clerk.com/v1"),
		IdentityAPIKey:      os.Getenv("IDENTITY_API_KEY"),
		PlanResolveTimeout:  time.Second * time.Duration(getEnvInt("PLAN_RESOLVE_TIMEOUT_SECONDS", 5)),
		QuotaTimezone:       getEnv("QUOTA_TIMEZONE", "UTC"),
		PlanOverrideEnabled: getEnvBool("PLAN_OVERRIDE_ENABLED", true),
		RefreshInterval:     time.Second * time.Duration(getEnvInt("USAGE_REFRESH_INTERVAL_SECONDS", 300)),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		AllowedOrigins:      splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		DBMaxConns:          int32(getEnvInt("DB_MAX_CONNS", 10)),
		DBMinConns:          int32(getEnvInt("DB_MIN_CONNS", 1)),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if _, err := time.LoadLocation(cfg.QuotaTimezone); err != nil {
		return nil, fmt.Errorf("QUOTA_TIMEZONE %q is invalid: %w", cfg.QuotaTimezone, err)
	}

	return cfg, nil
}

// Location resolves the configured reference timezone. LoadConfig has already
// validated the name.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.QuotaTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitCSV(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
