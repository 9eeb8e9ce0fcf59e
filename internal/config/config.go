package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

// Config holds the runtime settings of the server, read from the environment
// (optionally populated from .env by godotenv in main).
type Config struct {
	Port        string
	DatabaseURL string
	SeedPath    string

	// The distance cache gets its own pool: its lookups run while a plan
	// transaction holds a connection of the main pool.
	DBMaxConns         int
	DistanceDBMaxConns int
	RequestTimeout     time.Duration

	ORSAPIKey          string
	ORSBaseURL         string
	RoutingTimeout     time.Duration
	RoutingMaxAttempts int
	RoutingRatePerSec  float64

	RedisAddr string
	RedisTTL  time.Duration

	JWTSecret   string
	Location    *time.Location
	PageLimit   int
	LogLevel    string
	LogFormat   string
	CORSOrigins []string
}

// Get returns the environment value for key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        Get("PORT", "8080"),
		DatabaseURL: Get("DATABASE_URL", ""),
		SeedPath:    Get("SEED_PATH", "data/seeds/catalog.json"),
		ORSAPIKey:   Get("ORS_API_KEY", ""),
		ORSBaseURL:  Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		RedisAddr:   Get("REDIS_ADDR", ""),
		JWTSecret:   Get("JWT_SECRET", ""),
		LogLevel:    Get("LOG_LEVEL", "info"),
		LogFormat:   Get("LOG_FORMAT", "text"),
	}

	if cfg.ORSAPIKey == "" {
		return nil, errors.New("load config: ORS_API_KEY is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("load config: JWT_SECRET is required")
	}

	var err error
	if cfg.RoutingTimeout, err = duration("ROUTING_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.RedisTTL, err = duration("REDIS_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.RoutingMaxAttempts, err = positiveInt("ROUTING_MAX_ATTEMPTS", 1); err != nil {
		return nil, err
	}
	if cfg.PageLimit, err = positiveInt("PAGE_LIMIT", 10); err != nil {
		return nil, err
	}
	if cfg.DBMaxConns, err = positiveInt("DB_MAX_CONNS", 10); err != nil {
		return nil, err
	}
	if cfg.DistanceDBMaxConns, err = positiveInt("DISTANCE_DB_MAX_CONNS", 4); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = duration("REQUEST_TIMEOUT", 90*time.Second); err != nil {
		return nil, err
	}

	rate, err := strconv.ParseFloat(Get("ROUTING_RATE_PER_SEC", "5"), 64)
	if err != nil || rate <= 0 {
		return nil, fmt.Errorf("load config: ROUTING_RATE_PER_SEC must be a positive number")
	}
	cfg.RoutingRatePerSec = rate

	tz := Get("PLANNER_TIMEZONE", "Asia/Ho_Chi_Minh")
	if cfg.Location, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("load config: PLANNER_TIMEZONE %q: %w", tz, err)
	}

	for _, o := range strings.Split(Get("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg, nil
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("load config: %s must be a positive duration, got %q", key, v)
	}
	return d, nil
}

func positiveInt(key string, fallback int) (int, error) {
	v := Get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("load config: %s must be a positive integer, got %q", key, v)
	}
	return n, nil
}
