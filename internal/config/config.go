package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string

	DB        DatabaseConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
	Search    SearchConfig
	Affiliate AffiliateConfig
	Worker    WorkerConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// CatalogConfig controls the paged catalog loader.
type CatalogConfig struct {
	PageSize     int
	CacheTTL     time.Duration
	FetchRetries int
}

// SearchConfig controls the marketplace search aggregator. The two minimum
// query lengths differ on purpose: the submission form accepts shorter
// queries than the top-level search box.
type SearchConfig struct {
	MinQueryLen           int
	SubmissionMinQueryLen int
	LookupTimeout         time.Duration
	Endpoint              string
	LookupRatePerSecond   float64
}

// AffiliateConfig maps marketplace names to affiliate tracking tags.
type AffiliateConfig struct {
	Tags map[string]string
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	DealSyncInterval   time.Duration
	ClickFlushInterval time.Duration
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Catalog loader
	cfg.Catalog = CatalogConfig{
		PageSize:     getEnvInt("CATALOG_PAGE_SIZE", 20),
		FetchRetries: getEnvInt("CATALOG_FETCH_RETRIES", 2),
	}

	// Search aggregator
	cfg.Search = SearchConfig{
		MinQueryLen:           getEnvInt("SEARCH_MIN_QUERY_LEN", 3),
		SubmissionMinQueryLen: getEnvInt("SUBMISSION_MIN_QUERY_LEN", 2),
		Endpoint:              getEnv("MARKETPLACE_ENDPOINT", "https://api.trove.deals/lookup"),
		LookupRatePerSecond:   getEnvFloat("MARKETPLACE_RATE_PER_SECOND", 5),
	}

	// Affiliate tags: AFFILIATE_TAGS=amazon:trove-21,ebay:trove-e1
	cfg.Affiliate = AffiliateConfig{Tags: parseTagList(getEnv("AFFILIATE_TAGS", ""))}

	// Durations
	var err error
	if cfg.Catalog.CacheTTL, err = parseDurationEnv("CATALOG_CACHE_TTL", "5m"); err != nil {
		return nil, fmt.Errorf("invalid CATALOG_CACHE_TTL: %w", err)
	}
	if cfg.Search.LookupTimeout, err = parseDurationEnv("MARKETPLACE_LOOKUP_TIMEOUT", "10s"); err != nil {
		return nil, fmt.Errorf("invalid MARKETPLACE_LOOKUP_TIMEOUT: %w", err)
	}
	if cfg.Worker.DealSyncInterval, err = parseDurationEnv("DEAL_SYNC_INTERVAL", "30m"); err != nil {
		return nil, fmt.Errorf("invalid DEAL_SYNC_INTERVAL: %w", err)
	}
	if cfg.Worker.ClickFlushInterval, err = parseDurationEnv("CLICK_FLUSH_INTERVAL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid CLICK_FLUSH_INTERVAL: %w", err)
	}

	// Basic validation for DB parameters — keeps messages concise and helpful.
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for admin authentication")
	}

	return cfg, nil
}

// parseTagList parses "marketplace:tag" pairs separated by commas.
func parseTagList(raw string) map[string]string {
	tags := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		name, tag, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || name == "" || tag == "" {
			continue
		}
		tags[strings.ToLower(name)] = tag
	}
	return tags
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// getEnvFloat returns the value of an environment variable as a float or a default if empty/invalid.
func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}
