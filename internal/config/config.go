package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/backend-importa/internal/allocation"
	"github.com/noah-isme/backend-importa/internal/money"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	HomeCurrency money.Currency
	// AllocDefaultMethod applies to expense types without an explicit rule.
	AllocDefaultMethod allocation.Method
	// AllocMethods seeds per-type rules from the environment, e.g.
	// "freight=by_weight,customs=by_fob_value". Database rules take precedence
	// once set.
	AllocMethods map[string]allocation.Method

	ReportCacheTTL   time.Duration
	OverviewCacheTTL time.Duration
	PortfolioTopN    int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		HomeCurrency:       money.Currency(valueOrDefault(strings.ToUpper(strings.TrimSpace(k.String("HOME_CURRENCY"))), string(money.DOP))),
		ReportCacheTTL:     parseDuration(k.String("REPORT_CACHE_TTL"), "5m"),
		OverviewCacheTTL:   parseDuration(k.String("OVERVIEW_CACHE_TTL"), "10m"),
		PortfolioTopN:      parseInt(k.String("PORTFOLIO_TOP_N"), 5),
	}

	method, err := parseMethod(k.String("ALLOC_DEFAULT_METHOD"), allocation.MethodByUnits)
	if err != nil {
		return nil, err
	}
	cfg.AllocDefaultMethod = method

	cfg.AllocMethods, err = parseMethodMap(k.String("ALLOC_METHODS"))
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func parseMethod(value string, fallback allocation.Method) (allocation.Method, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	method, err := allocation.ParseMethod(value)
	if err != nil {
		return "", fmt.Errorf("ALLOC_DEFAULT_METHOD: %w", err)
	}
	return method, nil
}

func parseMethodMap(value string) (map[string]allocation.Method, error) {
	out := map[string]allocation.Method{}
	for _, pair := range splitAndTrim(value) {
		name, methodName, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("ALLOC_METHODS: %q is not type=method", pair)
		}
		method, err := allocation.ParseMethod(methodName)
		if err != nil {
			return nil, fmt.Errorf("ALLOC_METHODS: %w", err)
		}
		out[strings.TrimSpace(name)] = method
	}
	return out, nil
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	var n int
	if _, err := fmt.Sscanf(trimmed, "%d", &n); err != nil || n <= 0 {
		return fallback
	}
	return n
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
