package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// IdentityConfig holds identity-provider configuration. The provider issues
// session JWTs (verified against its JWKS), exposes a management API for
// reading users and writing profile metadata, and delivers signed lifecycle
// webhooks.
type IdentityConfig struct {
	Issuer        string // session token issuer, e.g. "https://accounts.example.com"
	APIURL        string // management API base URL
	APISecretKey  string // bearer key for the management API
	WebhookSecret string // shared secret for webhook signature verification
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // seconds
}

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Identity    IdentityConfig

	// SuperAdminEmails always resolve to the super_admin role, overriding any
	// stored role. Injected here so the list can rotate without a code change.
	SuperAdminEmails []string
}

// Load reads configuration from environment variables.
// A .env file is loaded first when present (local development convenience).
// It fails fast with clear errors for missing required values.
func Load() (*Config, error) {
	// Best-effort: running without a .env file is the normal deployed case.
	_ = godotenv.Load()

	var missing []string

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	env := os.Getenv("ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "staging" && env != "production" {
		return nil, fmt.Errorf("invalid ENV value %q: must be development, staging, or production", env)
	}

	// Database configuration (required)
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	// Identity provider configuration (required)
	issuer := os.Getenv("IDENTITY_ISSUER")
	if issuer == "" {
		missing = append(missing, "IDENTITY_ISSUER")
	}

	apiURL := os.Getenv("IDENTITY_API_URL")
	if apiURL == "" {
		missing = append(missing, "IDENTITY_API_URL")
	}

	apiSecretKey := os.Getenv("IDENTITY_API_SECRET_KEY")
	if apiSecretKey == "" {
		missing = append(missing, "IDENTITY_API_SECRET_KEY")
	}

	webhookSecret := os.Getenv("IDENTITY_WEBHOOK_SECRET")
	if webhookSecret == "" {
		missing = append(missing, "IDENTITY_WEBHOOK_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}

	if err := validateDatabaseURL(databaseURL); err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}

	if err := validateBaseURL("IDENTITY_ISSUER", issuer); err != nil {
		return nil, err
	}
	if err := validateBaseURL("IDENTITY_API_URL", apiURL); err != nil {
		return nil, err
	}

	dbConfig := DatabaseConfig{
		URL:             databaseURL,
		MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvInt("DB_CONN_MAX_LIFETIME", 300),
	}

	return &Config{
		Port:        port,
		Environment: env,
		Database:    dbConfig,
		Identity: IdentityConfig{
			Issuer:        strings.TrimSuffix(issuer, "/"),
			APIURL:        strings.TrimSuffix(apiURL, "/"),
			APISecretKey:  apiSecretKey,
			WebhookSecret: webhookSecret,
		},
		SuperAdminEmails: parseEmailList(os.Getenv("SUPER_ADMIN_EMAILS")),
	}, nil
}

// parseEmailList splits a comma-separated list of email addresses, trimming
// whitespace and lowering case. Empty entries are dropped.
func parseEmailList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var emails []string
	for _, part := range strings.Split(raw, ",") {
		email := strings.ToLower(strings.TrimSpace(part))
		if email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

// validateDatabaseURL ensures the database URL is a valid PostgreSQL connection string.
func validateDatabaseURL(dbURL string) error {
	parsed, err := url.Parse(dbURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}

	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return fmt.Errorf("URL must use postgres or postgresql scheme, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}

	return nil
}

// validateBaseURL ensures a provider URL is absolute and uses http(s).
func validateBaseURL(name, raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: malformed URL: %w", name, err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return fmt.Errorf("invalid %s: must use http or https scheme, got %q", name, parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid %s: must include a host", name)
	}
	return nil
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}
