package config

import (
	"fmt"
	"os"
	"strconv"
)

// Ledger backend names.
const (
	LedgerBackendMemory   = "memory"
	LedgerBackendPostgres = "postgres"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig
	Logger      LoggerConfig
	Signing     SigningConfig
	Payment     PaymentConfig
	Catalog     CatalogConfig
	Search      SearchConfig
	Fulfillment FulfillmentConfig
	Ledger      LedgerConfig
	Database    DatabaseConfig
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// SigningConfig holds the shared offer-signing secret. The secret is loaded
// once at startup; requests never observe a missing secret.
type SigningConfig struct {
	Secret string
}

// PaymentConfig holds the x402 payment routing configuration: recipient
// address, settlement asset and network.
type PaymentConfig struct {
	PayTo   string
	Asset   string
	Network string
}

// CatalogConfig holds the catalog source configuration. When S3 is enabled
// the gateway loads the catalog object first and falls back to the local
// file.
type CatalogConfig struct {
	Path      string
	S3Enabled bool
	S3Bucket  string
	S3Region  string
	S3Key     string
}

// SearchConfig holds the upstream search collaborator configuration.
type SearchConfig struct {
	BaseURL        string
	APIKey         string
	Source         string
	TimeoutSeconds int
}

// FulfillmentConfig holds the downstream order collaborator configuration.
type FulfillmentConfig struct {
	BaseURL        string
	APIKey         string
	Recipient      string
	TimeoutSeconds int
}

// LedgerConfig holds idempotency ledger configuration.
type LedgerConfig struct {
	Backend             string // "memory" or "postgres"
	RetentionSeconds    int
	ReapIntervalSeconds int
}

// DatabaseConfig holds database-related configuration, used when the ledger
// backend is postgres.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	MaxConnections  int
	MinConnections  int
	MaxConnLifetime int // seconds
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Signing: SigningConfig{
			Secret: getEnv("OFFER_SIGNING_SECRET", ""),
		},
		Payment: PaymentConfig{
			PayTo:   getEnv("PAYMENT_PAY_TO", ""),
			Asset:   getEnv("PAYMENT_ASSET", ""),
			Network: getEnv("PAYMENT_NETWORK", "base"),
		},
		Catalog: CatalogConfig{
			Path:      getEnv("CATALOG_PATH", "data/catalog.json"),
			S3Enabled: getEnvAsBool("CATALOG_S3_ENABLED", false),
			S3Bucket:  getEnv("CATALOG_S3_BUCKET", ""),
			S3Region:  getEnv("CATALOG_S3_REGION", "us-east-1"),
			S3Key:     getEnv("CATALOG_S3_KEY", "catalog.json"),
		},
		Search: SearchConfig{
			BaseURL:        getEnv("SEARCH_BASE_URL", "http://localhost:9100"),
			APIKey:         getEnv("SEARCH_API_KEY", ""),
			Source:         getEnv("SEARCH_SOURCE", "amazon"),
			TimeoutSeconds: getEnvAsInt("SEARCH_TIMEOUT_SECONDS", 10),
		},
		Fulfillment: FulfillmentConfig{
			BaseURL:        getEnv("FULFILLMENT_BASE_URL", "http://localhost:9200"),
			APIKey:         getEnv("FULFILLMENT_API_KEY", ""),
			Recipient:      getEnv("FULFILLMENT_RECIPIENT", ""),
			TimeoutSeconds: getEnvAsInt("FULFILLMENT_TIMEOUT_SECONDS", 30),
		},
		Ledger: LedgerConfig{
			Backend:             getEnv("LEDGER_BACKEND", LedgerBackendMemory),
			RetentionSeconds:    getEnvAsInt("LEDGER_RETENTION_SECONDS", 3600),
			ReapIntervalSeconds: getEnvAsInt("LEDGER_REAP_INTERVAL_SECONDS", 1800),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Database:        getEnv("DB_NAME", "shopgate"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 25),
			MinConnections:  getEnvAsInt("DB_MIN_CONNECTIONS", 5),
			MaxConnLifetime: getEnvAsInt("DB_MAX_CONN_LIFETIME", 300),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration. A validation error here is the only
// error class allowed to stop the process, and only at startup: the gateway
// must not serve requests with partial configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Signing.Secret == "" {
		return fmt.Errorf("offer signing secret is required")
	}

	if c.Payment.PayTo == "" {
		return fmt.Errorf("payment recipient address is required")
	}

	if c.Payment.Asset == "" {
		return fmt.Errorf("payment asset is required")
	}

	if c.Payment.Network == "" {
		return fmt.Errorf("payment network is required")
	}

	if c.Catalog.S3Enabled {
		if c.Catalog.S3Bucket == "" {
			return fmt.Errorf("catalog S3 bucket is required when catalog S3 is enabled")
		}

		if c.Catalog.S3Region == "" {
			return fmt.Errorf("catalog S3 region is required when catalog S3 is enabled")
		}

		if c.Catalog.S3Key == "" {
			return fmt.Errorf("catalog S3 key is required when catalog S3 is enabled")
		}
	}

	if c.Ledger.Backend != LedgerBackendMemory && c.Ledger.Backend != LedgerBackendPostgres {
		return fmt.Errorf("invalid ledger backend: %s (must be memory or postgres)", c.Ledger.Backend)
	}

	if c.Ledger.RetentionSeconds < 1 {
		return fmt.Errorf("ledger retention must be at least 1 second")
	}

	if c.Ledger.ReapIntervalSeconds < 1 || c.Ledger.ReapIntervalSeconds > c.Ledger.RetentionSeconds {
		return fmt.Errorf("ledger reap interval must be between 1 second and the retention window")
	}

	if c.Ledger.Backend == LedgerBackendPostgres {
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required for the postgres ledger")
		}

		if c.Database.Port < 1 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}

		if c.Database.User == "" {
			return fmt.Errorf("database user is required for the postgres ledger")
		}

		if c.Database.Database == "" {
			return fmt.Errorf("database name is required for the postgres ledger")
		}

		if c.Database.MinConnections < 1 || c.Database.MinConnections > c.Database.MaxConnections {
			return fmt.Errorf("database connection bounds are invalid")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// ConnectionString returns the PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Database,
	)
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value.
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
