package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	SMTP     SMTPConfig
	Stripe   StripeConfig
	Maps     MapsConfig
	NATS     NATSConfig
	Engine   EngineConfig
	Sentry   SentryConfig
	Tracing  TracingConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxConns      int
	MinConns      int
	MigrationsDir string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret     string
	Expiration int // in hours
}

// SMTPConfig holds outbound email configuration
type SMTPConfig struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	FromName  string
	Enabled   bool
}

// StripeConfig holds payment settlement configuration
type StripeConfig struct {
	APIKey         string
	Currency       string
	ReceiptBaseURL string
}

// MapsConfig holds external route provider configuration
type MapsConfig struct {
	GoogleAPIKey string
	BaseURL      string
}

// NATSConfig holds event bus configuration
type NATSConfig struct {
	URL     string
	Stream  string
	Enabled bool
}

// SentryConfig holds error tracking configuration
type SentryConfig struct {
	DSN     string
	Enabled bool
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Enabled      bool
	OTLPEndpoint string
}

// EngineConfig hoists the ride engine's operating constants into one
// immutable structure passed in at construction: commission retained by the
// platform, driver search radius, and per-vehicle-type pricing tables.
type EngineConfig struct {
	CommissionRate     float64
	SearchRadiusMeters float64
	DefaultVehicleType string
	DefaultETASeconds  int
	BasePrices         map[string]float64 // per vehicle type
	PerKmRates         map[string]float64
	PerMinuteRates     map[string]float64
}

// RatesFor returns the pricing rates for a vehicle type, falling back to the
// default ("standard") rates for unknown types.
func (e *EngineConfig) RatesFor(vehicleType string) (base, perKm, perMinute float64) {
	if _, ok := e.BasePrices[vehicleType]; !ok {
		vehicleType = e.DefaultVehicleType
	}
	return e.BasePrices[vehicleType], e.PerKmRates[vehicleType], e.PerMinuteRates[vehicleType]
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:          getEnv("DB_HOST", "localhost"),
			Port:          getEnv("DB_PORT", "5432"),
			User:          getEnv("DB_USER", "postgres"),
			Password:      getEnv("DB_PASSWORD", "postgres"),
			DBName:        getEnv("DB_NAME", "rideline"),
			SSLMode:       getEnv("DB_SSLMODE", "disable"),
			MaxConns:      getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:      getEnvAsInt("DB_MIN_CONNS", 5),
			MigrationsDir: getEnv("DB_MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			Expiration: getEnvAsInt("JWT_EXPIRATION", 24),
		},
		SMTP: SMTPConfig{
			Host:      getEnv("SMTP_HOST", "localhost"),
			Port:      getEnv("SMTP_PORT", "587"),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("SMTP_FROM_EMAIL", "no-reply@rideline.app"),
			FromName:  getEnv("SMTP_FROM_NAME", "Rideline"),
			Enabled:   getEnvAsBool("SMTP_ENABLED", false),
		},
		Stripe: StripeConfig{
			APIKey:         getEnv("STRIPE_API_KEY", ""),
			Currency:       getEnv("STRIPE_CURRENCY", "usd"),
			ReceiptBaseURL: getEnv("RECEIPT_BASE_URL", "https://receipts.rideline.app"),
		},
		Maps: MapsConfig{
			GoogleAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
			BaseURL:      getEnv("GOOGLE_MAPS_BASE_URL", "https://maps.googleapis.com"),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Stream:  getEnv("NATS_STREAM", "RIDELINE"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		Sentry: SentryConfig{
			DSN:     getEnv("SENTRY_DSN", ""),
			Enabled: getEnvAsBool("SENTRY_ENABLED", false),
		},
		Tracing: TracingConfig{
			Enabled:      getEnvAsBool("OTEL_ENABLED", false),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
		Engine: DefaultEngineConfig(),
	}

	cfg.Engine.CommissionRate = getEnvAsFloat("ENGINE_COMMISSION_RATE", cfg.Engine.CommissionRate)
	cfg.Engine.SearchRadiusMeters = getEnvAsFloat("ENGINE_SEARCH_RADIUS_METERS", cfg.Engine.SearchRadiusMeters)

	return cfg, nil
}

// DefaultEngineConfig returns the production default engine constants.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CommissionRate:     0.20,
		SearchRadiusMeters: 5000,
		DefaultVehicleType: "standard",
		DefaultETASeconds:  600,
		BasePrices: map[string]float64{
			"standard": 2.50,
			"comfort":  3.50,
			"premium":  5.00,
			"van":      4.00,
		},
		PerKmRates: map[string]float64{
			"standard": 1.20,
			"comfort":  1.60,
			"premium":  2.40,
			"van":      1.80,
		},
		PerMinuteRates: map[string]float64{
			"standard": 0.25,
			"comfort":  0.35,
			"premium":  0.50,
			"van":      0.40,
		},
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// CORSOriginList splits the configured origins into a slice
func (c *ServerConfig) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
