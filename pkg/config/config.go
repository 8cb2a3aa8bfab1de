package config

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/kislikjeka/handygo/pkg/money"
)

// Event bus backends
const (
	EventBusMemory   = "memory"
	EventBusRabbitMQ = "rabbitmq"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port           string   `envconfig:"PORT" default:"8080"`
	Env            string   `envconfig:"ENV" default:"development"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`

	// Database configuration
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	DBMaxConns      int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns      int32  `envconfig:"DB_MIN_CONNS" default:"2"`
	DBQueryLogLevel string `envconfig:"DB_QUERY_LOG_LEVEL" default:"none"`

	// Redis configuration
	RedisURL      string `envconfig:"REDIS_URL" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	// JWT configuration
	JWTSecret string `envconfig:"JWT_SECRET"`

	// Event bus configuration
	EventBus       string `envconfig:"EVENT_BUS" default:"memory"`
	RabbitURL      string `envconfig:"RABBIT_URL"`
	RabbitExchange string `envconfig:"RABBIT_EXCHANGE" default:"handygo.booking"`
	RabbitQueue    string `envconfig:"RABBIT_QUEUE" default:"handygo.notifications"`

	// Scheduler configuration
	BusinessTimezone      string        `envconfig:"BUSINESS_TIMEZONE" default:"Asia/Kuala_Lumpur"`
	CheckIntervalMinutes  int           `envconfig:"CHECK_INTERVAL_MINUTES" default:"10"`
	BookingExpiryHours    int           `envconfig:"BOOKING_EXPIRY_HOURS" default:"2"`
	SchedulerStartupDelay time.Duration `envconfig:"SCHEDULER_STARTUP_DELAY" default:"5s"`
	MissedStartGrace      time.Duration `envconfig:"MISSED_START_GRACE" default:"1h"`
	SchedulerEnabled      bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`

	// Wallet configuration
	DefaultFare   money.Amount  `envconfig:"DEFAULT_FARE" default:"15.00"`
	MinWithdrawal money.Amount  `envconfig:"MIN_WITHDRAWAL" default:"10.00"`
	FareCacheTTL  time.Duration `envconfig:"FARE_CACHE_TTL" default:"5m"`

	// Notification configuration
	ArrivalRadiusKm       float64       `envconfig:"ARRIVAL_RADIUS_KM" default:"0.1"`
	ArrivalCheckInterval  time.Duration `envconfig:"ARRIVAL_CHECK_INTERVAL" default:"1m"`
	NotificationCacheTTL  time.Duration `envconfig:"NOTIFICATION_CACHE_TTL" default:"1h"`
	NotificationTemplates string        `envconfig:"NOTIFICATION_TEMPLATES"`
	PushRelayURL          string        `envconfig:"PUSH_RELAY_URL"`
	PushRelayKey          string        `envconfig:"PUSH_RELAY_KEY"`

	location *time.Location
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate ensures all required configuration is present
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	switch c.EventBus {
	case EventBusMemory:
	case EventBusRabbitMQ:
		if c.RabbitURL == "" {
			return fmt.Errorf("RABBIT_URL is required when EVENT_BUS=rabbitmq")
		}
	default:
		return fmt.Errorf("EVENT_BUS must be %q or %q, got %q", EventBusMemory, EventBusRabbitMQ, c.EventBus)
	}

	loc, err := time.LoadLocation(c.BusinessTimezone)
	if err != nil {
		return fmt.Errorf("invalid BUSINESS_TIMEZONE %q: %w", c.BusinessTimezone, err)
	}
	c.location = loc

	if c.CheckIntervalMinutes <= 0 {
		return fmt.Errorf("CHECK_INTERVAL_MINUTES must be positive")
	}

	if c.BookingExpiryHours <= 0 {
		return fmt.Errorf("BOOKING_EXPIRY_HOURS must be positive")
	}

	if !c.DefaultFare.IsPositive() {
		return fmt.Errorf("DEFAULT_FARE must be positive")
	}

	if c.ArrivalRadiusKm <= 0 {
		return fmt.Errorf("ARRIVAL_RADIUS_KM must be positive")
	}

	return nil
}

// Location returns the business timezone, defaulting to UTC before Validate runs
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// CheckInterval returns the scheduler sweep interval
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalMinutes) * time.Minute
}

// ExpiryWindow returns how long a booking may stay Pending without a response
func (c *Config) ExpiryWindow() time.Duration {
	return time.Duration(c.BookingExpiryHours) * time.Hour
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
