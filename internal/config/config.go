package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NewRelic   NewRelicConfig
	Handoff    HandoffConfig
	Settlement SettlementConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// HandoffConfig holds the handoff verification policy.
type HandoffConfig struct {
	// RadiusMeters is the maximum guest-to-vehicle distance that still
	// counts as an in-person handoff.
	RadiusMeters float64

	// ExpiryWindow is how long a verified session waits for host
	// confirmation before expiring (non-instant bookings).
	ExpiryWindow time.Duration

	// FallbackWindow is how long an instant-book session waits before the
	// server completes the handoff autonomously.
	FallbackWindow time.Duration

	// PollInterval is the fixed client polling interval.
	PollInterval time.Duration

	// BypassEnabled gates the location-bypass escape valve. Never enable
	// in production.
	BypassEnabled bool
}

// SettlementConfig holds the trip-end charge policy and the statutory notice
// attached to submissions.
type SettlementConfig struct {
	DailyMileageAllowance int
	PerMileRate           float64
	FuelShortfallFee      float64
	LateHourlyRate        float64
	LateGrace             time.Duration
	MinimumDamagePhotos   int

	Statutes            []string
	ItemizationRequired bool
	DisputeWindowDays   int
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "driveshare"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "driveshare-trip-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Handoff: HandoffConfig{
			RadiusMeters:   getFloatEnv("HANDOFF_RADIUS_METERS", 50),
			ExpiryWindow:   getDurationEnv("HANDOFF_EXPIRY_WINDOW", 30*time.Minute),
			FallbackWindow: getDurationEnv("HANDOFF_FALLBACK_WINDOW", 10*time.Minute),
			PollInterval:   getDurationEnv("HANDOFF_POLL_INTERVAL", 5*time.Second),
			BypassEnabled:  getBoolEnv("HANDOFF_BYPASS_ENABLED", false),
		},
		Settlement: SettlementConfig{
			DailyMileageAllowance: getIntEnv("SETTLEMENT_DAILY_MILEAGE_ALLOWANCE", 200),
			PerMileRate:           getFloatEnv("SETTLEMENT_PER_MILE_RATE", 0.45),
			FuelShortfallFee:      getFloatEnv("SETTLEMENT_FUEL_SHORTFALL_FEE", 75),
			LateHourlyRate:        getFloatEnv("SETTLEMENT_LATE_HOURLY_RATE", 25),
			LateGrace:             getDurationEnv("SETTLEMENT_LATE_GRACE", 15*time.Minute),
			MinimumDamagePhotos:   getIntEnv("SETTLEMENT_MINIMUM_DAMAGE_PHOTOS", 2),
			Statutes:              getListEnv("SETTLEMENT_STATUTES", []string{"A.R.S. 28-9601", "A.R.S. 28-9611"}),
			ItemizationRequired:   getBoolEnv("SETTLEMENT_ITEMIZATION_REQUIRED", true),
			DisputeWindowDays:     getIntEnv("SETTLEMENT_DISPUTE_WINDOW_DAYS", 30),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
