package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Scheduling SchedulingConfig
	WhatsApp   WhatsAppConfig
	OTEL       OTELConfig
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Env            string
	LogLevel       string
	StorageDriver  string
	AllowedOrigins []string
	MetricsEnabled bool
	// SeedFile is an optional roster loaded at startup.
	SeedFile string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Enabled  bool
}

// SchedulingConfig holds the capacity and booking rules
type SchedulingConfig struct {
	// TrainerCapacity is the number of clients one trainer takes per timestamp.
	TrainerCapacity int
	// MaxActiveTrainers is the number of trainers that may work the same timestamp.
	MaxActiveTrainers int
	// GymCapacity caps the total number of clients at one timestamp.
	GymCapacity int

	EnforceClientHours bool
	ClientHourWindows  []HourWindow
	AllowPastBookings  bool
}

// HourWindow is an inclusive range of start hours.
type HourWindow struct {
	From int
	To   int
}

// Contains reports whether hour lies in the window.
func (w HourWindow) Contains(hour int) bool {
	return hour >= w.From && hour <= w.To
}

// WhatsAppConfig holds WhatsApp Cloud API credentials
type WhatsAppConfig struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	TestTarget    string
}

// Enabled reports whether real delivery is configured.
func (c WhatsAppConfig) Enabled() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	windows, err := parseHourWindows(getEnv("SCHEDULING_CLIENT_HOURS", "07-12,15-20"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Env:            getEnv("APP_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			StorageDriver:  getEnv("APP_STORAGE_DRIVER", "postgres"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			SeedFile:       getEnv("SEED_FILE", ""),
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "gym_scheduler"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},
		Scheduling: SchedulingConfig{
			TrainerCapacity:    getEnvAsInt("SCHEDULING_TRAINER_CAPACITY", 2),
			MaxActiveTrainers:  getEnvAsInt("SCHEDULING_MAX_ACTIVE_TRAINERS", 3),
			GymCapacity:        getEnvAsInt("SCHEDULING_GYM_CAPACITY", 6),
			EnforceClientHours: getEnvAsBool("SCHEDULING_ENFORCE_CLIENT_HOURS", true),
			ClientHourWindows:  windows,
			AllowPastBookings:  getEnvAsBool("SCHEDULING_ALLOW_PAST", false),
		},
		WhatsApp: WhatsAppConfig{
			AccessToken:   getEnv("WHATSAPP_ACCESS_TOKEN", ""),
			PhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
			BaseURL:       getEnv("WHATSAPP_BASE_URL", "https://graph.facebook.com/v18.0"),
			TestTarget:    getEnv("TEST_WHATSAPP_TARGET", ""),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "gym-scheduler"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Scheduling.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects capacity values the scheduler cannot work with.
func (c *SchedulingConfig) Validate() error {
	if c.TrainerCapacity < 1 {
		return fmt.Errorf("SCHEDULING_TRAINER_CAPACITY must be positive, got %d", c.TrainerCapacity)
	}
	if c.MaxActiveTrainers < 1 {
		return fmt.Errorf("SCHEDULING_MAX_ACTIVE_TRAINERS must be positive, got %d", c.MaxActiveTrainers)
	}
	if c.GymCapacity < 1 {
		return fmt.Errorf("SCHEDULING_GYM_CAPACITY must be positive, got %d", c.GymCapacity)
	}
	return nil
}

// DefaultScheduling returns the stock capacity rules.
func DefaultScheduling() SchedulingConfig {
	return SchedulingConfig{
		TrainerCapacity:    2,
		MaxActiveTrainers:  3,
		GymCapacity:        6,
		EnforceClientHours: true,
		ClientHourWindows:  []HourWindow{{From: 7, To: 12}, {From: 15, To: 20}},
	}
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// parseHourWindows parses "07-12,15-20".
func parseHourWindows(value string) ([]HourWindow, error) {
	var windows []HourWindow
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		bounds := strings.SplitN(part, "-", 2)
		if len(bounds) != 2 {
			return nil, fmt.Errorf("invalid hour window %q", part)
		}
		from, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid hour window %q: %w", part, err)
		}
		to, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid hour window %q: %w", part, err)
		}
		if from < 0 || to > 23 || from > to {
			return nil, fmt.Errorf("invalid hour window %q", part)
		}
		windows = append(windows, HourWindow{From: from, To: to})
	}
	return windows, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
