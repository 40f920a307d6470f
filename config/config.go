package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm/logger"
)

// Config holds all application configuration
type Config struct {
	DatabaseURL        string
	Port               string
	GoEnv              string
	AWSRegion          string
	AWSS3Bucket        string
	AWSS3Endpoint      string // optional, for S3-compatible storage
	AWSS3PublicURL     string // optional base URL used for public object links
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	NotificationURL    string // SMS dispatch endpoint
	ContactURL         string // contact email dispatch endpoint
	NotificationAPIKey string
	ArchiveTimezone    string
	ArchiveHour        int
	ArchiveEnabled     bool
	LogLevel           string
}

var currentConfig *Config

// Load loads the configuration from environment variables
// It automatically determines which .env file to load based on GO_ENV
func Load() (*Config, error) {
	// Determine which environment file to load
	env := os.Getenv("GO_ENV")
	if env == "" {
		env = "development"
	}

	// Try to load environment-specific file first
	envFile := fmt.Sprintf(".env.%s", env)
	if err := godotenv.Load(envFile); err != nil {
		// If environment-specific file doesn't exist, try .env
		if err := godotenv.Load(); err != nil {
			log.Printf("No .env file found, using system environment variables")
		}
	} else {
		log.Printf("Loaded configuration from %s", envFile)
	}

	config := &Config{
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		Port:               getEnv("PORT", "8080"),
		GoEnv:              getEnv("GO_ENV", "development"),
		AWSRegion:          getEnv("AWS_REGION", "eu-west-3"),
		AWSS3Bucket:        getEnv("AWS_S3_BUCKET", ""),
		AWSS3Endpoint:      getEnv("AWS_S3_ENDPOINT", ""),
		AWSS3PublicURL:     getEnv("AWS_S3_PUBLIC_URL", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		NotificationURL:    getEnv("NOTIFICATION_URL", ""),
		ContactURL:         getEnv("CONTACT_URL", ""),
		NotificationAPIKey: getEnv("NOTIFICATION_API_KEY", ""),
		ArchiveTimezone:    getEnv("ARCHIVE_TIMEZONE", "Local"),
		ArchiveHour:        getEnvInt("ARCHIVE_SCHEDULE_HOUR", 1),
		ArchiveEnabled:     getEnvBool("ARCHIVE_SCHEDULE_ENABLED", true),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	currentConfig = config
	return config, nil
}

// Validate checks that all required configuration values are set
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.AWSS3Bucket == "" {
		return fmt.Errorf("AWS_S3_BUCKET is required")
	}
	if c.ArchiveHour < 0 || c.ArchiveHour > 23 {
		return fmt.Errorf("ARCHIVE_SCHEDULE_HOUR must be between 0 and 23, got %d", c.ArchiveHour)
	}
	if _, err := c.ArchiveLocation(); err != nil {
		return err
	}
	return nil
}

// ArchiveLocation resolves the time zone used to compute the archiver's calendar day
func (c *Config) ArchiveLocation() (*time.Location, error) {
	if c.ArchiveTimezone == "" || c.ArchiveTimezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.ArchiveTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid ARCHIVE_TIMEZONE %q: %w", c.ArchiveTimezone, err)
	}
	return loc, nil
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// IsTest returns true if the application is running in test mode
func (c *Config) IsTest() bool {
	return c.GoEnv == "test"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// GormLogLevel maps LOG_LEVEL onto the SQL logger.
// Only debug logs every statement; info and warn keep slow queries and errors.
func (c *Config) GormLogLevel() logger.LogLevel {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return logger.Info
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}

// GetConfig returns the configuration loaded by Load
func GetConfig() *Config {
	return currentConfig
}

// SetConfig replaces the current configuration (primarily for testing)
func SetConfig(cfg *Config) {
	currentConfig = cfg
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s (%q), using default %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Invalid boolean for %s (%q), using default %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}
