package store

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseConfig holds the PostgreSQL connection parameters for SQLStore.
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DatabaseName string
	SSLMode      string
	TimeZone     string
}

// DefaultDatabaseConfig reads connection parameters from the environment,
// falling back to local-development defaults.
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Host:         getEnv("ABAC_DB_HOST", "localhost"),
		Port:         getEnvAsInt("ABAC_DB_PORT", 5432),
		User:         getEnv("ABAC_DB_USER", "postgres"),
		Password:     getEnv("ABAC_DB_PASSWORD", "postgres"),
		DatabaseName: getEnv("ABAC_DB_NAME", "abacengine"),
		SSLMode:      getEnv("ABAC_DB_SSL_MODE", "disable"),
		TimeZone:     getEnv("ABAC_DB_TIMEZONE", "UTC"),
	}
}

// DSN renders the GORM/pgx connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.DatabaseName, c.Port, c.SSLMode, c.TimeZone)
}

// NewDatabaseConnection opens a pooled GORM connection against PostgreSQL.
func NewDatabaseConnection(config *DatabaseConfig) (*gorm.DB, error) {
	if config == nil {
		config = DefaultDatabaseConfig()
	}

	gormLogger := logger.Default.LogMode(logger.Warn)
	if getEnv("ABAC_DB_LOG_LEVEL", "warn") == "silent" {
		gormLogger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(postgres.Open(config.DSN()), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(getEnvAsInt("ABAC_DB_MAX_IDLE_CONNS", 10))
	sqlDB.SetMaxOpenConns(getEnvAsInt("ABAC_DB_MAX_OPEN_CONNS", 100))
	sqlDB.SetConnMaxLifetime(time.Duration(getEnvAsInt("ABAC_DB_CONN_MAX_LIFETIME_SECONDS", 3600)) * time.Second)

	return db, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
