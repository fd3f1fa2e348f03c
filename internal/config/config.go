package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Auth        AuthConfig
	Backup      BackupConfig
	Log         LogConfig
	Maintenance MaintenanceConfig
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host string
	Port int
}

// Addr returns the listen address of the HTTP server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds the database configuration.
// Path is only used by the sqlite3 driver; the remaining connection
// fields are only used by the postgres driver.
type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     int
	Username string
	Password string
	DBName   string
	SSLMode  string
}

// AuthConfig holds the authentication configuration
type AuthConfig struct {
	JWTSecret     string
	TokenTTLHours int
	BcryptCost    int
	AdminUsername string
	AdminPassword string
}

// TokenTTL returns the validity of an issued login token
func (c *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

// BackupConfig holds the database backup configuration
type BackupConfig struct {
	Dir                string
	RetentionDays      int
	AfternoonStartHour int
	AfternoonEndHour   int
}

// LogConfig holds the logger configuration
type LogConfig struct {
	Level  string
	Format string
}

// MaintenanceConfig holds settings for destructive admin operations
type MaintenanceConfig struct {
	// PurgePassword confirms a full data purge. Purging is disabled when empty.
	PurgePassword string
}

// GetDSN returns the database connection string for the configured driver
func (c *DatabaseConfig) GetDSN() string {
	if c.Driver == DriverPostgres {
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.Username, c.Password, c.DBName, c.SSLMode,
		)
	}
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL", c.Path)
}

// LoadConfig loads the configuration from environment variables.
// A .env file in the working directory is read first when present;
// variables already set in the environment win.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "127.0.0.1"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", DriverSQLite),
			Path:     getEnv("DB_PATH", "cg_management.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			Username: getEnv("DB_USERNAME", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "cgtracker"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", "your-secret-key-here"),
			TokenTTLHours: getEnvAsInt("TOKEN_TTL_HOURS", 12),
			BcryptCost:    getEnvAsInt("BCRYPT_COST", 10),
			AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		},
		Backup: BackupConfig{
			Dir:                getEnv("BACKUP_DIR", "cg_backups"),
			RetentionDays:      getEnvAsInt("BACKUP_RETENTION_DAYS", 30),
			AfternoonStartHour: getEnvAsInt("BACKUP_AFTERNOON_START_HOUR", 15),
			AfternoonEndHour:   getEnvAsInt("BACKUP_AFTERNOON_END_HOUR", 16),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Maintenance: MaintenanceConfig{
			PurgePassword: getEnv("PURGE_PASSWORD", ""),
		},
	}
}

// Helper functions to read environment variables
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
