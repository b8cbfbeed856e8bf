package config

import (
	"fmt"     // Error formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting lists
	"time"    // For durations

	"github.com/joho/godotenv" // For loading .env files
)

// Supported database drivers
const (
	DriverMySQL  = "mysql"  // Production engine
	DriverSQLite = "sqlite" // Local development and tests
)

// Config holds the application configuration. It is the only holder of the
// JWT secret; handlers and middleware receive it by injection.
type Config struct {
	AppPort     string        // Application port
	DBDriver    string        // mysql or sqlite
	DBUser      string        // Database user
	DBPassword  string        // Database password
	DBHost      string        // Database host
	DBPort      string        // Database port
	DBName      string        // Database name
	SQLitePath  string        // SQLite file when DBDriver is sqlite
	JWTSecret   string        // JWT secret key
	JWTTTL      time.Duration // Token lifetime
	RedisAddr   string        // Redis server address, empty disables caching
	RedisPass   string        // Redis password
	RedisDB     int           // Redis database number
	CacheTTL    time.Duration // Report cache lifetime
	CORSOrigins []string      // Allowed browser origins
	LogLevel    string        // logrus level name
	LogFormat   string        // text or json
	IsProd      bool          // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:     getEnv("APP_PORT", "8000"),                                 // Application port
		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),          // Database driver
		DBUser:      os.Getenv("DB_USER"),                                       // Database user
		DBPassword:  os.Getenv("DB_PASSWORD"),                                   // Database password
		DBHost:      getEnv("DB_HOST", "127.0.0.1"),                             // Database host
		DBPort:      getEnv("DB_PORT", "3306"),                                  // Database port
		DBName:      os.Getenv("DB_NAME"),                                       // Database name
		SQLitePath:  getEnv("SQLITE_PATH", "./data/ledger.db"),                  // SQLite file
		JWTSecret:   os.Getenv("JWT_SECRET"),                                    // JWT secret key
		JWTTTL:      getEnvDuration("JWT_TTL", 30*time.Minute),                  // Token lifetime
		RedisAddr:   os.Getenv("REDIS_ADDR"),                                    // Redis server address
		RedisPass:   os.Getenv("REDIS_PASS"),                                    // Redis password
		RedisDB:     getEnvInt("REDIS_DB", 0),                                   // Redis database number
		CacheTTL:    getEnvDuration("CACHE_TTL", 60*time.Second),                // Report cache lifetime
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")), // Front-end origins
		LogLevel:    getEnv("LOG_LEVEL", "info"),                                // Log level
		LogFormat:   getEnv("LOG_FORMAT", "text"),                               // Log format
		IsProd:      os.Getenv("IS_PROD") == "true",                             // Is production environment
	}
}

// MySQLDSN builds the Data Source Name for MySQL
func (c *Config) MySQLDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var problems []string // Collected problems
	if port, err := strconv.Atoi(c.AppPort); err != nil || port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid APP_PORT %q", c.AppPort))
	}
	switch c.DBDriver {
	case DriverMySQL:
		if c.DBName == "" || c.DBUser == "" {
			problems = append(problems, "DB_NAME and DB_USER are required for mysql")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH is required for sqlite")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		problems = append(problems, "JWT_TTL must be positive")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		problems = append(problems, fmt.Sprintf("invalid LOG_FORMAT %q", c.LogFormat))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
