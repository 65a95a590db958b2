package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort            string // Application port
	DBDriver           string // mysql, postgres, sqlite or sqlserver
	ShopDB             string // Connection string (ShopDB)
	DBUser             string // Database user
	DBPassword         string // Database password
	DBHost             string // Database host
	DBPort             string // Database port
	DBName             string // Database name
	RedisAddr          string // Redis server address, empty starts an embedded one
	RedisPass          string // Redis password
	RedisDB            int    // Redis database number
	SessionSecret      string // Cookie signing key
	SessionIdleMinutes int    // Sliding session idle timeout
	CacheTTLSeconds    int    // Catalog menu cache TTL
	IsProd             bool   // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return &Config{
		AppPort:            getEnv("APP_PORT", "8080"),
		DBDriver:           getEnv("DB_DRIVER", "mysql"),
		ShopDB:             os.Getenv("SHOP_DB"),
		DBUser:             os.Getenv("DB_USER"),
		DBPassword:         os.Getenv("DB_PASSWORD"),
		DBHost:             getEnv("DB_HOST", "127.0.0.1"),
		DBPort:             getEnv("DB_PORT", "3306"),
		DBName:             getEnv("DB_NAME", "shop"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPass:          os.Getenv("REDIS_PASS"),
		RedisDB:            getInt("REDIS_DB", 0),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		SessionIdleMinutes: getInt("SESSION_IDLE_MINUTES", 30),
		CacheTTLSeconds:    getInt("CACHE_TTL_SECONDS", 60),
		IsProd:             os.Getenv("IS_PROD") == "true",
	}
}

// DSN returns the ShopDB connection string. For MySQL it falls back to
// assembling one from the DB_* parts.
func (c *Config) DSN() string {
	if c.ShopDB != "" {
		return c.ShopDB
	}
	if c.DBDriver != "mysql" {
		return ""
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
