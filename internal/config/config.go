package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort    string // Application port
	DBUser     string // Database user
	DBPassword string // Database password
	DBHost     string // Database host
	DBPort     string // Database port
	DBName     string // Database name
	JWTSecret  string // JWT secret key
	RedisAddr  string // Redis server address
	RedisPass  string // Redis password
	RedisDB    int    // Redis database number
	IsProd     bool   // Is production environment

	GatewayMerchantID  string // Payment gateway merchant id
	GatewayMerchantKey string // Payment gateway merchant key
	GatewayPassphrase  string // Salt passphrase appended to gateway signatures
	GatewayProcessURL  string // Gateway page the customer is redirected to
	GatewayNotifyURL   string // Our webhook URL handed to the gateway
	GatewayReturnURL   string // Where the gateway sends the customer afterwards

	PouchReleaseSpec  string // Cron spec for releasing due pouches
	PendingExpirySpec string // Cron spec for expiring unanswered bookings
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return &Config{
		AppPort:    getenv("APP_PORT", "8080"),     // Application port
		DBUser:     os.Getenv("DB_USER"),           // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:     os.Getenv("DB_HOST"),           // Database host
		DBPort:     os.Getenv("DB_PORT"),           // Database port
		DBName:     os.Getenv("DB_NAME"),           // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),        // JWT secret key
		RedisAddr:  os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:    redisDB,                        // Redis database number
		IsProd:     os.Getenv("IS_PROD") == "true", // Is production environment

		GatewayMerchantID:  os.Getenv("GATEWAY_MERCHANT_ID"),
		GatewayMerchantKey: os.Getenv("GATEWAY_MERCHANT_KEY"),
		GatewayPassphrase:  os.Getenv("GATEWAY_PASSPHRASE"),
		GatewayProcessURL:  os.Getenv("GATEWAY_PROCESS_URL"),
		GatewayNotifyURL:   os.Getenv("GATEWAY_NOTIFY_URL"),
		GatewayReturnURL:   os.Getenv("GATEWAY_RETURN_URL"),

		PouchReleaseSpec:  getenv("POUCH_RELEASE_SPEC", "@every 1m"),
		PendingExpirySpec: getenv("PENDING_EXPIRY_SPEC", "@every 5m"),
	}
}

// DSN builds the MySQL Data Source Name shared by the server and the migrator
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
