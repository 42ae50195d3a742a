package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Env  string
	Port string

	// Database
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	MigrationsPath string

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// HTTP
	CORSOrigins []string

	// AdminAPIKey guards the /database administration routes. Empty disables them.
	AdminAPIKey string
	// AutoInitDB seeds demo data at startup when the database has no users.
	AutoInitDB bool

	// Events
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from the environment, loading .env first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "bytebank"),
		DBPassword:     getEnv("DB_PASSWORD", "bytebank"),
		DBName:         getEnv("DB_NAME", "bytebank"),
		DBSSLMode:      getEnv("DB_SSLMODE", "disable"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),

		JWTSecret: getEnv("JWT_SECRET", "fallback-secret-key-for-dev-only"),

		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "*")),
		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),
		AutoInitDB:  getEnv("AUTO_INIT_DB", "false") == "true",

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "ledger-events"),
	}

	expStr := getEnv("JWT_EXPIRES_IN", "12h")
	expDur, err := time.ParseDuration(expStr)
	if err != nil {
		log.Printf("Warning: invalid JWT_EXPIRES_IN value '%s', falling back to 12h\n", expStr)
		expDur = 12 * time.Hour
	}
	cfg.JWTExpirationDur = expDur

	return cfg, nil
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
