package config

import (
	"os"
	"strconv"
	"time"

	"stagelink/internal/cache"
	"stagelink/internal/database"
	"stagelink/internal/external"
	"stagelink/internal/messaging"
)

type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Webhook signature verification
	WebhookSecret    string
	WebhookTolerance time.Duration

	// Redirect targets embedded into checkout sessions
	SuccessURL string
	CancelURL  string

	Database database.Config
	NATS     messaging.Config
	Redis    cache.Config
	PayMongo external.PayMongoConfig
	Email    external.EmailConfig
}

// Load reads configuration from environment variables. Constructed once at
// process start and passed down explicitly; nothing else reads the
// environment.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 10)) * time.Second,

		WebhookSecret:    getEnv("PAYMONGO_WEBHOOK_SECRET", ""),
		WebhookTolerance: time.Duration(getEnvInt("WEBHOOK_TOLERANCE_SEC", 300)) * time.Second,

		SuccessURL: getEnv("PAYMENT_SUCCESS_URL", "https://www.stagelink.show/payment/success"),
		CancelURL:  getEnv("PAYMENT_CANCEL_URL", "https://www.stagelink.show/payment/cancel"),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "stagelink"),
			Password:           getEnv("DB_PASSWORD", "stagelink123"),
			DBName:             getEnv("DB_NAME", "stagelink"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "stagelink"),
			ClientID:  getEnv("NATS_CLIENT_ID", "stagelink-api"),
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			TTL:      time.Duration(getEnvInt("REDIS_RECONCILED_TTL_HOURS", 24)) * time.Hour,
		},

		PayMongo: external.PayMongoConfig{
			BaseURL:   getEnv("PAYMONGO_BASE_URL", "https://api.paymongo.com"),
			SecretKey: getEnv("PAYMONGO_SECRET_KEY", ""),
			Timeout:   time.Duration(getEnvInt("PAYMONGO_TIMEOUT_SEC", 30)) * time.Second,
		},

		Email: external.EmailConfig{
			BaseURL: getEnv("RESEND_BASE_URL", "https://api.resend.com"),
			APIKey:  getEnv("RESEND_API_KEY", ""),
			From:    getEnv("EMAIL_FROM", "StageLink <hello@stagelink.show>"),
			Timeout: time.Duration(getEnvInt("EMAIL_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
