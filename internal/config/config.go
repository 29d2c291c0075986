package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"qrorder-be/internal/logger"

	"github.com/joho/godotenv"
)

const EnvProduction = "production"

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string
	AppPort    string
	AppEnv     string

	TossSecretKey       string
	TossBaseURL         string
	GatewaySandbox      bool
	GatewaySandboxCodes []string
	WebhookToken        string

	PaymentSuccessURL string
	PaymentFailURL    string

	KafkaBrokers           []string
	KafkaNotificationTopic string

	SecretKey         string
	InternalSecretKey string
	CORSOrigin        string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		AppPort:    getEnv("APP_PORT", "8080"),
		AppEnv:     os.Getenv("APP_ENV"),

		TossSecretKey:       os.Getenv("TOSS_SECRET_KEY"),
		TossBaseURL:         os.Getenv("TOSS_BASE_URL"),
		GatewaySandbox:      getBool("GATEWAY_SANDBOX"),
		GatewaySandboxCodes: splitList(os.Getenv("GATEWAY_SANDBOX_CODES")),
		WebhookToken:        os.Getenv("WEBHOOK_TOKEN"),

		PaymentSuccessURL: os.Getenv("PAYMENT_SUCCESS_URL"),
		PaymentFailURL:    os.Getenv("PAYMENT_FAIL_URL"),

		KafkaBrokers:           splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaNotificationTopic: getEnv("KAFKA_NOTIFICATION_TOPIC", "order-notifications"),

		SecretKey:         os.Getenv("SECRET_KEY"),
		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),
		CORSOrigin:        os.Getenv("CORS_ORIGIN"),
	}

	if cfg.DBHost == "" {
		logger.L().Fatal("Environment variables not loaded properly")
	}

	return cfg
}

// Validate rejects settings that must never reach production.
func (c *Config) Validate() error {
	var errs []error
	if c.GatewaySandbox && c.AppEnv == EnvProduction {
		errs = append(errs, errors.New("GATEWAY_SANDBOX must not be enabled in production"))
	}
	if c.AppEnv == EnvProduction && c.TossSecretKey == "" {
		errs = append(errs, errors.New("TOSS_SECRET_KEY is required in production"))
	}
	if c.AppEnv == EnvProduction && c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required in production"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
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
