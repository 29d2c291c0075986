package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	t.Run("Success loading from env", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_USER", "testuser")
		t.Setenv("DB_PASSWORD", "testpass")
		t.Setenv("DB_NAME", "testdb")
		t.Setenv("DB_PORT", "5432")
		t.Setenv("APP_PORT", "9090")
		t.Setenv("APP_ENV", "test")
		t.Setenv("TOSS_SECRET_KEY", "test_sk_123")
		t.Setenv("GATEWAY_SANDBOX", "true")
		t.Setenv("GATEWAY_SANDBOX_CODES", "NOT_FOUND_PAYMENT_SESSION, UNAUTHORIZED_KEY,")
		t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
		t.Setenv("KAFKA_NOTIFICATION_TOPIC", "")
		t.Setenv("SECRET_KEY", "jwt-secret")

		cfg := LoadConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "localhost", cfg.DBHost)
		assert.Equal(t, "testuser", cfg.DBUser)
		assert.Equal(t, "testpass", cfg.DBPassword)
		assert.Equal(t, "testdb", cfg.DBName)
		assert.Equal(t, "5432", cfg.DBPort)
		assert.Equal(t, "9090", cfg.AppPort)
		assert.Equal(t, "test", cfg.AppEnv)
		assert.Equal(t, "test_sk_123", cfg.TossSecretKey)
		assert.True(t, cfg.GatewaySandbox)
		assert.Equal(t, []string{"NOT_FOUND_PAYMENT_SESSION", "UNAUTHORIZED_KEY"}, cfg.GatewaySandboxCodes)
		assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
		assert.Equal(t, "order-notifications", cfg.KafkaNotificationTopic)
		assert.Equal(t, "jwt-secret", cfg.SecretKey)
	})

	t.Run("Defaults", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("APP_PORT", "")
		t.Setenv("DB_SSLMODE", "")
		t.Setenv("GATEWAY_SANDBOX", "not-a-bool")
		t.Setenv("KAFKA_BROKERS", "")

		cfg := LoadConfig()

		assert.Equal(t, "8080", cfg.AppPort)
		assert.Equal(t, "disable", cfg.DBSSLMode)
		assert.False(t, cfg.GatewaySandbox)
		assert.Empty(t, cfg.KafkaBrokers)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "sandbox outside production",
			cfg:  Config{AppEnv: "development", GatewaySandbox: true},
		},
		{
			name:    "sandbox in production",
			cfg:     Config{AppEnv: EnvProduction, GatewaySandbox: true, TossSecretKey: "live_sk", SecretKey: "s"},
			wantErr: "GATEWAY_SANDBOX",
		},
		{
			name:    "production without gateway key",
			cfg:     Config{AppEnv: EnvProduction, SecretKey: "s"},
			wantErr: "TOSS_SECRET_KEY",
		},
		{
			name: "production",
			cfg:  Config{AppEnv: EnvProduction, TossSecretKey: "live_sk", SecretKey: "s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
