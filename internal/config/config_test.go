package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URI", "postgres://localhost/chartcredits")
	t.Setenv("PAYSTACK_WEBHOOK_SECRET", "sk_test")
	t.Setenv("JWT_USER_SECRET", "jwt")
	t.Setenv("GEMINI_API_KEY", "key")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	conf, err := loadConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultRunAddress, conf.RunAddress)
	assert.Equal(t, defaultMigrationsDir, conf.MigrationsDir)
	assert.Equal(t, "sk_test", conf.PaystackWebhookSecret)
	assert.Empty(t, conf.RedisAddr)
}

func TestLoadConfig_EnvOverFlags(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RUN_ADDRESS", "0.0.0.0:9000")

	conf, err := loadConfig([]string{"-a", "localhost:1", "-r", "localhost:6379", "--redis-db", "2"})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", conf.RunAddress)
	assert.Equal(t, "localhost:6379", conf.RedisAddr)
	assert.Equal(t, 2, conf.RedisDB)
}

func TestLoadConfig_FlagsOnly(t *testing.T) {
	conf, err := loadConfig([]string{
		"-d", "postgres://localhost/db",
		"-s", "secret",
		"-j", "jwt",
		"-k", "key",
		"--gemini-model", "gemini-1.5-flash",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/db", conf.DatabaseDSN)
	assert.Equal(t, "gemini-1.5-flash", conf.GeminiModel)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	_, err := loadConfig([]string{"-d", "postgres://localhost/db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "paystack webhook secret is not set")
	assert.Contains(t, err.Error(), "gemini api key is not set")
}

func TestLoadConfig_UnknownFlag(t *testing.T) {
	setRequiredEnv(t)

	_, err := loadConfig([]string{"--no-such-flag"})
	require.Error(t, err)
}
