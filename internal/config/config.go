package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	defaultRunAddress    = "localhost:8080"
	defaultMigrationsDir = "internal/db/migrations"
	defaultDotEnvFile    = ".env"
)

type Config struct {
	RunAddress            string `env:"RUN_ADDRESS"`
	DatabaseDSN           string `env:"DATABASE_URI"`
	MigrationsDir         string `env:"MIGRATIONS_DIR"`
	PaystackWebhookSecret string `env:"PAYSTACK_WEBHOOK_SECRET"`
	JWTUserSecret         string `env:"JWT_USER_SECRET"`
	GeminiAPIKey          string `env:"GEMINI_API_KEY"`
	GeminiBaseURL         string `env:"GEMINI_BASE_URL"`
	GeminiModel           string `env:"GEMINI_MODEL"`
	RedisAddr             string `env:"REDIS_ADDR"`
	RedisPassword         string `env:"REDIS_PASSWORD"`
	RedisDB               int    `env:"REDIS_DB"`
}

// LoadConfig собирает конфиг из .env файла (если есть), переменных окружения и флагов командной строки.
// Переменные окружения в приоритете над флагами.
func LoadConfig() (*Config, error) {
	return loadConfig(os.Args[1:])
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func loadConfig(args []string) (*Config, error) {
	// .env не обязателен, значения из него не перезаписывают уже выставленные переменные окружения.
	if dotEnvErr := godotenv.Load(defaultDotEnvFile); dotEnvErr != nil && !errors.Is(dotEnvErr, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %s", defaultDotEnvFile, dotEnvErr.Error())
	}

	var flagsConfig, envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	if flagsErr := loadFlags(&flagsConfig, args); flagsErr != nil {
		return nil, fmt.Errorf("parse flags: %s", flagsErr.Error())
	}

	conf := mergeConfig(&envConfig, &flagsConfig)
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is not set"))
	}
	if c.PaystackWebhookSecret == "" {
		errs = append(errs, errors.New("paystack webhook secret is not set"))
	}
	if c.JWTUserSecret == "" {
		errs = append(errs, errors.New("jwt user secret is not set"))
	}
	if c.GeminiAPIKey == "" {
		errs = append(errs, errors.New("gemini api key is not set"))
	}
	return errors.Join(errs...)
}

func loadFlags(flagConfig *Config, args []string) error {
	fs := pflag.NewFlagSet("chartcredits", pflag.ContinueOnError)

	fs.StringVarP(&flagConfig.RunAddress, "address", "a", defaultRunAddress, "Run address in format host:port")
	fs.StringVarP(&flagConfig.DatabaseDSN, "database", "d", "", "Database DSN")
	fs.StringVarP(&flagConfig.MigrationsDir, "migrations", "m", defaultMigrationsDir, "Database migrations directory")
	fs.StringVarP(&flagConfig.PaystackWebhookSecret, "paystack-secret", "s", "", "Paystack webhook secret key")
	fs.StringVarP(&flagConfig.JWTUserSecret, "jwt-secret", "j", "", "Secret of user JWT tokens")
	fs.StringVarP(&flagConfig.GeminiAPIKey, "gemini-key", "k", "", "Gemini API key")
	fs.StringVar(&flagConfig.GeminiBaseURL, "gemini-url", "", "Gemini API base URL")
	fs.StringVar(&flagConfig.GeminiModel, "gemini-model", "", "Gemini model name")
	fs.StringVarP(&flagConfig.RedisAddr, "redis", "r", "", "Redis address, empty disables reference cache")
	fs.IntVar(&flagConfig.RedisDB, "redis-db", 0, "Redis database number")

	return fs.Parse(args) //nolint:wrapcheck
}

func mergeConfig(envConfig, flagsConfig *Config) *Config {
	redisDB := envConfig.RedisDB
	if redisDB == 0 {
		redisDB = flagsConfig.RedisDB
	}
	return &Config{
		RunAddress:            defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress),
		DatabaseDSN:           defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		MigrationsDir:         defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir),
		PaystackWebhookSecret: defaultIfBlank(envConfig.PaystackWebhookSecret, flagsConfig.PaystackWebhookSecret),
		JWTUserSecret:         defaultIfBlank(envConfig.JWTUserSecret, flagsConfig.JWTUserSecret),
		GeminiAPIKey:          defaultIfBlank(envConfig.GeminiAPIKey, flagsConfig.GeminiAPIKey),
		GeminiBaseURL:         defaultIfBlank(envConfig.GeminiBaseURL, flagsConfig.GeminiBaseURL),
		GeminiModel:           defaultIfBlank(envConfig.GeminiModel, flagsConfig.GeminiModel),
		RedisAddr:             defaultIfBlank(envConfig.RedisAddr, flagsConfig.RedisAddr),
		RedisPassword:         envConfig.RedisPassword,
		RedisDB:               redisDB,
	}
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
