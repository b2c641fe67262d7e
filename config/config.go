package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	SigningHS256 = "HS256"
	SigningES256 = "ES256"

	VerificationStrict     = "strict"
	VerificationPermissive = "permissive"
)

// Config holds the service configuration
type Config struct {
	HTTPAddr    string
	RedisURL    string
	DatabaseURL string

	DailyLimit          decimal.Decimal
	MinInterval         time.Duration
	DemoDailyLimit      decimal.Decimal
	DemoMinInterval     time.Duration
	MaxSingleReward     decimal.Decimal
	MinimumUSD          decimal.Decimal
	MockTokenBalance    decimal.Decimal
	TokenPriceUSD       decimal.Decimal
	BalanceCheckTimeout time.Duration
	TransferTimeout     time.Duration

	TokenTTL       time.Duration
	SigningMethod  string
	JWTSecret      string
	SigningKeyFile string
	Issuer         string
	ChallengeTTL   time.Duration
	SignatureCheck string
	CORSOrigins    []string
	LogLevel       string
	LogFormat      string
}

// Load reads the configuration from the environment, preloading .env when present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":9000"),
		RedisURL:    getEnv("REDIS_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		DailyLimit:          getEnvAsDecimal("DAILY_SOL_REWARD_LIMIT", decimal.RequireFromString("0.1")),
		MinInterval:         time.Duration(getEnvAsInt("MIN_REWARD_INTERVAL_SECONDS", 300)) * time.Second,
		DemoDailyLimit:      getEnvAsDecimal("DEMO_DAILY_SOL_REWARD_LIMIT", decimal.RequireFromString("0.05")),
		DemoMinInterval:     time.Duration(getEnvAsInt("DEMO_MIN_REWARD_INTERVAL_SECONDS", 60)) * time.Second,
		MaxSingleReward:     getEnvAsDecimal("MAX_SINGLE_REWARD_SOL", decimal.RequireFromString("0.01")),
		MinimumUSD:          getEnvAsDecimal("MINIMUM_PURPE_USD_REQUIREMENT", decimal.NewFromInt(10)),
		MockTokenBalance:    getEnvAsDecimal("MOCK_PURPE_BALANCE", decimal.NewFromInt(15)),
		TokenPriceUSD:       getEnvAsDecimal("PURPE_TOKEN_PRICE_USD", decimal.NewFromInt(15)),
		BalanceCheckTimeout: getEnvAsDuration("BALANCE_CHECK_TIMEOUT", 3*time.Second),
		TransferTimeout:     getEnvAsDuration("TRANSFER_TIMEOUT", 5*time.Second),

		TokenTTL:       time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		SigningMethod:  strings.ToUpper(getEnv("TOKEN_SIGNING_METHOD", SigningHS256)),
		JWTSecret:      getEnv("JWT_SECRET_KEY", ""),
		SigningKeyFile: getEnv("JWT_SIGNING_KEY_FILE", ""),
		Issuer:         getEnv("JWT_ISSUER", "Purpes Leap"),
		ChallengeTTL:   getEnvAsDuration("CHALLENGE_TTL", 5*time.Minute),
		SignatureCheck: strings.ToLower(getEnv("SIGNATURE_VERIFICATION", VerificationStrict)),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	switch c.SigningMethod {
	case SigningHS256:
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET_KEY is required for HS256")
		}
	case SigningES256:
	default:
		return fmt.Errorf("unsupported TOKEN_SIGNING_METHOD %q", c.SigningMethod)
	}

	switch c.SignatureCheck {
	case VerificationStrict, VerificationPermissive:
	default:
		return fmt.Errorf("unsupported SIGNATURE_VERIFICATION %q", c.SignatureCheck)
	}

	for name, limit := range map[string]decimal.Decimal{
		"DAILY_SOL_REWARD_LIMIT":      c.DailyLimit,
		"DEMO_DAILY_SOL_REWARD_LIMIT": c.DemoDailyLimit,
		"MAX_SINGLE_REWARD_SOL":       c.MaxSingleReward,
	} {
		if !limit.IsPositive() {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.MinInterval < 0 || c.DemoMinInterval < 0 {
		return errors.New("reward intervals must not be negative")
	}
	if c.ChallengeTTL <= 0 || c.TokenTTL <= 0 {
		return errors.New("challenge and token lifetimes must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).Msg("invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Dur("default", defaultValue).Msg("invalid duration value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Str("default", defaultValue.String()).Msg("invalid decimal value, using default")
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
