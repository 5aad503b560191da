package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Blackprint/internal/model"
	"github.com/Alias1177/Blackprint/internal/phase"
)

// Config holds all application configuration
type Config struct {
	TwelveAPIKey string
	Symbol       string
	Interval     string
	CandleCount  int

	FastEMA           int
	MediumEMA         int
	SlowEMA           int
	PullbackThreshold float64
	MarketIndex       string

	AccountSize  float64
	RiskPerTrade float64
	MaxPositions int

	LogLevel       string
	RequestTimeout int // seconds
	PollInterval   int // seconds between live re-evaluations

	TelegramBotToken string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		TwelveAPIKey: os.Getenv("TWELVE_API_KEY"),
		Symbol:       getEnvWithDefault("SYMBOL", "EUR/USD"),
		Interval:     getEnvWithDefault("INTERVAL", "15min"),
		CandleCount:  getEnvIntWithDefault("CANDLE_COUNT", 120),

		FastEMA:           getEnvIntWithDefault("FAST_EMA", 13),
		MediumEMA:         getEnvIntWithDefault("MEDIUM_EMA", 34),
		SlowEMA:           getEnvIntWithDefault("SLOW_EMA", 89),
		PullbackThreshold: getEnvFloatWithDefault("PULLBACK_THRESHOLD", 0.382),
		MarketIndex:       getEnvWithDefault("MARKET_INDEX", "US30"),

		AccountSize:  getEnvFloatWithDefault("ACCOUNT_SIZE", 10000),
		RiskPerTrade: getEnvFloatWithDefault("RISK_PER_TRADE", 0.02),
		MaxPositions: getEnvIntWithDefault("MAX_POSITIONS", 5),

		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		RequestTimeout: getEnvIntWithDefault("REQUEST_TIMEOUT", 30),
		PollInterval:   getEnvIntWithDefault("POLL_INTERVAL", 60),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),
	}

	// Detection parameters are validated here, at configuration time, so a
	// bad period or index identifier never reaches an evaluation.
	if err := cfg.PhaseConfig().Validate(); err != nil {
		return nil, fmt.Errorf("invalid phase detection config: %w", err)
	}

	return cfg, nil
}

// PhaseConfig assembles the detector configuration from the loaded settings.
func (c *Config) PhaseConfig() phase.Config {
	pc := phase.DefaultConfig()
	pc.Interval = c.Interval
	pc.FastPeriod = c.FastEMA
	pc.MediumPeriod = c.MediumEMA
	pc.SlowPeriod = c.SlowEMA
	pc.PullbackThreshold = c.PullbackThreshold
	pc.Index = model.MarketIndex(c.MarketIndex)
	return pc
}

// RecorderEnabled reports whether the Postgres phase-event recorder is
// configured.
func (c *Config) RecorderEnabled() bool {
	return c.DBHost != "" && c.DBName != ""
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
