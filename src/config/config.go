package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Historical rate sources.
const (
	RateSourceFile  = "file"
	RateSourceECB   = "ecb"
	RateSourceChain = "chain"
	RateSourceNone  = "none"
)

const defaultJWTSecret = "change-me-this-secret-must-be-at-least-32-bytes-long"

// Configuration validation errors.
var (
	ErrInvalidLogLevel       = errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	ErrInvalidLogFormat      = errors.New("LOG_FORMAT must be 'json' or 'text'")
	ErrInvalidRateSource     = errors.New("HISTORICAL_RATES_SOURCE must be one of: file, ecb, chain, none")
	ErrMissingHistoricalPath = errors.New("HISTORICAL_DATA_PATH is required when the file source is used")
	ErrInvalidLookback       = errors.New("HISTORICAL_LOOKBACK_DAYS must be between 0 and 31")
	ErrInvalidECBRate        = errors.New("ECB_REQUESTS_PER_SECOND must be positive")
	ErrShortJWTSecret        = errors.New("JWT_SECRET must be at least 32 bytes")
	ErrInvalidUploadSize     = errors.New("MAX_UPLOAD_SIZE_BYTES must be positive")
)

type AppConfig struct {
	Port      string
	LogLevel  string
	LogFormat string

	DatabasePath string

	JWTSecret         string
	AccessTokenExpiry time.Duration

	MaxUploadSizeBytes int64
	AllowedOrigins     []string

	HistoricalRatesSource  string
	HistoricalDataPath     string
	HistoricalLookbackDays int

	ECBAPIBaseURL        string
	ECBRequestTimeout    time.Duration
	ECBRequestsPerSecond float64

	RateCacheTTL   time.Duration
	ReportCacheTTL time.Duration
}

var Cfg *AppConfig

// LoadConfig reads .env (if present) and the environment into Cfg.
// Invalid configuration is fatal.
func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	cfg := FromEnv()
	if cfg.JWTSecret == defaultJWTSecret {
		log.Println("WARNING: Using default insecure JWT_SECRET. Set JWT_SECRET environment variable for production.")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: invalid configuration: %v", err)
	}
	Cfg = cfg

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, RateSource=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.HistoricalRatesSource)
}

// FromEnv builds a configuration from environment variables and defaults.
func FromEnv() *AppConfig {
	return &AppConfig{
		Port:      getEnv("PORT", "8080"),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		DatabasePath: getEnv("DATABASE_PATH", "./bdm_cleaning.db"),

		JWTSecret:         getEnv("JWT_SECRET", defaultJWTSecret),
		AccessTokenExpiry: getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 24*time.Hour),

		MaxUploadSizeBytes: int64(getEnvAsInt("MAX_UPLOAD_SIZE_BYTES", 32*1024*1024)),
		AllowedOrigins:     splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		HistoricalRatesSource:  strings.ToLower(getEnv("HISTORICAL_RATES_SOURCE", RateSourceFile)),
		HistoricalDataPath:     getEnv("HISTORICAL_DATA_PATH", "data/historicalExchangeRate.json"),
		HistoricalLookbackDays: getEnvAsInt("HISTORICAL_LOOKBACK_DAYS", 0),

		ECBAPIBaseURL:        getEnv("ECB_API_BASE_URL", "https://data-api.ecb.europa.eu"),
		ECBRequestTimeout:    getEnvAsDuration("ECB_REQUEST_TIMEOUT", 20*time.Second),
		ECBRequestsPerSecond: getEnvAsFloat("ECB_REQUESTS_PER_SECOND", 4),

		RateCacheTTL:   getEnvAsDuration("RATE_CACHE_TTL", 24*time.Hour),
		ReportCacheTTL: getEnvAsDuration("REPORT_CACHE_TTL", 15*time.Minute),
	}
}

// Validate validates the configuration.
func (c *AppConfig) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return ErrInvalidLogFormat
	}

	switch c.HistoricalRatesSource {
	case RateSourceFile, RateSourceChain:
		if c.HistoricalDataPath == "" {
			return ErrMissingHistoricalPath
		}
	case RateSourceECB, RateSourceNone:
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidRateSource, c.HistoricalRatesSource)
	}

	if c.HistoricalLookbackDays < 0 || c.HistoricalLookbackDays > 31 {
		return ErrInvalidLookback
	}

	if c.ECBRequestsPerSecond <= 0 {
		return ErrInvalidECBRate
	}

	if len(c.JWTSecret) < 32 {
		return ErrShortJWTSecret
	}

	if c.MaxUploadSizeBytes <= 0 {
		return ErrInvalidUploadSize
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
