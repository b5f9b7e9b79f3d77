package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Empty DatabaseURL keeps scenarios in files under StoreDir.
	DatabaseURL string
	StoreDir    string

	// Empty TokenKey disables login and leaves the API open.
	TokenKey    string
	TLSCertFile string
	TLSKeyFile  string

	RateLimit float64
	RateBurst int

	// TrueType font for PDF reports. Empty uses the core PDF fonts.
	ReportFontFile string
}

func (c *Config) AuthEnabled() bool { return c.TokenKey != "" }

func (c *Config) TLSEnabled() bool { return c.TLSCertFile != "" && c.TLSKeyFile != "" }

// Load reads an optional .env file and then the environment, applying
// defaults where unset. Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	shutdownTimeout, err := time.ParseDuration(envOrDefault("SHUTDOWN_TIMEOUT", "5s"))
	if err != nil || shutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	rateLimit, err := strconv.ParseFloat(envOrDefault("RATE_LIMIT", "5"), 64)
	if err != nil || rateLimit <= 0 {
		return nil, errors.New("invalid RATE_LIMIT")
	}
	rateBurst, err := strconv.Atoi(envOrDefault("RATE_BURST", "10"))
	if err != nil || rateBurst <= 0 {
		return nil, errors.New("invalid RATE_BURST")
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StoreDir:        envOrDefault("STORE_DIR", "./data"),
		TokenKey:        os.Getenv("TOKEN_KEY"),
		TLSCertFile:     os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:      os.Getenv("TLS_KEY_FILE"),
		RateLimit:       rateLimit,
		RateBurst:       rateBurst,
		ReportFontFile:  os.Getenv("REPORT_FONT_FILE"),
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if cfg.AuthEnabled() && cfg.DatabaseURL == "" {
		return nil, errors.New("TOKEN_KEY requires DATABASE_URL for the user store")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
