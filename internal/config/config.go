// Package config resolves runtime settings from a .env file and the process
// environment.
package config

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL     = "https://www.uniprot.org"
	DefaultMaxAttempts = 10
	DefaultBackoffUnit = 5 * time.Second
	DefaultHTTPTimeout = 60 * time.Second
	DefaultDataDir     = "./data"
	DefaultListenAddr  = "0.0.0.0:8080"
	DefaultLogLevel    = "info"
)

type Config struct {
	BaseURL     string
	MaxAttempts int
	BackoffUnit time.Duration
	HTTPTimeout time.Duration
	DataDir     string
	ListenAddr  string
	LogLevel    string

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

func Default() *Config {
	return &Config{
		BaseURL:     DefaultBaseURL,
		MaxAttempts: DefaultMaxAttempts,
		BackoffUnit: DefaultBackoffUnit,
		HTTPTimeout: DefaultHTTPTimeout,
		DataDir:     DefaultDataDir,
		ListenAddr:  DefaultListenAddr,
		LogLevel:    DefaultLogLevel,
	}
}

// Load reads the given .env files (or ./.env when none are given) and then
// overlays UNIREF_* variables from the environment onto the defaults.
// A missing .env is not an error.
func Load(envFiles ...string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(envFiles...); err == nil {
		cfg.EnvFileLoaded = true
	}

	return cfg, cfg.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("UNIREF_BASE_URL"); v != "" {
		c.BaseURL = strings.TrimRight(v, "/")
	}
	if v := getenv("UNIREF_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("UNIREF_MAX_ATTEMPTS must be a positive integer, got %q", v)
		}
		c.MaxAttempts = n
	}
	if v := getenv("UNIREF_BACKOFF_UNIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			return fmt.Errorf("UNIREF_BACKOFF_UNIT must be a non-negative duration, got %q", v)
		}
		c.BackoffUnit = d
	}
	if v := getenv("UNIREF_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("UNIREF_HTTP_TIMEOUT must be a positive duration, got %q", v)
		}
		c.HTTPTimeout = d
	}
	if v := getenv("UNIREF_DATA"); v != "" {
		c.DataDir = v
	}
	if v := getenv("UNIREF_LISTEN"); v != "" {
		c.ListenAddr = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// JobDBDir is where the download job ledger lives.
func (c *Config) JobDBDir() string {
	return path.Join(c.DataDir, "db")
}

// DownloadDir is the default destination for bulk-query downloads started
// over HTTP.
func (c *Config) DownloadDir() string {
	return path.Join(c.DataDir, "downloads")
}
