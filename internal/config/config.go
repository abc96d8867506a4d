// Package config loads application configuration from command-line flags,
// environment variables, and an optional .env file.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Data    DataConfig
	Ingest  IngestConfig
	Catalog CatalogConfig
	Server  ServerConfig
	Auth    AuthConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds storage paths.
type DataConfig struct {
	// BasePath is the root data directory (database, search index, keys).
	BasePath string
}

// IngestConfig holds analyzer drop-directory configuration.
type IngestConfig struct {
	// DropPath is the directory the external analyzer writes cue result
	// files into. Empty disables the watcher.
	DropPath string
	// ABSBackupPath points at an Audiobookshelf backup database to use as
	// a chapter source. Optional.
	ABSBackupPath string
}

// CatalogConfig holds external chapter catalog configuration.
type CatalogConfig struct {
	// BaseURL of the catalog API. Empty disables the catalog source.
	BaseURL string
	// Timeout for catalog requests.
	Timeout time.Duration
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	AdvertiseMDNS bool
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// AccessTokenKey is the hex-encoded PASETO v4 symmetric key, loaded or
	// generated at startup.
	AccessTokenKey       string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// LoadConfig loads configuration with precedence: flags, then environment
// variables, then the .env file, then defaults.
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for server data")
	dropPath := flag.String("drop-path", "", "Directory watched for analyzer cue files")
	absBackupPath := flag.String("abs-backup", "", "Audiobookshelf backup database to read chapters from")
	catalogURL := flag.String("catalog-url", "", "Base URL of the external chapter catalog")
	catalogTimeout := flag.String("catalog-timeout", "", "Catalog request timeout (default: 10s)")
	serverName := flag.String("server-name", "", "Name for the server")
	serverPort := flag.String("port", "", "Server port (default: 8484)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	advertiseMDNS := flag.String("advertise-mdns", "", "Advertise via mDNS/Zeroconf (default: true)")
	accessTokenDuration := flag.String("access-token-duration", "", "Access token lifetime (e.g., 15m)")
	refreshTokenDuration := flag.String("refresh-token-duration", "", "Refresh token lifetime (e.g., 720h)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Missing .env files are fine; env vars and defaults still apply.
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Data: DataConfig{
			BasePath: getValue(*dataPath, "DATA_PATH", ""),
		},
		Ingest: IngestConfig{
			DropPath:      getValue(*dropPath, "DROP_PATH", ""),
			ABSBackupPath: getValue(*absBackupPath, "ABS_BACKUP_PATH", ""),
		},
		Catalog: CatalogConfig{
			BaseURL: getValue(*catalogURL, "CATALOG_URL", ""),
		},
		Server: ServerConfig{
			Name:          getValue(*serverName, "SERVER_NAME", "CueMark Server"),
			Port:          getValue(*serverPort, "SERVER_PORT", "8484"),
			AdvertiseMDNS: getBool(*advertiseMDNS, "ADVERTISE_MDNS", true),
		},
	}

	var err error
	cfg.Catalog.Timeout, err = getDuration(*catalogTimeout, "CATALOG_TIMEOUT", "10s")
	if err != nil {
		return nil, fmt.Errorf("invalid catalog timeout: %w", err)
	}
	cfg.Auth.AccessTokenDuration, err = getDuration(*accessTokenDuration, "ACCESS_TOKEN_DURATION", "15m")
	if err != nil {
		return nil, fmt.Errorf("invalid access token duration: %w", err)
	}
	cfg.Auth.RefreshTokenDuration, err = getDuration(*refreshTokenDuration, "REFRESH_TOKEN_DURATION", "720h")
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token duration: %w", err)
	}
	cfg.Server.ReadTimeout, err = getDuration(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	cfg.Server.WriteTimeout, err = getDuration(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	cfg.Server.IdleTimeout, err = getDuration(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required values are present and recognized.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	switch strings.ToLower(c.Logger.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	return nil
}

// expandPaths resolves ~ and relative paths. The data path defaults to
// ~/CueMark/data; the drop and backup paths stay empty when unset, which
// disables their features.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	c.Data.BasePath, err = expandPath(c.Data.BasePath, filepath.Join(homeDir, "CueMark", "data"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	c.Ingest.DropPath, err = expandPath(c.Ingest.DropPath, "")
	if err != nil {
		return fmt.Errorf("invalid drop path: %w", err)
	}
	c.Ingest.ABSBackupPath, err = expandPath(c.Ingest.ABSBackupPath, "")
	if err != nil {
		return fmt.Errorf("invalid abs backup path: %w", err)
	}
	return nil
}

// expandPath expands ~ and makes the path absolute. Empty paths return the
// default unchanged.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = abs
	}

	return filepath.Clean(path), nil
}

// getValue returns the first non-empty value from flag, env var, or default.
func getValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBool accepts "true", "1", "yes" (case-insensitive) as true.
func getBool(flagValue, envKey string, defaultValue bool) bool {
	v := getValue(flagValue, envKey, "")
	if v == "" {
		return defaultValue
	}
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

func getDuration(flagValue, envKey, defaultValue string) (time.Duration, error) {
	v := getValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", v, err)
	}
	return d, nil
}

// loadEnvFile loads KEY=value lines from a .env file. Existing environment
// variables win over file entries.
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- config file path comes from the operator
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
