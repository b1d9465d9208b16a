// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Store  StoreConfig
	Index  IndexConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StoreConfig holds document store configuration.
type StoreConfig struct {
	// Path is the directory holding the Badger database.
	Path string
}

// IndexConfig holds candidate index build configuration.
type IndexConfig struct {
	// OutputDir is where the per-key-type index files are written.
	OutputDir string
	// Sink selects the index output backend: "file" or "sqlite".
	Sink string
	// SQLitePath is the database file for the sqlite sink
	// (default: {output-dir}/candidates.db).
	SQLitePath string
	// Shards is the parallel fan-out for the corpus pass (default: 1).
	Shards int
	// ProgressEvery controls how often the builder logs progress,
	// in records (default: 100000).
	ProgressEvery int
	// WindowSize is the moving-window length, in records, for the
	// throughput/ETA estimate (default: 10000).
	WindowSize int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	storePath := flag.String("store-path", "", "Directory for the document store database")
	indexDir := flag.String("index-dir", "", "Output directory for candidate index files")
	indexSink := flag.String("index-sink", "", "Candidate index sink (file, sqlite)")
	sqlitePath := flag.String("index-sqlite-path", "", "SQLite database file for the sqlite sink")
	shards := flag.String("index-shards", "", "Parallel shards for the index pass (default: 1)")
	progressEvery := flag.String("progress-every", "", "Log progress every N records (default: 100000)")
	windowSize := flag.String("throughput-window", "", "Moving window size for throughput, in records (default: 10000)")
	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Store: StoreConfig{
			Path: getConfigValue(*storePath, "STORE_PATH", ""),
		},
		Index: IndexConfig{
			OutputDir:     getConfigValue(*indexDir, "INDEX_DIR", ""),
			Sink:          getConfigValue(*indexSink, "INDEX_SINK", "file"),
			SQLitePath:    getConfigValue(*sqlitePath, "INDEX_SQLITE_PATH", ""),
			Shards:        getIntConfigValue(*shards, "INDEX_SHARDS", 1),
			ProgressEvery: getIntConfigValue(*progressEvery, "PROGRESS_EVERY", 100000),
			WindowSize:    getIntConfigValue(*windowSize, "THROUGHPUT_WINDOW", 10000),
		},
	}

	if err := cfg.expandStorePath(); err != nil {
		return nil, fmt.Errorf("invalid store path: %w", err)
	}
	if err := cfg.expandIndexDir(); err != nil {
		return nil, fmt.Errorf("invalid index dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Store.Path == "" {
		return errors.New("store path cannot be empty after expansion")
	}

	switch c.Index.Sink {
	case "file", "sqlite":
	default:
		return fmt.Errorf("invalid index sink: %s (must be file or sqlite)", c.Index.Sink)
	}

	if c.Index.Shards < 1 {
		return fmt.Errorf("index shards must be >= 1, got %d", c.Index.Shards)
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
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
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandStorePath expands ~ and makes the path absolute.
// Defaults to ~/Shelfmark/store.
func (c *Config) expandStorePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Shelfmark", "store")

	expanded, err := expandPath(c.Store.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Store.Path = expanded
	return nil
}

// expandIndexDir expands ~ and makes the path absolute.
// Defaults to ~/Shelfmark/index; the sqlite sink path defaults to
// {index-dir}/candidates.db.
func (c *Config) expandIndexDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Shelfmark", "index")

	expanded, err := expandPath(c.Index.OutputDir, defaultPath)
	if err != nil {
		return err
	}
	c.Index.OutputDir = expanded

	sqlitePath, err := expandPath(c.Index.SQLitePath, filepath.Join(c.Index.OutputDir, "candidates.db"))
	if err != nil {
		return err
	}
	c.Index.SQLitePath = sqlitePath
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
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

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
