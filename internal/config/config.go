// Package config provides application configuration management with support
// for environment variables, command-line flags, and .env files.
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

// Config holds the engine configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Data     DataConfig
	Library  LibraryConfig
	Playback PlaybackConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DataConfig holds local persistence configuration.
type DataConfig struct {
	// BasePath is the directory for the key-value store, the library
	// index, and everything else the engine persists.
	BasePath string
	// Backend selects the store implementation: "badger" or "sqlite".
	Backend string
}

// LibraryConfig holds generated-book library configuration.
type LibraryConfig struct {
	// Root is the directory the conversion pipeline writes books into.
	Root string
	// Watch keeps the catalog synced with filesystem changes.
	Watch bool
}

// PlaybackConfig holds audio output configuration.
type PlaybackConfig struct {
	// Output selects the player backend: "device" for real audio output,
	// "clock" for a silent wall-clock player.
	Output string
	// TickInterval is the highlight pipeline cadence for the clock player.
	TickInterval time.Duration
}

// Load reads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for engine data")
	dataBackend := flag.String("data-backend", "", "Store backend (badger, sqlite)")
	libraryRoot := flag.String("library", "", "Path to the generated-book library")
	libraryWatch := flag.String("watch", "", "Watch the library for changes (default: true)")
	playbackOutput := flag.String("output", "", "Playback output (device, clock)")
	tickInterval := flag.String("tick-interval", "", "Highlight tick interval (default: 250ms)")
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
		Data: DataConfig{
			BasePath: getConfigValue(*dataPath, "DATA_PATH", ""),
			Backend:  getConfigValue(*dataBackend, "DATA_BACKEND", "badger"),
		},
		Library: LibraryConfig{
			Root:  getConfigValue(*libraryRoot, "LIBRARY_PATH", ""),
			Watch: getBoolConfigValue(*libraryWatch, "LIBRARY_WATCH", true),
		},
		Playback: PlaybackConfig{
			Output: getConfigValue(*playbackOutput, "PLAYBACK_OUTPUT", "device"),
		},
	}

	tickStr := getConfigValue(*tickInterval, "TICK_INTERVAL", "250ms")
	tick, err := time.ParseDuration(tickStr)
	if err != nil {
		return nil, fmt.Errorf("invalid tick interval %q: %w", tickStr, err)
	}
	cfg.Playback.TickInterval = tick

	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}
	if err := cfg.expandLibraryRoot(); err != nil {
		return nil, fmt.Errorf("invalid library path: %w", err)
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

	validBackends := map[string]bool{
		"badger": true,
		"sqlite": true,
	}
	if !validBackends[c.Data.Backend] {
		return fmt.Errorf("invalid data backend: %s (must be badger or sqlite)", c.Data.Backend)
	}

	validOutputs := map[string]bool{
		"device": true,
		"clock":  true,
	}
	if !validOutputs[c.Playback.Output] {
		return fmt.Errorf("invalid playback output: %s (must be device or clock)", c.Playback.Output)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Playback.TickInterval <= 0 {
		return errors.New("tick interval must be positive")
	}

	// Library root can be empty - a book can still be opened by path.

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

// expandDataPath expands ~ and makes the path absolute, defaulting to
// ~/ReadAlong/data.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "ReadAlong", "data")

	expanded, err := expandPath(c.Data.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Data.BasePath = expanded
	return nil
}

// expandLibraryRoot expands ~ and makes the path absolute. An empty root
// stays empty; the catalog is simply not scanned.
func (c *Config) expandLibraryRoot() error {
	if c.Library.Root == "" {
		return nil
	}

	expanded, err := expandPath(c.Library.Root, "")
	if err != nil {
		return err
	}
	c.Library.Root = expanded
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

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
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

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
