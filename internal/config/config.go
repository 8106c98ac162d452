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

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Storage StorageConfig
	Server  ServerConfig
	Auth    AuthConfig
	Ingest  IngestConfig
	Speech  SpeechConfig
	Billing BillingConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// StorageConfig holds persistent storage configuration.
type StorageConfig struct {
	// BasePath is the root directory for the database, exported audio,
	// and the search index (default: ~/PageVoice/data).
	BasePath string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// AuthConfig holds device token configuration.
type AuthConfig struct {
	// DeviceTokenKey is the PASETO v4 symmetric key for device tokens (32 bytes).
	DeviceTokenKey []byte
	// DeviceTokenDuration is the lifetime of issued device tokens.
	DeviceTokenDuration time.Duration
	// LoginDelay is the artificial delay of the simulated login.
	LoginDelay time.Duration
}

// IngestConfig holds document ingestion configuration.
type IngestConfig struct {
	// MaxFileSize caps uploaded PDFs in bytes (default: 50 MiB).
	MaxFileSize int64
	// InboxPath is an optional watched directory; PDFs dropped there are
	// ingested automatically. Empty disables the watcher.
	InboxPath string
	// InboxDevice is the device the inbox ingests for (default: "inbox").
	InboxDevice string
}

// SpeechConfig holds speech synthesis configuration.
type SpeechConfig struct {
	// Enabled allows disabling synthesis entirely (default: true).
	Enabled bool
	// EnginePath overrides auto-detection of the speech engine binary.
	EnginePath string
	// ExportPath is the directory for exported audio (default: {storage}/exports).
	ExportPath string
	// WordsPerMinute is the base speaking rate used for position estimates.
	WordsPerMinute int
}

// BillingConfig holds checkout configuration.
type BillingConfig struct {
	// CheckoutURL is the external payment page opened by clients.
	CheckoutURL string
}

// DefaultCheckoutURL is the hosted checkout page for premium upgrades.
const DefaultCheckoutURL = "https://pagevoice.lemonsqueezy.com/checkout/buy/d29d9030-7726-49fb-a008-a385665fcda2"

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	storagePath := flag.String("storage-path", "", "Base path for persistent storage")
	serverName := flag.String("server-name", "", "Name for the server")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	deviceTokenDuration := flag.String("device-token-duration", "", "Device token lifetime (e.g., 720h)")
	inboxPath := flag.String("inbox-path", "", "Watched drop folder for PDFs (empty: disabled)")
	maxFileSize := flag.String("max-file-size", "", "Max upload size in bytes (default: 52428800)")
	speechEnabled := flag.String("speech-enabled", "", "Enable speech synthesis (default: true)")
	speechEnginePath := flag.String("speech-engine-path", "", "Path to speech engine binary (default: auto-detect)")
	checkoutURL := flag.String("checkout-url", "", "External checkout URL")
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
		Storage: StorageConfig{
			BasePath: getConfigValue(*storagePath, "STORAGE_PATH", ""),
		},
		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "PageVoice Server"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Ingest: IngestConfig{
			MaxFileSize: getInt64ConfigValue(*maxFileSize, "MAX_FILE_SIZE", 50<<20),
			InboxPath:   getConfigValue(*inboxPath, "INBOX_PATH", ""),
			InboxDevice: getConfigValue("", "INBOX_DEVICE", "inbox"),
		},
		Speech: SpeechConfig{
			Enabled:        getBoolConfigValue(*speechEnabled, "SPEECH_ENABLED", true),
			EnginePath:     getConfigValue(*speechEnginePath, "SPEECH_ENGINE_PATH", ""),
			WordsPerMinute: getIntConfigValue("", "SPEECH_WORDS_PER_MINUTE", 180),
		},
		Billing: BillingConfig{
			CheckoutURL: getConfigValue(*checkoutURL, "CHECKOUT_URL", DefaultCheckoutURL),
		},
	}

	tokenDurationStr := getConfigValue(*deviceTokenDuration, "DEVICE_TOKEN_DURATION", "720h")
	tokenDuration, err := time.ParseDuration(tokenDurationStr)
	if err != nil {
		return nil, fmt.Errorf("invalid device token duration %q: %w", tokenDurationStr, err)
	}
	cfg.Auth.DeviceTokenDuration = tokenDuration

	loginDelayStr := getConfigValue("", "LOGIN_DELAY", "500ms")
	loginDelay, err := time.ParseDuration(loginDelayStr)
	if err != nil {
		return nil, fmt.Errorf("invalid login delay %q: %w", loginDelayStr, err)
	}
	cfg.Auth.LoginDelay = loginDelay

	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	cfg.Server.ReadTimeout, err = time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	cfg.Server.WriteTimeout, err = time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	cfg.Server.IdleTimeout, err = time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}

	if err := cfg.expandStoragePath(); err != nil {
		return nil, fmt.Errorf("invalid storage path: %w", err)
	}
	if err := cfg.expandInboxPath(); err != nil {
		return nil, fmt.Errorf("invalid inbox path: %w", err)
	}
	cfg.expandExportPath()

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

	if c.Storage.BasePath == "" {
		return errors.New("storage base path cannot be empty after expansion")
	}

	if c.Ingest.MaxFileSize <= 0 {
		return errors.New("max file size must be positive")
	}

	if c.Speech.WordsPerMinute <= 0 {
		return errors.New("speech words per minute must be positive")
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

func (c *Config) expandStoragePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "PageVoice", "data")

	expanded, err := expandPath(c.Storage.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.BasePath = expanded
	return nil
}

// expandInboxPath expands the inbox path; empty stays empty (watcher disabled).
func (c *Config) expandInboxPath() error {
	if c.Ingest.InboxPath == "" {
		return nil
	}

	expanded, err := expandPath(c.Ingest.InboxPath, "")
	if err != nil {
		return err
	}
	c.Ingest.InboxPath = expanded
	return nil
}

func (c *Config) expandExportPath() {
	if c.Speech.ExportPath == "" {
		c.Speech.ExportPath = filepath.Join(c.Storage.BasePath, "exports")
	}
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

// getInt64ConfigValue returns an int64 from flag, env var, or default.
func getInt64ConfigValue(flagValue, envKey string, defaultValue int64) int64 {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int64
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

		// Env vars already set take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
