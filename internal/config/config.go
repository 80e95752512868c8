// Package config loads daystreak settings from a YAML file, then applies a
// .env file and DAYSTREAK_* environment variables on top.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/daystreak/internal/constants"
	"github.com/julianstephens/daystreak/internal/keyring"
	"github.com/julianstephens/daystreak/internal/utils"
)

// Config represents the complete daystreak configuration
type Config struct {
	// Database is a SQLite file path, a PostgreSQL URL without credentials,
	// or "keyring" to read the URL from the OS keyring.
	Database string `yaml:"database"`
	// UserID is the local profile the CLI acts as.
	UserID    string       `yaml:"user_id,omitempty"`
	Timezone  string       `yaml:"timezone"`
	Debug     bool         `yaml:"debug"`
	LogFormat string       `yaml:"log_format"`
	Server    ServerConfig `yaml:"server"`
	NATS      NATSConfig   `yaml:"nats"`
	Streak    StreakConfig `yaml:"streak"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// NATSConfig configures event publishing. An empty URL logs events instead.
type NATSConfig struct {
	URL           string `yaml:"url,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type StreakConfig struct {
	// CountEmptyDays lets a day with no active habits extend a streak.
	CountEmptyDays bool `yaml:"count_empty_days"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database:  constants.DefaultDBPath,
		Timezone:  constants.DefaultTimezone,
		LogFormat: constants.DefaultLogFormat,
		Server:    ServerConfig{Addr: constants.DefaultServerAddr},
		NATS:      NATSConfig{SubjectPrefix: constants.DefaultNATSSubjectPrefix},
		Streak:    StreakConfig{CountEmptyDays: constants.DefaultCountEmptyDays},
	}
}

// Keys lists every settable key.
func Keys() []string {
	return []string{
		constants.SettingDatabase,
		constants.SettingUserID,
		constants.SettingTimezone,
		constants.SettingDebug,
		constants.SettingLogFormat,
		constants.SettingServerAddr,
		constants.SettingNATSURL,
		constants.SettingNATSPrefix,
		constants.SettingCountEmptyDays,
	}
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return constants.EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return fmt.Errorf("database is required")
	}
	if !utils.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	switch c.LogFormat {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("log_format must be text, json or logfmt, got %q", c.LogFormat)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("nats.subject_prefix is required")
	}
	return nil
}

// Get returns the string form of key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case constants.SettingDatabase:
		return c.Database, nil
	case constants.SettingUserID:
		return c.UserID, nil
	case constants.SettingTimezone:
		return c.Timezone, nil
	case constants.SettingDebug:
		return strconv.FormatBool(c.Debug), nil
	case constants.SettingLogFormat:
		return c.LogFormat, nil
	case constants.SettingServerAddr:
		return c.Server.Addr, nil
	case constants.SettingNATSURL:
		return c.NATS.URL, nil
	case constants.SettingNATSPrefix:
		return c.NATS.SubjectPrefix, nil
	case constants.SettingCountEmptyDays:
		return strconv.FormatBool(c.Streak.CountEmptyDays), nil
	default:
		return "", fmt.Errorf("unknown setting %q", key)
	}
}

// Set parses value into key.
func (c *Config) Set(key, value string) error {
	switch key {
	case constants.SettingDatabase:
		c.Database = value
	case constants.SettingUserID:
		c.UserID = value
	case constants.SettingTimezone:
		c.Timezone = value
	case constants.SettingDebug:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", key, value, err)
		}
		c.Debug = b
	case constants.SettingLogFormat:
		c.LogFormat = strings.ToLower(value)
	case constants.SettingServerAddr:
		c.Server.Addr = value
	case constants.SettingNATSURL:
		c.NATS.URL = value
	case constants.SettingNATSPrefix:
		c.NATS.SubjectPrefix = value
	case constants.SettingCountEmptyDays:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", key, value, err)
		}
		c.Streak.CountEmptyDays = b
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

// Load reads path (a missing file yields the defaults), then the given .env
// files and the environment, and validates the result.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		expanded, err := utils.ExpandHome(path)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(expanded)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads the .env files that exist. Variables already set in the
// environment win.
func loadEnvFiles(files ...string) error {
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	for _, key := range Keys() {
		if value, ok := os.LookupEnv(EnvName(key)); ok {
			if err := c.Set(key, value); err != nil {
				return fmt.Errorf("%s: %w", EnvName(key), err)
			}
		}
	}
	return nil
}

// Save writes the configuration to path as YAML.
func (c *Config) Save(path string) error {
	expanded, err := utils.ExpandHome(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(expanded, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// IsPostgres reports whether conn is a PostgreSQL URL.
func IsPostgres(conn string) bool {
	return strings.HasPrefix(conn, "postgres://") || strings.HasPrefix(conn, "postgresql://")
}

// ResolveDatabase returns the connection the store should open. The
// DAYSTREAK_DB_CONNECTION variable wins, then the keyring sentinel, then the
// configured value with "~" expanded for file paths.
func (c *Config) ResolveDatabase() (string, error) {
	if conn := os.Getenv(constants.EnvDBConnection); conn != "" {
		return conn, nil
	}
	if c.Database == constants.KeyringDatabase {
		conn, err := keyring.GetConnectionString()
		if err != nil {
			return "", fmt.Errorf("failed to read database connection from keyring: %w", err)
		}
		return conn, nil
	}
	if IsPostgres(c.Database) {
		return c.Database, nil
	}
	return utils.ExpandHome(c.Database)
}

// ResolveNATSURL returns the NATS URL, reading it from the keyring when set
// to "keyring".
func (c *Config) ResolveNATSURL() (string, error) {
	if c.NATS.URL != constants.KeyringDatabase {
		return c.NATS.URL, nil
	}
	url, err := keyring.Get(keyring.NATSKey)
	if err != nil {
		return "", fmt.Errorf("failed to read nats url from keyring: %w", err)
	}
	return url, nil
}

// Dir returns the directory holding the config file, used for logs.
func Dir(path string) string {
	expanded, err := utils.ExpandHome(path)
	if err != nil {
		return "."
	}
	return filepath.Dir(expanded)
}
