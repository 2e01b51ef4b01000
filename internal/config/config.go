// Package config loads the YAML application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the config filename used when none is supplied.
const DefaultConfigFile = "config.yaml"

// AppConfig carries CLI-level inputs into the application entrypoints.
type AppConfig struct {
	ConfigPath string
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig selects the backing store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// JWTConfig controls token signing for both admin and portal sessions.
type JWTConfig struct {
	Secret                string `yaml:"secret"`
	AdminTokenTTLMinutes  int    `yaml:"admin-token-ttl-minutes"`
	ClientTokenTTLMinutes int    `yaml:"client-token-ttl-minutes"`
}

// AdminTokenTTL returns the admin session lifetime.
func (c JWTConfig) AdminTokenTTL() time.Duration {
	if c.AdminTokenTTLMinutes <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.AdminTokenTTLMinutes) * time.Minute
}

// ClientTokenTTL returns the portal session lifetime.
func (c JWTConfig) ClientTokenTTL() time.Duration {
	if c.ClientTokenTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.ClientTokenTTLMinutes) * time.Minute
}

// RedisConfig controls the optional quote cache.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LoggingConfig controls log output and rotation.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
	Compress   bool   `yaml:"compress"`
}

// Config is the root of the YAML configuration file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTConfig      `yaml:"jwt"`
	Redis    RedisConfig    `yaml:"redis"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	host := c.Server.Host
	port := c.Server.Port
	if port <= 0 {
		port = 8318
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// ResolveConfigPath picks the effective config file path. An explicit path
// wins, then the PAYROLL_BILLING_CONFIG environment variable, then the
// default filename in the working directory.
func ResolveConfigPath(path string) string {
	if strings.TrimSpace(path) != "" {
		return path
	}
	if env := strings.TrimSpace(os.Getenv("PAYROLL_BILLING_CONFIG")); env != "" {
		return env
	}
	return DefaultConfigFile
}

// ConfigExists reports whether the config file is present on disk.
func ConfigExists(path string) bool {
	info, err := os.Stat(ResolveConfigPath(path))
	return err == nil && !info.IsDir()
}

// LoadConfig reads and parses the YAML config file. Environment variables
// override file values for secrets so deployments can keep them out of the
// file: DATABASE_DSN, JWT_SECRET, REDIS_ADDR and REDIS_PASSWORD.
func LoadConfig(path string) (Config, error) {
	resolved := ResolveConfigPath(path)
	var cfg Config

	data, errRead := os.ReadFile(filepath.Clean(resolved))
	if errRead != nil {
		if !os.IsNotExist(errRead) {
			return Config{}, fmt.Errorf("config: read %s: %w", resolved, errRead)
		}
	} else if errParse := yaml.Unmarshal(data, &cfg); errParse != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", resolved, errParse)
	}

	if env := strings.TrimSpace(os.Getenv("DATABASE_DSN")); env != "" {
		cfg.Database.DSN = env
	}
	if env := strings.TrimSpace(os.Getenv("JWT_SECRET")); env != "" {
		cfg.JWT.Secret = env
	}
	if env := strings.TrimSpace(os.Getenv("REDIS_ADDR")); env != "" {
		cfg.Redis.Addr = env
		cfg.Redis.Enabled = true
	}
	if env := strings.TrimSpace(os.Getenv("REDIS_PASSWORD")); env != "" {
		cfg.Redis.Password = env
	}

	return cfg, nil
}

// LoadDatabaseDSN loads only the database DSN from the config file.
func LoadDatabaseDSN(path string) (string, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return "", err
	}
	dsn := strings.TrimSpace(cfg.Database.DSN)
	if dsn == "" {
		return "", fmt.Errorf("config: database dsn is not set")
	}
	return dsn, nil
}

// LoadJWTConfig loads only the JWT section from the config file.
func LoadJWTConfig(path string) (JWTConfig, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return JWTConfig{}, err
	}
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return cfg.JWT, fmt.Errorf("config: jwt secret is not set")
	}
	return cfg.JWT, nil
}
