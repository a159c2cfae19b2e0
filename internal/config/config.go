package config

import (
	"os"

	"github.com/xgenlab/xgenaudio/internal/envvar"
)

// Config holds the bootstrap configuration for the server. Runtime
// tunables (provider selection, model names, feature flags) live in the
// Redis config store and are not part of this file.
type Config struct {
	Version   string          `json:"version"             yaml:"version"`
	Server    ServerConfig    `json:"server,omitempty"    yaml:"server,omitempty"`
	Redis     RedisConfig     `json:"redis"               yaml:"redis"`
	Database  DatabaseConfig  `json:"database,omitempty"  yaml:"database,omitempty"`
	Logging   LoggingConfig   `json:"logging,omitempty"   yaml:"logging,omitempty"`
	Providers ProvidersConfig `json:"providers,omitempty" yaml:"providers,omitempty"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// RedisConfig holds connection settings for the config store.
type RedisConfig struct {
	Addr     string `json:"addr"               yaml:"addr"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty"       yaml:"db,omitempty"`
}

// DatabaseConfig holds the relational store connection URL. An empty
// URL disables audit-log persistence.
type DatabaseConfig struct {
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
}

// LoggingConfig holds file logging settings.
type LoggingConfig struct {
	File       string `json:"file,omitempty"        yaml:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty" yaml:"max_backups,omitempty"`
}

// ProvidersConfig holds paths to the provider engine binaries.
type ProvidersConfig struct {
	WhisperBin string `json:"whisper_bin,omitempty" yaml:"whisper_bin,omitempty"`
	ZonosBin   string `json:"zonos_bin,omitempty"   yaml:"zonos_bin,omitempty"`
	PiperBin   string `json:"piper_bin,omitempty"   yaml:"piper_bin,omitempty"`
}

// Addr returns the HTTP listen address, honoring the
// XGENAUDIO_HTTP_ADDR override.
func (c *Config) Addr() string {
	if addr := os.Getenv(envvar.XgenAudioHTTPAddr); addr != "" {
		return addr
	}
	if c.Server.Addr != "" {
		return c.Server.Addr
	}
	return DefaultHTTPAddr()
}

// RedisAddr returns the Redis address, honoring the
// XGENAUDIO_REDIS_ADDR override.
func (c *Config) RedisAddr() string {
	if addr := os.Getenv(envvar.XgenAudioRedisAddr); addr != "" {
		return addr
	}
	return c.Redis.Addr
}

// DatabaseURL returns the database URL, honoring the
// XGENAUDIO_DATABASE_URL override.
func (c *Config) DatabaseURL() string {
	if url := os.Getenv(envvar.XgenAudioDatabaseURL); url != "" {
		return url
	}
	return c.Database.URL
}
