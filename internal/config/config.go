package config

import (
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the chat-backend service.
type Config struct {
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Anthropic AnthropicConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port string `envconfig:"SERVER_PORT" default:"8080"`
}

// DatabaseConfig holds PostgreSQL configuration. An empty DSN puts the
// store adapter into no-op mode: every persistence operation degrades to a
// null result instead of failing.
type DatabaseConfig struct {
	DSN string `envconfig:"DATABASE_DSN"`
}

// RedisConfig holds Redis configuration. An empty URI disables the profile
// store.
type RedisConfig struct {
	URI string `envconfig:"REDIS_URI"`
}

// AnthropicConfig holds Anthropic Claude API configuration. An empty API key
// puts the streaming gateway into demo mode.
type AnthropicConfig struct {
	APIKey    string `envconfig:"ANTHROPIC_API_KEY"`
	Model     string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-20250514"`
	MaxTokens int    `envconfig:"ANTHROPIC_MAX_TOKENS" default:"4096"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration for logical errors beyond required fields.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Anthropic.MaxTokens <= 0 {
		c.Anthropic.MaxTokens = 4096
	}
	return nil
}

// PersistenceEnabled reports whether a backing database is configured.
func (c *Config) PersistenceEnabled() bool {
	return c.Database.DSN != ""
}

// GenerationEnabled reports whether a model-provider credential is
// configured. When false the gateway serves scripted demo responses.
func (c *Config) GenerationEnabled() bool {
	return c.Anthropic.APIKey != ""
}
