package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/openai-api-blueprint/blueprint/pkg/logger"
)

const DefaultProjectFile = "blueprint.toml"

// Config is built once at startup and handed to every component that needs it
type Config struct {
	Environment Environment
	Host        string
	Port        int
	LogLevel    string
	LogFormat   string
	Project     ProjectMetadata
	Auth        AuthConfig
	CORSOrigins []string
	RateLimit   RateLimitConfig
	Redis       RedisConfig
	Provider    ProviderConfig
	// Models overrides the default model catalog when non-empty
	Models []string
}

// Load reads an optional .env file and then builds the Config from the
// process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to read .env file")
	}
	return FromEnv()
}

// FromEnv builds and validates the Config from the process environment
func FromEnv() (*Config, error) {
	env := ParseEnvironment(GetEnvOrDefault("ENVIRONMENT", string(Development)))

	cfg := &Config{
		Environment: env,
		Host:        GetEnvOrDefault("HOST", "0.0.0.0"),
		Port:        parseEnvInt("PORT", 8000),
		LogLevel:    GetEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:   GetEnvOrDefault("LOG_FORMAT", "json"),
		CORSOrigins: splitList("CORS_ORIGINS"),
		RateLimit:   getRateLimitConfig(),
		Redis:       getRedisConfig(),
		Models:      splitList("MODELS"),
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid PORT %d", cfg.Port)
	}

	project, err := LoadProjectMetadata(GetEnvOrDefault("PROJECT_FILE", DefaultProjectFile))
	if err != nil {
		return nil, err
	}
	cfg.Project = project

	if cfg.Auth, err = resolveAuthConfig(env, splitList("API_AUTH_TOKENS")); err != nil {
		return nil, err
	}

	if cfg.Provider, err = getProviderConfig(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := logger.For(logger.CONFIG)
	l.Info().Str("environment", string(env)).Msg("Settings loaded successfully")
	return cfg, nil
}

// Validate enforces the production-only requirements
func (c *Config) Validate() error {
	if !c.Environment.IsProductionLike() {
		return nil
	}
	if c.Project.Name == "" {
		return fmt.Errorf("project name must be available from the project file in %s", c.Environment)
	}
	if c.Project.Version == "" {
		return fmt.Errorf("project version must be available from the project file in %s", c.Environment)
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
