package config

import (
	"github.com/rs/zerolog/log"
)

type RedisConfig struct {
	URL      string
	Password string
}

func getRedisConfig() RedisConfig {
	cfg := RedisConfig{
		URL:      GetEnvOrDefault("REDIS_URL", ""),
		Password: GetEnvOrDefault("REDIS_PASSWORD", ""),
	}
	if cfg.URL == "" {
		log.Debug().Msg("REDIS_URL not set - rate limiting will use in-memory storage")
	}
	return cfg
}
