package config

import (
	"time"
)

type RateLimitConfig struct {
	Enabled bool
	MaxHits int
	Window  time.Duration

	// TrustProxyHeaders keys clients on X-Forwarded-For instead of the
	// socket peer. Only enable behind a proxy that overwrites the header.
	TrustProxyHeaders bool
}

func getRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled: parseEnvBool("RATELIMIT_ENABLED", true),
		MaxHits: parseEnvInt("RATE_LIMIT_PER_MINUTE", 60), // 60 requests per minute per client
		Window:  time.Minute,

		TrustProxyHeaders: parseEnvBool("TRUST_PROXY_HEADERS", false),
	}
}
