package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	MinTokenLength  = 16
	DevTokenPrefix  = "dev_"
	TestTokenPrefix = "test_"
)

// AuthConfig holds the bearer token allow-list. It is resolved once at startup
// and never reloaded.
type AuthConfig struct {
	Tokens         []string
	MinTokenLength int
	// Strict turns short tokens into hard failures instead of warnings
	Strict bool
}

func resolveAuthConfig(env Environment, tokens []string) (AuthConfig, error) {
	strict := env.IsProductionLike()

	if len(tokens) == 0 {
		switch env {
		case Development:
			devToken, err := generateDevToken()
			if err != nil {
				return AuthConfig{}, err
			}
			tokens = []string{devToken}
			log.Warn().
				Str("token", devToken).
				Msg("DEVELOPMENT: no API tokens configured, using an auto-generated development token. This would not be allowed in production")
		case Test:
			tokens = []string{TestTokenPrefix + "key"}
			log.Warn().Msg("TESTING: using the fixed test token. This would not be allowed in production")
		default:
			return AuthConfig{}, fmt.Errorf("no API authentication tokens configured in %s environment", env)
		}
	}

	for _, token := range tokens {
		if len(token) >= MinTokenLength {
			continue
		}
		if strict {
			return AuthConfig{}, fmt.Errorf("API token is too short (less than %d characters): %q...", MinTokenLength, preview(token))
		}
		log.Warn().
			Str("token_prefix", preview(token)).
			Int("min_length", MinTokenLength).
			Msg("API token is too short. This would be rejected in production")
	}

	return AuthConfig{
		Tokens:         tokens,
		MinTokenLength: MinTokenLength,
		Strict:         strict,
	}, nil
}

func generateDevToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate development token: %w", err)
	}
	return DevTokenPrefix + base64.RawURLEncoding.EncodeToString(buf), nil
}

func preview(token string) string {
	if len(token) > 4 {
		return token[:4]
	}
	return ""
}
