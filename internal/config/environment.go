package config

import (
	"strings"

	"github.com/rs/zerolog/log"
)

type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// ParseEnvironment normalises an ENVIRONMENT value. Unknown values fall back
// to development.
func ParseEnvironment(raw string) Environment {
	switch env := Environment(strings.ToLower(strings.TrimSpace(raw))); env {
	case Development, Test, Staging, Production:
		return env
	case "":
		return Development
	default:
		log.Warn().Str("environment", raw).Msg("Invalid ENVIRONMENT value, defaulting to development")
		return Development
	}
}

// IsProductionLike reports whether strict validation applies
func (e Environment) IsProductionLike() bool {
	return e == Production || e == Staging
}
