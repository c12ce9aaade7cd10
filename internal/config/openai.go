package config

import (
	"fmt"
	"time"
)

const (
	ProviderMock   = "mock"
	ProviderOpenAI = "openai"
)

// ProviderConfig selects and configures the completion backend
type ProviderConfig struct {
	Name          string
	OpenAIKey     string
	OpenAIBaseURL string
	// UpstreamModel replaces the requested model id when calling the upstream,
	// the requested id is passed through when empty
	UpstreamModel string
	StreamDelay   time.Duration
}

func getProviderConfig() (ProviderConfig, error) {
	cfg := ProviderConfig{
		Name:          GetEnvOrDefault("COMPLETION_PROVIDER", ProviderMock),
		OpenAIKey:     GetEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIBaseURL: GetEnvOrDefault("OPENAI_BASE_URL", ""),
		UpstreamModel: GetEnvOrDefault("OPENAI_UPSTREAM_MODEL", ""),
		StreamDelay:   time.Duration(parseEnvInt("STREAM_DELAY_MS", 100)) * time.Millisecond,
	}

	switch cfg.Name {
	case ProviderMock:
	case ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return ProviderConfig{}, fmt.Errorf("OPENAI_API_KEY is required when COMPLETION_PROVIDER=%s", ProviderOpenAI)
		}
	default:
		return ProviderConfig{}, fmt.Errorf("unknown COMPLETION_PROVIDER %q", cfg.Name)
	}

	if cfg.StreamDelay < 0 {
		cfg.StreamDelay = 0
	}

	return cfg, nil
}
