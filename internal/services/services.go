package services

import (
	"fmt"
	"time"

	"github.com/openai-api-blueprint/blueprint/internal/auth"
	"github.com/openai-api-blueprint/blueprint/internal/config"
	"github.com/openai-api-blueprint/blueprint/internal/connections"
	"github.com/openai-api-blueprint/blueprint/internal/infrastructure/openai"
	"github.com/openai-api-blueprint/blueprint/internal/infrastructure/redis"
	"github.com/openai-api-blueprint/blueprint/internal/models"
	"github.com/openai-api-blueprint/blueprint/internal/services/chat"
	"github.com/openai-api-blueprint/blueprint/pkg/logger"
	"github.com/openai-api-blueprint/blueprint/pkg/ratelimit"
)

type Services struct {
	config        *config.Config
	gate          *auth.Gate
	registry      *models.Registry
	provider      chat.Provider
	limiter       *ratelimit.Limiter
	streams       *connections.Manager
	openAIService *openai.Service
	redisService  *redis.Service
}

// InitializeServices builds every component from cfg. Nothing here is
// mutated after it returns.
func InitializeServices(cfg *config.Config) (*Services, error) {
	l := logger.For(logger.SERVICE)
	l.Info().Msg("Initializing core services")

	gate := auth.NewGate(cfg.Auth.Tokens, cfg.Auth.MinTokenLength, cfg.Auth.Strict)
	l.Info().Int("token_count", len(cfg.Auth.Tokens)).Bool("strict", cfg.Auth.Strict).Msg("Initializing auth gate")

	registry := models.DefaultRegistry(time.Now())
	if len(cfg.Models) > 0 {
		registry = models.RegistryFromIDs(cfg.Models, time.Now())
	}
	l.Info().Int("model_count", len(registry.List().Data)).Msg("Initializing model registry")

	// Initialize Redis service (optional)
	redisService := redis.NewService(cfg.Redis.URL, cfg.Redis.Password)

	limiter := ratelimit.NewLimiter(cfg.RateLimit.Window, cfg.RateLimit.MaxHits)
	if redisService != nil {
		limiter = ratelimit.NewLimiterWithStore(ratelimit.NewRedisStore(redisService.Client()), cfg.RateLimit.Window, cfg.RateLimit.MaxHits)
		l.Info().Msg("Rate limiter using Redis store")
	}
	l.Info().
		Bool("enabled", cfg.RateLimit.Enabled).
		Int("max_hits", limiter.MaxHits()).
		Dur("window", limiter.Window()).
		Bool("trust_proxy_headers", cfg.RateLimit.TrustProxyHeaders).
		Msg("Initializing rate limiter")

	var (
		provider      chat.Provider
		openAIService *openai.Service
	)
	switch cfg.Provider.Name {
	case config.ProviderOpenAI:
		openAIService = openai.NewService(cfg.Provider.OpenAIKey, cfg.Provider.OpenAIBaseURL)
		p, err := chat.NewOpenAIProvider(openAIService, cfg.Provider.UpstreamModel)
		if err != nil {
			l.Error().Err(err).Msg("Failed to initialize OpenAI provider")
			return nil, fmt.Errorf("failed to initialize completion provider: %w", err)
		}
		provider = p
	default:
		provider = chat.NewMockProvider(cfg.Provider.StreamDelay)
	}
	l.Info().Str("provider", cfg.Provider.Name).Msg("Initializing completion provider")

	l.Info().Msg("All services initialized successfully")

	return &Services{
		config:        cfg,
		gate:          gate,
		registry:      registry,
		provider:      provider,
		limiter:       limiter,
		streams:       connections.NewManager(),
		openAIService: openAIService,
		redisService:  redisService,
	}, nil
}

func (s *Services) GetConfig() *config.Config {
	return s.config
}

func (s *Services) GetAuthGate() *auth.Gate {
	return s.gate
}

func (s *Services) GetModelRegistry() *models.Registry {
	return s.registry
}

func (s *Services) GetCompletionProvider() chat.Provider {
	return s.provider
}

func (s *Services) GetRateLimiter() *ratelimit.Limiter {
	return s.limiter
}

func (s *Services) GetStreamManager() *connections.Manager {
	return s.streams
}

// Close releases connections held by optional infrastructure
func (s *Services) Close() error {
	if s.redisService != nil {
		return s.redisService.Close()
	}
	return nil
}
