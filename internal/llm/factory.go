package llm

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stitts-dev/fight-edge/pkg/config"
)

// HealthReporter is implemented by backends that expose breaker state and token usage.
type HealthReporter interface {
	IsHealthy() bool
	Usage() Usage
}

// NewBackend builds the backend selected by LLM_PROVIDER.
func NewBackend(cfg *config.Config, logger *logrus.Logger) (Backend, error) {
	switch cfg.LLMProvider {
	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		return NewClaudeClient(ClaudeConfig{
			APIKey:           cfg.AnthropicAPIKey,
			BaseURL:          cfg.AnthropicBaseURL,
			Model:            cfg.AnthropicModel,
			RequestsPerMin:   cfg.AIRateLimit,
			Timeout:          cfg.AIRequestTimeout,
			FailureThreshold: cfg.CircuitBreakerThreshold,
		}, logger), nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey:           cfg.OpenAIAPIKey,
			Model:            cfg.OpenAIModel,
			RequestsPerMin:   cfg.AIRateLimit,
			Timeout:          cfg.AIRequestTimeout,
			FailureThreshold: cfg.CircuitBreakerThreshold,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}
