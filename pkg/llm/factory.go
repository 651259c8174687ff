package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/config"
)

// NewClientFromConfig builds the provider client named by cfg.Provider and
// wraps it in a ResilientClient.
func NewClientFromConfig(cfg *config.LLMConfig, recorder RequestRecorder, logger *zap.Logger) (*ResilientClient, error) {
	providerCfg := &Config{
		Endpoint: config.ResolveURLForDocker(cfg.Endpoint),
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
	}

	var (
		inner LLMClient
		err   error
	)
	switch cfg.Provider {
	case config.ProviderOpenAI, "":
		inner, err = NewClient(providerCfg, logger)
	case config.ProviderAnthropic:
		// The shared endpoint default points at OpenAI.
		if providerCfg.Endpoint == config.DefaultLLMEndpoint {
			providerCfg.Endpoint = AnthropicEndpoint
		}
		inner, err = NewAnthropicClient(providerCfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}

	provider := cfg.Provider
	if provider == "" {
		provider = config.ProviderOpenAI
	}

	return NewResilientClient(inner, ResilientOptions{
		Provider:   provider,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		Breaker: CircuitBreakerConfig{
			Threshold: cfg.CircuitThreshold,
		},
	}, recorder, logger), nil
}
