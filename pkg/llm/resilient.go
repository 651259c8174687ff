package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/studysphere/pkg/retry"
)

// Request outcomes reported to a RequestRecorder.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeCircuitOpen = "circuit_open"
)

// RequestRecorder receives one observation per adapter call.
// pkg/metrics implements it with a Prometheus counter.
type RequestRecorder interface {
	RecordLLMRequest(provider, operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordLLMRequest(string, string, string) {}

// ResilientOptions configures a ResilientClient.
type ResilientOptions struct {
	Provider   string
	Timeout    time.Duration // per attempt; 0 disables
	MaxRetries int
	Breaker    CircuitBreakerConfig
	// Retry overrides the backoff derived from MaxRetries. Tests use it to
	// remove delays.
	Retry *retry.Config
}

// ResilientClient wraps a provider client with per-attempt timeouts,
// retries for transient failures, a circuit breaker and request metrics.
// Streaming calls are never retried since deltas may already have been sent.
type ResilientClient struct {
	inner    LLMClient
	provider string
	timeout  time.Duration
	retryCfg *retry.Config
	breaker  *CircuitBreaker
	recorder RequestRecorder
	logger   *zap.Logger
}

// NewResilientClient wraps inner. A nil recorder disables metrics.
func NewResilientClient(inner LLMClient, opts ResilientOptions, recorder RequestRecorder, logger *zap.Logger) *ResilientClient {
	if recorder == nil {
		recorder = nopRecorder{}
	}

	c := &ResilientClient{
		inner:    inner,
		provider: opts.Provider,
		timeout:  opts.Timeout,
		retryCfg: opts.Retry,
		breaker:  NewCircuitBreaker(opts.Breaker),
		recorder: recorder,
		logger:   logger.Named("llm.resilient"),
	}
	if c.retryCfg == nil {
		c.retryCfg = retry.ModelCallConfig(opts.MaxRetries)
	}
	c.retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		c.logger.Warn("Retrying model request",
			zap.String("provider", c.provider),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))
	}
	return c
}

// GenerateResponse runs the completion with retries for retryable errors.
func (c *ResilientClient) GenerateResponse(ctx context.Context, req *CompletionRequest) (*GenerateResponseResult, error) {
	operation := OperationFrom(ctx)

	if err := c.breaker.Allow(); err != nil {
		c.recorder.RecordLLMRequest(c.provider, operation, OutcomeCircuitOpen)
		return nil, err.(*Error).withContext(c.inner.GetModel(), c.inner.GetEndpoint())
	}

	result, err := retry.DoIfRetryable(ctx, c.retryCfg, func() (*GenerateResponseResult, error) {
		attemptCtx, cancel := c.attemptContext(ctx)
		defer cancel()

		res, err := c.inner.GenerateResponse(attemptCtx, req)
		if err != nil {
			return nil, ClassifyError(err).withContext(c.inner.GetModel(), c.inner.GetEndpoint())
		}
		return res, nil
	})

	c.finish(operation, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StreamChat streams a single attempt through the breaker.
func (c *ResilientClient) StreamChat(ctx context.Context, req *ChatRequest, eventChan chan<- StreamEvent) error {
	operation := OperationFrom(ctx)

	if err := c.breaker.Allow(); err != nil {
		c.recorder.RecordLLMRequest(c.provider, operation, OutcomeCircuitOpen)
		return err.(*Error).withContext(c.inner.GetModel(), c.inner.GetEndpoint())
	}

	err := c.inner.StreamChat(ctx, req, eventChan)
	if err != nil {
		err = ClassifyError(err).withContext(c.inner.GetModel(), c.inner.GetEndpoint())
	}
	c.finish(operation, err)
	return err
}

// GetModel returns the wrapped client's model.
func (c *ResilientClient) GetModel() string {
	return c.inner.GetModel()
}

// GetEndpoint returns the wrapped client's endpoint.
func (c *ResilientClient) GetEndpoint() string {
	return c.inner.GetEndpoint()
}

// BreakerState exposes the circuit state for health reporting.
func (c *ResilientClient) BreakerState() CircuitState {
	return c.breaker.State()
}

func (c *ResilientClient) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// finish records the outcome. A caller that went away says nothing about
// provider health, so cancellation does not count against the breaker.
func (c *ResilientClient) finish(operation string, err error) {
	switch {
	case err == nil:
		c.breaker.RecordSuccess()
		c.recorder.RecordLLMRequest(c.provider, operation, OutcomeSuccess)
	case ClassifyError(err).Type == ErrorTypeCanceled:
		c.recorder.RecordLLMRequest(c.provider, operation, OutcomeError)
	default:
		c.breaker.RecordFailure()
		c.recorder.RecordLLMRequest(c.provider, operation, OutcomeError)
	}
}
