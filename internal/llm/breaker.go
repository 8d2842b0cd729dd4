package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/healthguide/go-triage/internal/triage"
	"github.com/healthguide/go-triage/pkg/circuitbreaker"
)

// BreakerClient decorates an Assessor with per-call circuit breakers so a
// degraded model endpoint fails fast instead of stalling triage turns. The
// orchestrator's deterministic fallback handles the resulting errors.
type BreakerClient struct {
	inner   triage.Assessor
	assess  *circuitbreaker.CircuitBreaker
	respond *circuitbreaker.CircuitBreaker
}

// NewBreakerClient wraps an Assessor with circuit breakers from the manager.
func NewBreakerClient(inner triage.Assessor, manager *circuitbreaker.Manager, logger *zap.Logger) (*BreakerClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	assess, err := manager.GetOrCreate("llm-assess", circuitbreaker.DefaultConfig("llm-assess"))
	if err != nil {
		return nil, err
	}
	respond, err := manager.GetOrCreate("llm-respond", circuitbreaker.DefaultConfig("llm-respond"))
	if err != nil {
		return nil, err
	}

	return &BreakerClient{inner: inner, assess: assess, respond: respond}, nil
}

// Assess runs the assessment call through its breaker.
func (b *BreakerClient) Assess(ctx context.Context, history []triage.Message, latest string) (triage.Result, error) {
	result, err := b.assess.Execute(ctx, func() (interface{}, error) {
		return b.inner.Assess(ctx, history, latest)
	})
	if err != nil {
		return triage.Result{}, err
	}
	return result.(triage.Result), nil
}

// Respond runs the reply call through its breaker.
func (b *BreakerClient) Respond(ctx context.Context, messages []triage.Message, history []triage.Message) (string, error) {
	result, err := b.respond.Execute(ctx, func() (interface{}, error) {
		return b.inner.Respond(ctx, messages, history)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
