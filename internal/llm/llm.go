package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// Generator is a text completion model: prompt in, answer text out.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// RateLimited throttles calls to the wrapped generator. Waiting for a token
// honours ctx, so a per-call deadline also bounds time spent queued.
type RateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

// NewRateLimited wraps g with a token bucket of perSecond refill and burst
// capacity. A non-positive perSecond returns g unchanged.
func NewRateLimited(g Generator, perSecond float64, burst int) Generator {
	if perSecond <= 0 {
		return g
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: g, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *RateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Generate(ctx, prompt)
}
