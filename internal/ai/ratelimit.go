package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedProvider wraps a Provider with a client-side request budget so
// a burst of searches cannot burn through the upstream quota.
type RateLimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
	name    string
}

// NewRateLimitedProvider wraps inner with a token bucket. rps may be
// fractional for budgets below one call per second; burst is the number of
// calls allowed through immediately.
func NewRateLimitedProvider(inner Provider, rps float64, burst int) *RateLimitedProvider {
	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    fmt.Sprintf("%s [rate limited]", inner.Name()),
	}
}

// GenerateJSON waits for budget, then forwards to the wrapped provider.
func (p *RateLimitedProvider) GenerateJSON(ctx context.Context, prompt string, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return p.inner.GenerateJSON(ctx, prompt, out)
}

// StreamText waits for budget, then forwards to the wrapped provider.
func (p *RateLimitedProvider) StreamText(ctx context.Context, prompt string, onChunk func(chunk string)) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return p.inner.StreamText(ctx, prompt, onChunk)
}

// GenerateImage waits for budget, then forwards to the wrapped provider.
func (p *RateLimitedProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return p.inner.GenerateImage(ctx, prompt)
}

// Name returns the wrapped provider name with a rate-limited marker.
func (p *RateLimitedProvider) Name() string {
	return p.name
}

var _ Provider = (*RateLimitedProvider)(nil)
