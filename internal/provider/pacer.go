package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer limits the provider request start rate so fast category switching
// does not burst the API. A token must be acquired before each request.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a pacer emitting rps tokens per second with the given
// burst. A non-positive rps disables pacing.
func NewPacer(rps float64, burst int) *Pacer {
	if rps <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
