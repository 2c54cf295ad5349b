package search

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Pacer gates outbound catalog queries. Wait blocks until the next query may
// be issued.
type Pacer interface {
	Wait(ctx context.Context) error
}

// RatePacer spaces queries evenly at a fixed number of calls per second with
// no burst, so consecutive queries are never closer than 1/perSecond apart.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer creates a pacer for perSecond calls per second. A non-positive
// rate disables pacing.
func NewRatePacer(perSecond float64) *RatePacer {
	if perSecond <= 0 {
		return &RatePacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RatePacer{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Wait blocks until a query is allowed or ctx is done.
func (p *RatePacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "search: pacer wait")
	}
	return nil
}

// Limit returns the configured rate.
func (p *RatePacer) Limit() rate.Limit {
	return p.limiter.Limit()
}
