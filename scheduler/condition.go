package scheduler

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/xraph/syncengine/netstate"
)

// Condition is an external readiness requirement gating job execution.
// Network reachability is the canonical condition; additional condition
// types plug in through the same interface.
type Condition interface {
	// Name identifies the condition in logs.
	Name() string

	// Ready reports whether the condition currently holds. Ready may be
	// called repeatedly; conditions that consume an admission budget
	// (e.g. rate limits) should be registered last so earlier gates are
	// checked first.
	Ready(ctx context.Context) bool

	// Subscribe registers for a pulse whenever the condition's state may
	// have changed. A nil channel means the condition has no signal and
	// relies on the scheduler's periodic fallback re-check. The cancel
	// function releases the subscription.
	Subscribe() (<-chan struct{}, func())
}

// ──────────────────────────────────────────────────
// Network
// ──────────────────────────────────────────────────

// NetworkCondition gates execution on network reachability.
type NetworkCondition struct {
	provider netstate.Provider
}

// Network creates the reachability condition from a netstate provider.
func Network(p netstate.Provider) *NetworkCondition {
	return &NetworkCondition{provider: p}
}

// Name implements Condition.
func (c *NetworkCondition) Name() string { return "network" }

// Ready implements Condition.
func (c *NetworkCondition) Ready(_ context.Context) bool {
	return c.provider.Online()
}

// Subscribe implements Condition.
func (c *NetworkCondition) Subscribe() (<-chan struct{}, func()) {
	return c.provider.Subscribe()
}

// ──────────────────────────────────────────────────
// Rate limit
// ──────────────────────────────────────────────────

// RateLimitCondition throttles attempt admission with a token bucket.
// Ready consumes a token when one is available, so register it after all
// pure checks.
type RateLimitCondition struct {
	limiter *rate.Limiter
}

// RateLimit creates a rate-limit condition admitting r attempts per second
// with the given burst.
func RateLimit(r rate.Limit, burst int) *RateLimitCondition {
	return &RateLimitCondition{limiter: rate.NewLimiter(r, burst)}
}

// Name implements Condition.
func (c *RateLimitCondition) Name() string { return "rate_limit" }

// Ready implements Condition.
func (c *RateLimitCondition) Ready(_ context.Context) bool {
	return c.limiter.Allow()
}

// Subscribe implements Condition. Token refill is purely time-driven, so
// there is no change signal; the scheduler's fallback tick re-checks.
func (c *RateLimitCondition) Subscribe() (<-chan struct{}, func()) {
	return nil, func() {}
}
