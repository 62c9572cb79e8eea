package scheduler_test

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/syncengine/scheduler"
)

func TestRateLimit_ConsumesBurstThenBlocks(t *testing.T) {
	c := scheduler.RateLimit(rate.Every(time.Hour), 2)

	ctx := context.Background()
	if !c.Ready(ctx) {
		t.Error("first admission should pass")
	}
	if !c.Ready(ctx) {
		t.Error("second admission should pass (burst 2)")
	}
	if c.Ready(ctx) {
		t.Error("third admission should be throttled")
	}
}

func TestRateLimit_NoSignalChannel(t *testing.T) {
	c := scheduler.RateLimit(rate.Inf, 1)

	ch, cancel := c.Subscribe()
	defer cancel()
	if ch != nil {
		t.Error("rate limit condition should rely on the fallback tick")
	}
}
