package scheduler

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	// BaseTick is the period of the timing source.
	BaseTick = 4 * time.Millisecond
	// TicksPerSample is the number of base ticks between samples.
	TicksPerSample = 500
	// SamplePeriod is the resulting sampling period.
	SamplePeriod = BaseTick * TicksPerSample
)

// TickCounter counts base ticks. Inc is the only writer and may run on
// another goroutine or in an interrupt handler; Due is called by the loop.
type TickCounter struct {
	n atomic.Uint32
}

// Inc records one base tick.
func (c *TickCounter) Inc() {
	c.n.Add(1)
}

// Pending returns the number of ticks counted since the last sample.
func (c *TickCounter) Pending() uint32 {
	return c.n.Load()
}

// Due reports whether a sample is due and, if so, takes one sampling
// period worth of ticks off the counter. Ticks beyond the period carry over.
func (c *TickCounter) Due() bool {
	for {
		n := c.n.Load()
		if n < TicksPerSample {
			return false
		}
		if c.n.CompareAndSwap(n, n-TicksPerSample) {
			return true
		}
	}
}

// Run increments the counter every BaseTick until ctx is done.
func (c *TickCounter) Run(ctx context.Context) {
	ticker := time.NewTicker(BaseTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Inc()
		}
	}
}
