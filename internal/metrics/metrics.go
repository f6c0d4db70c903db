package metrics

import (
	"sync/atomic"
	"time"
)

// Counter is a lock-free monotonic counter.
type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Process-wide counters for the two upstream dependencies and the shipping
// quote cache. Read by ops tooling through logs on shutdown or debugger.
var (
	GatewayCalls    Counter
	GatewayFailures Counter
	CarrierCalls    Counter
	CarrierFailures Counter

	ShippingCacheHits   Counter
	ShippingCacheMisses Counter
)
