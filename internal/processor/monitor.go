package processor

import (
	"context"
	"log"
	"time"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

// Monitor periodically probes both processors and publishes the preferred one
// to the routing table. The signal is advisory: workers use it only to order
// their two attempts, never to skip one.
type Monitor struct {
	defaultClient     Client
	fallbackClient    Client
	routing           *RoutingTable
	interval          time.Duration
	maxResponseTimeMs int
}

func NewMonitor(defaultClient, fallbackClient Client, routing *RoutingTable, interval time.Duration, maxResponseTimeMs int) *Monitor {
	return &Monitor{
		defaultClient:     defaultClient,
		fallbackClient:    fallbackClient,
		routing:           routing,
		interval:          interval,
		maxResponseTimeMs: maxResponseTimeMs,
	}
}

// Run probes once immediately, then on every tick until ctx is cancelled.
// A failure inside one cycle never stops subsequent cycles.
func (m *Monitor) Run(ctx context.Context) {
	m.checkSafely(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkSafely(ctx)
		}
	}
}

func (m *Monitor) checkSafely(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("monitor: recovered from panic during health check: %v", r)
		}
	}()
	m.check(ctx)
}

// check probes default then fallback (order fixed) and derives the signal:
// the first processor that is not failing and answers within the latency
// threshold wins; otherwise the signal is none.
func (m *Monitor) check(ctx context.Context) {
	previous := m.routing.Preferred()

	preferred := payments.ProcessorNone
	if m.qualifies(m.defaultClient.ProbeHealth(ctx)) {
		preferred = payments.ProcessorDefault
	} else if m.qualifies(m.fallbackClient.ProbeHealth(ctx)) {
		preferred = payments.ProcessorFallback
	}

	m.routing.Set(preferred)
	if preferred != previous {
		log.Printf("monitor: preferred processor changed %s -> %s", previous, preferred)
	}
}

func (m *Monitor) qualifies(h Health) bool {
	return !h.Failing && h.MinResponseTime <= m.maxResponseTimeMs
}
