package processor

import (
	"sync/atomic"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

// RoutingTable is the shared advisory cell: single writer (the health
// monitor), many readers (settlement workers). Reads are non-blocking and may
// observe a stale value; settlement correctness never depends on it.
type RoutingTable struct {
	preferred atomic.Value
}

func NewRoutingTable() *RoutingTable {
	t := &RoutingTable{}
	t.preferred.Store(payments.ProcessorNone)
	return t
}

func (t *RoutingTable) Set(p payments.Processor) {
	t.preferred.Store(p)
}

// Preferred returns the current advisory signal, ProcessorNone when the
// monitor has not qualified either processor yet.
func (t *RoutingTable) Preferred() payments.Processor {
	return t.preferred.Load().(payments.Processor)
}
