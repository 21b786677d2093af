// Package settle holds the core settlement algorithm and the two loops that
// drive it: the worker pool draining the ingestion queue and the sweeper
// retrying pending payments.
package settle

import (
	"context"
	"log"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
	"github.com/imrishuroy/go-payment-relay/internal/processor"
	"github.com/imrishuroy/go-payment-relay/internal/store"
)

// Disposition is the tagged outcome of one settlement pass. The settler has
// exactly one side effect (the ledger write on success); the caller owns the
// requeue side effect for retries.
type Disposition struct {
	Settled   bool
	Processor payments.Processor // the processor that settled, when Settled
	Hint      payments.Processor // routing hint for the retry, when !Settled
}

// Settler runs the two-hop failover: at most two upstream calls plus one
// ledger write, bounded by the per-call timeout.
type Settler struct {
	defaultClient  processor.Client
	fallbackClient processor.Client
	ledger         store.Ledger
	routing        *processor.RoutingTable // optional advisory signal
}

func NewSettler(defaultClient, fallbackClient processor.Client, ledger store.Ledger, routing *processor.RoutingTable) *Settler {
	return &Settler{
		defaultClient:  defaultClient,
		fallbackClient: fallbackClient,
		ledger:         ledger,
		routing:        routing,
	}
}

// Settle attempts both processors in order and records the winner. Failure to
// settle is an expected, recoverable condition reported through the
// disposition, never an error. If the entry has a routing hint (or the health
// monitor has published one), it only reorders the two attempts; an attempt
// is never skipped on the say-so of a possibly-stale signal.
func (s *Settler) Settle(ctx context.Context, p payments.PendingPayment) Disposition {
	req := processor.ChargeRequest{
		CorrelationID: p.CorrelationID,
		Amount:        p.Amount,
		RequestedAt:   p.RequestedAt,
	}

	var (
		lastResult processor.Result
		lastTried  payments.Processor
	)
	for _, client := range s.attemptOrder(p.Hint) {
		result := client.Submit(ctx, req)
		if result.Settled() {
			if result == processor.ResultDuplicate {
				log.Printf("settle: payment %s already processed by %s", p.CorrelationID, client.Name())
			}
			entry := payments.LedgerEntry{
				CorrelationID: p.CorrelationID,
				Amount:        p.Amount,
				RequestedAt:   p.RequestedAt,
				Processor:     client.Name(),
			}
			if err := s.ledger.Record(ctx, entry); err != nil {
				// The processor accepted the payment but the ledger write
				// failed. Retry through the same processor: its duplicate
				// response resolves the entry without double counting.
				log.Printf("settle: ledger write failed for %s: %v", p.CorrelationID, err)
				return Disposition{Hint: client.Name()}
			}
			return Disposition{Settled: true, Processor: client.Name()}
		}
		lastResult = result
		lastTried = client.Name()
	}

	// A timeout means the payment may have landed; steer the retry back to
	// the processor that timed out so the duplicate check runs there first.
	hint := payments.ProcessorNone
	if lastResult == processor.ResultTimeout {
		hint = lastTried
	}
	log.Printf("settle: payment %s failed on both processors (last: %s on %s)", p.CorrelationID, lastResult, lastTried)
	return Disposition{Hint: hint}
}

// attemptOrder is default-then-fallback unless the entry's hint, or failing
// that the advisory routing signal, prefers the fallback.
func (s *Settler) attemptOrder(hint payments.Processor) [2]processor.Client {
	preferred := hint
	if preferred == payments.ProcessorNone && s.routing != nil {
		preferred = s.routing.Preferred()
	}
	if preferred == payments.ProcessorFallback {
		return [2]processor.Client{s.fallbackClient, s.defaultClient}
	}
	return [2]processor.Client{s.defaultClient, s.fallbackClient}
}
