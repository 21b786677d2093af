// Package metrics counts settlement outcomes. The default recorder is a
// no-op; deployments on the aws backend can publish to CloudWatch.
package metrics

import (
	"context"

	"github.com/imrishuroy/go-payment-relay/internal/payments"
)

// Recorder receives settlement counters. Implementations must be cheap and
// must never fail the settlement path.
type Recorder interface {
	PaymentSettled(ctx context.Context, p payments.Processor)
	RetryQueued(ctx context.Context)
}

// Noop discards all counters.
type Noop struct{}

func (Noop) PaymentSettled(context.Context, payments.Processor) {}
func (Noop) RetryQueued(context.Context)                        {}
