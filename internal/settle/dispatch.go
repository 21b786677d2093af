package settle

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/imrishuroy/go-payment-relay/internal/executor"
	"github.com/imrishuroy/go-payment-relay/internal/metrics"
	"github.com/imrishuroy/go-payment-relay/internal/payments"
	"github.com/imrishuroy/go-payment-relay/internal/store"
)

// dispatcher drives batches of pending payments through the settler with
// bounded concurrency and requeues the ones that still need a retry. Shared
// by the worker pool and the sweeper so both paths behave identically.
type dispatcher struct {
	settler *Settler
	pending store.PendingQueue
	exec    *executor.Executor
	metrics metrics.Recorder
}

// dispatch runs one batch. If cancellation stops admission partway, the
// never-admitted items are pushed straight to the pending store; a payment is
// never dropped.
func (d *dispatcher) dispatch(ctx context.Context, batch []payments.PendingPayment) {
	var (
		mu      sync.Mutex
		started = make([]bool, len(batch))
	)

	tasks := make([]executor.Task, len(batch))
	for i, item := range batch {
		i, item := i, item
		tasks[i] = func(ctx context.Context) error {
			mu.Lock()
			started[i] = true
			mu.Unlock()
			d.settleOne(ctx, item)
			return nil
		}
	}

	if err := d.exec.RunAll(ctx, tasks, nil); err != nil {
		// Admission was cut short; park the leftovers for the sweeper.
		leftover := context.WithoutCancel(ctx)
		mu.Lock()
		defer mu.Unlock()
		for i, ok := range started {
			if !ok {
				d.requeue(leftover, batch[i])
			}
		}
	}
}

func (d *dispatcher) settleOne(ctx context.Context, item payments.PendingPayment) {
	disposition := d.settler.Settle(ctx, item)
	if disposition.Settled {
		d.metrics.PaymentSettled(ctx, disposition.Processor)
		return
	}
	item.Hint = disposition.Hint
	// The push must outlive a shutdown in progress: finishing the in-flight
	// attempt includes parking its retry.
	d.requeue(context.WithoutCancel(ctx), item)
}

// requeue pushes the item back to the pending store, retrying the push itself
// a few times. Losing a payment is never acceptable, so the final failure is
// logged loudly for operator intervention.
func (d *dispatcher) requeue(ctx context.Context, item payments.PendingPayment) {
	d.metrics.RetryQueued(ctx)

	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = d.pending.Push(ctx, item); err == nil {
			return
		}
		time.Sleep(time.Duration(attempt+1) * 50 * time.Millisecond)
	}
	log.Printf("settle: FAILED to requeue payment %s after retries: %v", item.CorrelationID, err)
}
