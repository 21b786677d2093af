package settle

import (
	"context"
	"log"
	"time"

	"github.com/imrishuroy/go-payment-relay/internal/executor"
	"github.com/imrishuroy/go-payment-relay/internal/metrics"
	"github.com/imrishuroy/go-payment-relay/internal/payments"
	"github.com/imrishuroy/go-payment-relay/internal/queue"
	"github.com/imrishuroy/go-payment-relay/internal/store"
)

// Worker drains the ingestion queue: it stamps each payment's requestedAt
// exactly once at dequeue, then settles batches through the shared executor
// so upstream call volume never exceeds the concurrency cap regardless of
// queue depth.
type Worker struct {
	dispatcher
	queue     *queue.Queue
	batchSize int
	nowFunc   func() time.Time
}

func NewWorker(q *queue.Queue, settler *Settler, pending store.PendingQueue, exec *executor.Executor, rec metrics.Recorder, batchSize int) *Worker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Worker{
		dispatcher: dispatcher{settler: settler, pending: pending, exec: exec, metrics: rec},
		queue:      q,
		batchSize:  batchSize,
		nowFunc:    time.Now,
	}
}

// Run consumes until ctx is cancelled. A failure on one payment never stops
// the others: settlement failures become pending retries, and the loop keeps
// draining.
func (w *Worker) Run(ctx context.Context) {
	log.Println("worker: started")
	for {
		first, err := w.queue.Dequeue(ctx)
		if err != nil {
			log.Println("worker: stopping")
			return
		}

		batch := []payments.PendingPayment{w.admit(first)}
		for len(batch) < w.batchSize {
			next, ok := w.queue.TryDequeue()
			if !ok {
				break
			}
			batch = append(batch, w.admit(next))
		}

		w.dispatch(ctx, batch)
	}
}

// admit stamps the frozen requestedAt. Retries keep this timestamp, so the
// ledger reflects original submission time.
func (w *Worker) admit(p payments.Payment) payments.PendingPayment {
	return payments.PendingPayment{
		CorrelationID: p.CorrelationID,
		Amount:        p.Amount,
		RequestedAt:   w.nowFunc().UTC().Truncate(time.Millisecond),
		Hint:          payments.ProcessorNone,
	}
}
